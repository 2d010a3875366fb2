package service

import (
	"context"
	"datahub/internal/storage"
	"datahub/model"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// statuses a submission must be in before new batches may be attached.
var batchableStatuses = []string{
	model.SubmissionNew,
	model.SubmissionInProgress,
	model.SubmissionWithdrawn,
	model.SubmissionRejected,
}

// BatchService creates and advances upload batches for a submission.
type BatchService struct {
	db           *gorm.DB
	store        storage.Store
	uploadExpiry time.Duration
}

// NewBatchService wires the batch coordinator to its collaborators.
func NewBatchService(db *gorm.DB, store storage.Store, uploadExpiry time.Duration) *BatchService {
	return &BatchService{
		db:           db,
		store:        store,
		uploadExpiry: uploadExpiry,
	}
}

// BatchFileInput declares one file of a new batch.
type BatchFileInput struct {
	FileName string
	Size     int64
}

// FileUploadTarget pairs a declared file with its presigned upload URL.
type FileUploadTarget struct {
	FileName  string
	UploadURL string
}

// FileResult reports the terminal upload outcome of one batch file.
type FileResult struct {
	FileName string
	Status   string
	Size     int64
}

// CreateBatch opens a new Uploading batch and, when the submission was
// sitting in New/Withdrawn/Rejected, advances it to In Progress exactly once.
func (s *BatchService) CreateBatch(ctx context.Context, actor Actor, submissionID uint64, batchType string, files []BatchFileInput) (*model.Batch, []FileUploadTarget, error) {
	sub, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}
	if err := Authorize(actor, sub, ActionCreateBatch); err != nil {
		return nil, nil, err
	}
	if !statusIn(sub.Status, batchableStatuses) {
		return nil, nil, ErrInvalidState
	}
	if batchType == model.BatchTypeDataFile &&
		(sub.Intention == model.IntentionDelete || sub.DataType == model.DataTypeMetadataOnly) {
		return nil, nil, ErrInvalidState
	}
	if sub.BucketName == "" {
		return nil, nil, ErrNoStorageBucket
	}
	if len(files) == 0 {
		return nil, nil, ErrInvalidState
	}

	batch := &model.Batch{
		SubmissionID: submissionID,
		Type:         batchType,
		Status:       model.BatchUploading,
		FileCount:    len(files),
		UploaderID:   actor.ID,
	}
	if batchType == model.BatchTypeMetadata {
		batch.MetadataIntention = sub.Intention
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(batch).Error; err != nil {
			return err
		}
		for _, f := range files {
			if err := tx.Create(&model.BatchFile{
				BatchID:    batch.ID,
				FileName:   f.FileName,
				ObjectName: batchObjectKey(sub.RootPath, batch, f.FileName),
				Status:     model.FileNew,
				Size:       f.Size,
			}).Error; err != nil {
				return err
			}
		}
		// Effect-once advance: racing creators all attempt this, at most
		// one conditional update lands.
		res := tx.Model(&model.Submission{}).
			Where("id = ? AND status IN ?", submissionID, []string{
				model.SubmissionNew, model.SubmissionWithdrawn, model.SubmissionRejected,
			}).
			Updates(map[string]interface{}{
				"status":      model.SubmissionInProgress,
				"accessed_at": time.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Create(&model.SubmissionHistory{
				SubmissionID: submissionID,
				ActorID:      actor.ID,
				Status:       model.SubmissionInProgress,
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	targets := make([]FileUploadTarget, 0, len(files))
	for _, f := range files {
		key := batchObjectKey(sub.RootPath, batch, f.FileName)
		url, err := s.store.PresignedPutObject(ctx, sub.BucketName, key, s.uploadExpiry)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
		targets = append(targets, FileUploadTarget{FileName: f.FileName, UploadURL: url})
	}
	return batch, targets, nil
}

// UpdateBatch applies per-file upload results and computes the aggregate
// batch status. Flags the submission for file validation when a data-file
// batch lands fully uploaded.
func (s *BatchService) UpdateBatch(ctx context.Context, actor Actor, batchID uint64, results []FileResult) (*model.Batch, error) {
	var batch model.Batch
	if err := s.db.WithContext(ctx).Where("id = ?", batchID).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sub, err := s.loadSubmission(ctx, batch.SubmissionID)
	if err != nil {
		return nil, err
	}
	if actor.ID == 0 {
		return nil, ErrNotLoggedIn
	}
	if !isSubmitterOrOrgOwner(actor, sub) {
		return nil, ErrInvalidPermission
	}
	if batch.Status != model.BatchUploading {
		return nil, ErrInvalidState
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, r := range results {
			if r.Status != model.FileUploaded && r.Status != model.FileFailed {
				return ErrInvalidState
			}
			res := tx.Model(&model.BatchFile{}).
				Where("batch_id = ? AND file_name = ?", batchID, r.FileName).
				Updates(map[string]interface{}{
					"status": r.Status,
					"size":   r.Size,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrNotFound
			}
		}

		var batchFiles []model.BatchFile
		if err := tx.Where("batch_id = ?", batchID).Find(&batchFiles).Error; err != nil {
			return err
		}
		status, done := aggregateBatchStatus(batchFiles)
		if !done {
			return nil
		}

		res := tx.Model(&model.Batch{}).
			Where("id = ? AND status = ?", batchID, model.BatchUploading).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentModification
		}
		batch.Status = status

		if status == model.BatchUploaded && batch.Type == model.BatchTypeDataFile {
			return tx.Model(&model.Submission{}).
				Where("id = ?", batch.SubmissionID).
				Update("file_validation_status", model.ValidationNew).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListBatches returns a submission's batches, newest first.
func (s *BatchService) ListBatches(ctx context.Context, actor Actor, submissionID uint64) ([]model.Batch, error) {
	sub, err := s.loadSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, sub, ActionView); err != nil {
		return nil, err
	}
	var batches []model.Batch
	err = s.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&batches).Error
	return batches, err
}

// aggregateBatchStatus reduces per-file statuses to a batch status. The
// batch is done once every file reports a terminal status; it is Uploaded
// only when at least one file made it.
func aggregateBatchStatus(files []model.BatchFile) (string, bool) {
	uploaded := 0
	for _, f := range files {
		switch f.Status {
		case model.FileUploaded:
			uploaded++
		case model.FileFailed:
		default:
			return model.BatchUploading, false
		}
	}
	if uploaded > 0 {
		return model.BatchUploaded, true
	}
	return model.BatchFailed, true
}

func isSubmitterOrOrgOwner(actor Actor, sub *model.Submission) bool {
	if actor.ID == sub.SubmitterID {
		return true
	}
	return actor.Role == model.RoleOrgOwner && actor.OrgID == sub.OrgID
}

func batchObjectKey(rootPath string, batch *model.Batch, fileName string) string {
	dir := "metadata"
	if batch.Type == model.BatchTypeDataFile {
		dir = "file"
	}
	return fmt.Sprintf("%s/%s/batch-%d/%s", rootPath, dir, batch.ID, fileName)
}

func (s *BatchService) loadSubmission(ctx context.Context, id uint64) (*model.Submission, error) {
	var sub model.Submission
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}
