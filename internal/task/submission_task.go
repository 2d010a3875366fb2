package task

import (
	"bytes"
	"context"
	"datahub/config"
	"datahub/internal/repo"
	"datahub/internal/service"
	"datahub/internal/storage"
	"datahub/model"
	"datahub/utils"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// manifestEntry is one line of the released-data manifest uploaded next to
// the submission's files.
type manifestEntry struct {
	ObjectName string `json:"object_name"`
	Size       int64  `json:"size"`
}

type manifest struct {
	SubmissionID uint64          `json:"submission_id"`
	StudyID      string          `json:"study_id"`
	DataCommons  string          `json:"data_commons"`
	GeneratedAt  time.Time       `json:"generated_at"`
	Files        []manifestEntry `json:"files"`
}

// ProcessCompletion runs the post-complete side effects: it writes the data
// manifest into the submission's storage directory and mails the submitter.
// A message for a submission no longer in Completed is dropped.
func ProcessCompletion(ctx context.Context, submissionID uint64) error {
	var sub model.Submission
	if err := repo.Db.WithContext(ctx).Where("id = ?", submissionID).First(&sub).Error; err != nil {
		return err
	}
	if sub.Status != model.SubmissionCompleted {
		return nil
	}

	if err := writeManifest(ctx, &sub); err != nil {
		return err
	}

	var submitter model.User
	if err := repo.Db.WithContext(ctx).Where("id = ?", sub.SubmitterID).First(&submitter).Error; err != nil {
		return err
	}
	notifier := utils.NewEmailNotifier(config.AppConfig.PortalURL)
	if err := notifier.SendCompletionNotice(submitter.Email, &sub); err != nil {
		logrus.Warnf("completion task: notify submitter for submission %d failed: %v", sub.ID, err)
	}
	return nil
}

func writeManifest(ctx context.Context, sub *model.Submission) error {
	if sub.BucketName == "" {
		return nil
	}
	objects, err := storage.Default.ListObjects(ctx, sub.BucketName, sub.RootPath)
	if err != nil {
		return err
	}
	m := manifest{
		SubmissionID: sub.ID,
		StudyID:      sub.StudyID,
		DataCommons:  sub.DataCommons,
		GeneratedAt:  time.Now(),
		Files:        make([]manifestEntry, 0, len(objects)),
	}
	for _, obj := range objects {
		m.Files = append(m.Files, manifestEntry{ObjectName: obj.ObjectName, Size: obj.Size})
	}
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}
	object := sub.RootPath + "/manifest.json"
	return storage.Default.PutObject(ctx, sub.BucketName, object, bytes.NewReader(body), int64(len(body)),
		storage.PutOptions{ContentType: "application/json"})
}

// ProcessBulkDelete removes the requested metadata records from a submission
// and clears the in-progress deletion flag when done. The flag is cleared
// even when some records could not be removed so the submission is not left
// locked.
func ProcessBulkDelete(ctx context.Context, submissionID uint64, nodeType string, nodeIDs []string) error {
	var sub model.Submission
	if err := repo.Db.WithContext(ctx).Where("id = ?", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	procErr := deleteRecords(ctx, &sub, nodeType, nodeIDs)

	clearErr := repo.Db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND deleting_data = ?", submissionID, true).
		Update("deleting_data", false).Error
	if procErr != nil {
		return procErr
	}
	return clearErr
}

func deleteRecords(ctx context.Context, sub *model.Submission, nodeType string, nodeIDs []string) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	var files []model.BatchFile
	err := repo.Db.WithContext(ctx).
		Joins("JOIN batch ON batch.id = batch_file.batch_id").
		Where("batch.submission_id = ? AND batch.type = ? AND batch_file.file_name IN ?",
			sub.ID, nodeType, nodeIDs).
		Find(&files).Error
	if err != nil {
		return err
	}

	var failed int
	for i := range files {
		f := &files[i]
		if sub.BucketName != "" && f.ObjectName != "" {
			if err := storage.Default.RemoveObject(ctx, sub.BucketName, f.ObjectName); err != nil {
				logrus.Warnf("bulk delete: remove object %s for submission %d failed: %v", f.ObjectName, sub.ID, err)
				failed++
				continue
			}
		}
		if err := repo.Db.WithContext(ctx).Delete(f).Error; err != nil {
			logrus.Warnf("bulk delete: drop row %d for submission %d failed: %v", f.ID, sub.ID, err)
			failed++
		}
	}
	if failed > 0 {
		return service.ErrStorageFailure
	}
	return nil
}
