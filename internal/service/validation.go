package service

import (
	"context"
	"datahub/model"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ValidationRequest asks the engine to run one validation pass.
type ValidationRequest struct {
	SubmissionID uint64
	RunID        string
	Types        []string
	Scope        string
}

// ValidationEngine is the external data-record validation collaborator.
type ValidationEngine interface {
	Validate(ctx context.Context, req ValidationRequest) error
	CountNodes(ctx context.Context, submissionID uint64) (int64, error)
	SubmissionStats(ctx context.Context, submissionID uint64) (map[string]int64, error)
}

// validationSnapshot captures the fields restored on rollback.
type validationSnapshot struct {
	Metadata  string
	File      string
	Cross     string
	UpdatedAt time.Time
}

// ValidationService starts, tracks and reconciles validation runs.
type ValidationService struct {
	db     *gorm.DB
	engine ValidationEngine
}

// NewValidationService wires the orchestrator to the validation engine.
func NewValidationService(db *gorm.DB, engine ValidationEngine) *ValidationService {
	return &ValidationService{db: db, engine: engine}
}

// ValidateSubmission snapshots the current validation fields, marks the
// requested types Validating, records the run, and hands off to the engine.
// Engine failures are reconciled per type by structured failure code; a
// vacuous run (nothing to validate) succeeds with the fields reset to NA.
func (s *ValidationService) ValidateSubmission(ctx context.Context, actor Actor, submissionID uint64, types []string, scope string) (*model.ValidationRecord, error) {
	var sub model.Submission
	if err := s.db.WithContext(ctx).Where("id = ?", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := Authorize(actor, &sub, ActionValidate); err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, ErrInvalidState
	}
	for _, t := range types {
		switch t {
		case model.ValidationTypeMetadata, model.ValidationTypeFile, model.ValidationTypeCross:
		default:
			return nil, ErrInvalidState
		}
		if t == model.ValidationTypeFile && sub.DataType == model.DataTypeMetadataOnly {
			return nil, ErrInvalidState
		}
	}

	snapshot := validationSnapshot{
		Metadata:  sub.MetadataValidationStatus,
		File:      sub.FileValidationStatus,
		Cross:     sub.CrossSubmissionStatus,
		UpdatedAt: sub.UpdatedAt,
	}

	now := time.Now()
	record := &model.ValidationRecord{
		SubmissionID: submissionID,
		RunID:        uuid.NewString(),
		Types:        strings.Join(types, ","),
		Scope:        scope,
		Status:       model.ValidationRunValidating,
		StartedAt:    now,
	}

	marks := statusUpdatesFor(types, model.ValidationValidating)
	marks["validation_started"] = now
	marks["validation_ended"] = nil
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Submission{}).
			Where("id = ?", submissionID).
			Updates(marks).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}

	engineErr := s.engine.Validate(ctx, ValidationRequest{
		SubmissionID: submissionID,
		RunID:        record.RunID,
		Types:        types,
		Scope:        scope,
	})
	if engineErr == nil {
		return record, nil
	}

	var structured *EngineError
	if !errors.As(engineErr, &structured) {
		structured = &EngineError{Code: CodeEngineUnavailable, Types: types, Message: engineErr.Error()}
	}

	updates, vacuous := reconcileValidationFailure(snapshot, types, structured.Types, structured.Code)
	ended := time.Now()
	rollbackErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Submission{}).
			Where("id = ?", submissionID).
			UpdateColumns(updates).Error; err != nil {
			return err
		}
		return tx.Model(&model.ValidationRecord{}).
			Where("id = ?", record.ID).
			Updates(map[string]interface{}{
				"status":   model.ValidationRunError,
				"ended_at": ended,
			}).Error
	})
	if rollbackErr != nil {
		return record, rollbackErr
	}
	record.Status = model.ValidationRunError
	record.EndedAt = &ended

	if vacuous {
		return record, nil
	}
	return record, structured
}

// reconcileValidationFailure computes the submission field updates for a
// failed engine call. Per requested type whose check did not run: a repeat
// failure with no new data restores the pre-call value; no data at all
// resets the field to NA and the run counts as vacuously successful; a
// cross-submission-specific failure rolls back only the cross field and
// leaves the others as marked. failed narrows the restored set to the types
// the engine reported; when empty, every requested type is assumed failed.
func reconcileValidationFailure(snapshot validationSnapshot, requested, failed []string, code string) (map[string]interface{}, bool) {
	updates := map[string]interface{}{
		"updated_at": snapshot.UpdatedAt,
	}
	vacuous := false

	notRun := failed
	if len(notRun) == 0 {
		notRun = requested
	}
	restore := func(t string) bool {
		return typeRequested(requested, t) && typeRequested(notRun, t)
	}

	switch code {
	case CodeNoValidationMetadata:
		for k := range statusUpdatesFor(requested, "") {
			updates[k] = model.ValidationNA
		}
		vacuous = true
	case CodeCrossSubmissionFailure:
		if typeRequested(requested, model.ValidationTypeCross) {
			updates["cross_submission_status"] = snapshot.Cross
		}
	default:
		// CodeNoNewValidationMetadata, CodeEngineUnavailable and any
		// unknown code restore the requested fields whose check did not run.
		if restore(model.ValidationTypeMetadata) {
			updates["metadata_validation_status"] = snapshot.Metadata
		}
		if restore(model.ValidationTypeFile) {
			updates["file_validation_status"] = snapshot.File
		}
		if restore(model.ValidationTypeCross) {
			updates["cross_submission_status"] = snapshot.Cross
		}
	}
	return updates, vacuous
}

// statusUpdatesFor maps requested validation types to their submission
// columns, all set to the given value.
func statusUpdatesFor(types []string, value string) map[string]interface{} {
	updates := map[string]interface{}{}
	for _, t := range types {
		switch t {
		case model.ValidationTypeMetadata:
			updates["metadata_validation_status"] = value
		case model.ValidationTypeFile:
			updates["file_validation_status"] = value
		case model.ValidationTypeCross:
			updates["cross_submission_status"] = value
		}
	}
	return updates
}

func typeRequested(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

// Stats proxies record counts from the validation engine.
func (s *ValidationService) Stats(ctx context.Context, actor Actor, submissionID uint64) (map[string]int64, error) {
	var sub model.Submission
	if err := s.db.WithContext(ctx).Where("id = ?", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := Authorize(actor, &sub, ActionView); err != nil {
		return nil, err
	}
	return s.engine.SubmissionStats(ctx, submissionID)
}
