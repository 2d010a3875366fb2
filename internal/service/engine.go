package service

import (
	"context"
	"datahub/model"
	"encoding/json"

	"gorm.io/gorm"
)

// ValidationMessage is the payload sent to the validation workers.
type ValidationMessage struct {
	SubmissionID uint64   `json:"submission_id"`
	RunID        string   `json:"run_id"`
	Types        []string `json:"types"`
	Scope        string   `json:"scope"`
}

// ValidationPublisher sends validation requests to the engine's queue.
type ValidationPublisher interface {
	PublishValidation(ctx context.Context, body []byte) error
}

// QueueEngine triggers validation runs by publishing request messages; the
// long-running checks execute out of process and report back through the
// submission's validation status fields.
type QueueEngine struct {
	db        *gorm.DB
	publisher ValidationPublisher
}

// NewQueueEngine builds the production validation engine client.
func NewQueueEngine(db *gorm.DB, publisher ValidationPublisher) *QueueEngine {
	return &QueueEngine{db: db, publisher: publisher}
}

// Validate pre-checks that there is anything to validate, then fires the
// request. Failures carry structured codes for the orchestrator's rollback.
func (e *QueueEngine) Validate(ctx context.Context, req ValidationRequest) error {
	if typeRequested(req.Types, model.ValidationTypeMetadata) {
		nodes, err := e.CountNodes(ctx, req.SubmissionID)
		if err != nil {
			return &EngineError{Code: CodeEngineUnavailable, Types: req.Types, Message: err.Error()}
		}
		if nodes == 0 {
			return &EngineError{Code: CodeNoValidationMetadata, Types: req.Types}
		}
	}

	body, err := json.Marshal(ValidationMessage{
		SubmissionID: req.SubmissionID,
		RunID:        req.RunID,
		Types:        req.Types,
		Scope:        req.Scope,
	})
	if err != nil {
		return &EngineError{Code: CodeEngineUnavailable, Types: req.Types, Message: err.Error()}
	}
	if err := e.publisher.PublishValidation(ctx, body); err != nil {
		return &EngineError{Code: CodeEngineUnavailable, Types: req.Types, Message: err.Error()}
	}
	return nil
}

// CountNodes counts the loaded records available for validation, proxied by
// the submission's successfully uploaded batch files.
func (e *QueueEngine) CountNodes(ctx context.Context, submissionID uint64) (int64, error) {
	var count int64
	err := e.db.WithContext(ctx).Model(&model.BatchFile{}).
		Joins("JOIN batch ON batch.id = batch_file.batch_id").
		Where("batch.submission_id = ? AND batch_file.status = ?", submissionID, model.FileUploaded).
		Count(&count).Error
	return count, err
}

// SubmissionStats breaks uploaded record counts down by batch type.
func (e *QueueEngine) SubmissionStats(ctx context.Context, submissionID uint64) (map[string]int64, error) {
	type row struct {
		Type  string
		Total int64
	}
	var rows []row
	err := e.db.WithContext(ctx).Model(&model.BatchFile{}).
		Select("batch.type AS type, COUNT(*) AS total").
		Joins("JOIN batch ON batch.id = batch_file.batch_id").
		Where("batch.submission_id = ? AND batch_file.status = ?", submissionID, model.FileUploaded).
		Group("batch.type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(rows))
	for _, r := range rows {
		stats[r.Type] = r.Total
	}
	return stats, nil
}
