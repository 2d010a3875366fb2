package service

import (
	"context"
	"datahub/internal/repo"
	"datahub/model"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileValidationFailure(t *testing.T) {
	snapshot := validationSnapshot{
		Metadata:  model.ValidationPassed,
		File:      model.ValidationWarning,
		Cross:     model.ValidationError,
		UpdatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	both := []string{model.ValidationTypeMetadata, model.ValidationTypeFile}

	t.Run("no new metadata restores snapshot", func(t *testing.T) {
		updates, vacuous := reconcileValidationFailure(snapshot, both, both, CodeNoNewValidationMetadata)
		assert.False(t, vacuous)
		assert.Equal(t, model.ValidationPassed, updates["metadata_validation_status"])
		assert.Equal(t, model.ValidationWarning, updates["file_validation_status"])
		assert.Equal(t, snapshot.UpdatedAt, updates["updated_at"])
		assert.NotContains(t, updates, "cross_submission_status")
	})

	t.Run("no metadata at all resets to NA and is vacuous", func(t *testing.T) {
		updates, vacuous := reconcileValidationFailure(snapshot, both, both, CodeNoValidationMetadata)
		assert.True(t, vacuous)
		assert.Equal(t, model.ValidationNA, updates["metadata_validation_status"])
		assert.Equal(t, model.ValidationNA, updates["file_validation_status"])
	})

	t.Run("cross failure rolls back only the cross field", func(t *testing.T) {
		types := []string{model.ValidationTypeMetadata, model.ValidationTypeCross}
		updates, vacuous := reconcileValidationFailure(snapshot, types, types, CodeCrossSubmissionFailure)
		assert.False(t, vacuous)
		assert.Equal(t, model.ValidationError, updates["cross_submission_status"])
		assert.NotContains(t, updates, "metadata_validation_status")
	})

	t.Run("unknown code restores every requested field", func(t *testing.T) {
		types := []string{model.ValidationTypeCross}
		updates, _ := reconcileValidationFailure(snapshot, types, nil, "SOMETHING_ELSE")
		assert.Equal(t, model.ValidationError, updates["cross_submission_status"])
		assert.NotContains(t, updates, "metadata_validation_status")
		assert.NotContains(t, updates, "file_validation_status")
	})

	t.Run("partial failure restores only the types that did not run", func(t *testing.T) {
		failed := []string{model.ValidationTypeFile}
		updates, vacuous := reconcileValidationFailure(snapshot, both, failed, CodeEngineUnavailable)
		assert.False(t, vacuous)
		assert.Equal(t, model.ValidationWarning, updates["file_validation_status"])
		assert.NotContains(t, updates, "metadata_validation_status",
			"a check that ran keeps its Validating mark for the engine to resolve")
	})
}

func TestEngineErrorWrapsValidationFailure(t *testing.T) {
	err := &EngineError{Code: CodeEngineUnavailable}
	assert.True(t, errors.Is(err, ErrValidationInFlight))
}

// stubEngine fails every run with a fixed structured code.
type stubEngine struct {
	code string
}

func (e *stubEngine) Validate(ctx context.Context, req ValidationRequest) error {
	return &EngineError{Code: e.code, Types: req.Types}
}

func (e *stubEngine) CountNodes(ctx context.Context, submissionID uint64) (int64, error) {
	return 0, nil
}

func (e *stubEngine) SubmissionStats(ctx context.Context, submissionID uint64) (map[string]int64, error) {
	return map[string]int64{}, nil
}

func TestValidateSubmissionVacuousRun(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	subs := newTestSubmissionService()
	actor := submitterActor(1, org.ID)

	sub, err := subs.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "empty", StudyID: "phs-600", DataCommons: "CDS",
		Intention: model.IntentionNew, DataType: model.DataTypeMetadataOnly,
	})
	require.NoError(t, err)

	svc := NewValidationService(repo.Db, &stubEngine{code: CodeNoValidationMetadata})
	record, err := svc.ValidateSubmission(ctx, actor, sub.ID, []string{model.ValidationTypeMetadata}, "all")
	require.NoError(t, err, "a run against no metadata is vacuously successful")
	require.NotNil(t, record)
	assert.Equal(t, model.ValidationRunError, record.Status)

	var current model.Submission
	require.NoError(t, repo.Db.First(&current, sub.ID).Error)
	assert.Equal(t, model.ValidationNA, current.MetadataValidationStatus)
}

func TestValidateSubmissionRollsBackOnEngineFailure(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	subs := newTestSubmissionService()
	actor := submitterActor(1, org.ID)

	sub, err := subs.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "rollback", StudyID: "phs-601", DataCommons: "CDS",
		Intention: model.IntentionNew, DataType: model.DataTypeMetadataOnly,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Db.Model(&model.Submission{}).
		Where("id = ?", sub.ID).
		Update("metadata_validation_status", model.ValidationPassed).Error)

	svc := NewValidationService(repo.Db, &stubEngine{code: CodeEngineUnavailable})
	_, err = svc.ValidateSubmission(ctx, actor, sub.ID, []string{model.ValidationTypeMetadata}, "all")
	require.Error(t, err)
	var engineErr *EngineError
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, CodeEngineUnavailable, engineErr.Code)

	var current model.Submission
	require.NoError(t, repo.Db.First(&current, sub.ID).Error)
	assert.Equal(t, model.ValidationPassed, current.MetadataValidationStatus,
		"failed run must restore the pre-call status")
}

func TestValidateSubmissionRejectsFileTypeForMetadataOnly(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	subs := newTestSubmissionService()
	actor := submitterActor(1, org.ID)

	sub, err := subs.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "meta", StudyID: "phs-602", DataCommons: "CDS",
		Intention: model.IntentionNew, DataType: model.DataTypeMetadataOnly,
	})
	require.NoError(t, err)

	svc := NewValidationService(repo.Db, &stubEngine{code: CodeEngineUnavailable})
	_, err = svc.ValidateSubmission(ctx, actor, sub.ID, []string{model.ValidationTypeFile}, "all")
	require.ErrorIs(t, err, ErrInvalidState)
}
