package service

import (
	"context"
	"datahub/internal/repo"
	"datahub/model"
	"errors"
	"sync"
	"testing"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		action Action
		from   string
		want   bool
	}{
		{ActionSubmit, model.SubmissionNew, true},
		{ActionSubmit, model.SubmissionInProgress, true},
		{ActionSubmit, model.SubmissionSubmitted, false},
		{ActionRelease, model.SubmissionSubmitted, true},
		{ActionRelease, model.SubmissionInProgress, false},
		{ActionReject, model.SubmissionSubmitted, true},
		{ActionReject, model.SubmissionInReview, true},
		{ActionReject, model.SubmissionReleased, false},
		{ActionWithdraw, model.SubmissionSubmitted, true},
		{ActionWithdraw, model.SubmissionReleased, false},
		{ActionCancel, model.SubmissionNew, true},
		{ActionCancel, model.SubmissionInProgress, true},
		{ActionCancel, model.SubmissionSubmitted, false},
		{ActionComplete, model.SubmissionReleased, true},
		{ActionComplete, model.SubmissionSubmitted, false},
		{ActionView, model.SubmissionNew, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.action, tc.from); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.action, tc.from, got, tc.want)
		}
	}
}

func newTestSubmissionService() *SubmissionService {
	return NewSubmissionService(repo.Db, nil, "test-bucket")
}

func TestSubmissionLifecycle(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	svc := newTestSubmissionService()
	actor := submitterActor(1, org.ID)

	sub, err := svc.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name:        "lifecycle",
		StudyID:     "phs-100",
		DataCommons: "CDS",
		Intention:   model.IntentionNew,
		DataType:    model.DataTypeMetadataOnly,
	})
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != model.SubmissionNew {
		t.Fatalf("expected New, got %s", sub.Status)
	}
	if sub.FileValidationStatus != model.ValidationNA {
		t.Fatalf("metadata-only submission should start with file validation NA, got %q", sub.FileValidationStatus)
	}
	if sub.RootPath == "" || sub.BucketName != "test-bucket" {
		t.Fatalf("storage coordinates not fixed at creation: %q %q", sub.BucketName, sub.RootPath)
	}

	// First submit from a non-privileged role needs a comment.
	if _, err := svc.Submit(ctx, actor, sub.ID, ""); !errors.Is(err, ErrCommentRequired) {
		t.Fatalf("expected ErrCommentRequired, got %v", err)
	}
	if _, err := svc.Submit(ctx, actor, sub.ID, "initial load"); err != nil {
		t.Fatal(err)
	}

	// Reject always needs a comment.
	curator := curatorActor(2)
	if _, err := svc.Reject(ctx, curator, sub.ID, ""); !errors.Is(err, ErrCommentRequired) {
		t.Fatalf("expected ErrCommentRequired on reject, got %v", err)
	}
	if _, err := svc.Reject(ctx, curator, sub.ID, "missing consent data"); err != nil {
		t.Fatal(err)
	}

	// Rejected is not a submit source; the submission re-enters In Progress
	// through a new upload batch first.
	if _, err := svc.Submit(ctx, actor, sub.ID, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from Rejected, got %v", err)
	}

	history, err := svc.GetHistory(ctx, actor, sub.ID)
	if err != nil {
		t.Fatal(err)
	}
	wantStatuses := []string{model.SubmissionNew, model.SubmissionSubmitted, model.SubmissionRejected}
	if len(history) != len(wantStatuses) {
		t.Fatalf("expected %d history rows, got %d", len(wantStatuses), len(history))
	}
	for i, want := range wantStatuses {
		if history[i].Status != want {
			t.Fatalf("history[%d] = %s, want %s", i, history[i].Status, want)
		}
	}

	var current model.Submission
	if err := repo.Db.First(&current, sub.ID).Error; err != nil {
		t.Fatal(err)
	}
	if history[len(history)-1].Status != current.Status {
		t.Fatalf("last history status %s does not match current %s", history[len(history)-1].Status, current.Status)
	}
}

func TestReleaseGuardBlocksSubmittedSibling(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	svc := newTestSubmissionService()
	actor := submitterActor(1, org.ID)
	curator := curatorActor(2)

	first, err := svc.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "first", StudyID: "phs-200", DataCommons: "CDS",
		Intention: model.IntentionNew, DataType: model.DataTypeMetadataOnly,
	})
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "second", StudyID: "phs-200", DataCommons: "CDS",
		Intention: model.IntentionNew, DataType: model.DataTypeMetadataOnly,
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Submit(ctx, actor, first.ID, "ready"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Submit(ctx, actor, second.ID, "ready"); err != nil {
		t.Fatal(err)
	}

	// Sibling sits in Submitted and cross-submission validation never passed.
	if _, err := svc.Release(ctx, curator, first.ID, ""); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected release blocked, got %v", err)
	}

	if err := repo.Db.Model(&model.Submission{}).
		Where("id = ?", first.ID).
		Update("cross_submission_status", model.ValidationPassed).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Release(ctx, curator, first.ID, ""); err != nil {
		t.Fatalf("release should pass with cross-submission Passed, got %v", err)
	}
}

func TestConcurrentSubmitSingleWinner(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	svc := newTestSubmissionService()
	actor := submitterActor(1, org.ID)

	sub, err := svc.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "race", StudyID: "phs-300", DataCommons: "CDS",
		Intention: model.IntentionNew, DataType: model.DataTypeMetadataOnly,
	})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Submit(ctx, actor, sub.ID, "racing")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrConcurrentModification) && !errors.Is(err, ErrInvalidState) {
			t.Fatalf("unexpected loser error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one winner, got %d", succeeded)
	}

	var count int64
	if err := repo.Db.Model(&model.SubmissionHistory{}).
		Where("submission_id = ? AND status = ?", sub.ID, model.SubmissionSubmitted).
		Count(&count).Error; err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected a single Submitted history row, got %d", count)
	}
}

func TestDeleteIntentionRequiresMetadataOnly(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	svc := newTestSubmissionService()
	actor := submitterActor(1, org.ID)

	_, err := svc.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "bad", StudyID: "phs-400", DataCommons: "CDS",
		Intention: model.IntentionDelete, DataType: model.DataTypeMetadataAndFiles,
	})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
