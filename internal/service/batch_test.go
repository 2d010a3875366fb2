package service

import (
	"context"
	"datahub/internal/repo"
	"datahub/model"
	"errors"
	"testing"
	"time"
)

func TestAggregateBatchStatus(t *testing.T) {
	mk := func(statuses ...string) []model.BatchFile {
		files := make([]model.BatchFile, 0, len(statuses))
		for _, s := range statuses {
			files = append(files, model.BatchFile{Status: s})
		}
		return files
	}

	cases := []struct {
		name     string
		files    []model.BatchFile
		want     string
		wantDone bool
	}{
		{"pending file keeps uploading", mk(model.FileUploaded, model.FileNew), model.BatchUploading, false},
		{"all uploaded", mk(model.FileUploaded, model.FileUploaded), model.BatchUploaded, true},
		{"partial success still uploaded", mk(model.FileUploaded, model.FileFailed), model.BatchUploaded, true},
		{"all failed", mk(model.FileFailed, model.FileFailed), model.BatchFailed, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, done := aggregateBatchStatus(tc.files)
			if got != tc.want || done != tc.wantDone {
				t.Fatalf("aggregateBatchStatus = (%s, %v), want (%s, %v)", got, done, tc.want, tc.wantDone)
			}
		})
	}
}

func TestCreateBatchAdvancesSubmissionOnce(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	subs := newTestSubmissionService()
	batches := NewBatchService(repo.Db, newFakeStore(), time.Hour)
	actor := submitterActor(1, org.ID)

	sub, err := subs.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "batches", StudyID: "phs-500", DataCommons: "CDS",
		Intention: model.IntentionNew, DataType: model.DataTypeMetadataAndFiles,
	})
	if err != nil {
		t.Fatal(err)
	}

	files := []BatchFileInput{{FileName: "participants.tsv", Size: 100}}
	batch, targets, err := batches.CreateBatch(ctx, actor, sub.ID, model.BatchTypeMetadata, files)
	if err != nil {
		t.Fatal(err)
	}
	if batch.Status != model.BatchUploading {
		t.Fatalf("expected Uploading, got %s", batch.Status)
	}
	if len(targets) != 1 || targets[0].UploadURL == "" {
		t.Fatalf("expected one presigned target, got %v", targets)
	}

	if _, _, err := batches.CreateBatch(ctx, actor, sub.ID, model.BatchTypeMetadata, files); err != nil {
		t.Fatal(err)
	}

	var current model.Submission
	if err := repo.Db.First(&current, sub.ID).Error; err != nil {
		t.Fatal(err)
	}
	if current.Status != model.SubmissionInProgress {
		t.Fatalf("expected In Progress, got %s", current.Status)
	}
	var advances int64
	if err := repo.Db.Model(&model.SubmissionHistory{}).
		Where("submission_id = ? AND status = ?", sub.ID, model.SubmissionInProgress).
		Count(&advances).Error; err != nil {
		t.Fatal(err)
	}
	if advances != 1 {
		t.Fatalf("expected the In Progress advance to land once, got %d history rows", advances)
	}
}

func TestCreateBatchRejectsDataFilesForMetadataOnly(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	subs := newTestSubmissionService()
	batches := NewBatchService(repo.Db, newFakeStore(), time.Hour)
	actor := submitterActor(1, org.ID)

	sub, err := subs.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "meta-only", StudyID: "phs-501", DataCommons: "CDS",
		Intention: model.IntentionNew, DataType: model.DataTypeMetadataOnly,
	})
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = batches.CreateBatch(ctx, actor, sub.ID, model.BatchTypeDataFile,
		[]BatchFileInput{{FileName: "image.dcm", Size: 10}})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestUpdateBatchFlagsFileValidation(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	org := createTestOrg(t)
	subs := newTestSubmissionService()
	batches := NewBatchService(repo.Db, newFakeStore(), time.Hour)
	actor := submitterActor(1, org.ID)

	sub, err := subs.CreateSubmission(ctx, actor, CreateSubmissionInput{
		Name: "files", StudyID: "phs-502", DataCommons: "CDS",
		Intention: model.IntentionNew, DataType: model.DataTypeMetadataAndFiles,
	})
	if err != nil {
		t.Fatal(err)
	}
	batch, _, err := batches.CreateBatch(ctx, actor, sub.ID, model.BatchTypeDataFile,
		[]BatchFileInput{{FileName: "a.bam", Size: 1}, {FileName: "b.bam", Size: 2}})
	if err != nil {
		t.Fatal(err)
	}

	// One result in: batch stays Uploading.
	updated, err := batches.UpdateBatch(ctx, actor, batch.ID, []FileResult{
		{FileName: "a.bam", Status: model.FileUploaded, Size: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != model.BatchUploading {
		t.Fatalf("expected Uploading while a file is pending, got %s", updated.Status)
	}

	updated, err = batches.UpdateBatch(ctx, actor, batch.ID, []FileResult{
		{FileName: "b.bam", Status: model.FileFailed, Size: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != model.BatchUploaded {
		t.Fatalf("expected Uploaded, got %s", updated.Status)
	}

	var current model.Submission
	if err := repo.Db.First(&current, sub.ID).Error; err != nil {
		t.Fatal(err)
	}
	if current.FileValidationStatus != model.ValidationNew {
		t.Fatalf("expected file validation flagged New, got %q", current.FileValidationStatus)
	}
}
