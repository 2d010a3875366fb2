package service

import (
	"context"
	"datahub/internal/storage"
	"datahub/model"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// statuses eligible for inactivity reminders and final notices.
var reminderStatuses = []string{
	model.SubmissionNew,
	model.SubmissionInProgress,
	model.SubmissionRejected,
	model.SubmissionWithdrawn,
}

// statuses the purge may delete for inactivity. Withdrawn submissions are
// reminded but never purged; only a user transition moves them on.
var purgeStatuses = []string{
	model.SubmissionNew,
	model.SubmissionInProgress,
	model.SubmissionRejected,
}

// Scanner runs the periodic inactivity and retention jobs.
type Scanner struct {
	db           *gorm.DB
	store        storage.Store
	notifier     Notifier
	submissions  *SubmissionService
	reminderDays []int
	finalDays    int
	retention    time.Duration
}

// NewScanner wires the scanner to its collaborators. reminderDays are the
// configured reminder day-counts, finalDays the full retention window for
// inactive submissions, retention the window for completed ones.
func NewScanner(db *gorm.DB, store storage.Store, notifier Notifier, submissions *SubmissionService, reminderDays []int, finalDays, completedRetentionDays int) *Scanner {
	return &Scanner{
		db:           db,
		store:        store,
		notifier:     notifier,
		submissions:  submissions,
		reminderDays: reminderDays,
		finalDays:    finalDays,
		retention:    time.Duration(completedRetentionDays) * 24 * time.Hour,
	}
}

// Run executes one full scan: reminders, final notices, purge, archive.
func (s *Scanner) Run(ctx context.Context) error {
	if err := s.RunReminders(ctx); err != nil {
		return err
	}
	if err := s.RunFinalReminders(ctx); err != nil {
		return err
	}
	if err := s.PurgeInactive(ctx); err != nil {
		return err
	}
	return s.ArchiveCompleted(ctx)
}

// RunReminders notifies submitters of inactive submissions, once per
// threshold crossing, and flips the reminder flag in one batched update.
func (s *Scanner) RunReminders(ctx context.Context) error {
	now := time.Now()

	var candidates []model.Submission
	err := s.db.WithContext(ctx).
		Where("status IN ? AND inactive_reminder = ?", reminderStatuses, false).
		Find(&candidates).Error
	if err != nil {
		return err
	}

	selected := selectReminderCandidates(candidates, s.reminderDays, s.finalDays, now)
	var notified []uint64
	for _, pick := range selected {
		email, err := s.submitterEmail(ctx, pick.Submission.SubmitterID)
		if err != nil {
			logrus.Warnf("inactivity scan: resolve submitter for submission %d failed: %v", pick.Submission.ID, err)
			continue
		}
		if err := s.notifier.SendInactivityWarning(email, &pick.Submission, pick.DaysLeft); err != nil {
			logrus.Warnf("inactivity scan: notify submission %d failed: %v", pick.Submission.ID, err)
			continue
		}
		notified = append(notified, pick.Submission.ID)
	}
	if len(notified) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id IN ?", notified).
		Update("inactive_reminder", true).Error
}

// RunFinalReminders sends the last warning one day before deletion to
// submissions already reminded once.
func (s *Scanner) RunFinalReminders(ctx context.Context) error {
	cutoff := time.Now().Add(-time.Duration(s.finalDays-1) * 24 * time.Hour)

	var candidates []model.Submission
	err := s.db.WithContext(ctx).
		Where("status IN ? AND inactive_reminder = ? AND final_inactive_reminder = ? AND accessed_at < ?",
			reminderStatuses, true, false, cutoff).
		Find(&candidates).Error
	if err != nil {
		return err
	}

	var notified []uint64
	for i := range candidates {
		sub := &candidates[i]
		email, err := s.submitterEmail(ctx, sub.SubmitterID)
		if err != nil {
			logrus.Warnf("inactivity scan: resolve submitter for submission %d failed: %v", sub.ID, err)
			continue
		}
		if err := s.notifier.SendFinalInactivityWarning(email, sub); err != nil {
			logrus.Warnf("inactivity scan: final notice for submission %d failed: %v", sub.ID, err)
			continue
		}
		notified = append(notified, sub.ID)
	}
	if len(notified) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id IN ?", notified).
		Update("final_inactive_reminder", true).Error
}

// PurgeInactive deletes submissions past the full retention window. Storage
// is cleared first; a submission whose cleanup fails is skipped and reported
// while the rest of the batch proceeds.
func (s *Scanner) PurgeInactive(ctx context.Context) error {
	cutoff := time.Now().Add(-time.Duration(s.finalDays) * 24 * time.Hour)

	var expired []model.Submission
	err := s.db.WithContext(ctx).
		Where("status IN ? AND accessed_at < ?", purgeStatuses, cutoff).
		Find(&expired).Error
	if err != nil {
		return err
	}

	for i := range expired {
		sub := &expired[i]
		if err := s.store.RemovePrefix(ctx, sub.BucketName, sub.RootPath); err != nil {
			logrus.Warnf("inactivity purge: clear storage for submission %d failed: %v", sub.ID, err)
			continue
		}
		if err := s.dropSubmissionData(ctx, sub.ID); err != nil {
			logrus.Warnf("inactivity purge: drop rows for submission %d failed: %v", sub.ID, err)
			continue
		}
		if err := s.submissions.DeleteForInactivity(ctx, sub.ID); err != nil {
			logrus.Warnf("inactivity purge: delete submission %d failed: %v", sub.ID, err)
		}
	}
	return nil
}

// ArchiveCompleted archives Completed submissions past the retention
// window, clearing their storage directory first.
func (s *Scanner) ArchiveCompleted(ctx context.Context) error {
	cutoff := time.Now().Add(-s.retention)

	var completed []model.Submission
	err := s.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", model.SubmissionCompleted, cutoff).
		Find(&completed).Error
	if err != nil {
		return err
	}

	for i := range completed {
		sub := &completed[i]
		if err := s.store.RemovePrefix(ctx, sub.BucketName, sub.RootPath); err != nil {
			logrus.Warnf("archive scan: clear storage for submission %d failed: %v", sub.ID, err)
			continue
		}
		if err := s.submissions.Archive(ctx, sub.ID); err != nil {
			logrus.Warnf("archive scan: archive submission %d failed: %v", sub.ID, err)
		}
	}
	return nil
}

func (s *Scanner) dropSubmissionData(ctx context.Context, submissionID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("batch_id IN (?)",
			tx.Model(&model.Batch{}).Select("id").Where("submission_id = ?", submissionID),
		).Delete(&model.BatchFile{}).Error; err != nil {
			return err
		}
		return tx.Where("submission_id = ?", submissionID).Delete(&model.Batch{}).Error
	})
}

func (s *Scanner) submitterEmail(ctx context.Context, userID uint64) (string, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return "", err
	}
	return user.Email, nil
}

// reminderPick pairs a due submission with the day-count it was selected
// under (the days remaining before deletion).
type reminderPick struct {
	Submission model.Submission
	DaysLeft   int
}

// selectReminderCandidates picks, per configured reminder day-count, the
// submissions whose inactivity crossed that threshold. Day-counts are
// walked ascending so a submission close to deletion is claimed by the
// smallest applicable day-count and never re-notified under a larger one
// in the same run.
func selectReminderCandidates(subs []model.Submission, reminderDays []int, finalDays int, now time.Time) []reminderPick {
	days := append([]int(nil), reminderDays...)
	sort.Ints(days)

	taken := make(map[uint64]bool, len(subs))
	var picks []reminderPick
	for _, day := range days {
		cutoff := now.Add(-time.Duration(finalDays-day) * 24 * time.Hour)
		for i := range subs {
			sub := subs[i]
			if taken[sub.ID] || sub.InactiveReminder {
				continue
			}
			if !statusIn(sub.Status, reminderStatuses) {
				continue
			}
			if sub.AccessedAt.Before(cutoff) {
				taken[sub.ID] = true
				picks = append(picks, reminderPick{Submission: sub, DaysLeft: day})
			}
		}
	}
	return picks
}
