package service

import (
	"datahub/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSelectReminderCandidates(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	daysAgo := func(d int) time.Time { return now.Add(-time.Duration(d) * 24 * time.Hour) }
	finalDays := 10
	reminderDays := []int{7, 3}

	subs := []model.Submission{
		// 8 days inactive: past both thresholds, the smaller day-count
		// (closer to deletion) claims it.
		{ID: 1, Status: model.SubmissionInProgress, AccessedAt: daysAgo(8)},
		// 4 days inactive: only the 7-days-left threshold crossed.
		{ID: 2, Status: model.SubmissionNew, AccessedAt: daysAgo(4)},
		// 1 day inactive: nothing crossed yet.
		{ID: 3, Status: model.SubmissionInProgress, AccessedAt: daysAgo(1)},
		// Already reminded: never picked again.
		{ID: 4, Status: model.SubmissionInProgress, AccessedAt: daysAgo(9), InactiveReminder: true},
		// Not a remindable status.
		{ID: 5, Status: model.SubmissionReleased, AccessedAt: daysAgo(9)},
		// Withdrawn submissions still get inactivity reminders.
		{ID: 6, Status: model.SubmissionWithdrawn, AccessedAt: daysAgo(8)},
	}

	picks := selectReminderCandidates(subs, reminderDays, finalDays, now)

	byID := map[uint64]int{}
	for _, p := range picks {
		byID[p.Submission.ID] = p.DaysLeft
	}
	assert.Len(t, picks, 3)
	assert.Equal(t, 3, byID[1])
	assert.Equal(t, 7, byID[2])
	assert.Equal(t, 3, byID[6])
	assert.NotContains(t, byID, uint64(3))
	assert.NotContains(t, byID, uint64(4))
	assert.NotContains(t, byID, uint64(5))
}

func TestSelectReminderCandidatesDedupesAcrossDayCounts(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sub := model.Submission{
		ID:         7,
		Status:     model.SubmissionRejected,
		AccessedAt: now.Add(-119 * 24 * time.Hour),
	}

	picks := selectReminderCandidates([]model.Submission{sub}, []int{7, 30, 60}, 120, now)
	assert.Len(t, picks, 1, "one submission is picked once per run regardless of thresholds crossed")
	assert.Equal(t, 7, picks[0].DaysLeft)
}
