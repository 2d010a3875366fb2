package service

import "datahub/model"

// Notifier sends portal notifications. Implementations are fire-and-forget
// templates; this core only supplies recipients and parameters.
type Notifier interface {
	SendInactivityWarning(to string, sub *model.Submission, daysLeft int) error
	SendFinalInactivityWarning(to string, sub *model.Submission) error
	SendCompletionNotice(to string, sub *model.Submission) error
}
