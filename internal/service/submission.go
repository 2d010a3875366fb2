package service

import (
	"context"
	"datahub/model"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// transitionRule describes one user-driven state machine edge.
type transitionRule struct {
	From []string
	To   string
}

// transitions is the canonical user-driven transition table. Role gating is
// enforced separately by the Authorization Gate.
var transitions = map[Action]transitionRule{
	ActionSubmit: {
		From: []string{model.SubmissionNew, model.SubmissionInProgress},
		To:   model.SubmissionSubmitted,
	},
	ActionRelease: {
		From: []string{model.SubmissionSubmitted},
		To:   model.SubmissionReleased,
	},
	ActionReject: {
		From: []string{model.SubmissionSubmitted, model.SubmissionInReview},
		To:   model.SubmissionRejected,
	},
	ActionWithdraw: {
		From: []string{model.SubmissionSubmitted},
		To:   model.SubmissionWithdrawn,
	},
	ActionCancel: {
		From: []string{model.SubmissionNew, model.SubmissionInProgress},
		To:   model.SubmissionCanceled,
	},
	ActionComplete: {
		From: []string{model.SubmissionReleased},
		To:   model.SubmissionCompleted,
	},
}

// CanTransition reports whether an action is legal from the given status.
func CanTransition(action Action, status string) bool {
	rule, ok := transitions[action]
	if !ok {
		return false
	}
	return statusIn(status, rule.From)
}

func statusIn(status string, set []string) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// SubmissionService owns the submission aggregate and its state machine.
type SubmissionService struct {
	db         *gorm.DB
	dispatcher *Dispatcher
	bucket     string
}

// NewSubmissionService wires the state machine to its collaborators.
func NewSubmissionService(db *gorm.DB, dispatcher *Dispatcher, bucket string) *SubmissionService {
	return &SubmissionService{
		db:         db,
		dispatcher: dispatcher,
		bucket:     bucket,
	}
}

// CreateSubmissionInput carries the fields a submitter provides at creation.
type CreateSubmissionInput struct {
	Name        string
	StudyID     string
	DataCommons string
	Intention   string
	DataType    string
}

// CreateSubmission creates a New submission with fixed storage coordinates
// and an initial history entry.
func (s *SubmissionService) CreateSubmission(ctx context.Context, actor Actor, input CreateSubmissionInput) (*model.Submission, error) {
	if err := Authorize(actor, nil, ActionCreate); err != nil {
		return nil, err
	}
	if input.Intention == model.IntentionDelete && input.DataType != model.DataTypeMetadataOnly {
		return nil, ErrInvalidState
	}

	var org model.Organization
	if err := s.db.WithContext(ctx).Where("id = ?", actor.OrgID).First(&org).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := time.Now()
	sub := &model.Submission{
		Name:        input.Name,
		Status:      model.SubmissionNew,
		Intention:   input.Intention,
		DataType:    input.DataType,
		StudyID:     input.StudyID,
		DataCommons: input.DataCommons,
		OrgID:       org.ID,
		OrgName:     org.Name,
		SubmitterID: actor.ID,
		BucketName:  s.bucket,
		RootPath:    fmt.Sprintf("submissions/%s", uuid.NewString()),
		AccessedAt:  now,
	}
	// File validation never applies to metadata-only submissions.
	if input.DataType == model.DataTypeMetadataOnly {
		sub.FileValidationStatus = model.ValidationNA
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		return tx.Create(&model.SubmissionHistory{
			SubmissionID: sub.ID,
			ActorID:      actor.ID,
			Status:       model.SubmissionNew,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// GetSubmission loads a submission and refreshes its accessed timestamp.
func (s *SubmissionService) GetSubmission(ctx context.Context, actor Actor, id uint64) (*model.Submission, error) {
	sub, err := s.loadSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, sub, ActionView); err != nil {
		if !errors.Is(err, ErrInvalidPermission) || !s.isCollaborator(ctx, actor.ID, id) {
			return nil, err
		}
	}
	now := time.Now()
	if err := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", id).
		UpdateColumn("accessed_at", now).Error; err != nil {
		return nil, err
	}
	sub.AccessedAt = now
	return sub, nil
}

// ListSubmissions returns the submissions visible to the actor.
func (s *SubmissionService) ListSubmissions(ctx context.Context, actor Actor, page, pageSize int) ([]model.Submission, int64, error) {
	if actor.ID == 0 {
		return nil, 0, ErrNotLoggedIn
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Submission{})
	switch actor.Role {
	case model.RoleSubmitter:
		query = query.Where(
			"submitter_id = ? OR id IN (?)",
			actor.ID,
			s.db.Model(&model.Collaborator{}).Select("submission_id").Where("collaborator_id = ?", actor.ID),
		)
	case model.RoleOrgOwner:
		query = query.Where("org_id = ?", actor.OrgID)
	case model.RoleCurator, model.RoleDataCommonsPOC:
		if actor.DataCommons != "" {
			query = query.Where("data_commons = ?", actor.DataCommons)
		}
	case model.RoleFederalLead, model.RoleFederalMonitor:
		if len(actor.Studies) > 0 {
			query = query.Where("study_id IN ?", actor.Studies)
		}
	case model.RoleAdmin:
	default:
		return nil, 0, ErrInvalidRole
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var subs []model.Submission
	err := query.Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&subs).Error
	return subs, total, err
}

// GetHistory returns the transition log in chronological order.
func (s *SubmissionService) GetHistory(ctx context.Context, actor Actor, id uint64) ([]model.SubmissionHistory, error) {
	sub, err := s.loadSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, sub, ActionViewLogs); err != nil {
		return nil, err
	}
	var history []model.SubmissionHistory
	err = s.db.WithContext(ctx).
		Where("submission_id = ?", id).
		Order("id ASC").
		Find(&history).Error
	return history, err
}

// Submit moves a submission into review.
func (s *SubmissionService) Submit(ctx context.Context, actor Actor, id uint64, comment string) (*model.Submission, error) {
	return s.transition(ctx, actor, id, ActionSubmit, comment)
}

// Release releases a submitted submission to the data commons.
func (s *SubmissionService) Release(ctx context.Context, actor Actor, id uint64, comment string) (*model.Submission, error) {
	return s.transition(ctx, actor, id, ActionRelease, comment)
}

// Reject sends a submission back to the submitter. A comment is mandatory.
func (s *SubmissionService) Reject(ctx context.Context, actor Actor, id uint64, comment string) (*model.Submission, error) {
	return s.transition(ctx, actor, id, ActionReject, comment)
}

// Withdraw pulls a submitted submission back.
func (s *SubmissionService) Withdraw(ctx context.Context, actor Actor, id uint64, comment string) (*model.Submission, error) {
	return s.transition(ctx, actor, id, ActionWithdraw, comment)
}

// Cancel abandons a submission that was never submitted.
func (s *SubmissionService) Cancel(ctx context.Context, actor Actor, id uint64, comment string) (*model.Submission, error) {
	return s.transition(ctx, actor, id, ActionCancel, comment)
}

// Complete finishes a released submission and triggers its asynchronous
// follow-up work.
func (s *SubmissionService) Complete(ctx context.Context, actor Actor, id uint64, comment string) (*model.Submission, error) {
	sub, err := s.transition(ctx, actor, id, ActionComplete, comment)
	if err != nil {
		return nil, err
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.DispatchCompletion(ctx, sub.ID); err != nil {
			return sub, err
		}
	}
	return sub, nil
}

// transition runs one gated, optimistically-guarded state change.
func (s *SubmissionService) transition(ctx context.Context, actor Actor, id uint64, action Action, comment string) (*model.Submission, error) {
	sub, err := s.loadSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actor, sub, action); err != nil {
		return nil, err
	}
	rule := transitions[action]
	if !statusIn(sub.Status, rule.From) {
		return nil, ErrInvalidState
	}
	if err := s.checkCommentRule(ctx, actor, sub, action, comment); err != nil {
		return nil, err
	}
	if action == ActionRelease {
		if err := s.checkReleaseGuard(ctx, sub); err != nil {
			return nil, err
		}
	}

	fromStatus := sub.Status
	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Submission{}).
			Where("id = ? AND status = ?", id, fromStatus).
			Updates(map[string]interface{}{
				"status":      rule.To,
				"accessed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentModification
		}
		return tx.Create(&model.SubmissionHistory{
			SubmissionID: id,
			ActorID:      actor.ID,
			Status:       rule.To,
			Comment:      comment,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	sub.Status = rule.To
	sub.AccessedAt = now
	return sub, nil
}

// checkCommentRule enforces mandatory comments: always on reject, and on
// submit for non-privileged roles unless the submission was submitted before.
func (s *SubmissionService) checkCommentRule(ctx context.Context, actor Actor, sub *model.Submission, action Action, comment string) error {
	if comment != "" {
		return nil
	}
	switch action {
	case ActionReject:
		return ErrCommentRequired
	case ActionSubmit:
		if privilegedRole(actor.Role) {
			return nil
		}
		var prior int64
		if err := s.db.WithContext(ctx).Model(&model.SubmissionHistory{}).
			Where("submission_id = ? AND status = ?", sub.ID, model.SubmissionSubmitted).
			Count(&prior).Error; err != nil {
			return err
		}
		if prior == 0 {
			return ErrCommentRequired
		}
	}
	return nil
}

// checkReleaseGuard blocks release while a sibling submission of the same
// study sits in Submitted and cross-submission validation has not passed.
func (s *SubmissionService) checkReleaseGuard(ctx context.Context, sub *model.Submission) error {
	if sub.CrossSubmissionStatus == model.ValidationPassed {
		return nil
	}
	var siblings int64
	err := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("study_id = ? AND id <> ? AND status = ?", sub.StudyID, sub.ID, model.SubmissionSubmitted).
		Count(&siblings).Error
	if err != nil {
		return err
	}
	if siblings > 0 {
		return ErrInvalidState
	}
	return nil
}

// Archive moves a retention-expired Completed submission to Archived.
// System transition: no actor gate, history actor 0.
func (s *SubmissionService) Archive(ctx context.Context, id uint64) error {
	return s.systemTransition(ctx, id,
		[]string{model.SubmissionCompleted}, model.SubmissionArchived,
		map[string]interface{}{"archived": true})
}

// DeleteForInactivity marks an abandoned submission Deleted.
// System transition: no actor gate, history actor 0.
func (s *SubmissionService) DeleteForInactivity(ctx context.Context, id uint64) error {
	return s.systemTransition(ctx, id,
		[]string{model.SubmissionNew, model.SubmissionInProgress, model.SubmissionRejected},
		model.SubmissionDeleted, nil)
}

func (s *SubmissionService) systemTransition(ctx context.Context, id uint64, from []string, to string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Submission{}).
			Where("id = ? AND status IN ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConcurrentModification
		}
		return tx.Create(&model.SubmissionHistory{
			SubmissionID: id,
			ActorID:      0,
			Status:       to,
		}).Error
	})
}

// RequestBulkDelete flags the submission as deleting and dispatches the
// asynchronous metadata-record deletion job. Dispatch failure never leaves
// the submission stuck in a deleting state.
func (s *SubmissionService) RequestBulkDelete(ctx context.Context, actor Actor, id uint64, nodeType string, nodeIDs []string) error {
	sub, err := s.loadSubmission(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(actor, sub, ActionDeleteRecords); err != nil {
		return err
	}
	if sub.Status != model.SubmissionNew && sub.Status != model.SubmissionInProgress {
		return ErrInvalidState
	}

	res := s.db.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ? AND deleting_data = ?", id, false).
		Update("deleting_data", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}

	if err := s.dispatcher.DispatchBulkDelete(ctx, id, nodeType, nodeIDs); err != nil {
		if resetErr := s.db.WithContext(ctx).Model(&model.Submission{}).
			Where("id = ?", id).
			Update("deleting_data", false).Error; resetErr != nil {
			return errors.Join(err, resetErr)
		}
		return err
	}
	return nil
}

// AddCollaborator grants another user access to the submission.
func (s *SubmissionService) AddCollaborator(ctx context.Context, actor Actor, id, collaboratorID uint64, permission string) error {
	sub, err := s.loadSubmission(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(actor, sub, ActionEditCollaborators); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&model.Collaborator{
		SubmissionID:   id,
		CollaboratorID: collaboratorID,
		Permission:     permission,
	}).Error
}

// RemoveCollaborator revokes a collaborator's access.
func (s *SubmissionService) RemoveCollaborator(ctx context.Context, actor Actor, id, collaboratorID uint64) error {
	sub, err := s.loadSubmission(ctx, id)
	if err != nil {
		return err
	}
	if err := Authorize(actor, sub, ActionEditCollaborators); err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Where("submission_id = ? AND collaborator_id = ?", id, collaboratorID).
		Delete(&model.Collaborator{}).Error
}

func (s *SubmissionService) loadSubmission(ctx context.Context, id uint64) (*model.Submission, error) {
	var sub model.Submission
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *SubmissionService) isCollaborator(ctx context.Context, userID, submissionID uint64) bool {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Collaborator{}).
		Where("submission_id = ? AND collaborator_id = ?", submissionID, userID).
		Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}
