package service

import (
	"datahub/model"
	"strings"
)

// Action names every operation the gate can be asked about.
type Action string

const (
	ActionView              Action = "view"
	ActionCreate            Action = "create"
	ActionSubmit            Action = "submit"
	ActionRelease           Action = "release"
	ActionReject            Action = "reject"
	ActionWithdraw          Action = "withdraw"
	ActionCancel            Action = "cancel"
	ActionComplete          Action = "complete"
	ActionValidate          Action = "validate"
	ActionCreateBatch       Action = "create_batch"
	ActionUpdateBatch       Action = "update_batch"
	ActionViewLogs          Action = "view_logs"
	ActionEditCollaborators Action = "edit_collaborators"
	ActionDeleteRecords     Action = "delete_records"
)

// Actor is the identity a request acts under, resolved from the session
// token before any service call.
type Actor struct {
	ID          uint64
	Role        string
	OrgID       uint64
	DataCommons string
	Studies     []string
}

// roleActions is each role's allowed-action set.
var roleActions = map[string]map[Action]bool{
	model.RoleSubmitter: {
		ActionView: true, ActionCreate: true, ActionSubmit: true,
		ActionWithdraw: true, ActionCancel: true, ActionValidate: true,
		ActionCreateBatch: true, ActionUpdateBatch: true,
		ActionViewLogs: true, ActionEditCollaborators: true,
		ActionDeleteRecords: true,
	},
	model.RoleOrgOwner: {
		ActionView: true, ActionCreate: true, ActionSubmit: true,
		ActionWithdraw: true, ActionCancel: true, ActionValidate: true,
		ActionCreateBatch: true, ActionUpdateBatch: true,
		ActionViewLogs: true, ActionEditCollaborators: true,
		ActionDeleteRecords: true,
	},
	model.RoleAdmin: {
		ActionView: true, ActionRelease: true, ActionReject: true,
		ActionCancel: true, ActionComplete: true, ActionValidate: true,
		ActionViewLogs: true,
	},
	model.RoleCurator: {
		ActionView: true, ActionRelease: true, ActionReject: true,
		ActionCancel: true, ActionComplete: true, ActionValidate: true,
		ActionViewLogs: true,
	},
	model.RoleFederalLead: {
		ActionView: true, ActionRelease: true, ActionReject: true,
		ActionViewLogs: true,
	},
	model.RoleDataCommonsPOC: {
		ActionView: true, ActionViewLogs: true,
	},
	model.RoleFederalMonitor: {
		ActionView: true, ActionViewLogs: true,
	},
}

// ownershipScoped marks actions that additionally require a relationship to
// the submission, beyond role membership.
var ownershipScoped = map[Action]bool{
	ActionView:              true,
	ActionSubmit:            true,
	ActionWithdraw:          true,
	ActionCancel:            true,
	ActionValidate:          true,
	ActionCreateBatch:       true,
	ActionUpdateBatch:       true,
	ActionViewLogs:          true,
	ActionEditCollaborators: true,
	ActionDeleteRecords:     true,
}

// Authorize decides whether an actor may perform an action against a
// submission. Pure decision, no side effects. Evaluation order: session,
// role, then ownership scope.
func Authorize(actor Actor, sub *model.Submission, action Action) error {
	if actor.ID == 0 {
		return ErrNotLoggedIn
	}
	allowed, ok := roleActions[actor.Role]
	if !ok || !allowed[action] {
		return ErrInvalidRole
	}
	if sub == nil || !ownershipScoped[action] {
		return nil
	}
	if !hasSubmissionAccess(actor, sub) {
		return ErrInvalidPermission
	}
	return nil
}

// hasSubmissionAccess reports whether the actor is tied to the submission:
// its submitter, an owner of its organization, or a privileged role scoped
// to its study or data commons.
func hasSubmissionAccess(actor Actor, sub *model.Submission) bool {
	switch actor.Role {
	case model.RoleSubmitter:
		return actor.ID == sub.SubmitterID
	case model.RoleOrgOwner:
		return actor.OrgID == sub.OrgID
	case model.RoleAdmin:
		return true
	case model.RoleCurator, model.RoleDataCommonsPOC:
		return actor.DataCommons == "" || actor.DataCommons == sub.DataCommons
	case model.RoleFederalLead, model.RoleFederalMonitor:
		return actorHasStudy(actor, sub.StudyID)
	default:
		return false
	}
}

// SplitStudies parses the comma-separated study list stored on the user row.
func SplitStudies(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func actorHasStudy(actor Actor, studyID string) bool {
	if len(actor.Studies) == 0 {
		return true
	}
	for _, study := range actor.Studies {
		if strings.EqualFold(strings.TrimSpace(study), studyID) {
			return true
		}
	}
	return false
}

// privilegedRole reports whether a role may submit without a comment.
func privilegedRole(role string) bool {
	switch role {
	case model.RoleAdmin, model.RoleCurator, model.RoleFederalLead:
		return true
	}
	return false
}
