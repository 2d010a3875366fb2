package handler

import (
	"datahub/internal/dto"
	"datahub/internal/service"
	"datahub/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateSubmission opens a new data submission.
func CreateSubmission(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	sub, err := submissions.CreateSubmission(c.Request.Context(), actorFromContext(c), service.CreateSubmissionInput{
		Name:        req.Name,
		StudyID:     req.StudyID,
		DataCommons: req.DataCommons,
		Intention:   req.Intention,
		DataType:    req.DataType,
	})
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, sub)
}

// GetSubmission returns one submission.
func GetSubmission(c *gin.Context) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	sub, err := submissions.GetSubmission(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, sub)
}

// ListSubmissions pages the submissions visible to the caller.
func ListSubmissions(c *gin.Context) {
	var req dto.ListSubmissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	subs, total, err := submissions.ListSubmissions(c.Request.Context(), actorFromContext(c), req.Page, req.PageSize)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, dto.ListSubmissionsResponse{Submissions: subs, Total: total})
}

// GetSubmissionHistory returns the transition log.
func GetSubmissionHistory(c *gin.Context) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	history, err := submissions.GetHistory(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, history)
}

func transitionHandler(run func(c *gin.Context, comment string)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.SubmissionActionRequest
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		run(c, req.Comment)
	}
}

// SubmitSubmission moves a submission into review.
var SubmitSubmission = transitionHandler(func(c *gin.Context, comment string) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	sub, err := submissions.Submit(c.Request.Context(), actorFromContext(c), id, comment)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, sub)
})

// ReleaseSubmission releases a submitted submission.
var ReleaseSubmission = transitionHandler(func(c *gin.Context, comment string) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	sub, err := submissions.Release(c.Request.Context(), actorFromContext(c), id, comment)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, sub)
})

// RejectSubmission sends a submission back to the submitter.
var RejectSubmission = transitionHandler(func(c *gin.Context, comment string) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	sub, err := submissions.Reject(c.Request.Context(), actorFromContext(c), id, comment)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, sub)
})

// WithdrawSubmission pulls a submitted submission back.
var WithdrawSubmission = transitionHandler(func(c *gin.Context, comment string) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	sub, err := submissions.Withdraw(c.Request.Context(), actorFromContext(c), id, comment)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, sub)
})

// CancelSubmission abandons a never-submitted submission.
var CancelSubmission = transitionHandler(func(c *gin.Context, comment string) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	sub, err := submissions.Cancel(c.Request.Context(), actorFromContext(c), id, comment)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, sub)
})

// CompleteSubmission finishes a released submission.
var CompleteSubmission = transitionHandler(func(c *gin.Context, comment string) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	sub, err := submissions.Complete(c.Request.Context(), actorFromContext(c), id, comment)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, sub)
})

// BulkDeleteRecords requests asynchronous deletion of metadata records.
func BulkDeleteRecords(c *gin.Context) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := submissions.RequestBulkDelete(c.Request.Context(), actorFromContext(c), id, req.NodeType, req.NodeIDs); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, gin.H{"deleting": true})
}

// AddCollaborator grants another user access to the submission.
func AddCollaborator(c *gin.Context) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	var req dto.CollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := submissions.AddCollaborator(c.Request.Context(), actorFromContext(c), id, req.CollaboratorID, req.Permission); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}

// RemoveCollaborator revokes a collaborator's access.
func RemoveCollaborator(c *gin.Context) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	var req dto.CollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := submissions.RemoveCollaborator(c.Request.Context(), actorFromContext(c), id, req.CollaboratorID); err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, nil)
}
