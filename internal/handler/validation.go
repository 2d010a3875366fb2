package handler

import (
	"datahub/internal/dto"
	"datahub/internal/service"
	"datahub/utils"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ValidateSubmission starts a validation run. A run the engine rejected with
// a structured code returns the code so the client can explain the outcome.
func ValidateSubmission(c *gin.Context) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	record, err := validations.ValidateSubmission(c.Request.Context(), actorFromContext(c), id, req.Types, req.Scope)
	if err != nil {
		var engineErr *service.EngineError
		if errors.As(err, &engineErr) {
			c.JSON(http.StatusUnprocessableEntity, dto.ValidationResponse{
				Record:  record,
				Code:    engineErr.Code,
				Message: engineErr.Message,
			})
			return
		}
		fail(c, err)
		return
	}
	utils.Success(c, dto.ValidationResponse{Record: record})
}

// SubmissionStats returns uploaded record counts by batch type.
func SubmissionStats(c *gin.Context) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	stats, err := validations.Stats(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, stats)
}
