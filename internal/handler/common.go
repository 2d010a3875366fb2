package handler

import (
	"datahub/config"
	"datahub/internal/mq"
	"datahub/internal/repo"
	"datahub/internal/service"
	"datahub/internal/storage"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

var (
	submissions *service.SubmissionService
	batches     *service.BatchService
	validations *service.ValidationService
)

// InitHandlers wires the request handlers to the service layer. Call after
// config, database, Redis and object storage are initialized.
func InitHandlers() {
	publisher := mq.LazyPublisher{}
	dispatcher := service.NewDispatcher(publisher, service.NewRedisDeduper(repo.Redis), 0)
	engine := service.NewQueueEngine(repo.Db, publisher)

	submissions = service.NewSubmissionService(repo.Db, dispatcher, config.AppConfig.BucketName)
	batches = service.NewBatchService(repo.Db, storage.Default, config.AppConfig.PresignedUploadExpiry)
	validations = service.NewValidationService(repo.Db, engine)
}

// actorFromContext rebuilds the authorization identity the middleware parsed
// out of the JWT.
func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{
		ID:          c.GetUint64("user_id"),
		Role:        c.GetString("role"),
		OrgID:       c.GetUint64("org_id"),
		DataCommons: c.GetString("data_commons"),
	}
	if studies := c.GetString("studies"); studies != "" {
		actor.Studies = service.SplitStudies(studies)
	}
	return actor
}

func pathID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// fail maps service errors to HTTP statuses.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotLoggedIn):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrInvalidPermission):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrCommentRequired),
		errors.Is(err, service.ErrNoStorageBucket):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrConcurrentModification):
		status = http.StatusConflict
	case errors.Is(err, service.ErrDispatchFailure),
		errors.Is(err, service.ErrStorageFailure),
		errors.Is(err, service.ErrValidationInFlight):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
