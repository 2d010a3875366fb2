package router

import (
	"datahub/internal/handler"
	"datahub/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes.
func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Use(utils.CORSMiddleware())

	api := r.Group("/api")
	{
		api.POST("/register", handler.Register)
		api.GET("/activate", handler.Activate)
		api.POST("/login", handler.Login)

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware())

		auth.GET("/user/info", handler.GetUserInfo)

		submission := auth.Group("/submission")
		{
			submission.POST("", handler.CreateSubmission)
			submission.POST("/list", handler.ListSubmissions)
			submission.GET("/:submissionID", handler.GetSubmission)
			submission.GET("/:submissionID/history", handler.GetSubmissionHistory)
			submission.POST("/:submissionID/submit", handler.SubmitSubmission)
			submission.POST("/:submissionID/release", handler.ReleaseSubmission)
			submission.POST("/:submissionID/reject", handler.RejectSubmission)
			submission.POST("/:submissionID/withdraw", handler.WithdrawSubmission)
			submission.POST("/:submissionID/cancel", handler.CancelSubmission)
			submission.POST("/:submissionID/complete", handler.CompleteSubmission)
			submission.POST("/:submissionID/validate", handler.ValidateSubmission)
			submission.GET("/:submissionID/stats", handler.SubmissionStats)
			submission.POST("/:submissionID/records/delete", handler.BulkDeleteRecords)
			submission.POST("/:submissionID/collaborator", handler.AddCollaborator)
			submission.POST("/:submissionID/collaborator/remove", handler.RemoveCollaborator)

			submission.POST("/:submissionID/batch", handler.CreateBatch)
			submission.GET("/:submissionID/batch", handler.ListBatches)
		}

		batch := auth.Group("/batch")
		{
			batch.POST("/:batchID", handler.UpdateBatch)
		}
	}
	return r
}
