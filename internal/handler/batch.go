package handler

import (
	"datahub/internal/dto"
	"datahub/internal/service"
	"datahub/utils"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateBatch opens an upload batch and returns presigned upload URLs.
func CreateBatch(c *gin.Context) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	var req dto.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	files := make([]service.BatchFileInput, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, service.BatchFileInput{FileName: f.FileName, Size: f.Size})
	}
	batch, targets, err := batches.CreateBatch(c.Request.Context(), actorFromContext(c), id, req.Type, files)
	if err != nil {
		fail(c, err)
		return
	}
	resp := dto.CreateBatchResponse{Batch: batch}
	for _, t := range targets {
		resp.Files = append(resp.Files, dto.UploadTargetResponse{FileName: t.FileName, UploadURL: t.UploadURL})
	}
	utils.Success(c, resp)
}

// UpdateBatch records per-file upload outcomes and closes the batch once
// every file is terminal.
func UpdateBatch(c *gin.Context) {
	id, ok := pathID(c, "batchID")
	if !ok {
		return
	}
	var req dto.UpdateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	results := make([]service.FileResult, 0, len(req.Files))
	for _, f := range req.Files {
		results = append(results, service.FileResult{FileName: f.FileName, Status: f.Status, Size: f.Size})
	}
	batch, err := batches.UpdateBatch(c.Request.Context(), actorFromContext(c), id, results)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, batch)
}

// ListBatches returns a submission's batches.
func ListBatches(c *gin.Context) {
	id, ok := pathID(c, "submissionID")
	if !ok {
		return
	}
	list, err := batches.ListBatches(c.Request.Context(), actorFromContext(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	utils.Success(c, list)
}
