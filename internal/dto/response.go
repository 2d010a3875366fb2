package dto

import "datahub/model"

// ListSubmissionsResponse pages the submissions visible to the caller.
type ListSubmissionsResponse struct {
	Submissions []model.Submission `json:"submissions"`
	Total       int64              `json:"total"`
}

// UploadTargetResponse pairs a declared batch file with its presigned URL.
type UploadTargetResponse struct {
	FileName  string `json:"file_name"`
	UploadURL string `json:"upload_url"`
}

// CreateBatchResponse returns the new batch and its upload targets.
type CreateBatchResponse struct {
	Batch *model.Batch           `json:"batch"`
	Files []UploadTargetResponse `json:"files"`
}

// ValidationResponse reports a started or reconciled validation run.
type ValidationResponse struct {
	Record  *model.ValidationRecord `json:"record,omitempty"`
	Code    string                  `json:"code,omitempty"`
	Message string                  `json:"message,omitempty"`
}
