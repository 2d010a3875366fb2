package dto

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username      string `json:"username" binding:"required"`
	FirstPassword string `json:"first-password" binding:"required"`
	LastPassword  string `json:"second-password" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Role          string `json:"role"`
	OrgID         uint64 `json:"org_id"`
	DataCommons   string `json:"data_commons"`
	Studies       string `json:"studies"`
}

type CreateSubmissionRequest struct {
	Name        string `json:"name" binding:"required"`
	StudyID     string `json:"study_id" binding:"required"`
	DataCommons string `json:"data_commons" binding:"required"`
	Intention   string `json:"intention" binding:"required"`
	DataType    string `json:"data_type" binding:"required"`
}

type ListSubmissionsRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// SubmissionActionRequest carries the optional reviewer comment attached to
// a state transition.
type SubmissionActionRequest struct {
	Comment string `json:"comment"`
}

type BatchFileRequest struct {
	FileName string `json:"file_name" binding:"required"`
	Size     int64  `json:"size"`
}

type CreateBatchRequest struct {
	Type  string             `json:"type" binding:"required"`
	Files []BatchFileRequest `json:"files" binding:"required"`
}

type BatchFileResultRequest struct {
	FileName string `json:"file_name" binding:"required"`
	Status   string `json:"status" binding:"required"`
	Size     int64  `json:"size"`
}

type UpdateBatchRequest struct {
	Files []BatchFileResultRequest `json:"files" binding:"required"`
}

type ValidateRequest struct {
	Types []string `json:"types" binding:"required"`
	Scope string   `json:"scope"`
}

type BulkDeleteRequest struct {
	NodeType string   `json:"node_type" binding:"required"`
	NodeIDs  []string `json:"node_ids" binding:"required"`
}

type CollaboratorRequest struct {
	CollaboratorID uint64 `json:"collaborator_id" binding:"required"`
	Permission     string `json:"permission"`
}
