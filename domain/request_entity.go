package domain

import (
	"database/sql/driver"

	"github.com/fundwit/go-commons/types"
)

const (
	StatusDraft         = "draft"
	StatusSubmitted     = "submitted"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
	StatusNeedsRevision = "needs_revision"
	StatusPublished     = "published"
)

// ReviewSequence is the flat ordered reviewer list kept directly on the
// request when no formal workflow is attached.
type ReviewSequence []types.ID

func (t ReviewSequence) Value() (driver.Value, error) {
	return jsonColumnValue(&t)
}

func (t *ReviewSequence) Scan(v interface{}) error {
	return jsonColumnScan(v, t)
}

type Request struct {
	ID   types.ID `json:"id" gorm:"primary_key"`
	Code string   `json:"code" gorm:"unique_index"`

	TemplateID   types.ID `json:"templateId"`
	Title        string   `json:"title"`
	DepartmentID types.ID `json:"departmentId"`
	Status       string   `json:"status"`

	CreatedBy  types.ID `json:"createdBy"`
	AssignedTo types.ID `json:"assignedTo"`

	ReviewSequence ReviewSequence `json:"reviewSequence" sql:"type:TEXT"`
	// cursor of the review sequence, -1 when the sequence is not active
	CurrentReviewerIndex int `json:"currentReviewerIndex"`

	Priority           string `json:"priority"`
	SubmissionComments string `json:"submissionComments"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (r *Request) TableName() string {
	return "requests"
}

// RequestDetail carries read-time display fields which are never persisted
// with the request itself.
type RequestDetail struct {
	Request

	DepartmentName   string `json:"departmentName" gorm:"-"`
	AssignedToName   string `json:"assignedToName" gorm:"-"`
	TemplateFileName string `json:"templateFileName" gorm:"-"`
	TemplateFileSize int64  `json:"templateFileSize" gorm:"-"`
}

type RequestCreation struct {
	TemplateID   types.ID `json:"template_id" binding:"required"`
	Title        string   `json:"title"`
	DepartmentID types.ID `json:"department_id"`
}

// RequestPatch applies only the fields present in the body. Pointers
// distinguish "absent" from zero values.
type RequestPatch struct {
	Title              *string         `json:"title"`
	Status             *string         `json:"status"`
	AssignedTo         *types.ID       `json:"assigned_to"`
	ReviewSequence     *ReviewSequence `json:"review_sequence"`
	Priority           *string         `json:"priority"`
	SubmissionComments *string         `json:"submission_comments"`
}

func (p *RequestPatch) Empty() bool {
	return p.Title == nil && p.Status == nil && p.AssignedTo == nil &&
		p.ReviewSequence == nil && p.Priority == nil && p.SubmissionComments == nil
}

type RequestQuery struct {
	DepartmentID types.ID `form:"department_id"`
	Status       string   `form:"status"`

	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}
