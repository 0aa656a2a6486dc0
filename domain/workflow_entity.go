package domain

import (
	"database/sql/driver"

	"github.com/fundwit/go-commons/types"
)

// MetadataBag keeps forward compatibility for opaque step metadata.
type MetadataBag map[string]interface{}

func (t MetadataBag) Value() (driver.Value, error) {
	return jsonColumnValue(&t)
}

func (t *MetadataBag) Scan(v interface{}) error {
	return jsonColumnScan(v, t)
}

// Workflow is a reusable named sequence of review steps. Metadata fields stay
// editable; the step list is only changed through a destructive replace.
type Workflow struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsActive    bool     `json:"isActive"`

	AppliesToTemplateID   types.ID `json:"appliesToTemplateId"`
	AppliesToDepartmentID types.ID `json:"appliesToDepartmentId"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (r *Workflow) TableName() string {
	return "workflows"
}

type WorkflowStep struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	WorkflowID types.ID `json:"workflowId" gorm:"unique_index:uni_workflow_step_order"`
	StepOrder  int      `json:"stepOrder" gorm:"unique_index:uni_workflow_step_order"`

	Name           string      `json:"name"`
	RoleKey        string      `json:"roleKey"`
	DepartmentID   types.ID    `json:"departmentId"`
	IsApprovalStep bool        `json:"isApprovalStep"`
	Metadata       MetadataBag `json:"metadata" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (r *WorkflowStep) TableName() string {
	return "workflow_steps"
}

type WorkflowDetail struct {
	Workflow

	Steps []WorkflowStep `json:"steps"`
}

type WorkflowQuery struct {
	TemplateID   types.ID `form:"template_id"`
	DepartmentID types.ID `form:"department_id"`
	IsActive     *bool    `form:"is_active"`
}

type WorkflowCreation struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`

	AppliesToTemplateID   types.ID `json:"applies_to_template_id"`
	AppliesToDepartmentID types.ID `json:"applies_to_department_id"`
}

type WorkflowPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`

	AppliesToTemplateID   *types.ID `json:"applies_to_template_id"`
	AppliesToDepartmentID *types.ID `json:"applies_to_department_id"`
}

func (p *WorkflowPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.IsActive == nil &&
		p.AppliesToTemplateID == nil && p.AppliesToDepartmentID == nil
}

// WorkflowStepReplacing is one element of the ordered list handed to the
// destructive step replace.
type WorkflowStepReplacing struct {
	StepOrder      *int        `json:"step_order"`
	Name           string      `json:"name"`
	RoleKey        string      `json:"role_key"`
	DepartmentID   types.ID    `json:"department_id"`
	IsApprovalStep *bool       `json:"is_approval_step"`
	Metadata       MetadataBag `json:"metadata"`
}
