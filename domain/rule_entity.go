package domain

import (
	"database/sql/driver"

	"github.com/fundwit/go-commons/types"
)

// JSONDocument is an opaque condition/action document of a workflow rule.
type JSONDocument map[string]interface{}

func (t JSONDocument) Value() (driver.Value, error) {
	return jsonColumnValue(&t)
}

func (t *JSONDocument) Scan(v interface{}) error {
	return jsonColumnScan(v, t)
}

// WorkflowRule is a stored condition/action record. Rules are data-only for
// now: nothing evaluates them when routing a request.
type WorkflowRule struct {
	ID          types.ID `json:"id" gorm:"primary_key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`

	AppliesToTemplateID   types.ID `json:"appliesToTemplateId"`
	AppliesToDepartmentID types.ID `json:"appliesToDepartmentId"`

	ConditionJSON JSONDocument `json:"conditionJson" sql:"type:TEXT"`
	ActionJSON    JSONDocument `json:"actionJson" sql:"type:TEXT"`
	IsActive      bool         `json:"isActive"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
	UpdateTime types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (r *WorkflowRule) TableName() string {
	return "workflow_rules"
}

type WorkflowRuleQuery struct {
	TemplateID   types.ID `form:"template_id"`
	DepartmentID types.ID `form:"department_id"`
	IsActive     *bool    `form:"is_active"`
}

type WorkflowRuleCreation struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`

	AppliesToTemplateID   types.ID `json:"applies_to_template_id"`
	AppliesToDepartmentID types.ID `json:"applies_to_department_id"`

	ConditionJSON JSONDocument `json:"condition_json"`
	ActionJSON    JSONDocument `json:"action_json"`
	IsActive      *bool        `json:"is_active"`
}

type WorkflowRulePatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`

	AppliesToTemplateID   *types.ID `json:"applies_to_template_id"`
	AppliesToDepartmentID *types.ID `json:"applies_to_department_id"`

	ConditionJSON *JSONDocument `json:"condition_json"`
	ActionJSON    *JSONDocument `json:"action_json"`
	IsActive      *bool         `json:"is_active"`
}

func (p *WorkflowRulePatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.AppliesToTemplateID == nil &&
		p.AppliesToDepartmentID == nil && p.ConditionJSON == nil && p.ActionJSON == nil && p.IsActive == nil
}
