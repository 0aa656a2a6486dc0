package domain

import (
	"database/sql/driver"

	"github.com/fundwit/go-commons/types"
)

const (
	StepStatusPending   = "pending"
	StepStatusCurrent   = "current"
	StepStatusCompleted = "completed"
	StepStatusRejected  = "rejected"
)

const (
	DefinitionKindTemplateBound = "template-bound"
	DefinitionKindAdHoc         = "ad-hoc"
)

// AdHocDefinition is the tagged variant carried by instances which are not
// bound to a workflow template (e.g. AI generated step lists).
type AdHocDefinition struct {
	Kind  string      `json:"kind"`
	Steps []AdHocStep `json:"steps"`
}

type AdHocStep struct {
	Name       string      `json:"name"`
	RoleKey    string      `json:"roleKey"`
	AssignedTo types.ID    `json:"assignedTo"`
	Metadata   MetadataBag `json:"metadata"`
}

func (t AdHocDefinition) Value() (driver.Value, error) {
	return jsonColumnValue(&t)
}

func (t *AdHocDefinition) Scan(v interface{}) error {
	return jsonColumnScan(v, t)
}

// WorkflowInstance binds exactly one workflow to a request. The unique index
// on RequestID enforces the 1:1 relation.
type WorkflowInstance struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	RequestID types.ID `json:"requestId" gorm:"unique_index"`

	WorkflowID      types.ID         `json:"workflowId"`
	AdHocDefinition *AdHocDefinition `json:"adHocDefinition" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (r *WorkflowInstance) TableName() string {
	return "workflow_instances"
}

// WorkflowStepInstance snapshots order/name/metadata at creation time so a
// later edit of the template never invalidates a running instance.
// Invariant: at most one step instance per instance is "current".
type WorkflowStepInstance struct {
	ID         types.ID `json:"id" gorm:"primary_key"`
	InstanceID types.ID `json:"instanceId" gorm:"unique_index:uni_instance_step_order"`
	StepOrder  int      `json:"stepOrder" gorm:"unique_index:uni_instance_step_order"`

	Name       string   `json:"name"`
	RoleKey    string   `json:"roleKey"`
	AssignedTo types.ID `json:"assignedTo"`
	Status     string   `json:"status"`

	StartedAt   *types.Timestamp `json:"startedAt" sql:"type:DATETIME(6)"`
	CompletedAt *types.Timestamp `json:"completedAt" sql:"type:DATETIME(6)"`

	Metadata MetadataBag `json:"metadata" sql:"type:TEXT"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (r *WorkflowStepInstance) TableName() string {
	return "workflow_step_instances"
}

type WorkflowStepInstanceDetail struct {
	WorkflowStepInstance

	AssignedToName string `json:"assignedToName" gorm:"-"`
}

// WorkflowInstanceDetail is also the empty shell returned for requests which
// never initialized a workflow (nil WorkflowID, empty steps).
type WorkflowInstanceDetail struct {
	RequestID       types.ID                     `json:"requestId"`
	WorkflowID      *types.ID                    `json:"workflowId"`
	AdHocDefinition *AdHocDefinition             `json:"adHocDefinition,omitempty"`
	Steps           []WorkflowStepInstanceDetail `json:"steps"`
}

const (
	ActionInit            = "init"
	ActionSetWorkflow     = "set_workflow"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionRequestRevision = "request_revision"
)

type WorkflowActionInvocation struct {
	Action string `json:"action" binding:"required"`

	WorkflowID            *types.ID        `json:"workflow_id"`
	AIGeneratedDefinition *AdHocDefinition `json:"ai_generated_definition"`
	Comment               string           `json:"comment"`
}

// InstanceBinding is the upsert payload of createOrUpdateInstance.
type InstanceBinding struct {
	WorkflowID      *types.ID
	AdHocDefinition *AdHocDefinition
}
