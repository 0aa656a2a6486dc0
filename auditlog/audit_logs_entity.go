package auditlog

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

const (
	EntityTypeRequest  = "request"
	EntityTypeTemplate = "template"
	EntityTypeWorkflow = "workflow"

	ActionRequestCreated = "request_created"
	ActionStatusChanged  = "status_changed"
)

// Details is an arbitrary structured snapshot, e.g. {from, to} for a
// status change.
type Details map[string]interface{}

func (t Details) Value() (driver.Value, error) {
	jsonBytes, err := json.Marshal(&t)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (t *Details) Scan(v interface{}) error {
	if v == nil {
		return nil
	}
	jsonString, ok := v.(string)
	if !ok {
		jsonByte, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonByte)
	}
	if jsonString == "" {
		return nil
	}
	return json.Unmarshal([]byte(jsonString), t)
}

// AuditLog entries are append-only. They are never updated or deleted and
// are the sole source of historical truth for activity views.
type AuditLog struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	EntityType string   `json:"entityType" gorm:"index:idx_entity"`
	EntityID   types.ID `json:"entityId" gorm:"index:idx_entity"`
	Action     string   `json:"action"`

	UserID    types.ID `json:"userId"`
	Details   Details  `json:"details" sql:"type:TEXT"`
	IPAddress string   `json:"ipAddress"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (r *AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLogRecord is an entry joined with human readable display fields.
// The joins are read-time enrichment, not part of the persisted identity.
type AuditLogRecord struct {
	AuditLog

	EntityName     string `json:"entityName" gorm:"-"`
	UserName       string `json:"userName" gorm:"-"`
	UserRole       string `json:"userRole" gorm:"-"`
	DepartmentName string `json:"departmentName" gorm:"-"`
	RequestCode    string `json:"requestCode,omitempty" gorm:"-"`
}

type AuditLogQuery struct {
	EntityType string   `form:"entity_type"`
	EntityID   types.ID `form:"entity_id"`
	UserID     types.ID `form:"user_id"`
	RequestID  string   `form:"request_id"`

	DateRange string `form:"date_range"`
	FromDate  string `form:"from_date"`
	ToDate    string `form:"to_date"`

	Limit int `form:"limit"`
}

const (
	DateRangeToday = "today"
	DateRangeWeek  = "week"
	DateRangeMonth = "month"
)

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 500
)
