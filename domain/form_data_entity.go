package domain

import (
	"database/sql/driver"

	"github.com/fundwit/go-commons/types"
)

// SectionList is the form layout captured when request content is saved, so
// a later edit of the template form never re-shapes already submitted data.
type SectionList []map[string]interface{}

func (t SectionList) Value() (driver.Value, error) {
	return jsonColumnValue(&t)
}

func (t *SectionList) Scan(v interface{}) error {
	return jsonColumnScan(v, t)
}

// FormData is the form content of one request. RequestID as primary key
// keeps at most one row per request.
type FormData struct {
	RequestID types.ID `json:"requestId" gorm:"primary_key"`

	Data                 JSONDocument `json:"data" sql:"type:TEXT"`
	FormSectionsSnapshot SectionList  `json:"formSectionsSnapshot" sql:"type:TEXT"`

	UpdateTime *types.Timestamp `json:"updateTime" sql:"type:DATETIME(6)"`
}

func (r *FormData) TableName() string {
	return "form_data"
}

// FormDataSaving replaces the stored content as a whole; field level merging
// happens on the client.
type FormDataSaving struct {
	Data                 JSONDocument `json:"data"`
	FormSectionsSnapshot SectionList  `json:"form_sections_snapshot"`
}
