package template

import (
	"bytes"
	"docflow/client/s3"
	"docflow/idgen"
	"docflow/persistence"
	"docflow/session"
	"fmt"
	"io"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryTemplatesFunc  = QueryTemplates
	DetailTemplateFunc  = DetailTemplate
	CreateTemplateFunc  = CreateTemplate
	TemplateContentFunc = TemplateContent
)

// Template is the metadata row of an uploaded document template. The binary
// itself lives in object storage under ObjectKey.
type Template struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	FileName     string   `json:"fileName"`
	FileSize     int64    `json:"fileSize"`
	DepartmentID types.ID `json:"departmentId"`
	UploadedBy   types.ID `json:"uploadedBy"`
	ObjectKey    string   `json:"-"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (r *Template) TableName() string {
	return "templates"
}

type TemplateQuery struct {
	DepartmentID types.ID `form:"department_id"`
}

type TemplateCreation struct {
	FileName     string   `json:"file_name" binding:"required"`
	DepartmentID types.ID `json:"department_id"`
	Content      []byte   `json:"content" binding:"required"`
}

func QueryTemplates(query *TemplateQuery, s *session.Session) (*[]Template, error) {
	var templates []Template
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	q := db.Model(&Template{})
	if query.DepartmentID != 0 {
		q = q.Where("department_id = ?", query.DepartmentID)
	}
	if err := q.Order("file_name ASC").Find(&templates).Error; err != nil {
		return nil, err
	}
	return &templates, nil
}

func DetailTemplate(id types.ID, s *session.Session) (*Template, error) {
	record := Template{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&Template{ID: id}).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func CreateTemplate(c *TemplateCreation, s *session.Session) (*Template, error) {
	record := Template{
		ID:           idgen.NextID(idWorker),
		FileName:     c.FileName,
		FileSize:     int64(len(c.Content)),
		DepartmentID: c.DepartmentID,
		UploadedBy:   s.Identity.ID,
		CreateTime:   types.CurrentTimestamp(),
	}
	record.ObjectKey = fmt.Sprintf("templates/%s", record.ID.String())

	if err := s3.PutObjectFunc(record.ObjectKey, bytes.NewReader(c.Content), s); err != nil {
		return nil, err
	}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// TemplateContent streams the stored binary of a template.
func TemplateContent(id types.ID, s *session.Session) (*Template, io.ReadCloser, error) {
	record, err := DetailTemplate(id, s)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s3.GetObjectFunc(record.ObjectKey, s)
	if err != nil {
		return nil, nil, err
	}
	return record, reader, nil
}

// QueryTemplateFileInfos resolves template ids to file name/size pairs for
// request display enrichment.
func QueryTemplateFileInfos(s *session.Session, ids []types.ID) (map[types.ID]Template, error) {
	result := map[types.ID]Template{}
	if len(ids) == 0 {
		return result, nil
	}
	var records []Template
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Model(&Template{}).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	for _, r := range records {
		result[r.ID] = r
	}
	return result, nil
}
