package department

import (
	"docflow/bizerror"
	"docflow/idgen"
	"docflow/persistence"
	"docflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryDepartmentsFunc     = QueryDepartments
	CreateDepartmentFunc     = CreateDepartment
	QueryDepartmentNamesFunc = QueryDepartmentNames
)

type Department struct {
	ID   types.ID `json:"id" gorm:"primary_key"`
	Name string   `json:"name"`

	CreateTime types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (r *Department) TableName() string {
	return "departments"
}

type DepartmentCreation struct {
	Name string `json:"name" binding:"required,lte=128"`
}

func QueryDepartments(s *session.Session) (*[]Department, error) {
	var departments []Department
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Model(&Department{}).Order("name ASC").Find(&departments).Error; err != nil {
		return nil, err
	}
	return &departments, nil
}

func CreateDepartment(c *DepartmentCreation, s *session.Session) (*Department, error) {
	if !s.Perms.HasAdminRole() {
		return nil, bizerror.ErrForbidden
	}
	record := Department{ID: idgen.NextID(idWorker), Name: c.Name, CreateTime: types.CurrentTimestamp()}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func QueryDepartmentNames(s *session.Session, ids []types.ID) (map[types.ID]string, error) {
	result := map[types.ID]string{}
	if len(ids) == 0 {
		return result, nil
	}
	var records []Department
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Model(&Department{}).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	for _, r := range records {
		result[r.ID] = r.Name
	}
	return result, nil
}
