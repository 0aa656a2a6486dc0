package persistence

import (
	"docflow/bizerror"
	"time"

	"github.com/jinzhu/gorm"
)

// SchemaExpectedVersion is bumped together with entity changes. A store
// reporting a different version refuses to serve instead of silently
// dropping unknown columns.
const SchemaExpectedVersion = 1

type SchemaVersion struct {
	ID         int       `json:"id" gorm:"primary_key"`
	Version    int       `json:"version"`
	UpdateTime time.Time `json:"updateTime"`
}

func (r *SchemaVersion) TableName() string {
	return "schema_versions"
}

// CheckSchemaVersion gates writes on schema agreement. A fresh database is
// stamped with the expected version.
func CheckSchemaVersion(db *gorm.DB) error {
	record := SchemaVersion{}
	err := db.Where(&SchemaVersion{ID: 1}).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return db.Create(&SchemaVersion{ID: 1, Version: SchemaExpectedVersion, UpdateTime: time.Now()}).Error
	}
	if err != nil {
		return err
	}
	if record.Version != SchemaExpectedVersion {
		return bizerror.ErrSchemaMismatch
	}
	return nil
}
