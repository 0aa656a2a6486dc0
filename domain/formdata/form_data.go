package formdata

import (
	"docflow/domain"
	"docflow/persistence"
	"docflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	GetFormDataFunc  = GetFormData
	SaveFormDataFunc = SaveFormData
)

// GetFormData returns the stored form content of a request, or an empty
// shell when nothing was saved yet.
func GetFormData(requestID types.ID, s *session.Session) (*domain.FormData, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	request := domain.Request{}
	if err := db.Where(&domain.Request{ID: requestID}).First(&request).Error; err != nil {
		return nil, err
	}

	record := domain.FormData{}
	err := db.Where(&domain.FormData{RequestID: requestID}).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return &domain.FormData{RequestID: requestID, Data: domain.JSONDocument{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if record.Data == nil {
		record.Data = domain.JSONDocument{}
	}
	return &record, nil
}

// SaveFormData is a whole-row upsert keyed by the request.
func SaveFormData(requestID types.ID, saving *domain.FormDataSaving, s *session.Session) (*domain.FormData, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		request := domain.Request{}
		if err := tx.Where(&domain.Request{ID: requestID}).First(&request).Error; err != nil {
			return err
		}

		data := saving.Data
		if data == nil {
			data = domain.JSONDocument{}
		}
		now := types.CurrentTimestamp()

		record := domain.FormData{}
		err := tx.Where(&domain.FormData{RequestID: requestID}).First(&record).Error
		if err == gorm.ErrRecordNotFound {
			return tx.Create(&domain.FormData{RequestID: requestID, Data: data,
				FormSectionsSnapshot: saving.FormSectionsSnapshot, UpdateTime: &now}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&domain.FormData{}).Where(&domain.FormData{RequestID: requestID}).
			Updates(map[string]interface{}{
				"data":                   data,
				"form_sections_snapshot": saving.FormSectionsSnapshot,
				"update_time":            now,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return GetFormData(requestID, s)
}
