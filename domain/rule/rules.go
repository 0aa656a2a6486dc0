package rule

import (
	"docflow/bizerror"
	"docflow/domain"
	"docflow/idgen"
	"docflow/persistence"
	"docflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryWorkflowRulesFunc = QueryWorkflowRules
	DetailWorkflowRuleFunc = DetailWorkflowRule
	CreateWorkflowRuleFunc = CreateWorkflowRule
	UpdateWorkflowRuleFunc = UpdateWorkflowRule
)

func QueryWorkflowRules(query *domain.WorkflowRuleQuery, s *session.Session) (*[]domain.WorkflowRule, error) {
	var rules []domain.WorkflowRule
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	q := db.Model(&domain.WorkflowRule{})
	if query.TemplateID != 0 {
		q = q.Where("applies_to_template_id = ?", query.TemplateID)
	}
	if query.DepartmentID != 0 {
		q = q.Where("applies_to_department_id = ?", query.DepartmentID)
	}
	if query.IsActive != nil {
		q = q.Where("is_active = ?", *query.IsActive)
	}
	if err := q.Order("name ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return &rules, nil
}

func DetailWorkflowRule(id types.ID, s *session.Session) (*domain.WorkflowRule, error) {
	record := domain.WorkflowRule{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&domain.WorkflowRule{ID: id}).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func CreateWorkflowRule(c *domain.WorkflowRuleCreation, s *session.Session) (*domain.WorkflowRule, error) {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	now := types.CurrentTimestamp()
	record := domain.WorkflowRule{
		ID:          idgen.NextID(idWorker),
		Name:        c.Name,
		Description: c.Description,

		AppliesToTemplateID:   c.AppliesToTemplateID,
		AppliesToDepartmentID: c.AppliesToDepartmentID,

		ConditionJSON: c.ConditionJSON,
		ActionJSON:    c.ActionJSON,
		IsActive:      isActive,

		CreateTime: now,
		UpdateTime: now,
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateWorkflowRule(id types.ID, patch *domain.WorkflowRulePatch, s *session.Session) (*domain.WorkflowRule, error) {
	if patch.Empty() {
		return nil, bizerror.ErrNoUpdatableFields
	}

	record := domain.WorkflowRule{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.WorkflowRule{ID: id}).First(&record).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"update_time": types.CurrentTimestamp()}
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.AppliesToTemplateID != nil {
			updates["applies_to_template_id"] = *patch.AppliesToTemplateID
		}
		if patch.AppliesToDepartmentID != nil {
			updates["applies_to_department_id"] = *patch.AppliesToDepartmentID
		}
		if patch.ConditionJSON != nil {
			updates["condition_json"] = *patch.ConditionJSON
		}
		if patch.ActionJSON != nil {
			updates["action_json"] = *patch.ActionJSON
		}
		if patch.IsActive != nil {
			updates["is_active"] = *patch.IsActive
		}

		if err := tx.Model(&domain.WorkflowRule{}).Where(&domain.WorkflowRule{ID: id}).
			Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where(&domain.WorkflowRule{ID: id}).First(&record).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}
