package flow

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

	QueryWorkflowsFunc       = QueryWorkflows
	DetailWorkflowFunc       = DetailWorkflow
	CreateWorkflowFunc       = CreateWorkflow
	UpdateWorkflowFunc       = UpdateWorkflow
	QueryWorkflowStepsFunc   = QueryWorkflowSteps
	ReplaceWorkflowStepsFunc = ReplaceWorkflowSteps
)

func QueryWorkflows(query *domain.WorkflowQuery, s *session.Session) (*[]domain.Workflow, error) {
	var workflows []domain.Workflow
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	q := db.Model(&domain.Workflow{})
	if query.TemplateID != 0 {
		q = q.Where("applies_to_template_id = ?", query.TemplateID)
	}
	if query.DepartmentID != 0 {
		q = q.Where("applies_to_department_id = ?", query.DepartmentID)
	}
	if query.IsActive != nil {
		q = q.Where("is_active = ?", *query.IsActive)
	}
	if err := q.Order("name ASC").Find(&workflows).Error; err != nil {
		return nil, err
	}
	return &workflows, nil
}

func DetailWorkflow(id types.ID, s *session.Session) (*domain.WorkflowDetail, error) {
	workflowDetail := domain.WorkflowDetail{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.Workflow{ID: id}).First(&workflowDetail.Workflow).Error; err != nil {
			return err
		}
		return tx.Where(domain.WorkflowStep{WorkflowID: id}).Order("step_order ASC").
			Find(&workflowDetail.Steps).Error
	})
	if err != nil {
		return nil, err
	}
	return &workflowDetail, nil
}

func CreateWorkflow(c *domain.WorkflowCreation, s *session.Session) (*domain.Workflow, error) {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}
	now := types.CurrentTimestamp()
	workflow := domain.Workflow{
		ID:          idgen.NextID(idWorker),
		Name:        c.Name,
		Description: c.Description,
		IsActive:    isActive,

		AppliesToTemplateID:   c.AppliesToTemplateID,
		AppliesToDepartmentID: c.AppliesToDepartmentID,

		CreateTime: now,
		UpdateTime: now,
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Create(&workflow).Error; err != nil {
		return nil, err
	}
	return &workflow, nil
}

// UpdateWorkflow edits metadata fields only. The step list is never touched
// here; ReplaceWorkflowSteps owns it.
func UpdateWorkflow(id types.ID, patch *domain.WorkflowPatch, s *session.Session) (*domain.Workflow, error) {
	if patch.Empty() {
		return nil, bizerror.ErrNoUpdatableFields
	}

	workflow := domain.Workflow{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.Workflow{ID: id}).First(&workflow).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"update_time": types.CurrentTimestamp()}
		if patch.Name != nil {
			updates["name"] = *patch.Name
		}
		if patch.Description != nil {
			updates["description"] = *patch.Description
		}
		if patch.IsActive != nil {
			updates["is_active"] = *patch.IsActive
		}
		if patch.AppliesToTemplateID != nil {
			updates["applies_to_template_id"] = *patch.AppliesToTemplateID
		}
		if patch.AppliesToDepartmentID != nil {
			updates["applies_to_department_id"] = *patch.AppliesToDepartmentID
		}

		if err := tx.Model(&domain.Workflow{}).Where(&domain.Workflow{ID: id}).
			Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where(&domain.Workflow{ID: id}).First(&workflow).Error
	})
	if err != nil {
		return nil, err
	}
	return &workflow, nil
}

func QueryWorkflowSteps(workflowID types.ID, s *session.Session) (*[]domain.WorkflowStep, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	workflow := domain.Workflow{}
	if err := db.Where(&domain.Workflow{ID: workflowID}).First(&workflow).Error; err != nil {
		return nil, err
	}

	var steps []domain.WorkflowStep
	if err := db.Where(domain.WorkflowStep{WorkflowID: workflowID}).Order("step_order ASC").
		Find(&steps).Error; err != nil {
		return nil, err
	}
	return &steps, nil
}

// ReplaceWorkflowSteps is delete-all-insert-all, there is no partial update
// of individual steps. Running instances are unaffected: step instances
// snapshot order and name at bind time.
func ReplaceWorkflowSteps(workflowID types.ID, steps []domain.WorkflowStepReplacing, s *session.Session) (*[]domain.WorkflowStep, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		workflow := domain.Workflow{}
		if err := tx.Where(&domain.Workflow{ID: workflowID}).First(&workflow).Error; err != nil {
			return err
		}

		if err := tx.Where("workflow_id = ?", workflowID).
			Delete(&domain.WorkflowStep{}).Error; err != nil {
			return err
		}

		now := types.CurrentTimestamp()
		for i, s0 := range steps {
			stepOrder := i
			if s0.StepOrder != nil {
				stepOrder = *s0.StepOrder
			}
			name := s0.Name
			if name == "" {
				name = "Step"
			}
			isApprovalStep := true
			if s0.IsApprovalStep != nil {
				isApprovalStep = *s0.IsApprovalStep
			}

			step := domain.WorkflowStep{
				ID:         idgen.NextID(idWorker),
				WorkflowID: workflowID,
				StepOrder:  stepOrder,

				Name:           name,
				RoleKey:        s0.RoleKey,
				DepartmentID:   s0.DepartmentID,
				IsApprovalStep: isApprovalStep,
				Metadata:       s0.Metadata,

				CreateTime: now,
			}
			if err := tx.Create(&step).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return QueryWorkflowSteps(workflowID, s)
}
