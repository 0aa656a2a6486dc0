package instance

import (
	"docflow/account"
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

	DetailInstanceFunc         = DetailInstance
	CreateOrUpdateInstanceFunc = CreateOrUpdateInstance
)

// DetailInstance returns the instance with its ordered steps, or the empty
// shell when the request never initialized a workflow.
func DetailInstance(requestID types.ID, s *session.Session) (*domain.WorkflowInstanceDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	request := domain.Request{}
	if err := db.Where(&domain.Request{ID: requestID}).First(&request).Error; err != nil {
		return nil, err
	}

	record := domain.WorkflowInstance{}
	err := db.Where(&domain.WorkflowInstance{RequestID: requestID}).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return &domain.WorkflowInstanceDetail{RequestID: requestID, Steps: []domain.WorkflowStepInstanceDetail{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var steps []domain.WorkflowStepInstance
	if err := db.Where(domain.WorkflowStepInstance{InstanceID: record.ID}).
		Order("step_order ASC").Find(&steps).Error; err != nil {
		return nil, err
	}

	detail := domain.WorkflowInstanceDetail{
		RequestID:       requestID,
		AdHocDefinition: record.AdHocDefinition,
		Steps:           make([]domain.WorkflowStepInstanceDetail, 0, len(steps)),
	}
	if record.WorkflowID != 0 {
		workflowID := record.WorkflowID
		detail.WorkflowID = &workflowID
	}
	for _, step := range steps {
		detail.Steps = append(detail.Steps, domain.WorkflowStepInstanceDetail{WorkflowStepInstance: step})
	}
	if err := extendStepInstances(detail.Steps, s); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateOrUpdateInstance is an idempotent upsert keyed by the request. The
// first bind materializes step instances from the template (or the ad-hoc
// definition); a re-bind only replaces the reference and the definition.
func CreateOrUpdateInstance(requestID types.ID, binding *domain.InstanceBinding, s *session.Session) (*domain.WorkflowInstanceDetail, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err := db.Transaction(func(tx *gorm.DB) error {
		request := domain.Request{}
		if err := tx.Where(&domain.Request{ID: requestID}).First(&request).Error; err != nil {
			return err
		}

		workflowID := types.ID(0)
		if binding.WorkflowID != nil {
			workflowID = *binding.WorkflowID
		}

		record := domain.WorkflowInstance{}
		err := tx.Where(&domain.WorkflowInstance{RequestID: requestID}).First(&record).Error
		if err == gorm.ErrRecordNotFound {
			record = domain.WorkflowInstance{
				ID:              idgen.NextID(idWorker),
				RequestID:       requestID,
				WorkflowID:      workflowID,
				AdHocDefinition: binding.AdHocDefinition,
				CreateTime:      types.CurrentTimestamp(),
			}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		} else {
			updates := map[string]interface{}{
				"workflow_id":       workflowID,
				"ad_hoc_definition": binding.AdHocDefinition,
			}
			if err := tx.Model(&domain.WorkflowInstance{}).
				Where(&domain.WorkflowInstance{ID: record.ID}).Updates(updates).Error; err != nil {
				return err
			}
			record.WorkflowID = workflowID
			record.AdHocDefinition = binding.AdHocDefinition
		}

		var stepCount int
		if err := tx.Model(&domain.WorkflowStepInstance{}).
			Where(&domain.WorkflowStepInstance{InstanceID: record.ID}).Count(&stepCount).Error; err != nil {
			return err
		}
		if stepCount > 0 {
			return nil
		}
		return materializeSteps(tx, &record)
	})
	if err != nil {
		return nil, err
	}

	return DetailInstance(requestID, s)
}

// materializeSteps copies the bound step list into per-request step
// instances: index 0 starts current, the rest pending. Order, name and
// metadata are snapshotted so later template edits never invalidate a
// running instance.
func materializeSteps(tx *gorm.DB, record *domain.WorkflowInstance) error {
	now := types.CurrentTimestamp()

	blueprints := []domain.WorkflowStepInstance{}
	if record.WorkflowID != 0 {
		var templateSteps []domain.WorkflowStep
		if err := tx.Where(domain.WorkflowStep{WorkflowID: record.WorkflowID}).
			Order("step_order ASC").Find(&templateSteps).Error; err != nil {
			return err
		}
		for _, step := range templateSteps {
			blueprints = append(blueprints, domain.WorkflowStepInstance{
				StepOrder: step.StepOrder,
				Name:      step.Name,
				RoleKey:   step.RoleKey,
				Metadata:  step.Metadata,
			})
		}
	} else if record.AdHocDefinition != nil {
		for i, step := range record.AdHocDefinition.Steps {
			blueprints = append(blueprints, domain.WorkflowStepInstance{
				StepOrder:  i,
				Name:       step.Name,
				RoleKey:    step.RoleKey,
				AssignedTo: step.AssignedTo,
				Metadata:   step.Metadata,
			})
		}
	}

	for i := range blueprints {
		step := blueprints[i]
		step.ID = idgen.NextID(idWorker)
		step.InstanceID = record.ID
		step.Status = domain.StepStatusPending
		step.CreateTime = now
		if i == 0 {
			step.Status = domain.StepStatusCurrent
			startedAt := now
			step.StartedAt = &startedAt
		}
		if err := tx.Create(&step).Error; err != nil {
			return err
		}
	}
	return nil
}

func extendStepInstances(steps []domain.WorkflowStepInstanceDetail, s *session.Session) error {
	if len(steps) == 0 {
		return nil
	}
	userIds := []types.ID{}
	for _, step := range steps {
		if step.AssignedTo != 0 {
			userIds = append(userIds, step.AssignedTo)
		}
	}
	names, err := account.QueryAccountNamesFunc(s, userIds)
	if err != nil {
		return err
	}
	for i := range steps {
		steps[i].AssignedToName = names[steps[i].AssignedTo]
	}
	return nil
}
