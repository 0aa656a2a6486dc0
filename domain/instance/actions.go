package instance

import (
	"docflow/auditlog"
	"docflow/bizerror"
	"docflow/domain"
	"docflow/domain/request"
	"docflow/persistence"
	"docflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var PerformActionFunc = PerformAction

// ActionTargetStatus maps a terminal workflow action onto the request
// status it produces.
func ActionTargetStatus(action string) (string, error) {
	switch action {
	case domain.ActionApprove:
		return domain.StatusApproved, nil
	case domain.ActionReject:
		return domain.StatusRejected, nil
	case domain.ActionRequestRevision:
		return domain.StatusNeedsRevision, nil
	}
	return "", bizerror.ErrUnknownAction
}

// PerformAction owns one approve/reject/request_revision transition. The
// whole read-then-write runs in a single transaction; the current step is
// advanced through a guarded update so concurrent calls for the same request
// either short-circuit idempotently or fail with a conflict.
//
// The status mapping applies even when no workflow instance exists, so
// workflow-less requests can still be bulk approved or rejected. A request
// carrying only a flat review sequence takes the sequence path instead: see
// advanceReviewSequence.
func PerformAction(requestID types.ID, action string, comment string, s *session.Session) (*domain.RequestDetail, error) {
	targetStatus, err := ActionTargetStatus(action)
	if err != nil {
		return nil, err
	}

	statusFrom := ""
	statusTo := ""
	completedStepName := ""
	journal := true

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	err = db.Transaction(func(tx *gorm.DB) error {
		req := domain.Request{}
		if err := tx.Where(&domain.Request{ID: requestID}).First(&req).Error; err != nil {
			return err
		}
		statusFrom = req.Status
		now := types.CurrentTimestamp()

		inst := domain.WorkflowInstance{}
		var steps []domain.WorkflowStepInstance
		err := tx.Where(&domain.WorkflowInstance{RequestID: requestID}).First(&inst).Error
		if err == nil {
			if err := tx.Where(domain.WorkflowStepInstance{InstanceID: inst.ID}).
				Order("step_order ASC").Find(&steps).Error; err != nil {
				return err
			}
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		if len(steps) == 0 && sequenceActive(&req) {
			to, noop, err := advanceReviewSequence(tx, &req, action, targetStatus, now)
			if err != nil {
				return err
			}
			if noop {
				journal = false
			}
			statusTo = to
			return nil
		}

		if len(steps) > 0 {
			currentStep := findCurrentStep(steps)
			if currentStep != nil {
				completedStatus := domain.StepStatusCompleted
				if action != domain.ActionApprove {
					completedStatus = domain.StepStatusRejected
				}

				q := tx.Model(&domain.WorkflowStepInstance{}).
					Where("id = ? AND status = ?", currentStep.ID, domain.StepStatusCurrent).
					Updates(map[string]interface{}{"status": completedStatus, "completed_at": now})
				if q.Error != nil {
					return q.Error
				}
				if q.RowsAffected != 1 {
					if err := settleLostStepRace(tx, currentStep.ID, completedStatus,
						requestID, targetStatus); err != nil {
						return err
					}
					// a retry of an already applied transition; nothing left
					// to write or journal
					journal = false
					statusTo = targetStatus
					return nil
				}
				completedStepName = currentStep.Name

				if action == domain.ActionApprove {
					if nextStep := findStepByOrder(steps, currentStep.StepOrder+1); nextStep != nil {
						nq := tx.Model(&domain.WorkflowStepInstance{}).
							Where("id = ? AND status = ?", nextStep.ID, domain.StepStatusPending).
							Updates(map[string]interface{}{"status": domain.StepStatusCurrent, "started_at": now})
						if nq.Error != nil {
							return nq.Error
						}
						if nq.RowsAffected != 1 {
							return bizerror.ErrConflict
						}
					}
					// no next step: the instance is complete and keeps no
					// current step; the request status is the outcome record
				}
				// reject/request_revision leave the instance halted with no
				// current step
			}
		}

		statusTo = targetStatus
		return tx.Model(&domain.Request{}).Where(&domain.Request{ID: requestID}).
			Updates(map[string]interface{}{"status": targetStatus, "update_time": now}).Error
	})
	if err != nil {
		return nil, err
	}

	if journal {
		details := auditlog.Details{"action": action, "from": statusFrom}
		if statusTo != "" {
			details["to"] = statusTo
		}
		if comment != "" {
			details["comment"] = comment
		}
		if completedStepName != "" {
			details["step"] = completedStepName
		}
		auditlog.AppendSafely(s.Context, auditlog.EntityTypeRequest, requestID,
			"workflow_"+action, s.Identity.ID, details, "")
	}

	return request.DetailRequestFunc(requestID, s)
}

// settleLostStepRace decides the outcome for a caller whose guarded step
// update matched no row. nil means the winner already drove both the step and
// the request to exactly the end state this call wanted, so the call is a
// retry of the same transition. Reaching the same step status through a
// different action (reject and request_revision both leave the step rejected)
// is still a conflict.
func settleLostStepRace(tx *gorm.DB, stepID types.ID, completedStatus string,
	requestID types.ID, targetStatus string) error {

	refreshed := domain.WorkflowStepInstance{}
	if err := tx.Where(&domain.WorkflowStepInstance{ID: stepID}).First(&refreshed).Error; err != nil {
		return err
	}
	if refreshed.Status != completedStatus {
		return bizerror.ErrConflict
	}

	settled := domain.Request{}
	if err := tx.Where(&domain.Request{ID: requestID}).First(&settled).Error; err != nil {
		return err
	}
	if settled.Status != targetStatus {
		return bizerror.ErrConflict
	}
	return nil
}

func findCurrentStep(steps []domain.WorkflowStepInstance) *domain.WorkflowStepInstance {
	for i := range steps {
		if steps[i].Status == domain.StepStatusCurrent {
			return &steps[i]
		}
	}
	return nil
}

func findStepByOrder(steps []domain.WorkflowStepInstance, order int) *domain.WorkflowStepInstance {
	for i := range steps {
		if steps[i].StepOrder == order {
			return &steps[i]
		}
	}
	return nil
}
