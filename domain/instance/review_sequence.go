package instance

import (
	"docflow/bizerror"
	"docflow/domain"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// sequenceActive reports whether the request is mid-way through its flat
// review sequence. A negative index means the sequence was never started or
// already finished.
func sequenceActive(req *domain.Request) bool {
	return req.CurrentReviewerIndex >= 0 &&
		req.CurrentReviewerIndex < len(req.ReviewSequence)
}

// advanceReviewSequence handles an action against a request that carries a
// flat reviewer list instead of a workflow instance. Approval moves the
// cursor to the next reviewer and reassigns the request; only exhausting the
// sequence approves it. Reject and request_revision halt the sequence and
// map the status directly.
//
// The cursor update is guarded on the index the caller read, so two
// concurrent approvals cannot both advance; the loser either short-circuits
// as a no-op (noop true, nothing gets journaled) or reports a conflict.
// Returns the status the request ended up with, or "" when only the cursor
// moved.
func advanceReviewSequence(tx *gorm.DB, req *domain.Request, action string, targetStatus string, now types.Timestamp) (string, bool, error) {
	if action != domain.ActionApprove {
		q := tx.Model(&domain.Request{}).
			Where("id = ? AND current_reviewer_index = ?", req.ID, req.CurrentReviewerIndex).
			Updates(map[string]interface{}{"status": targetStatus, "update_time": now})
		if q.Error != nil {
			return "", false, q.Error
		}
		if q.RowsAffected != 1 {
			return "", false, bizerror.ErrConflict
		}
		return targetStatus, false, nil
	}

	nextIndex := req.CurrentReviewerIndex + 1
	updates := map[string]interface{}{
		"current_reviewer_index": nextIndex,
		"update_time":            now,
	}
	statusTo := ""
	if nextIndex < len(req.ReviewSequence) {
		updates["assigned_to"] = req.ReviewSequence[nextIndex]
	} else {
		updates["status"] = domain.StatusApproved
		updates["assigned_to"] = types.ID(0)
		statusTo = domain.StatusApproved
	}

	q := tx.Model(&domain.Request{}).
		Where("id = ? AND current_reviewer_index = ?", req.ID, req.CurrentReviewerIndex).
		Updates(updates)
	if q.Error != nil {
		return "", false, q.Error
	}
	if q.RowsAffected != 1 {
		refreshed := domain.Request{}
		if err := tx.Where(&domain.Request{ID: req.ID}).First(&refreshed).Error; err != nil {
			return "", false, err
		}
		if refreshed.CurrentReviewerIndex >= nextIndex {
			return "", true, nil
		}
		return "", false, bizerror.ErrConflict
	}
	return statusTo, false, nil
}
