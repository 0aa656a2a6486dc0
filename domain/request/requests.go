package request

import (
	"docflow/account"
	"docflow/auditlog"
	"docflow/bizerror"
	"docflow/department"
	"docflow/domain"
	"docflow/idgen"
	"docflow/persistence"
	"docflow/session"
	"docflow/template"
	"fmt"
	"math/rand"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/go-sql-driver/mysql"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	requestIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryRequestsFunc = QueryRequests
	DetailRequestFunc = DetailRequest
	CreateRequestFunc = CreateRequest
	UpdateRequestFunc = UpdateRequest
)

const (
	defaultPageSize = 50
	maxPageSize     = 500

	codeAllocateAttempts = 3
)

// NextRequestCode builds a human readable request code. Uniqueness is only
// guaranteed by the index on requests.code; CreateRequest retries on a
// duplicate.
func NextRequestCode() string {
	return fmt.Sprintf("REQ-%d-%05d", time.Now().Year(), 10000+rand.Intn(90000))
}

func isDuplicateEntry(err error) bool {
	mysqlErr, ok := err.(*mysql.MySQLError)
	return ok && mysqlErr.Number == 1062
}

func CreateRequest(c *domain.RequestCreation, s *session.Session) (*domain.RequestDetail, error) {
	now := types.CurrentTimestamp()
	record := domain.Request{
		ID:           idgen.NextID(requestIdWorker),
		TemplateID:   c.TemplateID,
		Title:        c.Title,
		DepartmentID: c.DepartmentID,
		Status:       domain.StatusDraft,
		CreatedBy:    s.Identity.ID,

		CurrentReviewerIndex: -1,

		CreateTime: now,
		UpdateTime: now,
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	var err error
	for attempt := 0; attempt < codeAllocateAttempts; attempt++ {
		record.Code = NextRequestCode()
		if err = db.Create(&record).Error; err == nil || !isDuplicateEntry(err) {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	auditlog.AppendSafely(s.Context, auditlog.EntityTypeRequest, record.ID,
		auditlog.ActionRequestCreated, s.Identity.ID, auditlog.Details{"code": record.Code}, "")

	extended := []domain.RequestDetail{{Request: record}}
	if err := ExtendRequests(extended, s); err != nil {
		return nil, err
	}
	return &extended[0], nil
}

func QueryRequests(query *domain.RequestQuery, s *session.Session) ([]domain.RequestDetail, uint64, error) {
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)

	q := db.Model(&domain.Request{})
	if query.DepartmentID != 0 {
		q = q.Where("department_id = ?", query.DepartmentID)
	}
	if query.Status != "" {
		q = q.Where("status = ?", query.Status)
	}

	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	var records []domain.Request
	if err := q.Order("create_time DESC").Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	details := make([]domain.RequestDetail, 0, len(records))
	for _, r := range records {
		details = append(details, domain.RequestDetail{Request: r})
	}
	if err := ExtendRequests(details, s); err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func DetailRequest(id types.ID, s *session.Session) (*domain.RequestDetail, error) {
	detail := domain.RequestDetail{}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Where(&domain.Request{ID: id}).First(&detail.Request).Error; err != nil {
		return nil, err
	}

	extended := []domain.RequestDetail{detail}
	if err := ExtendRequests(extended, s); err != nil {
		return nil, err
	}
	return &extended[0], nil
}

// UpdateRequest is the raw field edit path. A status set through here does
// not advance any workflow instance; only the workflow action endpoint does
// that. It does journal a status_changed entry when the status differs.
func UpdateRequest(id types.ID, patch *domain.RequestPatch, s *session.Session) (*domain.RequestDetail, error) {
	if patch.Empty() {
		return nil, bizerror.ErrNoUpdatableFields
	}

	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	record := domain.Request{}
	statusFrom := ""
	statusTo := ""
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(&domain.Request{ID: id}).First(&record).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"update_time": types.CurrentTimestamp()}
		if patch.Title != nil {
			updates["title"] = *patch.Title
		}
		if patch.AssignedTo != nil {
			updates["assigned_to"] = *patch.AssignedTo
		}
		if patch.Priority != nil {
			updates["priority"] = *patch.Priority
		}
		if patch.SubmissionComments != nil {
			updates["submission_comments"] = *patch.SubmissionComments
		}

		reviewSequence := record.ReviewSequence
		if patch.ReviewSequence != nil {
			reviewSequence = *patch.ReviewSequence
			updates["review_sequence"] = *patch.ReviewSequence
		}
		if patch.Status != nil && *patch.Status != record.Status {
			updates["status"] = *patch.Status
			statusFrom = record.Status
			statusTo = *patch.Status

			// submission activates the flat review sequence
			if *patch.Status == domain.StatusSubmitted && len(reviewSequence) > 0 {
				updates["current_reviewer_index"] = 0
				updates["assigned_to"] = reviewSequence[0]
			}
		}

		return tx.Model(&domain.Request{}).Where(&domain.Request{ID: id}).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	if statusTo != "" {
		auditlog.AppendSafely(s.Context, auditlog.EntityTypeRequest, id, auditlog.ActionStatusChanged,
			s.Identity.ID, auditlog.Details{"from": statusFrom, "to": statusTo}, "")
	}

	return DetailRequest(id, s)
}

// ExtendRequests attaches display fields resolved through the directory and
// template collaborators.
func ExtendRequests(records []domain.RequestDetail, s *session.Session) error {
	if len(records) == 0 {
		return nil
	}

	userIds := []types.ID{}
	departmentIds := []types.ID{}
	templateIds := []types.ID{}
	for _, r := range records {
		if r.AssignedTo != 0 {
			userIds = append(userIds, r.AssignedTo)
		}
		if r.DepartmentID != 0 {
			departmentIds = append(departmentIds, r.DepartmentID)
		}
		if r.TemplateID != 0 {
			templateIds = append(templateIds, r.TemplateID)
		}
	}

	userNames, err := account.QueryAccountNamesFunc(s, userIds)
	if err != nil {
		return err
	}
	departmentNames, err := department.QueryDepartmentNamesFunc(s, departmentIds)
	if err != nil {
		return err
	}
	templates, err := template.QueryTemplateFileInfos(s, templateIds)
	if err != nil {
		return err
	}

	for i := range records {
		r := &records[i]
		r.AssignedToName = userNames[r.AssignedTo]
		r.DepartmentName = departmentNames[r.DepartmentID]
		if t, found := templates[r.TemplateID]; found {
			r.TemplateFileName = t.FileName
			r.TemplateFileSize = t.FileSize
		}
	}
	return nil
}
