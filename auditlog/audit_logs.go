package auditlog

import (
	"context"
	"docflow/common"
	"docflow/idgen"
	"docflow/persistence"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	idWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	AuditPersistCreateFunc = auditPersistCreate
	QueryAuditLogsFunc     = QueryAuditLogs
)

func auditPersistCreate(record *AuditLog, db *gorm.DB) error {
	return db.Create(record).Error
}

// Append journals one state-changing action. Entries are pure inserts,
// no updates ever happen on this table.
func Append(ctx context.Context, entityType string, entityID types.ID, action string,
	userID types.ID, details Details, ipAddress string) error {

	record := &AuditLog{
		ID:         idgen.NextID(idWorker),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     userID,
		Details:    details,
		IPAddress:  ipAddress,
		CreateTime: types.CurrentTimestamp(),
	}
	return AuditPersistCreateFunc(record, persistence.ActiveDataSourceManager.GormDB(ctx))
}

// AppendSafely is the best-effort variant used after a primary transition is
// committed: a journaling failure is surfaced to operators but never undoes
// the transition.
func AppendSafely(ctx context.Context, entityType string, entityID types.ID, action string,
	userID types.ID, details Details, ipAddress string) {

	if err := Append(ctx, entityType, entityID, action, userID, details, ipAddress); err != nil {
		common.Log.WithField("entityType", entityType).WithField("entityId", entityID).
			WithField("action", action).Error("failed to append audit log: ", err)
	}
}

func QueryAuditLogs(ctx context.Context, query *AuditLogQuery) ([]AuditLogRecord, error) {
	db := persistence.ActiveDataSourceManager.GormDB(ctx)

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}

	q := db.Model(&AuditLog{})
	if query.EntityType != "" {
		q = q.Where("entity_type = ?", query.EntityType)
	}
	if query.EntityID != 0 {
		q = q.Where("entity_id = ?", query.EntityID)
	}
	if query.UserID != 0 {
		q = q.Where("user_id = ?", query.UserID)
	}
	if query.RequestID != "" {
		var ref struct{ ID types.ID }
		if err := db.Table("requests").Select("id").Where("code = ?", query.RequestID).
			Scan(&ref).Error; err != nil && err != gorm.ErrRecordNotFound {
			return nil, err
		}
		q = q.Where("entity_type = ? AND entity_id = ?", EntityTypeRequest, ref.ID)
	}

	now := time.Now()
	switch query.DateRange {
	case DateRangeToday:
		dayBegin := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		q = q.Where("create_time >= ?", dayBegin)
	case DateRangeWeek:
		q = q.Where("create_time >= ?", now.AddDate(0, 0, -7))
	case DateRangeMonth:
		q = q.Where("create_time >= ?", now.AddDate(0, 0, -30))
	default:
		if query.FromDate != "" {
			from, err := parseDate(query.FromDate)
			if err != nil {
				return nil, err
			}
			q = q.Where("create_time >= ?", from)
		}
		if query.ToDate != "" {
			to, err := parseDate(query.ToDate)
			if err != nil {
				return nil, err
			}
			q = q.Where("create_time <= ?", to)
		}
	}

	var entries []AuditLog
	if err := q.Order("create_time DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}

	records := make([]AuditLogRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, AuditLogRecord{AuditLog: entry})
	}
	if err := extendAuditLogs(records, db); err != nil {
		return nil, err
	}
	return records, nil
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// extendAuditLogs attaches denormalized display fields. The audit package
// sits below the feature packages, so the joins read the referenced tables
// directly instead of calling upward.
func extendAuditLogs(records []AuditLogRecord, db *gorm.DB) error {
	userIds := []types.ID{}
	requestIds := []types.ID{}
	templateIds := []types.ID{}
	for _, r := range records {
		if r.UserID != 0 {
			userIds = append(userIds, r.UserID)
		}
		switch r.EntityType {
		case EntityTypeRequest:
			requestIds = append(requestIds, r.EntityID)
		case EntityTypeTemplate:
			templateIds = append(templateIds, r.EntityID)
		}
	}

	type userRow struct {
		ID           types.ID
		Nickname     string
		Role         string
		DepartmentID types.ID
	}
	users := map[types.ID]userRow{}
	departmentIds := []types.ID{}
	if len(userIds) > 0 {
		var rows []userRow
		if err := db.Table("users").Select("id, nickname, role, department_id").
			Where("id IN (?)", userIds).Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			users[row.ID] = row
			if row.DepartmentID != 0 {
				departmentIds = append(departmentIds, row.DepartmentID)
			}
		}
	}

	type departmentRow struct {
		ID   types.ID
		Name string
	}
	departments := map[types.ID]string{}
	if len(departmentIds) > 0 {
		var rows []departmentRow
		if err := db.Table("departments").Select("id, name").
			Where("id IN (?)", departmentIds).Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			departments[row.ID] = row.Name
		}
	}

	type requestRow struct {
		ID   types.ID
		Code string
	}
	requestCodes := map[types.ID]string{}
	if len(requestIds) > 0 {
		var rows []requestRow
		if err := db.Table("requests").Select("id, code").
			Where("id IN (?)", requestIds).Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			requestCodes[row.ID] = row.Code
		}
	}

	type templateRow struct {
		ID       types.ID
		FileName string
	}
	templateNames := map[types.ID]string{}
	if len(templateIds) > 0 {
		var rows []templateRow
		if err := db.Table("templates").Select("id, file_name").
			Where("id IN (?)", templateIds).Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			templateNames[row.ID] = row.FileName
		}
	}

	for i := range records {
		r := &records[i]
		if user, found := users[r.UserID]; found {
			r.UserName = user.Nickname
			r.UserRole = user.Role
			r.DepartmentName = departments[user.DepartmentID]
		}
		r.EntityName = r.EntityID.String()
		switch r.EntityType {
		case EntityTypeRequest:
			if code, found := requestCodes[r.EntityID]; found {
				r.EntityName = code
				r.RequestCode = code
			}
		case EntityTypeTemplate:
			if name, found := templateNames[r.EntityID]; found {
				r.EntityName = name
			}
		}
	}
	return nil
}
