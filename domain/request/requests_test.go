package request_test

import (
	"context"
	"docflow/account"
	"docflow/auditlog"
	"docflow/bizerror"
	"docflow/department"
	"docflow/domain"
	"docflow/domain/request"
	"docflow/persistence"
	"docflow/template"
	"docflow/testinfra"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
)

func setup(t *testing.T, testDatabase **testinfra.TestDatabase) {
	db := testinfra.StartMysqlTestDatabase("docflow")
	assert.Nil(t, db.DS.GormDB(context.Background()).AutoMigrate(
		&domain.Request{}, &auditlog.AuditLog{},
		&account.User{}, &department.Department{}, &template.Template{}).Error)
	persistence.ActiveDataSourceManager = db.DS
	*testDatabase = db
}

func teardown(t *testing.T, testDatabase *testinfra.TestDatabase) {
	if testDatabase != nil {
		testinfra.StopMysqlTestDatabase(testDatabase)
	}
}

func TestNextRequestCode(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should carry the current year and a five digit suffix", func(t *testing.T) {
		code := request.NextRequestCode()
		Expect(code).To(MatchRegexp(fmt.Sprintf(`^REQ-%d-\d{5}$`, time.Now().Year())))
	})
}

func TestCreateRequest(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should persist the request as a draft with a generated code", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		db := testDatabase.DS.GormDB(context.Background())
		assert.Nil(t, db.Create(&department.Department{ID: 20, Name: "Quality"}).Error)

		creation := domain.RequestCreation{TemplateID: 1, Title: "SOP update", DepartmentID: 20}
		detail, err := request.CreateRequest(&creation, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(detail.Title).To(Equal("SOP update"))
		Expect(detail.Status).To(Equal(domain.StatusDraft))
		Expect(detail.CreatedBy).To(Equal(types.ID(10)))
		Expect(detail.CurrentReviewerIndex).To(Equal(-1))
		Expect(detail.DepartmentName).To(Equal("Quality"))
		Expect(regexp.MustCompile(`^REQ-\d{4}-\d{5}$`).MatchString(detail.Code)).To(BeTrue())

		record := domain.Request{}
		assert.Nil(t, db.Where(&domain.Request{ID: detail.ID}).First(&record).Error)
		Expect(record.Code).To(Equal(detail.Code))

		// creation is journaled exactly once
		var entries []auditlog.AuditLog
		assert.Nil(t, db.Model(&auditlog.AuditLog{}).Find(&entries).Error)
		Expect(len(entries)).To(Equal(1))
		Expect(entries[0].Action).To(Equal(auditlog.ActionRequestCreated))
		Expect(entries[0].EntityID).To(Equal(detail.ID))
	})
}

func TestQueryRequests(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should filter by department and status with paging", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		db := testDatabase.DS.GormDB(context.Background())
		for i := 1; i <= 3; i++ {
			now := types.CurrentTimestamp()
			assert.Nil(t, db.Create(&domain.Request{ID: types.ID(i), Code: fmt.Sprintf("REQ-2026-1000%d", i),
				TemplateID: 1, Title: fmt.Sprintf("request %d", i), DepartmentID: 20,
				Status: domain.StatusSubmitted, CurrentReviewerIndex: -1,
				CreateTime: now, UpdateTime: now}).Error)
		}
		now := types.CurrentTimestamp()
		assert.Nil(t, db.Create(&domain.Request{ID: 9, Code: "REQ-2026-19999", TemplateID: 1,
			Title: "other", DepartmentID: 21, Status: domain.StatusDraft, CurrentReviewerIndex: -1,
			CreateTime: now, UpdateTime: now}).Error)

		records, total, err := request.QueryRequests(
			&domain.RequestQuery{DepartmentID: 20, Status: domain.StatusSubmitted, Page: 1, PageSize: 2},
			testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(total).To(Equal(uint64(3)))
		Expect(len(records)).To(Equal(2))

		records, total, err = request.QueryRequests(
			&domain.RequestQuery{DepartmentID: 20, Status: domain.StatusSubmitted, Page: 2, PageSize: 2},
			testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(total).To(Equal(uint64(3)))
		Expect(len(records)).To(Equal(1))
	})
}

func TestDetailRequest(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should return not found for absent request", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		detail, err := request.DetailRequest(404, testinfra.BuildSecCtx(10))
		Expect(detail).To(BeNil())
		Expect(err).To(Equal(gorm.ErrRecordNotFound))
	})

	t.Run("should attach display fields", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		db := testDatabase.DS.GormDB(context.Background())
		assert.Nil(t, db.Create(&department.Department{ID: 20, Name: "Quality"}).Error)
		assert.Nil(t, db.Create(&account.User{ID: 30, Name: "ann", Nickname: "Ann"}).Error)
		assert.Nil(t, db.Create(&template.Template{ID: 40, FileName: "sop.docx", FileSize: 1234}).Error)
		now := types.CurrentTimestamp()
		assert.Nil(t, db.Create(&domain.Request{ID: 100, Code: "REQ-2026-10001", TemplateID: 40,
			Title: "SOP update", DepartmentID: 20, Status: domain.StatusSubmitted, AssignedTo: 30,
			CurrentReviewerIndex: -1, CreateTime: now, UpdateTime: now}).Error)

		detail, err := request.DetailRequest(100, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(detail.DepartmentName).To(Equal("Quality"))
		Expect(detail.AssignedToName).To(Equal("Ann"))
		Expect(detail.TemplateFileName).To(Equal("sop.docx"))
		Expect(detail.TemplateFileSize).To(Equal(int64(1234)))
	})
}

func TestUpdateRequest(t *testing.T) {
	RegisterTestingT(t)
	var testDatabase *testinfra.TestDatabase

	t.Run("should refuse an empty patch", func(t *testing.T) {
		detail, err := request.UpdateRequest(100, &domain.RequestPatch{}, testinfra.BuildSecCtx(10))
		Expect(detail).To(BeNil())
		Expect(err).To(Equal(bizerror.ErrNoUpdatableFields))
	})

	t.Run("should return not found for absent request", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)

		title := "new title"
		detail, err := request.UpdateRequest(404, &domain.RequestPatch{Title: &title}, testinfra.BuildSecCtx(10))
		Expect(detail).To(BeNil())
		Expect(err).To(Equal(gorm.ErrRecordNotFound))
	})

	t.Run("should apply only the present fields", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		db := testDatabase.DS.GormDB(context.Background())
		now := types.CurrentTimestamp()
		assert.Nil(t, db.Create(&domain.Request{ID: 100, Code: "REQ-2026-10001", TemplateID: 1,
			Title: "old title", Status: domain.StatusDraft, Priority: "normal",
			CurrentReviewerIndex: -1, CreateTime: now, UpdateTime: now}).Error)

		title := "new title"
		detail, err := request.UpdateRequest(100, &domain.RequestPatch{Title: &title}, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(detail.Title).To(Equal("new title"))
		Expect(detail.Priority).To(Equal("normal"))
		Expect(detail.Status).To(Equal(domain.StatusDraft))

		// no status change, nothing journaled
		var auditCount int
		assert.Nil(t, db.Model(&auditlog.AuditLog{}).Count(&auditCount).Error)
		Expect(auditCount).To(Equal(0))
	})

	t.Run("should journal a status change exactly once", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		db := testDatabase.DS.GormDB(context.Background())
		now := types.CurrentTimestamp()
		assert.Nil(t, db.Create(&domain.Request{ID: 100, Code: "REQ-2026-10001", TemplateID: 1,
			Title: "title", Status: domain.StatusDraft, CurrentReviewerIndex: -1,
			CreateTime: now, UpdateTime: now}).Error)

		status := domain.StatusSubmitted
		detail, err := request.UpdateRequest(100, &domain.RequestPatch{Status: &status}, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(detail.Status).To(Equal(domain.StatusSubmitted))

		var entries []auditlog.AuditLog
		assert.Nil(t, db.Model(&auditlog.AuditLog{}).Find(&entries).Error)
		Expect(len(entries)).To(Equal(1))
		Expect(entries[0].Action).To(Equal(auditlog.ActionStatusChanged))
		Expect(entries[0].Details["from"]).To(Equal(domain.StatusDraft))
		Expect(entries[0].Details["to"]).To(Equal(domain.StatusSubmitted))
	})

	t.Run("should activate the review sequence on submission", func(t *testing.T) {
		defer teardown(t, testDatabase)
		setup(t, &testDatabase)
		db := testDatabase.DS.GormDB(context.Background())
		now := types.CurrentTimestamp()
		assert.Nil(t, db.Create(&domain.Request{ID: 100, Code: "REQ-2026-10001", TemplateID: 1,
			Title: "title", Status: domain.StatusDraft, CurrentReviewerIndex: -1,
			CreateTime: now, UpdateTime: now}).Error)

		status := domain.StatusSubmitted
		sequence := domain.ReviewSequence{31, 32}
		detail, err := request.UpdateRequest(100,
			&domain.RequestPatch{Status: &status, ReviewSequence: &sequence}, testinfra.BuildSecCtx(10))
		Expect(err).To(BeNil())
		Expect(detail.Status).To(Equal(domain.StatusSubmitted))
		Expect(detail.ReviewSequence).To(Equal(sequence))
		Expect(detail.CurrentReviewerIndex).To(Equal(0))
		Expect(detail.AssignedTo).To(Equal(types.ID(31)))
	})
}
