package servehttp_test

import (
	"bytes"
	"docflow/bizerror"
	"docflow/domain"
	"docflow/domain/instance"
	"docflow/servehttp"
	"docflow/session"
	"docflow/testinfra"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func demoInstanceDetail() *domain.WorkflowInstanceDetail {
	ts := types.CurrentTimestamp()
	workflowID := types.ID(200)
	return &domain.WorkflowInstanceDetail{
		RequestID:  100,
		WorkflowID: &workflowID,
		Steps: []domain.WorkflowStepInstanceDetail{
			{WorkflowStepInstance: domain.WorkflowStepInstance{ID: 1, InstanceID: 300, StepOrder: 0,
				Name: "Draft Review", RoleKey: "reviewer", Status: domain.StepStatusCurrent,
				StartedAt: &ts, CreateTime: ts}},
			{WorkflowStepInstance: domain.WorkflowStepInstance{ID: 2, InstanceID: 300, StepOrder: 1,
				Name: "Final Approval", RoleKey: "approver", Status: domain.StepStatusPending,
				CreateTime: ts}},
		},
	}
}

func TestDetailRequestWorkflowRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	servehttp.RegisterRequestWorkflowHandler(router)

	t.Run("should return 400 for an invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/requests/abc/workflow", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"common.bad_param","message":"invalid id 'abc'","data":null}`))
	})

	t.Run("should return 404 when request is not found", func(t *testing.T) {
		instance.DetailInstanceFunc = func(requestID types.ID, s *session.Session) (*domain.WorkflowInstanceDetail, error) {
			return nil, gorm.ErrRecordNotFound
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/requests/404/workflow", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(body).To(MatchJSON(`{"code":"common.record_not_found","message":"record not found","data":null}`))
	})

	t.Run("should return the empty shell for a request without workflow", func(t *testing.T) {
		instance.DetailInstanceFunc = func(requestID types.ID, s *session.Session) (*domain.WorkflowInstanceDetail, error) {
			return &domain.WorkflowInstanceDetail{RequestID: requestID, Steps: []domain.WorkflowStepInstanceDetail{}}, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/requests/100/workflow", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"requestId": "100", "workflowId": null, "steps": []}`))
	})

	t.Run("should return the instance with its steps", func(t *testing.T) {
		detail := demoInstanceDetail()
		instance.DetailInstanceFunc = func(requestID types.ID, s *session.Session) (*domain.WorkflowInstanceDetail, error) {
			Expect(requestID).To(Equal(types.ID(100)))
			return detail, nil
		}
		req := httptest.NewRequest(http.MethodGet, "/v1/requests/100/workflow", nil)
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(marshaled(detail)))
	})
}

func TestInvokeWorkflowActionRestAPI(t *testing.T) {
	RegisterTestingT(t)

	router := gin.Default()
	router.Use(bizerror.ErrorHandling())
	servehttp.RegisterRequestWorkflowHandler(router)

	t.Run("should return 400 when the action is missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/requests/100/workflow/actions", bytes.NewReader([]byte(`{}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{
			"code": "common.bad_param",
			"message": "Key: 'WorkflowActionInvocation.Action' Error:Field validation for 'Action' failed on the 'required' tag",
			"data": null
		}`))
	})

	t.Run("should return 400 for an unknown action", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/requests/100/workflow/actions",
			bytes.NewReader([]byte(`{"action": "publish"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusBadRequest))
		Expect(body).To(MatchJSON(`{"code":"workflow.unknown_action","message":"unknown workflow action","data":null}`))
	})

	t.Run("should bind a workflow on init", func(t *testing.T) {
		detail := demoInstanceDetail()
		instance.CreateOrUpdateInstanceFunc = func(requestID types.ID, binding *domain.InstanceBinding, s *session.Session) (*domain.WorkflowInstanceDetail, error) {
			Expect(requestID).To(Equal(types.ID(100)))
			Expect(*binding.WorkflowID).To(Equal(types.ID(200)))
			Expect(binding.AdHocDefinition).To(BeNil())
			return detail, nil
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/requests/100/workflow/actions",
			bytes.NewReader([]byte(`{"action": "init", "workflow_id": "200"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(marshaled(detail)))
	})

	t.Run("should rebind with an ad-hoc definition on set_workflow", func(t *testing.T) {
		detail := demoInstanceDetail()
		instance.CreateOrUpdateInstanceFunc = func(requestID types.ID, binding *domain.InstanceBinding, s *session.Session) (*domain.WorkflowInstanceDetail, error) {
			Expect(binding.WorkflowID).To(BeNil())
			Expect(binding.AdHocDefinition.Kind).To(Equal(domain.DefinitionKindAdHoc))
			Expect(len(binding.AdHocDefinition.Steps)).To(Equal(1))
			Expect(binding.AdHocDefinition.Steps[0].Name).To(Equal("Generated Review"))
			return detail, nil
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/requests/100/workflow/actions",
			bytes.NewReader([]byte(`{"action": "set_workflow",
				"ai_generated_definition": {"kind": "ad-hoc", "steps": [{"name": "Generated Review", "roleKey": "reviewer"}]}}`)))
		status, _, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
	})

	t.Run("should advance the workflow on approve", func(t *testing.T) {
		detail := demoRequestDetail()
		detail.Status = domain.StatusApproved
		instance.PerformActionFunc = func(requestID types.ID, action string, comment string, s *session.Session) (*domain.RequestDetail, error) {
			Expect(requestID).To(Equal(types.ID(100)))
			Expect(action).To(Equal(domain.ActionApprove))
			Expect(comment).To(Equal("looks good"))
			return detail, nil
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/requests/100/workflow/actions",
			bytes.NewReader([]byte(`{"action": "approve", "comment": "looks good"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(marshaled(detail)))
	})

	t.Run("should surface a conflict when the step was already advanced", func(t *testing.T) {
		instance.PerformActionFunc = func(requestID types.ID, action string, comment string, s *session.Session) (*domain.RequestDetail, error) {
			return nil, bizerror.ErrConflict
		}
		req := httptest.NewRequest(http.MethodPost, "/v1/requests/100/workflow/actions",
			bytes.NewReader([]byte(`{"action": "reject"}`)))
		status, body, _ := testinfra.ExecuteRequest(req, router)
		Expect(status).To(Equal(http.StatusConflict))
		Expect(body).To(MatchJSON(`{"code":"common.conflict","message":"concurrent modification","data":null}`))
	})
}
