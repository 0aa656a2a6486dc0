package servehttp

import (
	"docflow/bizerror"
	"docflow/domain"
	"docflow/domain/rule"
	"docflow/misc"
	"docflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterWorkflowRulesHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/workflow-rules", middleWares...)

	handler := &workflowRuleHandler{
		validator: validator.New(),
	}

	g.GET("", handler.handleQueryWorkflowRules)
	g.POST("", handler.handleCreateWorkflowRule)
	g.GET(":id", handler.handleDetailWorkflowRule)
	g.PATCH(":id", handler.handleUpdateWorkflowRule)
}

type workflowRuleHandler struct {
	validator *validator.Validate
}

func (h *workflowRuleHandler) handleQueryWorkflowRules(c *gin.Context) {
	query := domain.WorkflowRuleQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	rules, err := rule.QueryWorkflowRulesFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, rules)
}

func (h *workflowRuleHandler) handleCreateWorkflowRule(c *gin.Context) {
	creation := domain.WorkflowRuleCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := rule.CreateWorkflowRuleFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *workflowRuleHandler) handleDetailWorkflowRule(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	record, err := rule.DetailWorkflowRuleFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *workflowRuleHandler) handleUpdateWorkflowRule(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	patch := domain.WorkflowRulePatch{}
	err = c.ShouldBindBodyWith(&patch, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := rule.UpdateWorkflowRuleFunc(id, &patch, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, record)
}
