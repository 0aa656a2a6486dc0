package servehttp

import (
	"docflow/bizerror"
	"docflow/domain"
	"docflow/domain/flow"
	"docflow/misc"
	"docflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterWorkflowsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/workflows", middleWares...)

	handler := &workflowHandler{
		validator: validator.New(),
	}

	g.GET("", handler.handleQueryWorkflows)
	g.POST("", handler.handleCreateWorkflow)
	g.GET(":flowId", handler.handleDetailWorkflow)
	g.PATCH(":flowId", handler.handleUpdateWorkflow)

	g.GET(":flowId/steps", handler.handleQueryWorkflowSteps)
	g.PUT(":flowId/steps", handler.handleReplaceWorkflowSteps)
}

type workflowHandler struct {
	validator *validator.Validate
}

func (h *workflowHandler) handleQueryWorkflows(c *gin.Context) {
	query := domain.WorkflowQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	workflows, err := flow.QueryWorkflowsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, workflows)
}

func (h *workflowHandler) handleCreateWorkflow(c *gin.Context) {
	creation := domain.WorkflowCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	workflow, err := flow.CreateWorkflowFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, workflow)
}

func (h *workflowHandler) handleDetailWorkflow(c *gin.Context) {
	id, err := types.ParseID(c.Param("flowId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("flowId") + "'"})
		return
	}

	workflowDetail, err := flow.DetailWorkflowFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, workflowDetail)
}

func (h *workflowHandler) handleUpdateWorkflow(c *gin.Context) {
	id, err := types.ParseID(c.Param("flowId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("flowId") + "'"})
		return
	}

	patch := domain.WorkflowPatch{}
	err = c.ShouldBindBodyWith(&patch, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	workflow, err := flow.UpdateWorkflowFunc(id, &patch, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, workflow)
}

func (h *workflowHandler) handleQueryWorkflowSteps(c *gin.Context) {
	id, err := types.ParseID(c.Param("flowId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("flowId") + "'"})
		return
	}

	steps, err := flow.QueryWorkflowStepsFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, steps)
}

func (h *workflowHandler) handleReplaceWorkflowSteps(c *gin.Context) {
	id, err := types.ParseID(c.Param("flowId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("flowId") + "'"})
		return
	}

	var steps []domain.WorkflowStepReplacing
	err = c.ShouldBindBodyWith(&steps, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	for _, step := range steps {
		if err = h.validator.Struct(step); err != nil {
			panic(&bizerror.ErrBadParam{Cause: err})
		}
	}

	replaced, err := flow.ReplaceWorkflowStepsFunc(id, steps, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, replaced)
}
