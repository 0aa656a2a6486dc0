package servehttp

import (
	"docflow/bizerror"
	"docflow/domain"
	"docflow/domain/instance"
	"docflow/misc"
	"docflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterRequestWorkflowHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/requests/:id/workflow", middleWares...)

	handler := &requestWorkflowHandler{
		validator: validator.New(),
	}

	g.GET("", handler.handleDetailInstance)
	g.POST("/actions", handler.handleInvokeAction)
}

type requestWorkflowHandler struct {
	validator *validator.Validate
}

func (h *requestWorkflowHandler) handleDetailInstance(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	detail, err := instance.DetailInstanceFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, detail)
}

// handleInvokeAction dispatches on the action verb: init and set_workflow
// bind (or rebind) the workflow, the terminal verbs advance it.
func (h *requestWorkflowHandler) handleInvokeAction(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	invocation := domain.WorkflowActionInvocation{}
	err = c.ShouldBindBodyWith(&invocation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(invocation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	s := session.ExtractSessionFromGinContext(c)
	switch invocation.Action {
	case domain.ActionInit, domain.ActionSetWorkflow:
		instanceBinding := domain.InstanceBinding{
			WorkflowID:      invocation.WorkflowID,
			AdHocDefinition: invocation.AIGeneratedDefinition,
		}
		detail, err := instance.CreateOrUpdateInstanceFunc(id, &instanceBinding, s)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.JSON(http.StatusOK, detail)
	case domain.ActionApprove, domain.ActionReject, domain.ActionRequestRevision:
		detail, err := instance.PerformActionFunc(id, invocation.Action, invocation.Comment, s)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.JSON(http.StatusOK, detail)
	default:
		_ = c.Error(bizerror.ErrUnknownAction)
		c.Abort()
	}
}
