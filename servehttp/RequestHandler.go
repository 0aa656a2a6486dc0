package servehttp

import (
	"docflow/bizerror"
	"docflow/domain"
	"docflow/domain/request"
	"docflow/misc"
	"docflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterRequestsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/requests", middleWares...)

	handler := &requestHandler{
		validator: validator.New(),
	}

	g.GET("", handler.handleQueryRequests)
	g.POST("", handler.handleCreateRequest)
	g.GET(":id", handler.handleDetailRequest)
	g.PATCH(":id", handler.handleUpdateRequest)
}

type requestHandler struct {
	validator *validator.Validate
}

func (h *requestHandler) handleQueryRequests(c *gin.Context) {
	query := domain.RequestQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	requests, total, err := request.QueryRequestsFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, &misc.PagedBody{List: requests, Total: total})
}

func (h *requestHandler) handleCreateRequest(c *gin.Context) {
	creation := domain.RequestCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	detail, err := request.CreateRequestFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, detail)
}

func (h *requestHandler) handleDetailRequest(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	detail, err := request.DetailRequestFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *requestHandler) handleUpdateRequest(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	patch := domain.RequestPatch{}
	err = c.ShouldBindBodyWith(&patch, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	detail, err := request.UpdateRequestFunc(id, &patch, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, detail)
}
