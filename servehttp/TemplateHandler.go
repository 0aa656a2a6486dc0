package servehttp

import (
	"docflow/bizerror"
	"docflow/misc"
	"docflow/session"
	"docflow/template"
	"io"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterTemplatesHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/templates", middleWares...)

	handler := &templateHandler{
		validator: validator.New(),
	}

	g.GET("", handler.handleQueryTemplates)
	g.POST("", handler.handleCreateTemplate)
	g.GET(":id", handler.handleDetailTemplate)
	g.GET(":id/content", handler.handleTemplateContent)
}

type templateHandler struct {
	validator *validator.Validate
}

func (h *templateHandler) handleQueryTemplates(c *gin.Context) {
	query := template.TemplateQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	templates, err := template.QueryTemplatesFunc(&query, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *templateHandler) handleCreateTemplate(c *gin.Context) {
	creation := template.TemplateCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := template.CreateTemplateFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, record)
}

func (h *templateHandler) handleDetailTemplate(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	record, err := template.DetailTemplateFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *templateHandler) handleTemplateContent(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	record, reader, err := template.TemplateContentFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	defer func() {
		_ = reader.Close()
	}()

	c.Header("Content-Disposition", `attachment; filename="`+record.FileName+`"`)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}
