package servehttp

import (
	"docflow/bizerror"
	"docflow/domain"
	"docflow/domain/formdata"
	"docflow/misc"
	"docflow/session"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterFormDataHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/requests/:id/form-data", middleWares...)
	g.GET("", handleGetFormData)
	g.PUT("", handleSaveFormData)
}

func handleGetFormData(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	record, err := formdata.GetFormDataFunc(id, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, record)
}

func handleSaveFormData(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	saving := domain.FormDataSaving{}
	if err := c.ShouldBindBodyWith(&saving, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := formdata.SaveFormDataFunc(id, &saving, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, record)
}
