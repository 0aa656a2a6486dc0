package servehttp

import (
	"docflow/auditlog"
	"docflow/misc"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterAuditLogsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/audit-logs", middleWares...)
	g.GET("", handleQueryAuditLogs)

	// the activity view of one request is the same journal filtered down
	a := r.Group("/v1/requests/:id/activity", middleWares...)
	a.GET("", handleQueryRequestActivity)
}

func handleQueryAuditLogs(c *gin.Context) {
	query := auditlog.AuditLogQuery{}
	_ = c.MustBindWith(&query, binding.Query)

	records, err := auditlog.QueryAuditLogsFunc(c.Request.Context(), &query)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, records)
}

func handleQueryRequestActivity(c *gin.Context) {
	id, err := types.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "common.bad_param", Message: "invalid id '" + c.Param("id") + "'"})
		return
	}

	query := auditlog.AuditLogQuery{}
	_ = c.MustBindWith(&query, binding.Query)
	query.EntityType = auditlog.EntityTypeRequest
	query.EntityID = id

	records, err := auditlog.QueryAuditLogsFunc(c.Request.Context(), &query)
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, records)
}
