package main

import (
	"context"
	"docflow/account"
	"docflow/auditlog"
	"docflow/bizerror"
	"docflow/client/s3"
	"docflow/common"
	"docflow/department"
	"docflow/domain"
	"docflow/infra/tracing"
	"docflow/persistence"
	"docflow/servehttp"
	"docflow/session"
	"docflow/sessions"
	"docflow/template"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service start")

	tracingCloser, err := tracing.Bootstrap(common.GetServiceName())
	if err != nil {
		log.Fatalf("tracing bootstrap failed %v\n", err)
	}
	defer tracingCloser.Close()

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	// connect database
	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(context.Background()).AutoMigrate(
		&domain.Request{},
		&domain.Workflow{},
		&domain.WorkflowStep{},
		&domain.WorkflowInstance{},
		&domain.WorkflowStepInstance{},
		&domain.WorkflowRule{},
		&domain.FormData{},
		&auditlog.AuditLog{},
		&account.User{},
		&department.Department{},
		&template.Template{},
		&persistence.SchemaVersion{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}
	if err := persistence.CheckSchemaVersion(ds.GormDB(context.Background())); err != nil {
		log.Fatalf("schema version check failed %v\n", err)
	}

	s3.Bootstrap()

	engine := gin.New()
	engine.Use(gin.Recovery(), bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "docflow")
	})

	sessions.RegisterSessionsHandler(engine)

	securedRoute := session.SimpleAuthFilter()
	servehttp.RegisterRequestsHandler(engine, securedRoute)
	servehttp.RegisterRequestWorkflowHandler(engine, securedRoute)
	servehttp.RegisterFormDataHandler(engine, securedRoute)
	servehttp.RegisterWorkflowsHandler(engine, securedRoute)
	servehttp.RegisterWorkflowRulesHandler(engine, securedRoute)
	servehttp.RegisterAuditLogsHandler(engine, securedRoute)
	servehttp.RegisterTemplatesHandler(engine, securedRoute)
	servehttp.RegisterAccountsHandler(engine, securedRoute)

	servehttp.StartHTTPServer(engine)
}
