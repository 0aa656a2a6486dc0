package servehttp

import (
	"docflow/account"
	"docflow/bizerror"
	"docflow/department"
	"docflow/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func RegisterAccountsHandler(r *gin.Engine, middleWares ...gin.HandlerFunc) {
	handler := &accountHandler{
		validator: validator.New(),
	}

	u := r.Group("/v1/users", middleWares...)
	u.GET("", handler.handleQueryUsers)
	u.POST("", handler.handleCreateUser)

	d := r.Group("/v1/departments", middleWares...)
	d.GET("", handler.handleQueryDepartments)
	d.POST("", handler.handleCreateDepartment)
}

type accountHandler struct {
	validator *validator.Validate
}

func (h *accountHandler) handleQueryUsers(c *gin.Context) {
	users, err := account.QueryUsersFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *accountHandler) handleCreateUser(c *gin.Context) {
	creation := account.UserCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	user, err := account.CreateUserFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *accountHandler) handleQueryDepartments(c *gin.Context) {
	departments, err := department.QueryDepartmentsFunc(session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusOK, departments)
}

func (h *accountHandler) handleCreateDepartment(c *gin.Context) {
	creation := department.DepartmentCreation{}
	err := c.ShouldBindBodyWith(&creation, binding.JSON)
	if err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err = h.validator.Struct(creation); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}

	record, err := department.CreateDepartmentFunc(&creation, session.ExtractSessionFromGinContext(c))
	if err != nil {
		_ = c.Error(err)
		c.Abort()
		return
	}
	c.JSON(http.StatusCreated, record)
}
