package testinfra

import (
	"context"
	"docflow/session"
	"net/http"
	"net/http/httptest"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// BuildSecCtx build security context
func BuildSecCtx(uid types.ID, perms ...string) *session.Session {
	return &session.Session{Token: "test-token", Identity: session.Identity{ID: uid},
		Perms: session.Permissions(perms), Context: context.Background()}
}

// ExecuteRequest serves one request through the engine and captures the
// response.
func ExecuteRequest(req *http.Request, engine *gin.Engine) (int, string, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w.Code, w.Body.String(), w
}
