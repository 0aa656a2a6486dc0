package session

import (
	"context"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
)

const (
	SystemAdminRole = "system:admin"
)

type Session struct {
	Token    string      `json:"token"`
	Identity Identity    `json:"identity"`
	Perms    Permissions `json:"perms"`

	SigningTime time.Time `json:"-"`

	Context context.Context `json:"-"`
}

type Identity struct {
	ID           types.ID `json:"id"`
	Name         string   `json:"name"`
	Nickname     string   `json:"nickname"`
	Role         string   `json:"role"`
	DepartmentID types.ID `json:"departmentId"`
}

type Permissions []string

func (c Permissions) HasRole(role string) bool {
	for _, v := range c {
		if strings.EqualFold(v, role) {
			return true
		}
	}
	return false
}

func (c Permissions) HasAdminRole() bool {
	return c.HasRole(SystemAdminRole)
}

func (s *Session) Clone() Session {
	perms := make(Permissions, len(s.Perms))
	copy(perms, s.Perms)
	return Session{Token: s.Token, Identity: s.Identity, Perms: perms, SigningTime: s.SigningTime, Context: s.Context}
}
