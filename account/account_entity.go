package account

import "github.com/fundwit/go-commons/types"

type User struct {
	ID     types.ID `json:"id" gorm:"primary_key"`
	Name   string   `json:"name" gorm:"unique_index"`
	Secret string   `json:"secret"`

	Nickname     string   `json:"nickname"`
	Role         string   `json:"role"`
	DepartmentID types.ID `json:"departmentId"`
}

func (r *User) TableName() string {
	return "users"
}

type UserInfo struct {
	ID           types.ID `json:"id"`
	Name         string   `json:"name"`
	Nickname     string   `json:"nickname"`
	Role         string   `json:"role"`
	DepartmentID types.ID `json:"departmentId"`
}

type UserCreation struct {
	Name     string `json:"name" binding:"required,lte=32"`
	Secret   string `json:"secret" binding:"required,gte=6,lte=32"`
	Nickname string `json:"nickname" binding:"omitempty,gte=1,lte=32"`

	Role         string   `json:"role" binding:"omitempty,lte=32"`
	DepartmentID types.ID `json:"department_id"`
}

func (u User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}

func (u UserInfo) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Name
}
