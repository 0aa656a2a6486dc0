package account

import (
	"crypto/sha256"
	"docflow/bizerror"
	"docflow/idgen"
	"docflow/persistence"
	"docflow/session"
	"encoding/hex"

	"github.com/fundwit/go-commons/types"
	"github.com/sony/sonyflake"
)

var (
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	QueryUsersFunc        = QueryUsers
	CreateUserFunc        = CreateUser
	QueryAccountNamesFunc = QueryAccountNames
	LoadPermsFunc         = LoadPerms
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

func QueryUsers(s *session.Session) (*[]UserInfo, error) {
	var users []UserInfo
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Model(&User{}).Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func CreateUser(c *UserCreation, s *session.Session) (*UserInfo, error) {
	if !s.Perms.HasAdminRole() {
		return nil, bizerror.ErrForbidden
	}

	user := User{ID: idgen.NextID(userIdWorker), Name: c.Name, Nickname: c.Nickname,
		Secret: HashSha256(c.Secret), Role: c.Role, DepartmentID: c.DepartmentID}
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Nickname: user.Nickname,
		Role: user.Role, DepartmentID: user.DepartmentID}, nil
}

// QueryAccountNames resolves user ids to display names for read-time
// enrichment of request and step views.
func QueryAccountNames(s *session.Session, ids []types.ID) (map[types.ID]string, error) {
	result := map[types.ID]string{}
	if len(ids) == 0 {
		return result, nil
	}
	var records []User
	db := persistence.ActiveDataSourceManager.GormDB(s.Context)
	if err := db.Model(&User{}).Where("id IN (?)", ids).Find(&records).Error; err != nil {
		return nil, err
	}
	for _, r := range records {
		result[r.ID] = r.DisplayName()
	}
	return result, nil
}

// LoadPerms maps the persisted role onto session permissions.
func LoadPerms(u *User) session.Permissions {
	perms := session.Permissions{}
	if u.Role != "" {
		perms = append(perms, "role:"+u.Role)
	}
	if u.Role == "admin" {
		perms = append(perms, session.SystemAdminRole)
	}
	return perms
}
