package domain

import (
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusDisabled UserStatus = "disabled"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	RealName     string     `json:"real_name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Department   string     `json:"department"`
	Status       UserStatus `json:"status"`
	LastLogin    *time.Time `json:"last_login"`
	CreatedAt    time.Time  `json:"created_at"`
}

// UserPatch 表示一次部分更新，nil 字段保持不变
type UserPatch struct {
	Username     *string
	PasswordHash *string
	Role         *Role
	RealName     *string
	Email        *string
	Phone        *string
	Department   *string
	Status       *UserStatus
}

func (p *UserPatch) IsEmpty() bool {
	return p.Username == nil &&
		p.PasswordHash == nil &&
		p.Role == nil &&
		p.RealName == nil &&
		p.Email == nil &&
		p.Phone == nil &&
		p.Department == nil &&
		p.Status == nil
}

// TouchesPrivilegedFields 判断补丁是否涉及只有管理员才能修改的字段
func (p *UserPatch) TouchesPrivilegedFields() bool {
	return p.Username != nil || p.Role != nil || p.Status != nil
}

// Identity 是令牌中携带的调用者身份
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// LoginUser 是登录成功后返回给客户端的用户信息
type LoginUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	RealName string `json:"real_name"`
}

func (u *User) LoginProjection() LoginUser {
	return LoginUser{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		RealName: u.RealName,
	}
}
