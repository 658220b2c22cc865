// Package policy 集中了各个操作的授权判断，与 HTTP 传输层无关。
// 每个函数接收调用者身份（以及目标资源），允许时返回 nil。
package policy

import (
	"errors"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
)

var (
	ErrForbidden  = errors.New("没有权限执行此操作")
	ErrSelfDelete = errors.New("不能删除当前登录用户")
	ErrEmptyPatch = errors.New("没有提供要更新的字段")
)

func RequireAdmin(caller domain.Identity) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func CanListUsers(caller domain.Identity) error {
	return RequireAdmin(caller)
}

func CanCreateUser(caller domain.Identity) error {
	return RequireAdmin(caller)
}

// CanUpdateUser 允许普通用户修改自己的资料，但用户名、角色和状态只有管理员可以修改
func CanUpdateUser(caller domain.Identity, targetID int64, patch *domain.UserPatch) error {
	if patch == nil || patch.IsEmpty() {
		return ErrEmptyPatch
	}
	if caller.IsAdmin() {
		return nil
	}
	if caller.ID != targetID {
		return ErrForbidden
	}
	if patch.TouchesPrivilegedFields() {
		return ErrForbidden
	}
	return nil
}

func CanDeleteUser(caller domain.Identity, targetID int64) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	if caller.ID == targetID {
		return ErrSelfDelete
	}
	return nil
}
