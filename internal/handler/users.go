package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/policy"
	"golang.org/x/crypto/bcrypt"
)

var errDuplicateUsername = errors.New("用户名已存在")

func isDuplicateUsername(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == "users_username_key"
}

func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repository.GetAllUsers(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, users)
}

type CreateUserResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId"`
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username   string `json:"username" validate:"required,max=50"`
		Password   string `json:"password" validate:"required"`
		Role       string `json:"role" validate:"omitempty,oneof=admin user"`
		RealName   string `json:"real_name" validate:"max=50"`
		Email      string `json:"email" validate:"omitempty,email"`
		Phone      string `json:"phone" validate:"max=20"`
		Department string `json:"department" validate:"max=100"`
		Status     string `json:"status" validate:"omitempty,oneof=active disabled"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		Role:         domain.Role(req.Role),
		RealName:     req.RealName,
		Email:        req.Email,
		Phone:        req.Phone,
		Department:   req.Department,
		Status:       domain.UserStatus(req.Status),
	}

	if err := h.repository.CreateUser(r.Context(), user); err != nil {
		switch {
		case isDuplicateUsername(err):
			h.badRequest(w, r, errDuplicateUsername)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 用户已经写入数据库，通知邮件发送失败只记录日志
	if user.Email != "" {
		mailMessage := domain.MailMessage{
			Type: domain.MailTypeCreateUser,
			To:   user.Email,
			Data: domain.CreateUserMailData{
				RealName: user.RealName,
				Username: user.Username,
			},
		}
		if err := h.publishMail(mailMessage); err != nil {
			slog.Error("无法投递新用户通知邮件", "username", user.Username, "error", err)
		}
	}

	h.writeJSON(w, r, http.StatusCreated, CreateUserResponse{
		Message: "用户创建成功",
		UserID:  user.ID,
	})
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username   *string `json:"username" validate:"omitempty,min=1,max=50"`
		Password   *string `json:"password" validate:"omitempty,min=1"`
		Role       *string `json:"role" validate:"omitempty,oneof=admin user"`
		RealName   *string `json:"real_name" validate:"omitempty,max=50"`
		Email      *string `json:"email" validate:"omitempty,email"`
		Phone      *string `json:"phone" validate:"omitempty,max=20"`
		Department *string `json:"department" validate:"omitempty,max=100"`
		Status     *string `json:"status" validate:"omitempty,oneof=active disabled"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	targetID := r.Context().Value(TargetUserIDCtxKey).(int64)

	patch := &domain.UserPatch{
		Username:   req.Username,
		RealName:   req.RealName,
		Email:      req.Email,
		Phone:      req.Phone,
		Department: req.Department,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	if req.Status != nil {
		status := domain.UserStatus(*req.Status)
		patch.Status = &status
	}
	if req.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.internalServerError(w, r, err)
			return
		}
		hash := string(hashedPassword)
		patch.PasswordHash = &hash
	}

	if err := policy.CanUpdateUser(identityFrom(r), targetID, patch); err != nil {
		switch {
		case errors.Is(err, policy.ErrEmptyPatch):
			h.badRequest(w, r, err)
		default:
			h.forbidden(w, r, err)
		}
		return
	}

	if err := h.repository.UpdateUser(r.Context(), targetID, patch); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "用户不存在")
		case isDuplicateUsername(err):
			h.badRequest(w, r, errDuplicateUsername)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "用户更新成功")
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	targetID := r.Context().Value(TargetUserIDCtxKey).(int64)

	if err := policy.CanDeleteUser(identityFrom(r), targetID); err != nil {
		switch {
		case errors.Is(err, policy.ErrSelfDelete):
			h.badRequest(w, r, err)
		default:
			h.forbidden(w, r, err)
		}
		return
	}

	if err := h.repository.DeleteUser(r.Context(), targetID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "用户删除成功")
}
