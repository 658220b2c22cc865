package handler

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "用户名或密码错误"

type LoginResponse struct {
	Token string           `json:"token"`
	User  domain.LoginUser `json:"user"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 被禁用的用户与不存在的用户返回同样的错误
	user, err := h.repository.GetActiveUserByUsername(r.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.unauthorized(w, r, invalidCredentials)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.unauthorized(w, r, invalidCredentials)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.repository.TouchLastLogin(r.Context(), user.ID); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 生成 JWT
	token, _, err := h.issuer.Issue(user)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, LoginResponse{
		Token: token,
		User:  user.LoginProjection(),
	})
}

func resetPasswordKey(username string) string {
	return fmt.Sprintf("otp_%s_reset_password", username)
}

func resetPasswordAttemptsKey(username string) string {
	return fmt.Sprintf("otp_%s_reset_password_attempts", username)
}

// 连续输错达到该次数后验证码作废，需要重新申请
const maxOTPAttempts = 5

// recordFailedOTP 记录一次错误的验证码尝试，达到上限时删除验证码
func (h *Handler) recordFailedOTP(ctx context.Context, username string) {
	attemptsKey := resetPasswordAttemptsKey(username)

	attempts, err := h.redisClient.Incr(ctx, attemptsKey).Result()
	if err != nil {
		slog.Error("无法记录验证码尝试次数", "username", username, "error", err)
		return
	}
	if attempts == 1 {
		if err := h.redisClient.Expire(ctx, attemptsKey, time.Duration(h.config.OTP.Expiration)*time.Second).Err(); err != nil {
			slog.Error("无法设置验证码尝试次数的过期时间", "username", username, "error", err)
		}
	}
	if attempts >= maxOTPAttempts {
		if err := h.redisClient.Del(ctx, resetPasswordKey(username), attemptsKey).Err(); err != nil {
			slog.Error("无法删除验证码", "username", username, "error", err)
		}
	}
}

const resetPasswordMailSent = "重置密码所需验证码已通过邮件发送"

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.repository.GetActiveUserByUsername(r.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 这里虽然已经知道了用户不存在，但是为了安全起见，还是告诉客户端邮件已发送，以防止接口被滥用
			h.successResponse(w, r, resetPasswordMailSent)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 没有邮箱的用户无法接收验证码
	if user.Email == "" {
		h.successResponse(w, r, resetPasswordMailSent)
		return
	}

	// 生成 OTP 并将 OTP 存到 redis
	otp, err := utils.GenerateRandomOTP()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	if err := h.redisClient.Set(ctx, resetPasswordKey(user.Username), otp, time.Duration(h.config.OTP.Expiration)*time.Second).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}
	// 新的验证码重新计算尝试次数
	if err := h.redisClient.Del(ctx, resetPasswordAttemptsKey(user.Username)).Err(); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	mailMessage := domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   user.Email,
		Data: domain.ResetPasswordMailData{
			RealName:   user.RealName,
			OTP:        otp,
			Expiration: h.config.OTP.Expiration / 60, // 邮件中显示的过期时间以分钟为单位，而配置中以秒为单位
		},
	}
	if err := h.publishMail(mailMessage); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, resetPasswordMailSent)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		OTP      string `json:"otp" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 检验 OTP
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Redis.OperationTimeout)*time.Second)
	defer cancel()

	otp, err := h.redisClient.Get(ctx, resetPasswordKey(req.Username)).Result()
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			h.badRequest(w, r, errors.New("验证码错误"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if subtle.ConstantTimeCompare([]byte(otp), []byte(req.OTP)) != 1 {
		h.recordFailedOTP(ctx, req.Username)
		h.badRequest(w, r, errors.New("验证码错误"))
		return
	}

	user, err := h.repository.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.badRequest(w, r, errors.New("验证码错误"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	hash := string(hashedPassword)

	if err := h.repository.UpdateUser(r.Context(), user.ID, &domain.UserPatch{PasswordHash: &hash}); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.badRequest(w, r, errors.New("请重试"))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 验证码只能使用一次
	if err := h.redisClient.Del(ctx, resetPasswordKey(req.Username), resetPasswordAttemptsKey(req.Username)).Err(); err != nil {
		slog.Error("无法删除验证码", "username", req.Username, "error", err)
	}

	h.successResponse(w, r, "重置密码成功")
}
