package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), RequestIDCtxKey, requestID)

		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))
		duration := time.Since(start)
		slog.Info("已处理请求", "request_id", requestID, "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 从 Authorization 头中获取 Bearer token
		header := r.Header.Get("Authorization")
		if header == "" {
			h.unauthorized(w, r, "未提供认证令牌")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			h.unauthorized(w, r, "无效或已过期的令牌")
			return
		}

		// 验证 token，格式错误、签名错误与过期对客户端不做区分
		claims, err := h.issuer.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			h.unauthorized(w, r, "无效或已过期的令牌")
			return
		}

		// 将调用者身份附在 context 中
		ctx := context.WithValue(r.Context(), IdentityCtxKey, claims.Identity())

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func identityFrom(r *http.Request) domain.Identity {
	return r.Context().Value(IdentityCtxKey).(domain.Identity)
}

// authorize 在进入 handler 之前执行与请求体无关的授权判断
func (h *Handler) authorize(check func(domain.Identity) error) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := check(identityFrom(r)); err != nil {
				h.forbidden(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func (h *Handler) targetUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := parseIDParam(r)
		if err != nil {
			h.badRequest(w, r, errors.New("用户ID无效"))
			return
		}

		ctx := context.WithValue(r.Context(), TargetUserIDCtxKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) category(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := parseIDParam(r)
		if err != nil {
			h.badRequest(w, r, errors.New("分类ID无效"))
			return
		}

		category, err := h.repository.GetCategoryByID(r.Context(), categoryID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "分类不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), CategoryCtx, category)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) asset(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assetID, err := parseIDParam(r)
		if err != nil {
			h.badRequest(w, r, errors.New("资产ID无效"))
			return
		}

		asset, err := h.repository.GetAssetByID(r.Context(), assetID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "资产不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), AssetCtx, asset)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
