package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
)

func (h *Handler) GetAllCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repository.GetAllCategories(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, categories)
}

type CreateCategoryResponse struct {
	Message    string `json:"message"`
	CategoryID int64  `json:"categoryId"`
}

type categoryRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description"`
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	category := &domain.Category{
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.repository.CreateCategory(r.Context(), category); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, CreateCategoryResponse{
		Message:    "分类创建成功",
		CategoryID: category.ID,
	})
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category := r.Context().Value(CategoryCtx).(*domain.Category)
	h.writeJSON(w, r, http.StatusOK, category)
}

func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	category := r.Context().Value(CategoryCtx).(*domain.Category)
	category.Name = req.Name
	category.Description = req.Description

	if err := h.repository.UpdateCategory(r.Context(), category); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "分类不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "分类更新成功")
}

// DeleteCategory 仍被资产引用的分类由外键约束拒绝删除
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	category := r.Context().Value(CategoryCtx).(*domain.Category)

	if err := h.repository.DeleteCategory(r.Context(), category.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "分类不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "分类删除成功")
}
