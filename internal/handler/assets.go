package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/archive"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/importer"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/spreadsheet"
)

func (h *Handler) GetAllAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.repository.GetAllAssets(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, assets)
}

func (h *Handler) GetAsset(w http.ResponseWriter, r *http.Request) {
	asset := r.Context().Value(AssetCtx).(*domain.Asset)
	h.writeJSON(w, r, http.StatusOK, asset)
}

// 金额既可以是 JSON 数字也可以是数字字符串
type assetRequest struct {
	Name          string       `json:"name" validate:"required,max=100"`
	CategoryID    *int64       `json:"category_id" validate:"required"`
	Status        string       `json:"status" validate:"required,oneof=in_use available maintenance disposed"`
	IPAddress     string       `json:"ip_address" validate:"omitempty,ip"`
	Port          string       `json:"port" validate:"ports"`
	Location      string       `json:"location" validate:"max=100"`
	AddDate       *string      `json:"add_date" validate:"omitempty,datetime=2006-01-02"`
	PurchasePrice *json.Number `json:"purchase_price" validate:"omitempty,numeric"`
	CurrentValue  *json.Number `json:"current_value" validate:"omitempty,numeric"`
	AssignedTo    *int64       `json:"assigned_to"`
	Remarks       string       `json:"remarks"`
}

func numberText(n *json.Number) *string {
	if n == nil {
		return nil
	}
	s := n.String()
	return &s
}

func emptyAsNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func (req *assetRequest) apply(asset *domain.Asset) {
	asset.Name = req.Name
	asset.CategoryID = req.CategoryID
	asset.Status = domain.AssetStatus(req.Status)
	asset.IPAddress = req.IPAddress
	asset.Port = req.Port
	asset.Location = req.Location
	asset.AddDate = emptyAsNil(req.AddDate)
	asset.PurchasePrice = numberText(req.PurchasePrice)
	asset.CurrentValue = numberText(req.CurrentValue)
	asset.AssignedTo = req.AssignedTo
	asset.Remarks = req.Remarks
}

type CreateAssetResponse struct {
	Message string `json:"message"`
	AssetID int64  `json:"assetId"`
}

func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	asset := &domain.Asset{}
	req.apply(asset)

	// 分类或使用人不存在时由外键约束拒绝
	if err := h.repository.CreateAsset(r.Context(), asset); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusCreated, CreateAssetResponse{
		Message: "资产创建成功",
		AssetID: asset.ID,
	})
}

func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	asset := r.Context().Value(AssetCtx).(*domain.Asset)
	req.apply(asset)

	if err := h.repository.UpdateAsset(r.Context(), asset); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "资产不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "资产更新成功")
}

func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	asset := r.Context().Value(AssetCtx).(*domain.Asset)

	if err := h.repository.DeleteAsset(r.Context(), asset.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "资产不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "资产删除成功")
}

func (h *Handler) ExportAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.repository.GetAllAssets(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 先写入缓冲区，生成失败时还能返回 JSON 错误
	var buf bytes.Buffer
	if err := spreadsheet.WriteAssets(&buf, assets); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", spreadsheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", spreadsheet.FileName))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logInternalServerError(r, err)
	}
}

func (h *Handler) ImportAssets(w http.ResponseWriter, r *http.Request) {
	maxSize := h.config.Import.MaxUploadSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.badRequest(w, r, fmt.Errorf("上传文件不能超过 %d 字节", maxSize))
		default:
			h.badRequest(w, r, errors.New("请上传文件"))
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		h.badRequest(w, r, errors.New("请上传文件"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.archiveUpload(r.Context(), data)

	rows, err := spreadsheet.ReadAssets(bytes.NewReader(data))
	if err != nil {
		h.badRequest(w, r, fmt.Errorf("无法解析表格文件: %w", err))
		return
	}

	result, err := importer.Import(r.Context(), h.repository, rows)
	if err != nil {
		slog.Error("资产导入中止", "imported", result.Imported, "error", err)
		h.internalServerError(w, r, err)
		return
	}

	slog.Info("资产导入完成", "imported", result.Imported, "created_categories", result.CreatedCategories)
	h.successResponse(w, r, fmt.Sprintf("成功导入 %d 条资产记录", result.Imported))
}

// archiveUpload 归档失败不影响导入
func (h *Handler) archiveUpload(ctx context.Context, data []byte) {
	key := archive.ImportKey(time.Now())
	if err := h.archiver.Put(ctx, key, data, spreadsheet.ContentType); err != nil {
		slog.Error("无法归档导入文件", "key", key, "error", err)
	}
}
