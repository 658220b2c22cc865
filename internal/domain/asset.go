package domain

import "time"

type AssetStatus string

const (
	AssetStatusInUse       AssetStatus = "in_use"
	AssetStatusAvailable   AssetStatus = "available"
	AssetStatusMaintenance AssetStatus = "maintenance"
	AssetStatusDisposed    AssetStatus = "disposed"
)

// Asset 中的日期和金额以文本形式保存，格式由数据库决定（YYYY-MM-DD 以及两位小数）
type Asset struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	CategoryID     *int64      `json:"category_id"`
	CategoryName   *string     `json:"category_name"`
	Status         AssetStatus `json:"status"`
	IPAddress      string      `json:"ip_address"`
	Port           string      `json:"port"`
	Location       string      `json:"location"`
	AddDate        *string     `json:"add_date"`
	PurchasePrice  *string     `json:"purchase_price"`
	CurrentValue   *string     `json:"current_value"`
	AssignedTo     *int64      `json:"assigned_to"`
	AssignedToName *string     `json:"assigned_to_name"`
	Remarks        string      `json:"remarks"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ImportRow 是从表格中按列位置读出的一行，未经类型校验
type ImportRow struct {
	// 表格中的行号，从 1 开始
	Line          int
	Name          string
	CategoryName  string
	IPAddress     string
	Port          string
	Status        *string
	Location      string
	AddDate       *string
	PurchasePrice *string
	CurrentValue  *string
	Remarks       string
}

func (r ImportRow) Asset(categoryID int64) *Asset {
	asset := &Asset{
		Name:          r.Name,
		CategoryID:    &categoryID,
		IPAddress:     r.IPAddress,
		Port:          r.Port,
		Location:      r.Location,
		AddDate:       r.AddDate,
		PurchasePrice: r.PurchasePrice,
		CurrentValue:  r.CurrentValue,
		Remarks:       r.Remarks,
	}
	if r.Status != nil {
		asset.Status = AssetStatus(*r.Status)
	}
	return asset
}
