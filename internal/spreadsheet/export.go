package spreadsheet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "资产列表"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	FileName    = "assets.xlsx"
)

type column struct {
	header string
	width  float64
}

// 导出的列顺序，第 10 列“分配给”在导入时不会被读取
var exportColumns = []column{
	{"资产名称", 20},
	{"分类", 15},
	{"IP地址", 15},
	{"端口", 15},
	{"状态", 10},
	{"位置", 15},
	{"添加日期", 12},
	{"购买价格", 12},
	{"当前价值", 12},
	{"分配给", 15},
	{"备注", 30},
}

func ExportHeaders() []string {
	headers := make([]string, len(exportColumns))
	for i, c := range exportColumns {
		headers[i] = c.header
	}
	return headers
}

// WriteAssets 将资产写成单个工作表的 xlsx 文档
func WriteAssets(w io.Writer, assets []*domain.Asset) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	// 内置格式 2 即 "0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	headers := make([]any, len(exportColumns))
	for i, c := range exportColumns {
		headers[i] = c.header
		colName, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, colName, colName, c.width); err != nil {
			return err
		}
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetName, 1, 1, headerStyle); err != nil {
		return err
	}

	for idx, a := range assets {
		row := idx + 2
		values := []any{
			a.Name,
			deref(a.CategoryName),
			a.IPAddress,
			a.Port,
			string(a.Status),
			a.Location,
			deref(a.AddDate),
			nil,
			nil,
			deref(a.AssignedToName),
			a.Remarks,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}

		if err := setMoney(f, 8, row, a.PurchasePrice, moneyStyle); err != nil {
			return err
		}
		if err := setMoney(f, 9, row, a.CurrentValue, moneyStyle); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// setMoney 以数值写入金额并保留两位小数，无法解析时原样写入文本
func setMoney(f *excelize.File, col, row int, value *string, style int) error {
	if value == nil {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}

	amount, err := strconv.ParseFloat(*value, 64)
	if err != nil {
		return f.SetCellStr(SheetName, cell, *value)
	}
	if err := f.SetCellFloat(SheetName, cell, amount, 2, 64); err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, cell, cell, style)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
