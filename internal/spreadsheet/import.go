package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
	"github.com/xuri/excelize/v2"
)

// 导入时按位置读取的列
const (
	colName = iota
	colCategory
	colIPAddress
	colPort
	colStatus
	colLocation
	colAddDate
	colPurchasePrice
	colCurrentValue
	colRemarks

	importColumns
)

var ErrNoSheet = errors.New("表格中没有工作表")

// ReadAssets 读取第一个工作表，跳过表头，把其余每个非空行按列位置解析为 ImportRow
func ReadAssets(r io.Reader) ([]domain.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("无法读取表格: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("无法读取工作表: %w", err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	result := make([]domain.ImportRow, 0, len(rows))
	for i, cells := range rows {
		if i == 0 || isBlank(cells) {
			continue
		}

		cell := func(col int) string {
			if col < len(cells) {
				return strings.TrimSpace(cells[col])
			}
			return ""
		}

		result = append(result, domain.ImportRow{
			Line:          i + 1,
			Name:          cell(colName),
			CategoryName:  cell(colCategory),
			IPAddress:     cell(colIPAddress),
			Port:          cell(colPort),
			Status:        optional(cell(colStatus)),
			Location:      cell(colLocation),
			AddDate:       optional(normalizeDate(cell(colAddDate), date1904)),
			PurchasePrice: optional(cell(colPurchasePrice)),
			CurrentValue:  optional(cell(colCurrentValue)),
			Remarks:       cell(colRemarks),
		})
	}

	return result, nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// normalizeDate 把日期单元格的序列值转换为 YYYY-MM-DD，文本日期原样保留
func normalizeDate(value string, date1904 bool) string {
	if value == "" || strings.ContainsAny(value, "-/") {
		return value
	}
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	t, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return value
	}
	return t.Format("2006-01-02")
}
