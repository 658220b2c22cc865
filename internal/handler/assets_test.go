package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/spreadsheet"
	"github.com/xuri/excelize/v2"
)

var testTime = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

var assetCols = []string{
	"id", "name", "category_id", "category_name", "status", "ip_address", "port", "location",
	"add_date", "purchase_price", "current_value", "assigned_to", "assigned_to_name", "remarks", "created_at",
}

func TestCategoryCRUD(t *testing.T) {
	env := newTestEnv(t)
	token := env.userToken(t)

	env.mock.ExpectQuery(`INSERT INTO categories`).
		WithArgs("Servers", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(4), testTime))
	rec := env.doJSON(http.MethodPost, "/api/categories", `{"name":"Servers"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(4), decode(t, rec)["categoryId"])

	rec = env.doJSON(http.MethodPost, "/api/categories", `{"description":"no name"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.mock.ExpectQuery(`FROM categories WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "description", "created_at"}))
	rec = env.doJSON(http.MethodGet, "/api/categories/99", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSON(http.MethodGet, "/api/categories/abc", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.mock.ExpectQuery(`FROM categories WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "description", "created_at"}).AddRow("Servers", nil, testTime))
	env.mock.ExpectExec(`UPDATE categories SET name = \$1, description = \$2 WHERE id = \$3`).
		WithArgs("Servers", "rack mounted", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec = env.doJSON(http.MethodPut, "/api/categories/4", `{"name":"Servers","description":"rack mounted"}`, token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env.mock.ExpectQuery(`FROM categories WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "description", "created_at"}).AddRow("Servers", nil, testTime))
	env.mock.ExpectExec(`DELETE FROM categories WHERE id = \$1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	rec = env.doJSON(http.MethodDelete, "/api/categories/4", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateAsset_Validation(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"category_id":1,"status":"in_use"}`,
		`{"name":"db1","status":"in_use"}`,
		`{"name":"db1","category_id":1}`,
		`{"name":"db1","category_id":1,"status":"broken"}`,
		`{"name":"db1","category_id":1,"status":"in_use","ip_address":"300.1.1.1"}`,
		`{"name":"db1","category_id":1,"status":"in_use","port":"22,70000"}`,
		`{"name":"db1","category_id":1,"status":"in_use","add_date":"01/02/2024"}`,
		`{"name":"db1","category_id":1,"status":"in_use","purchase_price":"cheap"}`,
	} {
		rec := env.doJSON(http.MethodPost, "/api/assets", body, env.userToken(t))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.NotEmpty(t, decode(t, rec)["error"], body)
	}
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateAssetThenList(t *testing.T) {
	env := newTestEnv(t)
	token := env.userToken(t)

	env.mock.ExpectQuery(`INSERT INTO assets`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).AddRow(int64(1), "in_use", testTime))
	rec := env.doJSON(http.MethodPost, "/api/assets",
		`{"name":"db1","category_id":4,"status":"in_use","ip_address":"10.0.0.5","port":"22,5432","purchase_price":1999.5}`, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decode(t, rec)["assetId"])

	env.mock.ExpectQuery(`FROM assets a`).
		WillReturnRows(sqlmock.NewRows(assetCols).AddRow(
			int64(1), "db1", int64(4), "Servers", "in_use", "10.0.0.5", "22,5432", "",
			nil, "1999.50", nil, nil, nil, "", testTime,
		))
	rec = env.doJSON(http.MethodGet, "/api/assets", "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var assets []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assets))
	require.Len(t, assets, 1)
	assert.Equal(t, "Servers", assets[0]["category_name"])
	assert.Equal(t, "1999.50", assets[0]["purchase_price"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestUpdateAndDeleteAsset(t *testing.T) {
	env := newTestEnv(t)
	token := env.userToken(t)
	existing := func() *sqlmock.Rows {
		return sqlmock.NewRows(assetCols).AddRow(
			int64(3), "sw1", int64(1), "交换机", "available", "", "", "机房A",
			"2024-01-02", nil, nil, nil, nil, "", testTime,
		)
	}

	env.mock.ExpectQuery(`WHERE a.id = \$1`).WithArgs(int64(3)).WillReturnRows(existing())
	env.mock.ExpectExec(`UPDATE assets`).WillReturnResult(sqlmock.NewResult(0, 1))
	rec := env.doJSON(http.MethodPut, "/api/assets/3", `{"name":"sw1","category_id":1,"status":"maintenance"}`, token)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env.mock.ExpectQuery(`WHERE a.id = \$1`).WithArgs(int64(3)).WillReturnRows(existing())
	env.mock.ExpectExec(`DELETE FROM assets WHERE id = \$1`).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	rec = env.doJSON(http.MethodDelete, "/api/assets/3", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	env.mock.ExpectQuery(`WHERE a.id = \$1`).WithArgs(int64(8)).WillReturnRows(sqlmock.NewRows(assetCols))
	rec = env.doJSON(http.MethodGet, "/api/assets/8", "", token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestExportAssets(t *testing.T) {
	env := newTestEnv(t)

	env.mock.ExpectQuery(`FROM assets a`).
		WillReturnRows(sqlmock.NewRows(assetCols).AddRow(
			int64(1), "db1", int64(4), "Servers", "in_use", "10.0.0.5", "22", "机房B",
			"2024-03-01", "1999.50", "1500.00", int64(5), "bob", "", testTime,
		))

	rec := env.doJSON(http.MethodGet, "/api/assets/export", "", env.userToken(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, spreadsheet.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "assets.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(spreadsheet.SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, spreadsheet.ExportHeaders(), rows[0])
	assert.Equal(t, "db1", rows[1][0])
	assert.Equal(t, "bob", rows[1][9])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func multipartWorkbook(t *testing.T, field string, rows [][]any) (*bytes.Buffer, string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var workbook bytes.Buffer
	require.NoError(t, f.Write(&workbook))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, "assets.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestImportAssets_CreatesCategoryOnce(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartWorkbook(t, "file", [][]any{
		spreadsheetHeader(),
		{"r1", "Routers", "10.0.0.1", "22", "in_use", "机房A", "2024-01-01", "100", "80", ""},
		{"r2", "Routers", "10.0.0.2", "", "", "机房A", "", "", "", "备用"},
	})

	env.mock.ExpectQuery(`SELECT id FROM categories WHERE name = \$1`).
		WithArgs("Routers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	env.mock.ExpectQuery(`INSERT INTO categories`).
		WithArgs("Routers", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), testTime))
	env.mock.ExpectQuery(`INSERT INTO assets`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).AddRow(int64(1), "in_use", testTime))
	env.mock.ExpectQuery(`SELECT id FROM categories WHERE name = \$1`).
		WithArgs("Routers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	env.mock.ExpectQuery(`INSERT INTO assets`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "created_at"}).AddRow(int64(2), "available", testTime))

	rec := env.do(http.MethodPost, "/api/assets/import", body, env.userToken(t), contentType)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "成功导入 2 条资产记录", decode(t, rec)["message"])
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestImportAssets_RowFailureReportsLine(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartWorkbook(t, "file", [][]any{
		spreadsheetHeader(),
		{"r1", "Routers", "", "", "bogus", "", "", "", "", ""},
	})

	env.mock.ExpectQuery(`SELECT id FROM categories WHERE name = \$1`).
		WithArgs("Routers").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	env.mock.ExpectQuery(`INSERT INTO assets`).
		WillReturnError(assert.AnError)

	rec := env.do(http.MethodPost, "/api/assets/import", body, env.userToken(t), contentType)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "第 2 行")
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestImportAssets_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartWorkbook(t, "upload", [][]any{spreadsheetHeader()})
	rec := env.do(http.MethodPost, "/api/assets/import", body, env.userToken(t), contentType)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "请上传文件", decode(t, rec)["error"])

	rec = env.doJSON(http.MethodPost, "/api/assets/import", `{}`, env.userToken(t))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportAssets_NotAWorkbook(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "assets.xlsx")
	require.NoError(t, err)
	_, err = part.Write([]byte("plain text"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := env.do(http.MethodPost, "/api/assets/import", &body, env.userToken(t), mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func spreadsheetHeader() []any {
	headers := []any{}
	for _, h := range []string{"资产名称", "分类", "IP地址", "端口", "状态", "位置", "添加日期", "购买价格", "当前价值", "备注"} {
		headers = append(headers, h)
	}
	return headers
}

func TestImportAssets_BlankNamesAbort(t *testing.T) {
	notNull := &pgconn.PgError{Code: "23502", Message: `null value in column "name" violates not-null constraint`}

	t.Run("blank category", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := multipartWorkbook(t, "file", [][]any{
			spreadsheetHeader(),
			{"", "", "", "", "", "", "", "", "", "only remarks"},
		})

		env.mock.ExpectQuery(`SELECT id FROM categories WHERE name = \$1`).
			WithArgs("").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		env.mock.ExpectQuery(`INSERT INTO categories`).
			WithArgs(nil, nil).
			WillReturnError(notNull)

		rec := env.do(http.MethodPost, "/api/assets/import", body, env.userToken(t), contentType)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decode(t, rec)["error"], "第 2 行导入失败")
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("blank asset name", func(t *testing.T) {
		env := newTestEnv(t)
		body, contentType := multipartWorkbook(t, "file", [][]any{
			spreadsheetHeader(),
			{"", "Routers", "", "", "", "", "", "", "", ""},
		})

		env.mock.ExpectQuery(`SELECT id FROM categories WHERE name = \$1`).
			WithArgs("Routers").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
		env.mock.ExpectQuery(`INSERT INTO assets`).
			WithArgs(nil, int64(7), nil, "", "", "", nil, nil, nil, nil, "").
			WillReturnError(notNull)

		rec := env.do(http.MethodPost, "/api/assets/import", body, env.userToken(t), contentType)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decode(t, rec)["error"], "第 2 行导入失败")
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})
}
