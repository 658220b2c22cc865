package importer

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/asset-manager/backend/internal/domain"
)

type memoryStore struct {
	categories []*domain.Category
	assets     []*domain.Asset
	failAsset  string
}

func (m *memoryStore) GetCategoryIDByName(_ context.Context, name string) (int64, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return c.ID, nil
		}
	}
	return 0, sql.ErrNoRows
}

func (m *memoryStore) CreateCategory(_ context.Context, category *domain.Category) error {
	category.ID = int64(len(m.categories) + 1)
	m.categories = append(m.categories, category)
	return nil
}

func (m *memoryStore) CreateAsset(_ context.Context, asset *domain.Asset) error {
	if asset.Name == m.failAsset {
		return errors.New(`invalid input syntax for type date: "yesterday"`)
	}
	asset.ID = int64(len(m.assets) + 1)
	m.assets = append(m.assets, asset)
	return nil
}

func ptr[T any](v T) *T { return &v }

func routerRows() []domain.ImportRow {
	return []domain.ImportRow{
		{Line: 2, Name: "r1", CategoryName: "Routers", Status: ptr("in_use"), IPAddress: gofakeit.IPv4Address()},
		{Line: 3, Name: "r2", CategoryName: "Routers", PurchasePrice: ptr("300")},
	}
}

func TestImport_CreatesUnseenCategoryOnce(t *testing.T) {
	store := &memoryStore{categories: []*domain.Category{{ID: 1, Name: "服务器"}}}

	result, err := Import(context.Background(), store, routerRows())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 1, result.CreatedCategories)
	require.Len(t, store.categories, 2)
	assert.Equal(t, "Routers", store.categories[1].Name)
	assert.Nil(t, store.categories[1].Description)

	require.Len(t, store.assets, 2)
	for _, a := range store.assets {
		assert.Equal(t, store.categories[1].ID, *a.CategoryID)
	}
	assert.Equal(t, domain.AssetStatusInUse, store.assets[0].Status)
	assert.Equal(t, domain.AssetStatus(""), store.assets[1].Status)
	assert.Equal(t, "300", *store.assets[1].PurchasePrice)
}

func TestImport_TwiceDuplicatesAssetsNotCategories(t *testing.T) {
	store := &memoryStore{}

	_, err := Import(context.Background(), store, routerRows())
	require.NoError(t, err)
	categories, assets := len(store.categories), len(store.assets)

	result, err := Import(context.Background(), store, routerRows())
	require.NoError(t, err)

	assert.Equal(t, 0, result.CreatedCategories)
	assert.Len(t, store.categories, categories)
	assert.Len(t, store.assets, 2*assets)
}

func TestImport_AbortsWithoutRollback(t *testing.T) {
	store := &memoryStore{failAsset: "bad"}
	rows := []domain.ImportRow{
		{Line: 2, Name: "ok", CategoryName: "Switches"},
		{Line: 3, Name: "bad", CategoryName: "Switches", AddDate: ptr("yesterday")},
		{Line: 4, Name: "never", CategoryName: "Switches"},
	}

	result, err := Import(context.Background(), store, rows)
	require.Error(t, err)

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Line)
	assert.Equal(t, 1, result.Imported)
	// 失败之前写入的行保留
	assert.Len(t, store.assets, 1)
}

type brokenStore struct{ memoryStore }

func (b *brokenStore) GetCategoryIDByName(context.Context, string) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestImport_LookupFailure(t *testing.T) {
	store := &brokenStore{}

	_, err := Import(context.Background(), store, routerRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "第 2 行")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, store.categories)
}
