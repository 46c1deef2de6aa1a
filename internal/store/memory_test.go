package store_test

import (
	"context"
	"fmt"
	"testing"

	"demo/fretes/internal/model"
	"demo/fretes/internal/store"

	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, r *store.MemoryRepo, fretes ...model.Frete) []model.Frete {
	t.Helper()
	out := make([]model.Frete, 0, len(fretes))
	for _, f := range fretes {
		created, err := r.Create(context.Background(), f)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestMemory_CreateAssignsIDAndAudit(t *testing.T) {
	r := store.NewMemory()

	created, err := r.Create(context.Background(), model.Frete{SellerID: "S1", SKU: "SKU1", Valor: 100})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
	require.NotEmpty(t, created.CreatedBy)
	require.Nil(t, created.UpdatedAt)
}

func TestMemory_FindByID(t *testing.T) {
	r := store.NewMemory()
	created := seed(t, r, model.Frete{SellerID: "S1", SKU: "SKU1", Valor: 100})[0]

	got, ok, err := r.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, created, got)

	_, ok, err = r.FindByID(context.Background(), "not-an-id")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory_FindOneByKey(t *testing.T) {
	r := store.NewMemory()
	seed(t, r,
		model.Frete{SellerID: "S1", SKU: "SKU1", Valor: 100},
		model.Frete{SellerID: "S2", SKU: "SKU1", Valor: 200},
	)

	got, ok, err := r.FindOneByKey(context.Background(), "S2", "SKU1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(200), got.Valor)

	_, ok, err = r.FindOneByKey(context.Background(), "S3", "SKU1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory_Update(t *testing.T) {
	r := store.NewMemory()
	created := seed(t, r, model.Frete{SellerID: "S1", SKU: "SKU1", Valor: 100})[0]

	created.Valor = 150
	updated, ok, err := r.Update(context.Background(), created.ID, created)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(150), updated.Valor)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, created.CreatedAt, updated.CreatedAt)
	require.NotNil(t, updated.UpdatedAt)

	_, ok, err = r.Update(context.Background(), "missing", created)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory_UpdateCanChangeBusinessKey(t *testing.T) {
	r := store.NewMemory()
	created := seed(t, r, model.Frete{SellerID: "S1", SKU: "SKU1", Valor: 100})[0]

	created.SellerID = "S2"
	created.SKU = "SKU9"
	updated, ok, err := r.Update(context.Background(), created.ID, created)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, created.ID, updated.ID)

	_, ok, err = r.FindOneByKey(context.Background(), "S1", "SKU1")
	require.NoError(t, err)
	require.False(t, ok)
	got, ok, err := r.FindOneByKey(context.Background(), "S2", "SKU9")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, created.ID, got.ID)
}

func TestMemory_DeleteByKey(t *testing.T) {
	r := store.NewMemory()
	seed(t, r, model.Frete{SellerID: "S1", SKU: "SKU1", Valor: 100})

	ok, err := r.DeleteByKey(context.Background(), "S1", "SKU1")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = r.DeleteByKey(context.Background(), "S1", "SKU1")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = r.FindOneByKey(context.Background(), "S1", "SKU1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemory_FindFilters(t *testing.T) {
	r := store.NewMemory()
	seed(t, r,
		model.Frete{SellerID: "S1", SKU: "A", Valor: 50},
		model.Frete{SellerID: "S1", SKU: "B", Valor: 100},
		model.Frete{SellerID: "S1", SKU: "C", Valor: 150},
		model.Frete{SellerID: "S2", SKU: "A", Valor: 100},
	)

	min, max := int64(80), int64(120)
	got, err := r.Find(context.Background(),
		store.Filter{SellerID: "S1", ValorMin: &min, ValorMax: &max},
		store.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "B", got[0].SKU)
	require.Equal(t, int64(100), got[0].Valor)
}

func TestMemory_FindPagination(t *testing.T) {
	r := store.NewMemory()
	for i := 0; i < 25; i++ {
		seed(t, r, model.Frete{SellerID: "S1", SKU: fmt.Sprintf("SKU%02d", i), Valor: int64(i)})
	}

	page := func(limit, offset int64) []model.Frete {
		got, err := r.Find(context.Background(),
			store.Filter{SellerID: "S1"},
			store.Page{Limit: limit, Offset: offset, Sort: []store.SortKey{{Field: "sku"}}})
		require.NoError(t, err)
		return got
	}

	second := page(10, 10)
	require.Len(t, second, 10)
	require.Equal(t, "SKU10", second[0].SKU)
	require.Equal(t, "SKU19", second[9].SKU)

	last := page(10, 20)
	require.Len(t, last, 5)
	require.Equal(t, "SKU24", last[4].SKU)

	require.Empty(t, page(10, 30))
}

func TestMemory_FindMultiKeySort(t *testing.T) {
	r := store.NewMemory()
	seed(t, r,
		model.Frete{SellerID: "S1", SKU: "B", Valor: 100},
		model.Frete{SellerID: "S1", SKU: "A", Valor: 100},
		model.Frete{SellerID: "S1", SKU: "C", Valor: 50},
	)

	// valor desc first, sku asc breaking ties
	got, err := r.Find(context.Background(), store.Filter{}, store.Page{
		Limit: 10,
		Sort:  []store.SortKey{{Field: "valor", Desc: true}, {Field: "sku"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "A", got[0].SKU)
	require.Equal(t, "B", got[1].SKU)
	require.Equal(t, "C", got[2].SKU)
}

func TestMemory_SortExcludesRecordsMissingField(t *testing.T) {
	r := store.NewMemory()
	created := seed(t, r,
		model.Frete{SellerID: "S1", SKU: "A", Valor: 1},
		model.Frete{SellerID: "S1", SKU: "B", Valor: 2},
	)

	// only B has been updated, so sorting by updated_at drops A
	created[1].Valor = 3
	_, ok, err := r.Update(context.Background(), created[1].ID, created[1])
	require.NoError(t, err)
	require.True(t, ok)

	got, err := r.Find(context.Background(), store.Filter{}, store.Page{
		Limit: 10,
		Sort:  []store.SortKey{{Field: "updated_at"}},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "B", got[0].SKU)

	// an unknown sort field excludes everything
	got, err = r.Find(context.Background(), store.Filter{}, store.Page{
		Limit: 10,
		Sort:  []store.SortKey{{Field: "bogus"}},
	})
	require.NoError(t, err)
	require.Empty(t, got)
}
