package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"demo/fretes/internal/model"
	"demo/fretes/internal/service"
	"demo/fretes/internal/store"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newMux(service.New(store.NewMemory())))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, seller, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if seller != "" {
		req.Header.Set(sellerHeader, seller)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeFrete(t *testing.T, resp *http.Response) model.Frete {
	t.Helper()
	var f model.Frete
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&f))
	return f
}

func TestAPI_CreateAndGet(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU1","valor":100}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeFrete(t, resp)
	require.NotEmpty(t, created.ID)
	require.Equal(t, int64(100), created.Valor)

	resp = do(t, srv, http.MethodGet, "/fretes/SKU1", "S1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeFrete(t, resp)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "S1", got.SellerID)
}

func TestAPI_CreateConflict(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU1","valor":100}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU1","valor":200}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_CreateBadInput(t *testing.T) {
	srv := newTestServer(t)

	// negative valor
	resp := do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU2","valor":-5}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// valor absent
	resp = do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU2"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// missing seller header
	resp = do(t, srv, http.MethodPost, "/fretes", "", `{"sku":"SKU2","valor":10}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// nothing was created
	resp = do(t, srv, http.MethodGet, "/fretes/SKU2", "S1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_PatchKeepsUntouchedFields(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU1","valor":100}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodPatch, "/fretes/SKU1", "S1", `{"valor":150}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeFrete(t, resp)
	require.Equal(t, "S1", got.SellerID)
	require.Equal(t, "SKU1", got.SKU)
	require.Equal(t, int64(150), got.Valor)
}

func TestAPI_PatchNullKeyFieldRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU1","valor":100}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodPatch, "/fretes/SKU1", "S1", `{"sku":null,"valor":1}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_PutReplacesFully(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU1","valor":100}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeFrete(t, resp)

	resp = do(t, srv, http.MethodPut, "/fretes/SKU1", "S1", `{"seller_id":"S1","sku":"SKU1","valor":999}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeFrete(t, resp)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, int64(999), got.Valor)

	// all fields required
	resp = do(t, srv, http.MethodPut, "/fretes/SKU1", "S1", `{"valor":999}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_PutOntoLiveKeyConflict(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU1","valor":100}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU2","valor":200}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/fretes/SKU1", "S1", `{"seller_id":"S1","sku":"SKU2","valor":300}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_DeleteThenReRead(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/fretes", "S1", `{"sku":"SKU1","valor":100}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/fretes/SKU1", "S1", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodDelete, "/fretes/SKU1", "S1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/fretes/SKU1", "S1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ListPaginationAndFilters(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 25; i++ {
		body := fmt.Sprintf(`{"sku":"SKU%02d","valor":%d}`, i, i*10)
		resp := do(t, srv, http.MethodPost, "/fretes", "S1", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp := do(t, srv, http.MethodPost, "/fretes", "S2", `{"sku":"OTHER","valor":100}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	list := func(path string) listResponse {
		resp := do(t, srv, http.MethodGet, path, "S1", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var lr listResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&lr))
		return lr
	}

	second := list("/fretes?_limit=10&_offset=10&_sort=sku")
	require.Len(t, second.Results, 10)
	require.Equal(t, "SKU10", second.Results[0].SKU)
	require.Equal(t, "SKU19", second.Results[9].SKU)
	for _, f := range second.Results {
		require.Equal(t, "S1", f.SellerID)
	}

	last := list("/fretes?_limit=10&_offset=20&_sort=sku")
	require.Len(t, last.Results, 5)

	ranged := list("/fretes?preco_greater_than=80&preco_less_than=120&_sort=valor")
	require.Len(t, ranged.Results, 5)
	require.Equal(t, int64(80), ranged.Results[0].Valor)
	require.Equal(t, int64(120), ranged.Results[4].Valor)

	desc := list("/fretes?_limit=3&_sort=-valor")
	require.Len(t, desc.Results, 3)
	require.Equal(t, int64(240), desc.Results[0].Valor)

	// bad query values
	resp = do(t, srv, http.MethodGet, "/fretes?_limit=0", "S1", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = do(t, srv, http.MethodGet, "/fretes?preco_greater_than=abc", "S1", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Healthz(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
