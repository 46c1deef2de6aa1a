package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"demo/fretes/internal/model"
	"demo/fretes/internal/service"
	"demo/fretes/internal/store"
	"demo/fretes/internal/validate"
)

const sellerHeader = "x-seller-id"

type api struct {
	svc *service.Service
}

func newMux(svc *service.Service) *http.ServeMux {
	a := &api{svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /fretes", a.list)
	mux.HandleFunc("POST /fretes", a.create)
	mux.HandleFunc("GET /fretes/{sku}", a.get)
	mux.HandleFunc("PATCH /fretes/{sku}", a.update)
	mux.HandleFunc("PUT /fretes/{sku}", a.replace)
	mux.HandleFunc("DELETE /fretes/{sku}", a.remove)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return mux
}

type listResponse struct {
	Results []model.Frete `json:"results"`
	Limit   int64         `json:"limit"`
	Offset  int64         `json:"offset"`
}

func (a *api) list(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}

	page, err := parsePage(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filters := service.Filters{SellerID: seller}
	if filters.ValorMin, err = queryInt(r, "preco_greater_than"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if filters.ValorMax, err = queryInt(r, "preco_less_than"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	results, err := a.svc.FindAll(r.Context(), page, filters)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Results: results, Limit: page.Limit, Offset: page.Offset})
}

func (a *api) get(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}
	sku := r.PathValue("sku")
	if err := validate.ValidateKey(seller, sku); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := a.svc.FindBySellerIDAndSKU(r.Context(), seller, sku)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (a *api) create(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}

	var body struct {
		SKU   string `json:"sku"`
		Valor *int64 `json:"valor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.Valor == nil {
		http.Error(w, "valor: required", http.StatusBadRequest)
		return
	}
	if err := validate.ValidateFrete(seller, body.SKU, *body.Valor); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := a.svc.Create(r.Context(), model.FreteInput{SellerID: seller, SKU: body.SKU, Valor: *body.Valor})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (a *api) update(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}
	sku := r.PathValue("sku")
	if err := validate.ValidateKey(seller, sku); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	patch, err := patchFromRaw(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if patch.SellerID != nil || patch.SKU != nil {
		ns, nk := seller, sku
		if patch.SellerID != nil {
			ns = *patch.SellerID
		}
		if patch.SKU != nil {
			nk = *patch.SKU
		}
		if err := validate.ValidateKey(ns, nk); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	f, err := a.svc.Update(r.Context(), seller, sku, patch)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (a *api) replace(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}
	sku := r.PathValue("sku")
	if err := validate.ValidateKey(seller, sku); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		SellerID string `json:"seller_id"`
		SKU      string `json:"sku"`
		Valor    *int64 `json:"valor"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if body.Valor == nil {
		http.Error(w, "valor: required", http.StatusBadRequest)
		return
	}
	if err := validate.ValidateKey(body.SellerID, body.SKU); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, err := a.svc.Replace(r.Context(), seller, sku,
		model.FreteInput{SellerID: body.SellerID, SKU: body.SKU, Valor: *body.Valor})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (a *api) remove(w http.ResponseWriter, r *http.Request) {
	seller, ok := requireSeller(w, r)
	if !ok {
		return
	}
	sku := r.PathValue("sku")
	if err := validate.ValidateKey(seller, sku); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := a.svc.Delete(r.Context(), seller, sku); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// patchFromRaw builds a partial update, keeping "field": null distinct from
// an absent field. Null asks to erase, and no frete field supports erasing.
func patchFromRaw(raw map[string]json.RawMessage) (model.FretePatch, error) {
	var p model.FretePatch

	isNull := func(v json.RawMessage) bool {
		return string(bytes.TrimSpace(v)) == "null"
	}

	if v, ok := raw["seller_id"]; ok {
		var s string
		if isNull(v) || json.Unmarshal(v, &s) != nil {
			return model.FretePatch{}, fmt.Errorf("seller_id: must be a non-null string")
		}
		p.SellerID = &s
	}
	if v, ok := raw["sku"]; ok {
		var s string
		if isNull(v) || json.Unmarshal(v, &s) != nil {
			return model.FretePatch{}, fmt.Errorf("sku: must be a non-null string")
		}
		p.SKU = &s
	}
	if v, ok := raw["valor"]; ok {
		var n int64
		if isNull(v) || json.Unmarshal(v, &n) != nil {
			return model.FretePatch{}, fmt.Errorf("valor: must be a non-null integer")
		}
		p.Valor = &n
	}
	return p, nil
}

func requireSeller(w http.ResponseWriter, r *http.Request) (string, bool) {
	seller := r.Header.Get(sellerHeader)
	if seller == "" {
		http.Error(w, sellerHeader+" header is required", http.StatusBadRequest)
		return "", false
	}
	return seller, true
}

// parsePage reads _limit, _offset and _sort. Sort is a comma list of field
// names, "-" prefix for descending, e.g. "_sort=-valor,sku".
func parsePage(r *http.Request) (store.Page, error) {
	page := store.Page{Limit: 10}

	if v := r.URL.Query().Get("_limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return store.Page{}, fmt.Errorf("_limit: must be a positive integer")
		}
		page.Limit = n
	}
	if v := r.URL.Query().Get("_offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			return store.Page{}, fmt.Errorf("_offset: must be a non-negative integer")
		}
		page.Offset = n
	}
	if v := r.URL.Query().Get("_sort"); v != "" {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key := store.SortKey{Field: part}
			if strings.HasPrefix(part, "-") {
				key = store.SortKey{Field: part[1:], Desc: true}
			}
			if key.Field == "" {
				return store.Page{}, fmt.Errorf("_sort: empty field name")
			}
			page.Sort = append(page.Sort, key)
		}
	}
	return page, nil
}

func queryInt(r *http.Request, name string) (*int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: must be an integer", name)
	}
	return &n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrInvalidValue):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
