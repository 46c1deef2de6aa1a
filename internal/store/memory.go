package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"demo/fretes/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo keeps records in an ordered slice. It exists for tests and
// development, so Find may filter, sort and slice over the full collection.
// Ids are ObjectID hex strings so both backends agree on id shape.
type MemoryRepo struct {
	mu      sync.RWMutex
	records []model.Frete
}

func NewMemory() *MemoryRepo { return &MemoryRepo{} }

func (r *MemoryRepo) Create(_ context.Context, f model.Frete) (model.Frete, error) {
	f.ID = primitive.NewObjectID().Hex()
	f.CreatedAt = time.Now().UTC()
	f.CreatedBy = systemActor
	f.UpdatedAt = nil
	f.UpdatedBy = ""

	r.mu.Lock()
	r.records = append(r.records, f)
	r.mu.Unlock()
	return f, nil
}

func (r *MemoryRepo) Find(_ context.Context, filter Filter, page Page) ([]model.Frete, error) {
	r.mu.RLock()
	matched := make([]model.Frete, 0, len(r.records))
	for _, f := range r.records {
		if matches(f, filter) {
			matched = append(matched, f)
		}
	}
	r.mu.RUnlock()

	// Later sort keys break ties of earlier ones: apply them in reverse with
	// a stable sort, dropping records that lack the key first.
	for i := len(page.Sort) - 1; i >= 0; i-- {
		k := page.Sort[i]
		kept := matched[:0]
		for _, f := range matched {
			if hasField(f, k.Field) {
				kept = append(kept, f)
			}
		}
		matched = kept
		sort.SliceStable(matched, func(a, b int) bool {
			if k.Desc {
				return fieldLess(matched[b], matched[a], k.Field)
			}
			return fieldLess(matched[a], matched[b], k.Field)
		})
	}

	if page.Offset >= int64(len(matched)) {
		return []model.Frete{}, nil
	}
	matched = matched[page.Offset:]
	if page.Limit > 0 && page.Limit < int64(len(matched)) {
		matched = matched[:page.Limit]
	}
	out := make([]model.Frete, len(matched))
	copy(out, matched)
	return out, nil
}

func (r *MemoryRepo) FindByID(_ context.Context, id string) (model.Frete, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.records {
		if f.ID == id {
			return f, true, nil
		}
	}
	return model.Frete{}, false, nil
}

func (r *MemoryRepo) FindOneByKey(_ context.Context, sellerID, sku string) (model.Frete, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.records {
		if f.SellerID == sellerID && f.SKU == sku {
			return f, true, nil
		}
	}
	return model.Frete{}, false, nil
}

func (r *MemoryRepo) Update(_ context.Context, id string, f model.Frete) (model.Frete, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, cur := range r.records {
		if cur.ID != id {
			continue
		}
		now := time.Now().UTC()
		cur.SellerID = f.SellerID
		cur.SKU = f.SKU
		cur.Valor = f.Valor
		cur.UpdatedAt = &now
		cur.UpdatedBy = systemActor
		r.records[i] = cur
		return cur, true, nil
	}
	return model.Frete{}, false, nil
}

func (r *MemoryRepo) DeleteByKey(_ context.Context, sellerID, sku string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.records {
		if f.SellerID == sellerID && f.SKU == sku {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func matches(f model.Frete, filter Filter) bool {
	if filter.SellerID != "" && f.SellerID != filter.SellerID {
		return false
	}
	if filter.SKU != "" && f.SKU != filter.SKU {
		return false
	}
	if filter.ValorMin != nil && f.Valor < *filter.ValorMin {
		return false
	}
	if filter.ValorMax != nil && f.Valor > *filter.ValorMax {
		return false
	}
	return true
}

// hasField mirrors the document backend: sorting by a field a record does not
// carry excludes the record, and an unknown field excludes everything.
func hasField(f model.Frete, field string) bool {
	switch field {
	case "seller_id", "sku", "valor", "created_at":
		return true
	case "updated_at":
		return f.UpdatedAt != nil
	default:
		return false
	}
}

func fieldLess(a, b model.Frete, field string) bool {
	switch field {
	case "seller_id":
		return a.SellerID < b.SellerID
	case "sku":
		return a.SKU < b.SKU
	case "valor":
		return a.Valor < b.Valor
	case "created_at":
		return a.CreatedAt.Before(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Before(*b.UpdatedAt)
	default:
		return false
	}
}
