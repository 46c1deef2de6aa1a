package store

import (
	"context"
	"errors"

	"demo/fretes/internal/model"
)

// ErrDuplicateKey is returned by Create and Update when the storage layer
// rejects a write that would violate the unique (seller_id, sku) index. The
// memory backend never returns it; the service's own uniqueness checks are
// the only guard there.
var ErrDuplicateKey = errors.New("store: duplicate key")

// actor recorded in created_by/updated_by; callers cannot set audit fields.
const systemActor = "fretes-api"

// Repository is the persistence surface for fretes. Both backends behave
// identically for every operation: absence is reported as a false bool,
// never as an error, and callers only ever see domain entities.
type Repository interface {
	// Create stamps the audit fields, persists the record and returns the
	// stored form including the assigned id.
	Create(ctx context.Context, f model.Frete) (model.Frete, error)

	// Find returns the records matching every filter, ordered per page.Sort
	// and sliced by [offset, offset+limit).
	Find(ctx context.Context, filter Filter, page Page) ([]model.Frete, error)

	// FindByID resolves a record by its internal id. A malformed id is
	// reported as absent, not as an error.
	FindByID(ctx context.Context, id string) (model.Frete, bool, error)

	// FindOneByKey resolves a record by its (seller_id, sku) business key.
	FindOneByKey(ctx context.Context, sellerID, sku string) (model.Frete, bool, error)

	// Update replaces the persisted fields of the record with the given id,
	// stamping updated_at, and returns the post-image. An absent return means
	// the id did not resolve (a prior existence check may be stale).
	Update(ctx context.Context, id string, f model.Frete) (model.Frete, bool, error)

	// DeleteByKey removes the record with the given business key and reports
	// whether anything was removed.
	DeleteByKey(ctx context.Context, sellerID, sku string) (bool, error)
}

// Filter is the fixed predicate set for Find. Zero-valued fields impose no
// constraint; set fields combine with AND.
type Filter struct {
	SellerID string
	SKU      string
	ValorMin *int64
	ValorMax *int64
}

// SortKey orders a result set by one field. Keys apply in the order given,
// later keys breaking ties of earlier ones.
type SortKey struct {
	Field string
	Desc  bool
}

// Page slices and orders a Find result.
type Page struct {
	Limit  int64
	Offset int64
	Sort   []SortKey
}
