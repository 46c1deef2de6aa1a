// Package service holds the business rules for fretes. The repository is
// trusted to persist correctly but knows no policy: uniqueness of the
// (seller_id, sku) key, value bounds and partial-update semantics live here.
package service

import (
	"context"
	"errors"
	"fmt"

	"demo/fretes/internal/model"
	"demo/fretes/internal/store"
)

var (
	ErrNotFound      = errors.New("frete not found")
	ErrAlreadyExists = errors.New("frete already exists")
	ErrInvalidValue  = errors.New("invalid frete value")
)

// Filters is the caller-facing filter set for listing fretes. ValorMin and
// ValorMax bound the fee amount inclusively.
type Filters struct {
	SellerID string
	ValorMin *int64
	ValorMax *int64
}

type Service struct {
	repo store.Repository
}

func New(repo store.Repository) *Service { return &Service{repo: repo} }

// FindAll normalizes the filters into the repository shape and returns the
// repository result verbatim.
func (s *Service) FindAll(ctx context.Context, page store.Page, f Filters) ([]model.Frete, error) {
	return s.repo.Find(ctx, store.Filter{
		SellerID: f.SellerID,
		ValorMin: f.ValorMin,
		ValorMax: f.ValorMax,
	}, page)
}

func (s *Service) FindBySellerIDAndSKU(ctx context.Context, sellerID, sku string) (model.Frete, error) {
	f, ok, err := s.repo.FindOneByKey(ctx, sellerID, sku)
	if err != nil {
		return model.Frete{}, err
	}
	if !ok {
		return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrNotFound, sellerID, sku)
	}
	return f, nil
}

// Create persists a new frete. The uniqueness check runs before the value
// check; both run before any write. The check-then-write pair is not atomic,
// so a concurrent create for the same key can slip past the check. The
// store's unique index decides that race, and the loser surfaces here as
// ErrAlreadyExists too.
func (s *Service) Create(ctx context.Context, in model.FreteInput) (model.Frete, error) {
	_, exists, err := s.repo.FindOneByKey(ctx, in.SellerID, in.SKU)
	if err != nil {
		return model.Frete{}, err
	}
	if exists {
		return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrAlreadyExists, in.SellerID, in.SKU)
	}
	if in.Valor < 0 {
		return model.Frete{}, fmt.Errorf("%w: valor must be >= 0", ErrInvalidValue)
	}

	created, err := s.repo.Create(ctx, model.Frete{
		SellerID: in.SellerID,
		SKU:      in.SKU,
		Valor:    in.Valor,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrAlreadyExists, in.SellerID, in.SKU)
		}
		return model.Frete{}, err
	}
	return created, nil
}

// Update applies only the fields present in the patch; nil fields keep their
// prior value. Existence is checked before the value bound. A patch that
// moves the record onto another live key fails ErrAlreadyExists.
func (s *Service) Update(ctx context.Context, sellerID, sku string, patch model.FretePatch) (model.Frete, error) {
	cur, ok, err := s.repo.FindOneByKey(ctx, sellerID, sku)
	if err != nil {
		return model.Frete{}, err
	}
	if !ok {
		return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrNotFound, sellerID, sku)
	}
	if patch.Valor != nil && *patch.Valor < 0 {
		return model.Frete{}, fmt.Errorf("%w: valor must be >= 0", ErrInvalidValue)
	}

	if patch.SellerID != nil {
		cur.SellerID = *patch.SellerID
	}
	if patch.SKU != nil {
		cur.SKU = *patch.SKU
	}
	if patch.Valor != nil {
		cur.Valor = *patch.Valor
	}

	if err := s.checkKeyFree(ctx, sellerID, sku, cur); err != nil {
		return model.Frete{}, err
	}

	updated, ok, err := s.repo.Update(ctx, cur.ID, cur)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrAlreadyExists, cur.SellerID, cur.SKU)
		}
		return model.Frete{}, err
	}
	if !ok {
		// the record vanished between lookup and write
		return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrNotFound, sellerID, sku)
	}
	return updated, nil
}

// Replace overwrites seller_id, sku and valor with the supplied values. The
// business key may change; the internal id never does, and moving onto
// another live key fails ErrAlreadyExists.
func (s *Service) Replace(ctx context.Context, sellerID, sku string, in model.FreteInput) (model.Frete, error) {
	cur, ok, err := s.repo.FindOneByKey(ctx, sellerID, sku)
	if err != nil {
		return model.Frete{}, err
	}
	if !ok {
		return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrNotFound, sellerID, sku)
	}
	if in.Valor < 0 {
		return model.Frete{}, fmt.Errorf("%w: valor must be >= 0", ErrInvalidValue)
	}

	cur.SellerID = in.SellerID
	cur.SKU = in.SKU
	cur.Valor = in.Valor

	if err := s.checkKeyFree(ctx, sellerID, sku, cur); err != nil {
		return model.Frete{}, err
	}

	replaced, ok, err := s.repo.Update(ctx, cur.ID, cur)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrAlreadyExists, cur.SellerID, cur.SKU)
		}
		return model.Frete{}, err
	}
	if !ok {
		return model.Frete{}, fmt.Errorf("%w: %s/%s", ErrNotFound, sellerID, sku)
	}
	return replaced, nil
}

// checkKeyFree rejects an update that would move a record onto another live
// (seller_id, sku). Like the create path this is a best-effort fast check;
// the store's unique index settles concurrent movers.
func (s *Service) checkKeyFree(ctx context.Context, sellerID, sku string, next model.Frete) error {
	if next.SellerID == sellerID && next.SKU == sku {
		return nil
	}
	_, taken, err := s.repo.FindOneByKey(ctx, next.SellerID, next.SKU)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %s/%s", ErrAlreadyExists, next.SellerID, next.SKU)
	}
	return nil
}

// Delete removes the record for the key. Deletes are not idempotent: a
// second delete of the same key reports ErrNotFound.
func (s *Service) Delete(ctx context.Context, sellerID, sku string) error {
	_, ok, err := s.repo.FindOneByKey(ctx, sellerID, sku)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, sellerID, sku)
	}

	deleted, err := s.repo.DeleteByKey(ctx, sellerID, sku)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, sellerID, sku)
	}
	return nil
}
