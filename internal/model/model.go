package model

import "time"

// Frete is a shipping fee for one seller's SKU. The (SellerID, SKU) pair
// identifies a live record; ID is the store-assigned identifier and never
// changes after creation. Audit fields are stamped by the store on write.
type Frete struct {
	ID        string     `json:"id"`
	SellerID  string     `json:"seller_id"`
	SKU       string     `json:"sku"`
	Valor     int64      `json:"valor"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	CreatedBy string     `json:"created_by,omitempty"`
	UpdatedBy string     `json:"updated_by,omitempty"`
}

// FretePatch carries a partial update. Nil means "leave the field alone";
// the JSON decoder keeps the absent-vs-null distinction out of the service.
type FretePatch struct {
	SellerID *string `json:"seller_id"`
	SKU      *string `json:"sku"`
	Valor    *int64  `json:"valor"`
}

// FreteInput is the caller-supplied shape for create and replace.
type FreteInput struct {
	SellerID string `json:"seller_id"`
	SKU      string `json:"sku"`
	Valor    int64  `json:"valor"`
}
