package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	reSeller = regexp.MustCompile(`^[A-Za-z0-9_\-\.]{1,64}$`)
	reSKU    = regexp.MustCompile(`^[A-Za-z0-9_\-\.]{1,64}$`)
)

type multiErr []error

func (m multiErr) Error() string {
	var b strings.Builder
	for i, e := range m {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}
func (m multiErr) OrNil() error {
	if len(m) == 0 {
		return nil
	}
	return m
}

// ValidateKey checks the shape of a (seller_id, sku) business key before it
// reaches the service. Presence and format only; business rules stay in the
// service layer.
func ValidateKey(sellerID, sku string) error {
	var errs multiErr

	if sellerID == "" || !reSeller.MatchString(sellerID) {
		errs = append(errs, fmt.Errorf("seller_id: 1..64 [A-Za-z0-9_.-]"))
	}
	if sku == "" || !reSKU.MatchString(sku) {
		errs = append(errs, fmt.Errorf("sku: 1..64 [A-Za-z0-9_.-]"))
	}

	return errs.OrNil()
}

// ValidateFrete checks a full create/replace payload.
func ValidateFrete(sellerID, sku string, valor int64) error {
	var errs multiErr

	if err := ValidateKey(sellerID, sku); err != nil {
		errs = append(errs, err)
	}
	if valor < 0 {
		errs = append(errs, fmt.Errorf("valor: must be >= 0"))
	}

	return errs.OrNil()
}
