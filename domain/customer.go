package domain

import "strings"

// CustomerInfo holds the details collected on step 1 of checkout. It only
// lives for the duration of the checkout flow and is snapshotted into the
// order on success.
type CustomerInfo struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	County     string `json:"county"`
	PostalCode string `json:"postal_code"`
	AreaNote   string `json:"area_note,omitempty"`
}

// RequiredFieldsPresent reports whether every mandatory detail field is
// non-blank after trimming. Postal code and area note are optional.
func (c CustomerInfo) RequiredFieldsPresent() bool {
	required := []string{
		c.FirstName,
		c.LastName,
		c.Email,
		c.Phone,
		c.Address,
		c.City,
		c.County,
	}
	for _, f := range required {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}
	return true
}
