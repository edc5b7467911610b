package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"canteen/internal/domain"
)

const (
	MaxLines = 20
	MaxQty   = 50
)

var (
	reMobile = regexp.MustCompile(`^[0-9]{10}$`)
	maxPrice = decimal.New(1, 8) // NUMERIC(10,2)
)

// Mobile validates a 10 digit mobile number used as the login id.
func Mobile(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reMobile.MatchString(s)
}

// Password applies the password policy before any hash comparison.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

// ID validates a numeric resource identifier from a path or query.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func PaymentMethod(s string) (domain.PaymentMethod, bool) {
	m := domain.PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

func Status(s string) (domain.OrderStatus, bool) {
	st := domain.OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	return st, st.Valid()
}

func PaymentStatus(s string) (domain.PaymentStatus, bool) {
	p := domain.PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

// Price accepts non-negative amounts with at most two fractional digits.
func Price(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThan(maxPrice) && d.Equal(d.Round(2))
}

// OrderRequest checks a new order before any storage access.
func OrderRequest(req domain.CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return domain.ValidationError{Field: "items", Message: "items cannot be empty"}
	}
	if len(req.Items) > MaxLines {
		return domain.ValidationError{Field: "items", Message: fmt.Sprintf("a maximum of %d items is allowed", MaxLines)}
	}
	for i, it := range req.Items {
		if it.ProductID < 1 {
			return domain.ValidationError{Field: fmt.Sprintf("items[%d].productId", i), Message: "product id is required"}
		}
		if it.Quantity < 1 {
			return domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: "quantity must be at least 1"}
		}
		if it.Quantity > MaxQty {
			return domain.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Message: fmt.Sprintf("quantity must be at most %d", MaxQty)}
		}
	}
	if !req.PaymentMethod.Valid() {
		return domain.ValidationError{Field: "paymentMethod", Message: "payment method must be cod or gpay"}
	}
	return nil
}

// Product checks a complete product record.
func Product(p domain.Product) error {
	if err := text("name", p.Name, 1, 100); err != nil {
		return err
	}
	if err := text("description", p.Description, 0, 1000); err != nil {
		return err
	}
	if err := text("category", p.Category, 1, 50); err != nil {
		return err
	}
	if !Price(p.Price) {
		return domain.ValidationError{Field: "price", Message: "price must be between 0 and 99999999.99 with at most 2 decimals"}
	}
	if p.ImageURL != "" && !imageURL(p.ImageURL) {
		return domain.ValidationError{Field: "imageUrl", Message: "image url must be an http(s) url or an absolute path"}
	}
	return nil
}

// ProductPatch checks only the fields present in a partial update.
func ProductPatch(p domain.ProductPatch) error {
	if p.Name != nil {
		if err := text("name", *p.Name, 1, 100); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := text("description", *p.Description, 0, 1000); err != nil {
			return err
		}
	}
	if p.Category != nil {
		if err := text("category", *p.Category, 1, 50); err != nil {
			return err
		}
	}
	if p.Price != nil && !Price(*p.Price) {
		return domain.ValidationError{Field: "price", Message: "price must be between 0 and 99999999.99 with at most 2 decimals"}
	}
	if p.ImageURL != nil && *p.ImageURL != "" && !imageURL(*p.ImageURL) {
		return domain.ValidationError{Field: "imageUrl", Message: "image url must be an http(s) url or an absolute path"}
	}
	return nil
}

func text(field, s string, min, max int) error {
	if utf8.RuneCountInString(strings.TrimSpace(s)) < min {
		return domain.ValidationError{Field: field, Message: field + " is required"}
	}
	if utf8.RuneCountInString(s) > max {
		return domain.ValidationError{Field: field, Message: fmt.Sprintf("%s must not exceed %d characters", field, max)}
	}
	return nil
}

func imageURL(s string) bool {
	if len(s) > 500 {
		return false
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
