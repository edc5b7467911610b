package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `db:"id"`
	Name        string          `db:"name"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Category    string          `db:"category"`
	ImageURL    string          `db:"image_url"`
	IsAvailable bool            `db:"is_available"`
	CreatedAt   string          `db:"created_at"`
}

type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "cod"
	PaymentGPay PaymentMethod = "gpay"
)

// Label is the customer-facing wording used on receipts.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCOD:
		return "Pay at counter"
	case PaymentGPay:
		return "Online (GPay)"
	}
	return string(m)
}

type Order struct {
	ID            int64           `db:"id"`
	UserID        string          `db:"user_id"`
	Status        OrderStatus     `db:"status"`
	TotalAmount   decimal.Decimal `db:"total_amount"`
	PaymentMethod PaymentMethod   `db:"payment_method"`
	PaymentStatus PaymentStatus   `db:"payment_status"`
	CreatedAt     string          `db:"created_at"`
	UpdatedAt     string          `db:"updated_at"`
}

// Code is the order id as shown at the counter and encoded in the QR.
func (o Order) Code() string { return OrderCode(o.ID) }

func OrderCode(id int64) string { return fmt.Sprintf("%04d", id) }

// OrderItem is written once together with its order. ProductName and
// ProductCategory are captured at order time so history survives catalog edits.
type OrderItem struct {
	ID              int64           `db:"id"`
	OrderID         int64           `db:"order_id"`
	ProductID       int64           `db:"product_id"`
	ProductName     string          `db:"product_name"`
	ProductCategory string          `db:"product_category"`
	Quantity        int             `db:"quantity"`
	PriceAtTime     decimal.Decimal `db:"price_at_time"`
}

func (it OrderItem) Subtotal() decimal.Decimal {
	return it.PriceAtTime.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// ItemDetail pairs an item with the product as it is in the catalog now.
// Product is nil when the product has since been deleted.
type ItemDetail struct {
	OrderItem
	Product *Product
}

type OrderDetail struct {
	Order
	Items []ItemDetail
}

// OrderLine is one requested line of a new order.
type OrderLine struct {
	ProductID int64
	Quantity  int
}

type CreateOrderRequest struct {
	Items         []OrderLine
	PaymentMethod PaymentMethod
}

// Summary backs the staff dashboard counters.
type Summary struct {
	Pending   int `db:"pending"`
	Active    int `db:"active"`
	Completed int `db:"completed"`
	Cancelled int `db:"cancelled"`
	Products  int `db:"products"`
}

// TimeLayout is fixed width so stored timestamps sort lexically.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

func Timestamp(t time.Time) string { return t.UTC().Format(TimeLayout) }

// ProductPatch carries the fields of a partial product update.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	ImageURL    *string
	IsAvailable *bool
}

func (p ProductPatch) Apply(dst *Product) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Category != nil {
		dst.Category = *p.Category
	}
	if p.ImageURL != nil {
		dst.ImageURL = *p.ImageURL
	}
	if p.IsAvailable != nil {
		dst.IsAvailable = *p.IsAvailable
	}
}
