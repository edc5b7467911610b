package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"canteen/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `
    id, user_id, status, total_amount, payment_method, payment_status, created_at, updated_at`

// ---------- Writes (always inside the caller's transaction) ----------

// Insert writes the order header and fills in o.ID.
func (r *OrderRepo) Insert(ctx context.Context, tx *sqlx.Tx, o *domain.Order) error {
	return tx.QueryRowxContext(ctx, tx.Rebind(`
	  INSERT INTO orders
	    (user_id, status, total_amount, payment_method, payment_status, created_at, updated_at)
	  VALUES
	    (?,       ?,      ?,            ?,              ?,              ?,          ?)
	  RETURNING id
	`), o.UserID, string(o.Status), o.TotalAmount.StringFixed(2), string(o.PaymentMethod),
		string(o.PaymentStatus), o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
}

// InsertItem writes a single line item and fills in it.ID.
func (r *OrderRepo) InsertItem(ctx context.Context, tx *sqlx.Tx, it *domain.OrderItem) error {
	return tx.QueryRowxContext(ctx, tx.Rebind(`
	  INSERT INTO order_items(order_id, product_id, product_name, product_category, quantity, price_at_time)
	  VALUES(?, ?, ?, ?, ?, ?)
	  RETURNING id
	`), it.OrderID, it.ProductID, it.ProductName, it.ProductCategory, it.Quantity, it.PriceAtTime.StringFixed(2)).Scan(&it.ID)
}

// SetStatus moves the order only if it is still in the observed state.
// It reports false when another writer got there first.
func (r *OrderRepo) SetStatus(ctx context.Context, tx *sqlx.Tx, from, to domain.Order) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(`
	  UPDATE orders
	  SET status = ?, payment_status = ?, updated_at = ?
	  WHERE id = ? AND status = ? AND payment_status = ?
	`), string(to.Status), string(to.PaymentStatus), to.UpdatedAt, from.ID, string(from.Status), string(from.PaymentStatus))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ---------- Reads ----------

// Get returns domain.ErrNotFound when the order does not exist.
func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	return getOrder(ctx, r.db, id)
}

func (r *OrderRepo) GetTx(ctx context.Context, tx *sqlx.Tx, id int64) (domain.Order, error) {
	return getOrder(ctx, tx, id)
}

func getOrder(ctx context.Context, q sqlx.ExtContext, id int64) (domain.Order, error) {
	var o domain.Order
	err := sqlx.GetContext(ctx, q, &o, q.Rebind(`SELECT`+orderCols+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	return o, err
}

// List returns orders newest first, all of them when userID is empty.
func (r *OrderRepo) List(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	if userID == "" {
		err := r.db.SelectContext(ctx, &out, `
		SELECT`+orderCols+`
		FROM orders
		ORDER BY created_at DESC, id DESC
	`)
		return out, err
	}
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT`+orderCols+`
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`), userID)
	return out, err
}

type itemRow struct {
	domain.OrderItem
	PID          sql.NullInt64       `db:"p_id"`
	PName        sql.NullString      `db:"p_name"`
	PDescription sql.NullString      `db:"p_description"`
	PPrice       decimal.NullDecimal `db:"p_price"`
	PCategory    sql.NullString      `db:"p_category"`
	PImageURL    sql.NullString      `db:"p_image_url"`
	PAvailable   sql.NullBool        `db:"p_is_available"`
	PCreatedAt   sql.NullString      `db:"p_created_at"`
}

func (row itemRow) detail() domain.ItemDetail {
	d := domain.ItemDetail{OrderItem: row.OrderItem}
	if row.PID.Valid {
		d.Product = &domain.Product{
			ID:          row.PID.Int64,
			Name:        row.PName.String,
			Description: row.PDescription.String,
			Price:       row.PPrice.Decimal,
			Category:    row.PCategory.String,
			ImageURL:    row.PImageURL.String,
			IsAvailable: row.PAvailable.Bool,
			CreatedAt:   row.PCreatedAt.String,
		}
	}
	return d
}

// ItemsBatchSize caps the ids bound into one item query. SQLite accepts at
// most 32766 parameters per statement and PostgreSQL 65535.
var ItemsBatchSize = 500

const itemsQuery = `
		SELECT oi.id, oi.order_id, oi.product_id, oi.product_name, oi.product_category,
		       oi.quantity, oi.price_at_time,
		       p.id AS p_id, p.name AS p_name, p.description AS p_description, p.price AS p_price,
		       p.category AS p_category, p.image_url AS p_image_url,
		       p.is_available AS p_is_available, p.created_at AS p_created_at
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id IN (?)
		ORDER BY oi.order_id, oi.id
	`

// ItemsFor loads the items of every given order, each joined to the current
// catalog row when it still exists. Ids go to the store in batches of
// ItemsBatchSize.
func (r *OrderRepo) ItemsFor(ctx context.Context, orderIDs []int64) (map[int64][]domain.ItemDetail, error) {
	out := make(map[int64][]domain.ItemDetail, len(orderIDs))
	size := ItemsBatchSize
	if size < 1 {
		size = 1
	}
	for start := 0; start < len(orderIDs); start += size {
		end := min(start+size, len(orderIDs))
		query, args, err := sqlx.In(itemsQuery, orderIDs[start:end])
		if err != nil {
			return nil, err
		}
		var rows []itemRow
		if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("order items: %w", err)
		}
		for _, row := range rows {
			out[row.OrderID] = append(out[row.OrderID], row.detail())
		}
	}
	return out, nil
}

// Summary counts orders per dashboard bucket.
func (r *OrderRepo) Summary(ctx context.Context) (domain.Summary, error) {
	var s domain.Summary
	err := r.db.GetContext(ctx, &s, `
		SELECT
		  COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
		  COALESCE(SUM(CASE WHEN status IN ('pending','confirmed') THEN 1 ELSE 0 END), 0) AS active,
		  COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) AS completed,
		  COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0) AS cancelled
		FROM orders
	`)
	return s, err
}
