package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"canteen/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, name, description, price, category, COALESCE(image_url,'') AS image_url,
    is_available, created_at`

// List returns the whole menu grouped by category.
func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
  SELECT`+productCols+`
  FROM products
  ORDER BY category, id
`)
	return out, err
}

// Get returns domain.ErrNotFound when no product has the id.
func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	return getProduct(ctx, r.db, id)
}

// GetTx reads the product inside an open transaction.
func (r *ProductRepo) GetTx(ctx context.Context, tx *sqlx.Tx, id int64) (domain.Product, error) {
	return getProduct(ctx, tx, id)
}

func getProduct(ctx context.Context, q sqlx.ExtContext, id int64) (domain.Product, error) {
	var p domain.Product
	err := sqlx.GetContext(ctx, q, &p, q.Rebind(`
  SELECT`+productCols+`
  FROM products
  WHERE id = ?
`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return p, err
}

// Create inserts p and fills in its id and created_at.
func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	p.CreatedAt = domain.Timestamp(time.Now())
	return r.db.QueryRowxContext(ctx, r.db.Rebind(`
	  INSERT INTO products(name, description, price, category, image_url, is_available, created_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?)
	  RETURNING id
	`), p.Name, p.Description, p.Price.StringFixed(2), p.Category, nullIfEmpty(p.ImageURL), p.IsAvailable, p.CreatedAt).Scan(&p.ID)
}

// Update applies patch to the stored product and returns the result.
func (r *ProductRepo) Update(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	var out domain.Product
	err := InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		p, err := getProduct(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(&p)
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
		  UPDATE products
		  SET name = ?, description = ?, price = ?, category = ?, image_url = ?, is_available = ?
		  WHERE id = ?
		`), p.Name, p.Description, p.Price.StringFixed(2), p.Category, nullIfEmpty(p.ImageURL), p.IsAvailable, id); err != nil {
			return err
		}
		out = p
		return nil
	})
	return out, err
}

// Delete removes the product. Historical order items are left untouched.
func (r *ProductRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("product %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`)
	return n, err
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
