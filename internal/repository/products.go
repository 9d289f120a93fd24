package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/recipe-importer/internal/catalog"
)

// ProductRepository reads and seeds the product catalog table.
type ProductRepository interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Insert(ctx context.Context, products []catalog.Product) error
	// Snapshot loads the whole table as a read-only catalog.
	Snapshot(ctx context.Context) (*catalog.Catalog, error)
}

type productRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewProductRepository(db *DB, logger *slog.Logger) ProductRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &productRepo{db: db, logger: logger}
}

func (r *productRepo) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := r.db.SQL.QueryContext(ctx,
		`SELECT name, unit, price_per_unit, cost_per_oz, category, pack_size, sku FROM products ORDER BY id`)
	if err != nil {
		r.logger.Error("failed to list products", "error", err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []catalog.Product
	for rows.Next() {
		var (
			p   catalog.Product
			cpo sql.NullFloat64
		)
		if err := rows.Scan(&p.Name, &p.Unit, &p.PricePerUnit, &cpo, &p.Category, &p.PackSize, &p.SKU); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if cpo.Valid {
			v := cpo.Float64
			p.CostPerOz = &v
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *productRepo) Insert(ctx context.Context, products []catalog.Product) error {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	q := r.db.rebind(`INSERT INTO products (name, unit, price_per_unit, cost_per_oz, category, pack_size, sku)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	for _, p := range products {
		var cpo sql.NullFloat64
		if p.CostPerOz != nil {
			cpo = sql.NullFloat64{Float64: *p.CostPerOz, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, q, p.Name, p.Unit, p.PricePerUnit, cpo, p.Category, p.PackSize, p.SKU); err != nil {
			r.logger.Error("failed to insert product", "name", p.Name, "error", err)
			return err
		}
	}
	return tx.Commit()
}

func (r *productRepo) Snapshot(ctx context.Context) (*catalog.Catalog, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	r.logger.Info("catalog.loaded", "source", "database", "products", len(products))
	return catalog.New(products), nil
}
