// Package pg implements the product tracking store on PostgreSQL.
//
// The store records, per geo-point, the candidate products found for that
// point and whether each one has been downloaded. A database tracks exactly
// one geo-point: registering a different point is rejected, different points
// belong in different databases.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/earthscan/s3loader/common"
	"github.com/go-spatial/geom"
	_ "github.com/lib/pq"
)

// pgInterface allows to use either a sql.DB or a sql.Tx
type pgInterface interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Backend implements the tracking store over a sql.DB or a sql.Tx
type Backend struct {
	pgInterface
}

// BackendDB is a Backend owning its connection
type BackendDB struct {
	*sql.DB
	Backend
}

// ErrPointConflict is returned when the database already tracks a different geo-point
type ErrPointConflict struct {
	Lat, Lon float64
}

func (e ErrPointConflict) Error() string {
	return fmt.Sprintf("the database already tracks point (%v, %v): use different databases for different points", e.Lat, e.Lon)
}

// New connects to the tracking database and creates the schema if needed
func New(ctx context.Context, dbConnection string) (*BackendDB, error) {
	db, err := sql.Open("postgres", dbConnection)
	if err != nil {
		return nil, fmt.Errorf("pg.New.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pg.New.Ping: %w", err)
	}
	b := &BackendDB{DB: db, Backend: Backend{db}}
	if err := b.createSchema(ctx); err != nil {
		return nil, fmt.Errorf("pg.New.%w", err)
	}
	return b, nil
}

func (b Backend) createSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS points (
			id   SERIAL PRIMARY KEY,
			lat  DOUBLE PRECISION NOT NULL,
			lon  DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			uuid       TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			point_id   INTEGER NOT NULL REFERENCES points (id),
			downloaded BOOLEAN NOT NULL DEFAULT FALSE
		)`,
	}
	for _, q := range queries {
		if _, err := b.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("createSchema: %w", err)
		}
	}
	return nil
}

// RegisterPoint returns the id of the tracked geo-point, creating it on
// first use. Raises ErrPointConflict when the database already tracks a
// different point.
func (b Backend) RegisterPoint(ctx context.Context, point geom.Point) (int, error) {
	var id int
	var lat, lon float64
	err := b.QueryRowContext(ctx, "SELECT id, lat, lon FROM points LIMIT 1").Scan(&id, &lat, &lon)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := b.QueryRowContext(ctx, "INSERT INTO points (lat, lon) VALUES ($1, $2) RETURNING id", point.Y(), point.X()).Scan(&id); err != nil {
			return 0, fmt.Errorf("RegisterPoint.Insert: %w", err)
		}
		return id, nil
	case err != nil:
		return 0, fmt.Errorf("RegisterPoint: %w", err)
	}
	if lat != point.Y() || lon != point.X() {
		return 0, ErrPointConflict{Lat: lat, Lon: lon}
	}
	return id, nil
}

// StoreProducts upserts the candidate products of the tracked point
func (b Backend) StoreProducts(ctx context.Context, pointID int, products []common.Product) error {
	for _, p := range products {
		if _, err := b.ExecContext(ctx,
			"INSERT INTO products (uuid, name, point_id) VALUES ($1, $2, $3) ON CONFLICT (uuid) DO NOTHING",
			p.UUID, p.Name, pointID); err != nil {
			return fmt.Errorf("StoreProducts[%s]: %w", p.Name, err)
		}
	}
	return nil
}

// ProductsToDownload lists the products of the tracked point that have not
// been downloaded yet, in insertion order.
func (b Backend) ProductsToDownload(ctx context.Context, pointID int) ([]common.Product, error) {
	rows, err := b.QueryContext(ctx,
		"SELECT uuid, name FROM products WHERE point_id = $1 AND NOT downloaded ORDER BY name", pointID)
	if err != nil {
		return nil, fmt.Errorf("ProductsToDownload: %w", err)
	}
	defer rows.Close()

	var products []common.Product
	for rows.Next() {
		var p common.Product
		if err := rows.Scan(&p.UUID, &p.Name); err != nil {
			return nil, fmt.Errorf("ProductsToDownload.Scan: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// MarkDownloaded implements downloader.Tracker
func (b Backend) MarkDownloaded(ctx context.Context, productUUID string) error {
	res, err := b.ExecContext(ctx, "UPDATE products SET downloaded = TRUE WHERE uuid = $1", productUUID)
	if err != nil {
		return fmt.Errorf("MarkDownloaded: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("MarkDownloaded: unknown product %s", productUUID)
	}
	return nil
}
