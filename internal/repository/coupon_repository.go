package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fairyhunter13/ai-coupon-service/internal/model"
	"github.com/fairyhunter13/ai-coupon-service/internal/service"
	"github.com/fairyhunter13/ai-coupon-service/pkg/database"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// likeEscaper makes user input match literally inside an ILIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PoolInterface defines the database operations needed by repositories.
// This allows for easier testing with mocks.
type PoolInterface interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Insert stores a new coupon and fills in its ID and CreatedAt.
// The unique constraint on code decides duplicates; no prior lookup is made.
// Returns service.ErrDuplicateCode if the code is already taken.
func (r *CouponRepository) Insert(ctx context.Context, coupon *model.Coupon) error {
	query := `INSERT INTO coupons (store, code, discount, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		coupon.Store, coupon.Code, coupon.Discount, coupon.ExpiresAt,
	).Scan(&coupon.ID, &coupon.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return service.ErrDuplicateCode
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// ListCodes returns every stored code in insertion order.
// On success, returns an empty slice (not nil) when no coupons exist.
func (r *CouponRepository) ListCodes(ctx context.Context, q database.TxQuerier) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT code FROM coupons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list coupon codes: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan coupon code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon codes: %w", err)
	}
	return codes, nil
}

// GetByCode retrieves a coupon by its exact code.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error) {
	query := `SELECT id, store, code, discount, expires_at, created_at FROM coupons WHERE code = $1`

	var coupon model.Coupon
	err := q.QueryRow(ctx, query, code).Scan(
		&coupon.ID,
		&coupon.Store,
		&coupon.Code,
		&coupon.Discount,
		&coupon.ExpiresAt,
		&coupon.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return &coupon, nil
}

// ListByStore returns coupons whose store name contains store, ignoring case.
func (r *CouponRepository) ListByStore(ctx context.Context, store string) ([]model.Coupon, error) {
	query := `SELECT id, store, code, discount, expires_at, created_at
		FROM coupons
		WHERE store ILIKE '%' || $1 || '%' ESCAPE '\'
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, likeEscaper.Replace(store))
	if err != nil {
		return nil, fmt.Errorf("list coupons for store %s: %w", store, err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		var c model.Coupon
		if err := rows.Scan(&c.ID, &c.Store, &c.Code, &c.Discount, &c.ExpiresAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan coupon row: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate coupon rows: %w", err)
	}
	return coupons, nil
}
