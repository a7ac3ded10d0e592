package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/ai-coupon-service/internal/model"
	"github.com/fairyhunter13/ai-coupon-service/pkg/database"
)

const (
	msgCouponAdded    = "Coupon added successfully"
	msgNoMatch        = "No matching coupon found"
	msgCouponExpired  = "Coupon expired"
	msgNoStoreCoupons = "No coupons found for store '%s'"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, coupon *model.Coupon) error
	ListCodes(ctx context.Context, q database.TxQuerier) ([]string, error)
	GetByCode(ctx context.Context, q database.TxQuerier, code string) (*model.Coupon, error)
	ListByStore(ctx context.Context, store string) ([]model.Coupon, error)
}

// CodeGenerator produces and matches coupon codes through an external text-generation API.
type CodeGenerator interface {
	Generate(ctx context.Context, store string, discount float64) (string, error)
	Match(ctx context.Context, query string, codes []string) (string, bool, error)
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Options carries the per-deployment switches of the service.
type Options struct {
	// AIValidationEnabled selects the AI-assisted matching path for code validation.
	AIValidationEnabled bool
	// Location decides which calendar day "today" is. Defaults to UTC.
	Location *time.Location
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// CouponService provides business logic for coupon operations.
type CouponService struct {
	pool       TxBeginner
	couponRepo CouponRepositoryInterface
	generator  CodeGenerator
	useAI      bool
	loc        *time.Location
	now        func() time.Time
}

// NewCouponService creates a new CouponService with the given pool, repository and generator.
func NewCouponService(pool *pgxpool.Pool, couponRepo CouponRepositoryInterface, gen CodeGenerator, opts Options) *CouponService {
	return NewCouponServiceWithTxBeginner(pool, couponRepo, gen, opts)
}

// NewCouponServiceWithTxBeginner creates a CouponService with a custom TxBeginner.
// Primarily used for testing.
func NewCouponServiceWithTxBeginner(pool TxBeginner, couponRepo CouponRepositoryInterface, gen CodeGenerator, opts Options) *CouponService {
	s := &CouponService{
		pool:       pool,
		couponRepo: couponRepo,
		generator:  gen,
		useAI:      opts.AIValidationEnabled,
		loc:        opts.Location,
		now:        opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit stores a new coupon and returns its code.
// The code is generated when generateCode is set or the request carries none.
// Returns ErrDuplicateCode if the code is already taken.
func (s *CouponService) Submit(ctx context.Context, req *model.SubmitCouponRequest, generateCode bool) (*model.SubmitCouponResponse, error) {
	if req == nil || req.Discount == nil {
		return nil, ErrInvalidRequest
	}

	expiresAt, err := time.Parse(model.DateLayout, req.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: expires_at: %v", ErrInvalidRequest, err)
	}

	code := req.Code
	if generateCode || code == "" {
		code, err = s.generator.Generate(ctx, req.Store, *req.Discount)
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}
		if code == "" {
			return nil, ErrEmptyGeneratedCode
		}
		log.Debug().Str("store", req.Store).Str("code", code).Msg("coupon code generated")
	}

	coupon := &model.Coupon{
		Store:     req.Store,
		Code:      code,
		Discount:  *req.Discount,
		ExpiresAt: expiresAt,
	}
	if err := s.couponRepo.Insert(ctx, coupon); err != nil {
		if errors.Is(err, ErrDuplicateCode) {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert coupon: %w", err)
	}

	return &model.SubmitCouponResponse{Message: msgCouponAdded, Coupon: coupon.Code}, nil
}

// ValidateCode checks a free-text query against the stored coupon codes.
// Lookups share one read-only transaction so the code list and the matched row agree.
// Returns ErrAIValidationUnavailable when AI matching is enabled.
func (s *CouponService) ValidateCode(ctx context.Context, query string) (*model.CodeValidation, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	codes, err := s.couponRepo.ListCodes(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}

	if s.useAI {
		// Extension point for s.generator.Match; its no-match and tie-break rules are undefined.
		return nil, ErrAIValidationUnavailable
	}
	match, ok := matchCode(query, codes)
	if !ok {
		return &model.CodeValidation{Valid: false, Message: msgNoMatch}, nil
	}

	coupon, err := s.couponRepo.GetByCode(ctx, tx, match)
	if err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if coupon == nil {
		// Row vanished between the two reads.
		return &model.CodeValidation{Valid: false, Message: msgNoMatch}, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	if s.expired(coupon.ExpiresAt) {
		return &model.CodeValidation{Valid: false, Message: msgCouponExpired}, nil
	}

	discount := coupon.Discount
	return &model.CodeValidation{
		Valid:     true,
		Code:      coupon.Code,
		Store:     coupon.Store,
		Discount:  &discount,
		ExpiresAt: coupon.ExpiresAt.Format(model.DateLayout),
	}, nil
}

// ValidateStore lists every coupon whose store name contains the query, ignoring case.
func (s *CouponService) ValidateStore(ctx context.Context, store string) (*model.StoreValidation, error) {
	coupons, err := s.couponRepo.ListByStore(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("list coupons by store: %w", err)
	}
	if len(coupons) == 0 {
		return &model.StoreValidation{Valid: false, Message: fmt.Sprintf(msgNoStoreCoupons, store)}, nil
	}

	items := make([]model.StoreCoupon, 0, len(coupons))
	for _, c := range coupons {
		items = append(items, model.StoreCoupon{
			Code:      c.Code,
			Discount:  c.Discount,
			ExpiresAt: c.ExpiresAt.Format(model.DateLayout),
			Expired:   s.expired(c.ExpiresAt),
		})
	}

	return &model.StoreValidation{Valid: true, Store: store, Coupons: items}, nil
}

// matchCode returns the first known code equal to query under case folding.
func matchCode(query string, codes []string) (string, bool) {
	for _, code := range codes {
		if strings.EqualFold(code, query) {
			return code, true
		}
	}
	return "", false
}

// expired reports whether expiresAt falls strictly before today.
// A coupon expiring today is still valid.
func (s *CouponService) expired(expiresAt time.Time) bool {
	y, m, d := s.now().In(s.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	ey, em, ed := expiresAt.Date()
	expiry := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)

	return expiry.Before(today)
}
