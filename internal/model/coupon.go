package model

import "time"

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// Coupon represents a stored coupon record
type Coupon struct {
	ID        int64     `json:"-"`
	Store     string    `json:"store"`
	Code      string    `json:"code"`
	Discount  float64   `json:"discount"`
	ExpiresAt time.Time `json:"-"` // date only, see DateLayout
	CreatedAt time.Time `json:"-"` // Not exposed in API
}

// SubmitCouponRequest is the DTO for POST /submit-coupon
type SubmitCouponRequest struct {
	Store     string   `json:"store" validate:"required,notblank,max=255"`
	Code      string   `json:"code" validate:"max=255"`
	Discount  *float64 `json:"discount" validate:"required"`
	ExpiresAt string   `json:"expires_at" validate:"required,datetime=2006-01-02"`
}

// SubmitCouponResponse is returned after a coupon has been stored
type SubmitCouponResponse struct {
	Message string `json:"message"`
	Coupon  string `json:"coupon"`
}

// CodeValidation is the API response DTO for GET /validate-coupon-ai
type CodeValidation struct {
	Valid     bool     `json:"valid"`
	Message   string   `json:"message,omitempty"`
	Code      string   `json:"code,omitempty"`
	Store     string   `json:"store,omitempty"`
	Discount  *float64 `json:"discount,omitempty"`
	ExpiresAt string   `json:"expires_at,omitempty"`
}

// StoreCoupon is a single entry of a store listing
type StoreCoupon struct {
	Code      string  `json:"code"`
	Discount  float64 `json:"discount"`
	ExpiresAt string  `json:"expires_at"`
	Expired   bool    `json:"expired"`
}

// StoreValidation is the API response DTO for GET /validate-by-store
type StoreValidation struct {
	Valid   bool          `json:"valid"`
	Message string        `json:"message,omitempty"`
	Store   string        `json:"store,omitempty"`
	Coupons []StoreCoupon `json:"coupons,omitempty"`
}
