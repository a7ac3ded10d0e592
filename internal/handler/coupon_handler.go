package handler

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/ai-coupon-service/internal/metrics"
	"github.com/fairyhunter13/ai-coupon-service/internal/model"
	"github.com/fairyhunter13/ai-coupon-service/internal/service"
)

const (
	errDuplicateCode  = "Coupon code already exists"
	errAIUnavailable  = "AI validation not available right now"
	errInternalServer = "internal server error"
)

// CouponServiceInterface defines the interface for coupon business logic.
type CouponServiceInterface interface {
	Submit(ctx context.Context, req *model.SubmitCouponRequest, generateCode bool) (*model.SubmitCouponResponse, error)
	ValidateCode(ctx context.Context, query string) (*model.CodeValidation, error)
	ValidateStore(ctx context.Context, store string) (*model.StoreValidation, error)
}

// CouponHandler handles HTTP requests for coupon operations.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
	metrics   *metrics.Metrics
}

// NewCouponHandler creates a new CouponHandler. m may be nil.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate, m *metrics.Metrics) *CouponHandler {
	return &CouponHandler{service: svc, validator: v, metrics: m}
}

// formatValidationError turns the first validator error into a client message.
func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "invalid request: " + field + " is required"
	case "notblank":
		return "invalid request: " + field + " cannot be whitespace only"
	case "max":
		return "invalid request: " + field + " exceeds maximum length of " + fe.Param()
	case "datetime":
		return "invalid request: " + field + " must be a date in YYYY-MM-DD format"
	default:
		return "invalid request: " + field + " is invalid"
	}
}

// SubmitCoupon handles POST /submit-coupon requests.
func (h *CouponHandler) SubmitCoupon(c *fiber.Ctx) error {
	generateCode := false
	if raw := c.Query("generate_code"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.metrics.Observe(metrics.OpSubmit, metrics.ResultRejected)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: generate_code must be a boolean"})
		}
		generateCode = parsed
	}

	var req model.SubmitCouponRequest
	if err := c.BodyParser(&req); err != nil {
		h.metrics.Observe(metrics.OpSubmit, metrics.ResultRejected)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := h.validator.Struct(req); err != nil {
		h.metrics.Observe(metrics.OpSubmit, metrics.ResultRejected)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	if generateCode || req.Code == "" {
		h.metrics.CodeGenerated()
	}

	resp, err := h.service.Submit(c.Context(), &req, generateCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateCode):
			h.metrics.Observe(metrics.OpSubmit, metrics.ResultDuplicate)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": errDuplicateCode})
		case errors.Is(err, service.ErrInvalidRequest):
			h.metrics.Observe(metrics.OpSubmit, metrics.ResultRejected)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		h.metrics.Observe(metrics.OpSubmit, metrics.ResultError)
		log.Error().Err(err).Str("store", req.Store).Bool("generate_code", generateCode).Msg("failed to submit coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": errInternalServer})
	}

	h.metrics.Observe(metrics.OpSubmit, metrics.ResultOK)
	log.Info().Str("store", req.Store).Str("code", resp.Coupon).Msg("coupon submitted")

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ValidateCoupon handles GET /validate-coupon-ai?query= requests.
func (h *CouponHandler) ValidateCoupon(c *fiber.Ctx) error {
	// An empty value is a valid query; only a missing parameter is rejected.
	if !c.Request().URI().QueryArgs().Has("query") {
		h.metrics.Observe(metrics.OpValidateCode, metrics.ResultRejected)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: query is required"})
	}
	// fiber query values point into a reused buffer
	query := utils.CopyString(c.Query("query"))

	result, err := h.service.ValidateCode(c.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrAIValidationUnavailable) {
			h.metrics.Observe(metrics.OpValidateCode, metrics.ResultRejected)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": errAIUnavailable})
		}
		h.metrics.Observe(metrics.OpValidateCode, metrics.ResultError)
		log.Error().Err(err).Str("query", query).Msg("failed to validate coupon")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": errInternalServer})
	}

	h.metrics.Observe(metrics.OpValidateCode, validity(result.Valid))
	return c.JSON(result)
}

// ValidateByStore handles GET /validate-by-store?store= requests.
func (h *CouponHandler) ValidateByStore(c *fiber.Ctx) error {
	if !c.Request().URI().QueryArgs().Has("store") {
		h.metrics.Observe(metrics.OpValidateStore, metrics.ResultRejected)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request: store is required"})
	}
	store := utils.CopyString(c.Query("store"))

	result, err := h.service.ValidateStore(c.Context(), store)
	if err != nil {
		h.metrics.Observe(metrics.OpValidateStore, metrics.ResultError)
		log.Error().Err(err).Str("store", store).Msg("failed to list store coupons")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": errInternalServer})
	}

	log.Debug().Str("store", store).Int("coupons", len(result.Coupons)).Msg("store coupons listed")
	h.metrics.Observe(metrics.OpValidateStore, validity(result.Valid))
	return c.JSON(result)
}

func validity(valid bool) string {
	if valid {
		return metrics.ResultValid
	}
	return metrics.ResultInvalid
}
