package controllers

import (
	"errors"
	"net/http"

	"Gin_postgres_redis_loan_tracker/app"
	"Gin_postgres_redis_loan_tracker/loans"
	"Gin_postgres_redis_loan_tracker/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins.
var errTable = []errMapping{
	{loans.ErrEmptyRequest, http.StatusUnprocessableEntity, "EMPTY_REQUEST"},
	{loans.ErrInvalidQuantity, http.StatusUnprocessableEntity, "INVALID_QUANTITY"},
	{loans.ErrMissingMetadata, http.StatusUnprocessableEntity, "MISSING_METADATA"},
	{loans.ErrInvalidReturnDate, http.StatusUnprocessableEntity, "INVALID_RETURN_DATE"},
	{loans.ErrUnknownOrInactiveEquipment, http.StatusUnprocessableEntity, "UNKNOWN_OR_INACTIVE_EQUIPMENT"},
	{loans.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{loans.ErrAlreadyProcessed, http.StatusConflict, "ALREADY_PROCESSED"},
	{loans.ErrNotReturnable, http.StatusConflict, "NOT_RETURNABLE"},
	{loans.ErrEquipmentMissing, http.StatusConflict, "EQUIPMENT_MISSING"},
	{loans.ErrTransactionConflict, http.StatusServiceUnavailable, "TRANSACTION_CONFLICT"},
	{loans.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{session.ErrKeyInFlight, http.StatusConflict, "IDEMPOTENCY_KEY_IN_FLIGHT"},
}

// writeErr renders err as {"error", "code"}; anything unrecognised is a 500
// and is logged.
func (s *Srv) writeErr(c *gin.Context, err error) {
	var stock *loans.InsufficientStockError
	if errors.As(err, &stock) {
		status, code := http.StatusConflict, "INSUFFICIENT_STOCK"
		if errors.Is(err, loans.ErrInsufficientStockAtSubmission) {
			status, code = http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK_AT_SUBMISSION"
		}
		c.AbortWithStatusJSON(status, app.H{
			"error":         err.Error(),
			"code":          code,
			"equipmentId":   stock.EquipmentID,
			"equipmentName": stock.EquipmentName,
			"remaining":     stock.Remaining,
			"requested":     stock.Requested,
		})
		return
	}

	for _, m := range errTable {
		if errors.Is(err, m.target) {
			msg := err.Error()
			if m.status >= 500 {
				// don't leak driver detail
				msg = m.target.Error()
				s.Log.Warn("request failed", zap.String("code", m.code), zap.Error(err))
			}
			c.AbortWithStatusJSON(m.status, app.H{"error": msg, "code": m.code})
			return
		}
	}

	_ = c.Error(err)
	s.Log.Error("internal error", zap.String("path", c.FullPath()), zap.Error(err))
	app.Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
}

func badRequest(c *gin.Context, err error) {
	app.Abort(c, http.StatusBadRequest, "BAD_REQUEST", err.Error())
}
