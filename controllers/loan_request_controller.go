package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Gin_postgres_redis_loan_tracker/app"
	"Gin_postgres_redis_loan_tracker/loans"
	"Gin_postgres_redis_loan_tracker/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const IdempotencyHeader = "Idempotency-Key"

type LoanRequestController struct{ *Srv }

func NewLoanRequestController(s *Srv) *LoanRequestController {
	return &LoanRequestController{Srv: s}
}

// POST /api/requests
// A repeated Idempotency-Key from the same user returns the request the first
// call created, with 200 instead of 201.
func (lc *LoanRequestController) Submit(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var in loans.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	key := strings.TrimSpace(c.GetHeader(IdempotencyHeader))
	if key != "" {
		prev, reserved, err := lc.Idem.Reserve(ctx, a.UID, key)
		if err != nil {
			lc.writeErr(c, err)
			return
		}
		if !reserved {
			lr, err := lc.Loans.Get(ctx, prev)
			if err != nil {
				lc.writeErr(c, err)
				return
			}
			c.JSON(http.StatusOK, lr)
			return
		}
	}

	lr, err := lc.Loans.Submit(ctx, a, in)
	if err != nil {
		if key != "" {
			if rerr := lc.Idem.Release(ctx, a.UID, key); rerr != nil {
				lc.Log.Warn("release idempotency key", zap.String("uid", a.UID), zap.Error(rerr))
			}
		}
		lc.writeErr(c, err)
		return
	}
	if key != "" {
		lc.completeKey(ctx, a.UID, key, lr.ID)
	}
	c.JSON(http.StatusCreated, lr)
}

const completeAttempts = 3

// completeKey records the created request under the key. If every attempt
// fails the pending reservation expires on its own.
func (lc *LoanRequestController) completeKey(ctx context.Context, uid, key, requestID string) {
	var err error
	for i := 0; i < completeAttempts; i++ {
		if err = lc.Idem.Complete(ctx, uid, key, requestID); err == nil {
			return
		}
	}
	lc.Log.Warn("complete idempotency key",
		zap.String("uid", uid), zap.String("request_id", requestID), zap.Error(err))
}

// GET /api/requests/mine
func (lc *LoanRequestController) Mine(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	rows, err := lc.Loans.ListMine(c.Request.Context(), a)
	if err != nil {
		lc.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

// GET /api/requests/:id, creator or admin only.
func (lc *LoanRequestController) Get(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	lr, err := lc.Loans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		lc.writeErr(c, err)
		return
	}
	if !a.IsAdmin && lr.CreatedByUID != a.UID {
		lc.writeErr(c, loans.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, lr)
}

// GET /api/requests/:id/events
func (lc *LoanRequestController) Events(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	events, err := lc.Loans.Events(c.Request.Context(), c.Param("id"), a)
	if err != nil {
		lc.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": events})
}

// POST /api/requests/:id/cancel
func (lc *LoanRequestController) Cancel(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := lc.Loans.Cancel(c.Request.Context(), c.Param("id"), a); err != nil {
		lc.writeErr(c, err)
		return
	}
	lc.respondCurrent(c, c.Param("id"))
}

// GET /api/requests/pending
func (lc *LoanRequestController) Pending(c *gin.Context) {
	rows, err := lc.Loans.ListPending(c.Request.Context())
	if err != nil {
		lc.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"items": rows})
}

// GET /api/requests?status=&academicYear=&department=&from=&to=&q=&page=&size=
// from/to are YYYY-MM-DD.
func (lc *LoanRequestController) Search(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	f := loans.Filter{
		Status:       models.LoanStatus(c.Query("status")),
		AcademicYear: c.Query("academicYear"),
		Department:   c.Query("department"),
		Text:         c.Query("q"),
	}
	if f.Status != "" && !f.Status.Valid() {
		badRequest(c, errors.New("unknown status"))
		return
	}
	var err error
	if f.From, err = dayParam(c, "from"); err != nil {
		badRequest(c, err)
		return
	}
	if f.To, err = dayParam(c, "to"); err != nil {
		badRequest(c, err)
		return
	}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	page, err := lc.Loans.Search(c.Request.Context(), a, f)
	if err != nil {
		lc.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// POST /api/requests/:id/approve
func (lc *LoanRequestController) Approve(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	lr, err := lc.Loans.Approve(c.Request.Context(), c.Param("id"), a)
	if err != nil {
		lc.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, lr)
}

// POST /api/requests/:id/reject
func (lc *LoanRequestController) Reject(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	if err := lc.Loans.Reject(c.Request.Context(), c.Param("id"), a); err != nil {
		lc.writeErr(c, err)
		return
	}
	lc.respondCurrent(c, c.Param("id"))
}

// POST /api/requests/:id/return
func (lc *LoanRequestController) Return(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	lr, err := lc.Loans.Return(c.Request.Context(), c.Param("id"), a)
	if err != nil {
		lc.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, lr)
}

func (lc *LoanRequestController) respondCurrent(c *gin.Context, id string) {
	lr, err := lc.Loans.Get(c.Request.Context(), id)
	if err != nil {
		lc.writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, lr)
}

func dayParam(c *gin.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, errors.New(name + " must be YYYY-MM-DD")
	}
	return &t, nil
}
