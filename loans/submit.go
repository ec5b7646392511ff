package loans

import (
	"Gin_postgres_redis_loan_tracker/db"
	"Gin_postgres_redis_loan_tracker/models"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ItemInput struct {
	EquipmentID string `json:"equipmentId"`
	Quantity    int    `json:"quantity"`
}

type SubmitInput struct {
	Items              []ItemInput `json:"items"`
	Reason             string      `json:"reason"`
	ExpectedReturnDate string      `json:"expectedReturnDate,omitempty"` // YYYY-MM-DD or RFC 3339
	AcademicYearCode   string      `json:"academicYearCode"`
	RequestDate        string      `json:"requestDate"` // YYYY-MM-DD
	DepartmentCode     string      `json:"departmentCode"`
}

const requestDateLayout = "2006-01-02"

// Submit validates a draft and stores it as a pending request. The stock
// check here is advisory: stock can move before an admin approves, and
// Approve re-checks under lock.
func (s *Service) Submit(ctx context.Context, actor Actor, in SubmitInput) (*models.LoanRequest, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyRequest
	}
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	year := strings.TrimSpace(in.AcademicYearCode)
	dept := strings.TrimSpace(in.DepartmentCode)
	date := strings.TrimSpace(in.RequestDate)
	if year == "" || dept == "" || date == "" {
		return nil, ErrMissingMetadata
	}
	if _, err := time.Parse(requestDateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: request date must be YYYY-MM-DD", ErrMissingMetadata)
	}
	returnBy, err := parseReturnDate(in.ExpectedReturnDate)
	if err != nil {
		return nil, err
	}

	lr := &models.LoanRequest{
		ID:                 uuid.NewString(),
		CreatedByUID:       actor.UID,
		CreatedByEmail:     actor.Email,
		Status:             models.StatusPending,
		Reason:             strings.TrimSpace(in.Reason),
		ExpectedReturnDate: returnBy,
		AcademicYearCode:   year,
		RequestDate:        date,
		DepartmentCode:     dept,
		CreatedAt:          s.now(),
	}
	for _, it := range in.Items {
		lr.Items = append(lr.Items, models.LoanItem{EquipmentID: it.EquipmentID, Quantity: it.Quantity})
	}

	ids, demand, err := demandOf(lr)
	if err != nil {
		return nil, err
	}
	stock, err := s.repo.FindEquipmentByIDs(ctx, ids)
	if err != nil {
		return nil, s.storeErr(err)
	}
	for _, id := range ids {
		eq, ok := stock[id]
		if !ok || !eq.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOrInactiveEquipment, id)
		}
		if demand[id] > eq.AvailableQuantity {
			return nil, &InsufficientStockError{
				EquipmentID:   id,
				EquipmentName: eq.Name,
				Remaining:     eq.AvailableQuantity,
				Requested:     demand[id],
				atSubmission:  true,
			}
		}
	}

	for i := range lr.Items {
		eq := stock[lr.Items[i].EquipmentID]
		lr.Items[i].EquipmentName = eq.Name
		lr.Items[i].Code = eq.Code
		lr.Items[i].Unit = eq.Unit
	}

	err = s.inTx(ctx, "submit", func(tx *db.Repo) error {
		if err := tx.CreateLoanRequest(ctx, lr); err != nil {
			return fmt.Errorf("create loan request: %w", err)
		}
		return tx.LogEvent(ctx, newEvent(lr.ID, models.ActionSubmitted, actor, lr.CreatedAt))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("loan request submitted",
		zap.String("request_id", lr.ID),
		zap.String("uid", actor.UID),
		zap.Int("items", len(lr.Items)))
	return lr, nil
}

// parseReturnDate accepts the date-only form sent by date inputs and, for API
// clients, a full RFC 3339 timestamp. Empty means no return date.
func parseReturnDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{requestDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: got %q", ErrInvalidReturnDate, v)
}
