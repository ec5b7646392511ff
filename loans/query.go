package loans

import (
	"Gin_postgres_redis_loan_tracker/db"
	"Gin_postgres_redis_loan_tracker/models"
	"context"
	"time"
)

func (s *Service) Get(ctx context.Context, requestID string) (*models.LoanRequest, error) {
	lr, err := s.repo.FindLoanRequestByID(ctx, requestID)
	if db.IsNotFound(err) {
		return nil, ErrNotFound
	}
	return lr, err
}

// ListPending is the approval queue, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]models.LoanRequest, error) {
	return s.repo.ListLoanRequestsByStatus(ctx, models.StatusPending)
}

// ListMine is the requester's own history, newest first.
func (s *Service) ListMine(ctx context.Context, actor Actor) ([]models.LoanRequest, error) {
	return s.repo.ListLoanRequestsByCreator(ctx, actor.UID)
}

type Filter struct {
	Status       models.LoanStatus
	AcademicYear string
	Department   string
	From, To     *time.Time // calendar days, both inclusive
	Text         string
	Page, Size   int
}

// Search is the admin-wide history view.
func (s *Service) Search(ctx context.Context, actor Actor, f Filter) (*db.PagedLoanRequests, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	q := db.LoanRequestQuery{
		Status:       f.Status,
		AcademicYear: f.AcademicYear,
		Department:   f.Department,
		Text:         f.Text,
		Page:         f.Page,
		Size:         f.Size,
	}
	if f.From != nil {
		from := startOfDay(*f.From)
		q.From = &from
	}
	if f.To != nil {
		to := startOfDay(*f.To).Add(24*time.Hour - time.Nanosecond)
		q.To = &to
	}
	return s.repo.SearchLoanRequests(ctx, q)
}

func (s *Service) ListEquipment(ctx context.Context, activeOnly bool) ([]models.Equipment, error) {
	return s.repo.ListEquipment(ctx, activeOnly)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Events returns the audit trail of a request to its creator or an admin.
func (s *Service) Events(ctx context.Context, requestID string, actor Actor) ([]models.LoanEvent, error) {
	lr, err := s.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin && lr.CreatedByUID != actor.UID {
		return nil, ErrForbidden
	}
	return s.repo.ListEvents(ctx, requestID)
}
