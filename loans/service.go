// Package loans implements loan request submission, the approval transaction
// and the read-side queries over loan requests.
package loans

import (
	"Gin_postgres_redis_loan_tracker/db"
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Actor is the verified caller. The service trusts it as given; resolving
// identity and role is the caller's job.
type Actor struct {
	UID     string
	Email   string
	IsAdmin bool
}

type Options struct {
	// MaxRetries bounds re-runs of a transaction that hit store contention.
	MaxRetries int
	Backoff    time.Duration
	Now        func() time.Time
}

type Service struct {
	repo   *db.Repo
	log    *zap.Logger
	tracer trace.Tracer
	opts   Options
}

func NewService(repo *db.Repo, log *zap.Logger, opts Options) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 20 * time.Millisecond
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		repo:   repo,
		log:    log,
		tracer: otel.Tracer("loan-tracker/loans"),
		opts:   opts,
	}
}

func (s *Service) now() time.Time { return s.opts.Now().UTC() }

// inTx runs fn in one transaction, re-running it on store contention.
// Business errors returned by fn end the loop immediately.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx *db.Repo) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.repo.Transaction(ctx, fn)
		if !db.IsConflict(err) {
			return err
		}
		if attempt >= s.opts.MaxRetries {
			break
		}
		s.log.Warn("transaction conflict, retrying",
			zap.String("op", op), zap.Int("attempt", attempt+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * s.opts.Backoff):
		}
	}
	s.log.Warn("transaction conflict, giving up", zap.String("op", op), zap.Error(err))
	return errors.Join(ErrTransactionConflict, err)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
