package loans

import (
	"Gin_postgres_redis_loan_tracker/db"
	"Gin_postgres_redis_loan_tracker/models"
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Approve decides a pending request and deducts its stock in one transaction.
// Every precondition is checked after the rows are locked; on any failure
// nothing is written.
func (s *Service) Approve(ctx context.Context, requestID string, actor Actor) (out *models.LoanRequest, err error) {
	ctx, span := s.tracer.Start(ctx, "loans.approve",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer func() { endSpan(span, err) }()

	if !actor.IsAdmin {
		return nil, ErrForbidden
	}

	err = s.inTx(ctx, "approve", func(tx *db.Repo) error {
		lr, err := lockPending(ctx, tx, requestID)
		if err != nil {
			return err
		}

		ids, demand, err := demandOf(lr)
		if err != nil {
			return err
		}
		stock, err := tx.LockEquipment(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock equipment: %w", err)
		}
		for _, id := range ids {
			eq, ok := stock[id]
			if !ok {
				return &EquipmentMissingError{EquipmentID: id, EquipmentName: snapshotName(lr, id)}
			}
			if eq.AvailableQuantity < demand[id] {
				return &InsufficientStockError{
					EquipmentID:   id,
					EquipmentName: eq.Name,
					Remaining:     eq.AvailableQuantity,
					Requested:     demand[id],
				}
			}
		}

		for _, id := range ids {
			ok, err := tx.AdjustStock(ctx, id, -demand[id])
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				// Only reachable on a store without row locks.
				eq := stock[id]
				return &InsufficientStockError{
					EquipmentID:   id,
					EquipmentName: eq.Name,
					Remaining:     eq.AvailableQuantity,
					Requested:     demand[id],
				}
			}
		}

		now := s.now()
		ok, err := tx.Transition(ctx, requestID, models.StatusPending, models.StatusApproved, map[string]any{
			"approved_by_uid": actor.UID,
			"approved_at":     now,
		})
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if !ok {
			return ErrAlreadyProcessed
		}

		if err := tx.LogEvent(ctx, newEvent(requestID, models.ActionApproved, actor, now)); err != nil {
			return err
		}

		lr.Status = models.StatusApproved
		lr.ApprovedByUID = &actor.UID
		lr.ApprovedAt = &now
		out = lr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("loan request approved",
		zap.String("request_id", requestID),
		zap.String("approver", actor.UID),
		zap.Int("items", len(out.Items)))
	return out, nil
}

// Reject records a rejection. Only the request row changes, so a guarded
// single-row update is enough; no equipment row is read or locked.
func (s *Service) Reject(ctx context.Context, requestID string, actor Actor) (err error) {
	ctx, span := s.tracer.Start(ctx, "loans.reject",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer func() { endSpan(span, err) }()

	if !actor.IsAdmin {
		return ErrForbidden
	}

	err = s.inTx(ctx, "reject", func(tx *db.Repo) error {
		now := s.now()
		ok, err := tx.Transition(ctx, requestID, models.StatusPending, models.StatusRejected, map[string]any{
			"approved_by_uid": actor.UID,
			"approved_at":     now,
		})
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if !ok {
			return explainMiss(ctx, tx, requestID)
		}
		return tx.LogEvent(ctx, newEvent(requestID, models.ActionRejected, actor, now))
	})
	if err != nil {
		return err
	}

	s.log.Info("loan request rejected",
		zap.String("request_id", requestID), zap.String("approver", actor.UID))
	return nil
}

// Cancel lets the creator withdraw a request that is still pending.
func (s *Service) Cancel(ctx context.Context, requestID string, actor Actor) (err error) {
	ctx, span := s.tracer.Start(ctx, "loans.cancel",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer func() { endSpan(span, err) }()

	lr, err := s.repo.FindLoanRequestByID(ctx, requestID)
	if db.IsNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return s.storeErr(err)
	}
	if lr.CreatedByUID != actor.UID {
		return ErrForbidden
	}

	err = s.inTx(ctx, "cancel", func(tx *db.Repo) error {
		now := s.now()
		ok, err := tx.Transition(ctx, requestID, models.StatusPending, models.StatusCancelled, map[string]any{
			"cancelled_at": now,
		})
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if !ok {
			return ErrAlreadyProcessed
		}
		return tx.LogEvent(ctx, newEvent(requestID, models.ActionCancelled, actor, now))
	})
	if err != nil {
		return err
	}
	s.log.Info("loan request cancelled",
		zap.String("request_id", requestID), zap.String("uid", actor.UID))
	return nil
}

// Return puts the stock of an approved request back, mirroring Approve.
func (s *Service) Return(ctx context.Context, requestID string, actor Actor) (out *models.LoanRequest, err error) {
	ctx, span := s.tracer.Start(ctx, "loans.return",
		trace.WithAttributes(attribute.String("request.id", requestID)))
	defer func() { endSpan(span, err) }()

	if !actor.IsAdmin {
		return nil, ErrForbidden
	}

	err = s.inTx(ctx, "return", func(tx *db.Repo) error {
		lr, err := tx.LockLoanRequest(ctx, requestID)
		if db.IsNotFound(err) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock request: %w", err)
		}
		if lr.Status != models.StatusApproved {
			return ErrNotReturnable
		}

		ids, demand, err := demandOf(lr)
		if err != nil {
			return err
		}
		stock, err := tx.LockEquipment(ctx, ids)
		if err != nil {
			return fmt.Errorf("lock equipment: %w", err)
		}
		for _, id := range ids {
			if _, ok := stock[id]; !ok {
				return &EquipmentMissingError{EquipmentID: id, EquipmentName: snapshotName(lr, id)}
			}
		}
		for _, id := range ids {
			ok, err := tx.AdjustStock(ctx, id, demand[id])
			if err != nil {
				return fmt.Errorf("increment stock: %w", err)
			}
			if !ok {
				return &EquipmentMissingError{EquipmentID: id, EquipmentName: snapshotName(lr, id)}
			}
		}

		now := s.now()
		ok, err := tx.Transition(ctx, requestID, models.StatusApproved, models.StatusReturned, map[string]any{
			"returned_by_uid": actor.UID,
			"returned_at":     now,
		})
		if err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if !ok {
			return ErrNotReturnable
		}
		if err := tx.LogEvent(ctx, newEvent(requestID, models.ActionReturned, actor, now)); err != nil {
			return err
		}
		lr.Status = models.StatusReturned
		lr.ReturnedByUID = &actor.UID
		lr.ReturnedAt = &now
		out = lr
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("loan request returned",
		zap.String("request_id", requestID), zap.String("admin", actor.UID))
	return out, nil
}

func lockPending(ctx context.Context, tx *db.Repo, requestID string) (*models.LoanRequest, error) {
	lr, err := tx.LockLoanRequest(ctx, requestID)
	if db.IsNotFound(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock request: %w", err)
	}
	if lr.Status != models.StatusPending {
		return nil, ErrAlreadyProcessed
	}
	return lr, nil
}

// explainMiss turns a guarded update that matched no row into NotFound or
// AlreadyProcessed.
func explainMiss(ctx context.Context, tx *db.Repo, requestID string) error {
	_, err := tx.FindLoanRequestByID(ctx, requestID)
	if db.IsNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find request: %w", err)
	}
	return ErrAlreadyProcessed
}

// demandOf sums a request's lines per equipment, refusing totals that do not
// fit in an int.
func demandOf(lr *models.LoanRequest) ([]string, map[string]int, error) {
	ids, qty, err := lr.Demand()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidQuantity, err)
	}
	return ids, qty, nil
}

func newEvent(requestID string, action models.LoanAction, actor Actor, at time.Time) *models.LoanEvent {
	return &models.LoanEvent{
		LoanRequestID: requestID,
		Action:        action,
		ActorUID:      actor.UID,
		ActorEmail:    actor.Email,
		CreatedAt:     at,
	}
}

func (s *Service) storeErr(err error) error {
	if db.IsConflict(err) {
		return errors.Join(ErrTransactionConflict, err)
	}
	return err
}

func snapshotName(lr *models.LoanRequest, equipmentID string) string {
	for _, it := range lr.Items {
		if it.EquipmentID == equipmentID {
			return it.EquipmentName
		}
	}
	return equipmentID
}
