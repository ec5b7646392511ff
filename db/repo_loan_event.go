package db

import (
	"Gin_postgres_redis_loan_tracker/models"
	"context"
	"fmt"
)

func (r *Repo) LogEvent(ctx context.Context, ev *models.LoanEvent) error {
	if err := r.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return fmt.Errorf("insert loan event: %w", err)
	}
	return nil
}

func (r *Repo) ListEvents(ctx context.Context, requestID string) ([]models.LoanEvent, error) {
	var out []models.LoanEvent
	err := r.DB.WithContext(ctx).
		Where("loan_request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}
