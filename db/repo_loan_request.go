// db/repo_loan_request.go
package db

import (
	"Gin_postgres_redis_loan_tracker/models"
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func itemsByPosition(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

// CreateLoanRequest inserts the request and its line items in one transaction.
func (r *Repo) CreateLoanRequest(ctx context.Context, lr *models.LoanRequest) error {
	for i := range lr.Items {
		lr.Items[i].Position = i
	}
	return r.DB.WithContext(ctx).Create(lr).Error
}

func (r *Repo) FindLoanRequestByID(ctx context.Context, id string) (*models.LoanRequest, error) {
	var lr models.LoanRequest
	if err := r.DB.WithContext(ctx).
		Preload("Items", itemsByPosition).
		First(&lr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &lr, nil
}

// LockLoanRequest reads the request with a row lock, then its items.
func (r *Repo) LockLoanRequest(ctx context.Context, id string) (*models.LoanRequest, error) {
	var lr models.LoanRequest
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&lr, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).
		Where("loan_request_id = ?", id).
		Order("position ASC").
		Find(&lr.Items).Error; err != nil {
		return nil, err
	}
	return &lr, nil
}

// Transition moves a request from one status to another, guarded on the
// current status. It returns false when the row was not in status from
// (or does not exist). Extra columns are written in the same statement.
func (r *Repo) Transition(ctx context.Context, id string, from, to models.LoanStatus, extra map[string]any) (bool, error) {
	fields := map[string]any{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range extra {
		fields[k] = v
	}
	res := r.DB.WithContext(ctx).
		Model(&models.LoanRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
