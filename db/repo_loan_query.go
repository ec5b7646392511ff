// db/repo_loan_query.go
package db

import (
	"Gin_postgres_redis_loan_tracker/models"
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
)

func (r *Repo) ListLoanRequestsByStatus(ctx context.Context, status models.LoanStatus) ([]models.LoanRequest, error) {
	var out []models.LoanRequest
	err := r.DB.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *Repo) ListLoanRequestsByCreator(ctx context.Context, uid string) ([]models.LoanRequest, error) {
	var out []models.LoanRequest
	err := r.DB.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("created_by_uid = ?", uid).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

type LoanRequestQuery struct {
	Status       models.LoanStatus // empty = all
	AcademicYear string            // substring, case-insensitive
	Department   string            // substring, case-insensitive
	From, To     *time.Time        // created_at bounds, inclusive
	Text         string            // requester, items, reason, metadata
	Page, Size   int
}

type PagedLoanRequests struct {
	Total int64                `json:"total"`
	Items []models.LoanRequest `json:"items"`
}

func likePattern(s string) string { return "%" + strings.ToLower(s) + "%" }

func (r *Repo) SearchLoanRequests(ctx context.Context, q LoanRequestQuery) (*PagedLoanRequests, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Size <= 0 || q.Size > 100 {
		q.Size = 20
	}

	qry := r.DB.WithContext(ctx).Model(&models.LoanRequest{})
	if q.Status != "" {
		qry = qry.Where("status = ?", q.Status)
	}
	if s := strings.TrimSpace(q.AcademicYear); s != "" {
		qry = qry.Where("LOWER(academic_year_code) LIKE ?", likePattern(s))
	}
	if s := strings.TrimSpace(q.Department); s != "" {
		qry = qry.Where("LOWER(department_code) LIKE ?", likePattern(s))
	}
	if q.From != nil {
		qry = qry.Where("created_at >= ?", *q.From)
	}
	if q.To != nil {
		qry = qry.Where("created_at <= ?", *q.To)
	}
	if s := strings.TrimSpace(q.Text); s != "" {
		pat := likePattern(s)
		qry = qry.Where(`(
			LOWER(created_by_email) LIKE ? OR LOWER(created_by_uid) LIKE ? OR
			LOWER(reason) LIKE ? OR LOWER(academic_year_code) LIKE ? OR
			LOWER(department_code) LIKE ? OR LOWER(request_date) LIKE ? OR
			EXISTS (SELECT 1 FROM `+models.LoanItemTable+` li
			        WHERE li.loan_request_id = `+models.LoanRequestTable+`.id
			          AND (LOWER(li.equipment_name) LIKE ? OR LOWER(li.code) LIKE ?)))`,
			pat, pat, pat, pat, pat, pat, pat, pat)
	}

	var total int64
	if err := qry.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []models.LoanRequest
	if err := qry.
		Preload("Items", itemsByPosition).
		Order("created_at DESC").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return &PagedLoanRequests{Total: total, Items: rows}, nil
}
