package db

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct{ DB *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// Transaction runs fn against a Repo bound to a single database transaction.
// fn must use only the Repo it is given; returning an error rolls back.
func (r *Repo) Transaction(ctx context.Context, fn func(tx *Repo) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repo{DB: tx})
	})
}
