// db/repo_equipment.go
package db

import (
	"Gin_postgres_redis_loan_tracker/models"
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repo) CreateEquipment(ctx context.Context, eq *models.Equipment) error {
	return r.DB.WithContext(ctx).Create(eq).Error
}

func (r *Repo) FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error) {
	var eq models.Equipment
	if err := r.DB.WithContext(ctx).First(&eq, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &eq, nil
}

// FindEquipmentByIDs returns the rows that exist, keyed by id.
func (r *Repo) FindEquipmentByIDs(ctx context.Context, ids []string) (map[string]models.Equipment, error) {
	out := make(map[string]models.Equipment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Equipment
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, eq := range rows {
		out[eq.ID] = eq
	}
	return out, nil
}

func (r *Repo) ListEquipment(ctx context.Context, activeOnly bool) ([]models.Equipment, error) {
	q := r.DB.WithContext(ctx).Order("name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var items []models.Equipment
	err := q.Find(&items).Error
	return items, err
}

// EquipmentPatch carries descriptive edits only. Stock is not editable here.
type EquipmentPatch struct {
	Name     *string
	Code     *string
	Unit     *string
	IsActive *bool
}

func (r *Repo) UpdateEquipment(ctx context.Context, id string, p EquipmentPatch) (*models.Equipment, error) {
	fields := map[string]any{"updated_at": time.Now().UTC()}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Code != nil {
		fields["code"] = *p.Code
	}
	if p.Unit != nil {
		fields["unit"] = *p.Unit
	}
	if p.IsActive != nil {
		fields["is_active"] = *p.IsActive
	}
	res := r.DB.WithContext(ctx).Model(&models.Equipment{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindEquipmentByID(ctx, id)
}

func (r *Repo) DeleteEquipment(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&models.Equipment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LockEquipment row-locks the given equipment in ascending id order so that
// concurrent transactions over overlapping sets cannot deadlock. Missing ids
// are simply absent from the result.
func (r *Repo) LockEquipment(ctx context.Context, ids []string) (map[string]models.Equipment, error) {
	out := make(map[string]models.Equipment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	var rows []models.Equipment
	if err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, eq := range rows {
		out[eq.ID] = eq
	}
	return out, nil
}

// AdjustStock applies a relative change to available_quantity. A negative
// delta only applies when enough stock remains; ok is false otherwise.
func (r *Repo) AdjustStock(ctx context.Context, id string, delta int) (ok bool, err error) {
	q := r.DB.WithContext(ctx).Model(&models.Equipment{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("available_quantity >= ?", -delta)
	}
	res := q.Updates(map[string]any{
		"available_quantity": gorm.Expr("available_quantity + ?", delta),
		"updated_at":         time.Now().UTC(),
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
