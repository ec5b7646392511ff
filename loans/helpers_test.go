package loans

import (
	"Gin_postgres_redis_loan_tracker/db"
	"Gin_postgres_redis_loan_tracker/models"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

var (
	admin = Actor{UID: "admin-1", Email: "admin@example.com", IsAdmin: true}
	staff = Actor{UID: "staff-1", Email: "staff@example.com"}
)

type fixture struct {
	svc  *Service
	repo *db.Repo
}

// sqliteDSN builds an in-memory database private to the (sub)test.
func sqliteDSN(name string) string {
	name = strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(name)
	return fmt.Sprintf("file:loans_%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])
}

func newFixture(t testing.TB) *fixture {
	t.Helper()
	conn, err := db.Open(sqliteDSN(t.Name()), zap.NewNop(), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	repo := db.NewRepo(conn)
	return &fixture{
		svc:  NewService(repo, zap.NewNop(), Options{MaxRetries: 2, Backoff: time.Millisecond}),
		repo: repo,
	}
}

func (f *fixture) equipment(t testing.TB, name string, qty int) *models.Equipment {
	t.Helper()
	eq := &models.Equipment{
		ID:                uuid.NewString(),
		Name:              name,
		Code:              strings.ToUpper(name[:3]) + "-01",
		Unit:              "pcs",
		AvailableQuantity: qty,
		IsActive:          true,
	}
	require.NoError(t, f.repo.CreateEquipment(context.Background(), eq))
	return eq
}

func (f *fixture) stock(t testing.TB, id string) int {
	t.Helper()
	eq, err := f.repo.FindEquipmentByID(context.Background(), id)
	require.NoError(t, err)
	return eq.AvailableQuantity
}

func (f *fixture) status(t testing.TB, id string) models.LoanStatus {
	t.Helper()
	lr, err := f.repo.FindLoanRequestByID(context.Background(), id)
	require.NoError(t, err)
	return lr.Status
}

func draft(items ...ItemInput) SubmitInput {
	return SubmitInput{
		Items:            items,
		Reason:           "lab session",
		AcademicYearCode: "2567",
		RequestDate:      "2024-06-01",
		DepartmentCode:   "SCI",
	}
}

func item(eq *models.Equipment, qty int) ItemInput {
	return ItemInput{EquipmentID: eq.ID, Quantity: qty}
}

func (f *fixture) submit(t testing.TB, items ...ItemInput) *models.LoanRequest {
	t.Helper()
	lr, err := f.svc.Submit(context.Background(), staff, draft(items...))
	require.NoError(t, err)
	return lr
}
