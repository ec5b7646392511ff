package loans

import (
	"Gin_postgres_redis_loan_tracker/db"
	"Gin_postgres_redis_loan_tracker/models"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove_DeductsEachLineOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e1 := f.equipment(t, "projector", 10)
	e2 := f.equipment(t, "tripod", 5)
	lr := f.submit(t, item(e1, 2), item(e2, 1))

	fixed := time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)
	f.svc.opts.Now = func() time.Time { return fixed }

	got, err := f.svc.Approve(ctx, lr.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	assert.Equal(t, 8, f.stock(t, e1.ID))
	assert.Equal(t, 4, f.stock(t, e2.ID))

	stored, err := f.repo.FindLoanRequestByID(ctx, lr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, stored.Status)
	require.NotNil(t, stored.ApprovedByUID)
	assert.Equal(t, admin.UID, *stored.ApprovedByUID)
	require.NotNil(t, stored.ApprovedAt)
	assert.True(t, stored.ApprovedAt.Equal(fixed))
}

func TestApprove_SecondCallIsAlreadyProcessed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.equipment(t, "camera", 4)
	lr := f.submit(t, item(eq, 3))

	_, err := f.svc.Approve(ctx, lr.ID, admin)
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, lr.ID, admin)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, 1, f.stock(t, eq.ID), "stock must not be deducted twice")
}

func TestApprove_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Approve(context.Background(), "missing", admin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApprove_RequiresAdmin(t *testing.T) {
	f := newFixture(t)
	eq := f.equipment(t, "camera", 4)
	lr := f.submit(t, item(eq, 1))

	_, err := f.svc.Approve(context.Background(), lr.ID, staff)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 4, f.stock(t, eq.ID))
	assert.Equal(t, models.StatusPending, f.status(t, lr.ID))
}

func TestApprove_InsufficientStockLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e1 := f.equipment(t, "microphone", 10)
	e2 := f.equipment(t, "speaker", 3)
	lr := f.submit(t, item(e1, 2), item(e2, 3))

	// Stock drops after submission; first line is still fine, second is not.
	ok, err := f.repo.AdjustStock(ctx, e2.ID, -2)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Approve(ctx, lr.ID, admin)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "speaker", stockErr.EquipmentName)
	assert.Equal(t, 1, stockErr.Remaining)
	assert.Equal(t, 3, stockErr.Requested)

	assert.Equal(t, 10, f.stock(t, e1.ID))
	assert.Equal(t, 1, f.stock(t, e2.ID))
	assert.Equal(t, models.StatusPending, f.status(t, lr.ID))
}

func TestApprove_EquipmentMissingLeavesEverythingUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e1 := f.equipment(t, "laptop", 6)
	e2 := f.equipment(t, "charger", 6)
	lr := f.submit(t, item(e1, 1), item(e2, 1))

	require.NoError(t, f.repo.DeleteEquipment(ctx, e2.ID))

	_, err := f.svc.Approve(ctx, lr.ID, admin)
	require.ErrorIs(t, err, ErrEquipmentMissing)

	var missing *EquipmentMissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "charger", missing.EquipmentName)

	assert.Equal(t, 6, f.stock(t, e1.ID))
	assert.Equal(t, models.StatusPending, f.status(t, lr.ID))
}

func TestApprove_DuplicateLinesAreSummed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.equipment(t, "cable", 5)
	lr := f.submit(t, item(eq, 2), item(eq, 2))

	ok, err := f.repo.AdjustStock(ctx, eq.ID, -2)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Approve(ctx, lr.ID, admin)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 3, f.stock(t, eq.ID))
}

func TestApprove_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.equipment(t, "oscilloscope", 5)
	r1 := f.submit(t, item(eq, 3))
	r2 := f.submit(t, item(eq, 3))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{r1.ID, r2.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.svc.Approve(ctx, id, admin)
		}(i, id)
	}
	wg.Wait()

	var wins, short int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, short)
	assert.Equal(t, 2, f.stock(t, eq.ID))
}

func TestApprove_SnapshotSurvivesEquipmentEdits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.equipment(t, "whiteboard", 2)
	lr := f.submit(t, item(eq, 1))
	_, err := f.svc.Approve(ctx, lr.ID, admin)
	require.NoError(t, err)

	renamed := "whiteboard XL"
	code := "WB-99"
	_, err = f.repo.UpdateEquipment(ctx, eq.ID, db.EquipmentPatch{Name: &renamed, Code: &code})
	require.NoError(t, err)

	stored, err := f.repo.FindLoanRequestByID(ctx, lr.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "whiteboard", stored.Items[0].EquipmentName)
	assert.Equal(t, eq.Code, stored.Items[0].Code)
}

func TestReject_DoesNotTouchStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.equipment(t, "drill", 3)
	lr := f.submit(t, item(eq, 2))

	require.NoError(t, f.svc.Reject(ctx, lr.ID, admin))
	assert.Equal(t, 3, f.stock(t, eq.ID))

	stored, err := f.repo.FindLoanRequestByID(ctx, lr.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, stored.Status)
	require.NotNil(t, stored.ApprovedByUID)
	assert.Equal(t, admin.UID, *stored.ApprovedByUID)
	assert.NotNil(t, stored.ApprovedAt)
}

func TestReject_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.equipment(t, "drill", 3)
	lr := f.submit(t, item(eq, 1))

	assert.ErrorIs(t, f.svc.Reject(ctx, "missing", admin), ErrNotFound)
	assert.ErrorIs(t, f.svc.Reject(ctx, lr.ID, staff), ErrForbidden)

	require.NoError(t, f.svc.Reject(ctx, lr.ID, admin))
	assert.ErrorIs(t, f.svc.Reject(ctx, lr.ID, admin), ErrAlreadyProcessed)

	_, err := f.svc.Approve(ctx, lr.ID, admin)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, 3, f.stock(t, eq.ID))
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	eq := f.equipment(t, "ladder", 2)
	lr := f.submit(t, item(eq, 1))

	other := Actor{UID: "staff-2"}
	assert.ErrorIs(t, f.svc.Cancel(ctx, lr.ID, other), ErrForbidden)
	assert.ErrorIs(t, f.svc.Cancel(ctx, "missing", staff), ErrNotFound)

	require.NoError(t, f.svc.Cancel(ctx, lr.ID, staff))
	assert.Equal(t, models.StatusCancelled, f.status(t, lr.ID))
	assert.ErrorIs(t, f.svc.Cancel(ctx, lr.ID, staff), ErrAlreadyProcessed)

	_, err := f.svc.Approve(ctx, lr.ID, admin)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, 2, f.stock(t, eq.ID))
}

func TestReturn_RestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e1 := f.equipment(t, "projector", 10)
	e2 := f.equipment(t, "screen", 2)
	lr := f.submit(t, item(e1, 4), item(e2, 2))

	_, err := f.svc.Return(ctx, lr.ID, admin)
	assert.ErrorIs(t, err, ErrNotReturnable)

	_, err = f.svc.Approve(ctx, lr.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, 6, f.stock(t, e1.ID))
	assert.Equal(t, 0, f.stock(t, e2.ID))

	got, err := f.svc.Return(ctx, lr.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, got.Status)
	assert.Equal(t, 10, f.stock(t, e1.ID))
	assert.Equal(t, 2, f.stock(t, e2.ID))

	_, err = f.svc.Return(ctx, lr.ID, admin)
	assert.ErrorIs(t, err, ErrNotReturnable)
	assert.Equal(t, 10, f.stock(t, e1.ID))
}

func TestReturn_EquipmentMissingIsAtomic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e1 := f.equipment(t, "projector", 10)
	e2 := f.equipment(t, "screen", 2)
	lr := f.submit(t, item(e1, 4), item(e2, 1))
	_, err := f.svc.Approve(ctx, lr.ID, admin)
	require.NoError(t, err)

	require.NoError(t, f.repo.DeleteEquipment(ctx, e2.ID))

	_, err = f.svc.Return(ctx, lr.ID, admin)
	require.ErrorIs(t, err, ErrEquipmentMissing)
	assert.Equal(t, 6, f.stock(t, e1.ID))
	assert.Equal(t, models.StatusApproved, f.status(t, lr.ID))
}
