package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func seed(t *testing.T, st *Store, available int64) (string, string) {
	t.Helper()
	ctx := context.Background()

	productID := uuid.NewString()
	locationID := uuid.NewString()

	err := st.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Locations().Create(ctx, model.Location{
			ID: locationID, Name: "w1", Type: model.LocationTypeWarehouse, Active: true,
		}); err != nil {
			return err
		}
		_, err := r.Inventory().Create(ctx, model.InventoryRecord{
			ID:                uuid.NewString(),
			ProductID:         productID,
			LocationID:        locationID,
			QuantityAvailable: available,
			ReorderPoint:      10,
			ReorderQuantity:   100,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return productID, locationID
}

// fnが失敗したら途中の変更は1つも残らない
func TestWithinTx_RollbackOnError(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	productID, locationID := seed(t, st, 10)

	boom := errors.New("boom")

	err := st.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Inventory().ReserveStockIfEnough(ctx, productID, locationID, 5)
		assert.NoError(t, err)
		assert.True(t, ok)

		if err := r.Reservations().Create(ctx, model.Reservation{
			ID:        uuid.NewString(),
			ProductID: productID, LocationID: locationID,
			OrderID:  uuid.NewString(),
			Quantity: 5,
			Status:   model.ReservationStatusActive,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.Equal(t, boom, err)

	//在庫も予約も元のまま
	err = st.WithinTx(ctx, func(r repo.TxRepos) error {
		rec, err := r.Inventory().FindByProductAndLocation(ctx, productID, locationID)
		assert.NoError(t, err)
		assert.Equal(t, int64(10), rec.QuantityAvailable)
		assert.Equal(t, int64(0), rec.QuantityReserved)

		rvs, err := r.Reservations().List(ctx, repo.ReservationListQuery{ProductID: productID, Limit: 10})
		assert.NoError(t, err)
		assert.Len(t, rvs, 0)
		return nil
	})
	assert.NoError(t, err)
}

func TestWithinTx_CanceledContext(t *testing.T) {
	st := NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := st.WithinTx(ctx, func(r repo.TxRepos) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInventoryCreate_DuplicateConflict(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	productID, locationID := seed(t, st, 10)

	err := st.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.Inventory().Create(ctx, model.InventoryRecord{
			ID:        uuid.NewString(),
			ProductID: productID, LocationID: locationID,
		})
		return err
	})
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestReserveStockIfEnough_Boundary(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	productID, locationID := seed(t, st, 3)

	err := st.WithinTx(ctx, func(r repo.TxRepos) error {
		//ちょうど全量はOK
		ok, err := r.Inventory().ReserveStockIfEnough(ctx, productID, locationID, 3)
		assert.NoError(t, err)
		assert.True(t, ok)

		//0を超える要求は拒否、行は変わらない
		ok, err = r.Inventory().ReserveStockIfEnough(ctx, productID, locationID, 1)
		assert.NoError(t, err)
		assert.False(t, ok)

		rec, err := r.Inventory().FindByProductAndLocation(ctx, productID, locationID)
		assert.NoError(t, err)
		assert.Equal(t, int64(0), rec.QuantityAvailable)
		assert.Equal(t, int64(3), rec.QuantityReserved)
		return nil
	})
	assert.NoError(t, err)
}

func TestListDue_OnlyActiveAndDue(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	productID, locationID := seed(t, st, 100)

	now := time.Now()
	mk := func(status model.ReservationStatus, expires time.Time) string {
		id := uuid.NewString()
		err := st.WithinTx(ctx, func(r repo.TxRepos) error {
			return r.Reservations().Create(ctx, model.Reservation{
				ID:        id,
				ProductID: productID, LocationID: locationID,
				OrderID:   uuid.NewString(),
				Quantity:  1,
				Status:    status,
				ExpiresAt: expires,
			})
		})
		if err != nil {
			t.Fatalf("create reservation failed: %v", err)
		}
		return id
	}

	dueLater := mk(model.ReservationStatusActive, now.Add(-time.Minute))
	dueFirst := mk(model.ReservationStatusActive, now.Add(-time.Hour))
	mk(model.ReservationStatusActive, now.Add(time.Hour))       //まだ先
	mk(model.ReservationStatusReleased, now.Add(-time.Hour))    //終端状態
	mk(model.ReservationStatusCompleted, now.Add(-2*time.Hour)) //終端状態

	err := st.WithinTx(ctx, func(r repo.TxRepos) error {
		due, err := r.Reservations().ListDue(ctx, now, 100)
		assert.NoError(t, err)
		assert.Len(t, due, 2)
		//期限の古い順
		assert.Equal(t, dueFirst, due[0].ID)
		assert.Equal(t, dueLater, due[1].ID)
		return nil
	})
	assert.NoError(t, err)
}

func TestMarkIfActive_TerminalStatesAreImmutable(t *testing.T) {
	st := NewStore()
	ctx := context.Background()
	productID, locationID := seed(t, st, 10)

	id := uuid.NewString()
	err := st.WithinTx(ctx, func(r repo.TxRepos) error {
		return r.Reservations().Create(ctx, model.Reservation{
			ID:        id,
			ProductID: productID, LocationID: locationID,
			OrderID:   uuid.NewString(),
			Quantity:  1,
			Status:    model.ReservationStatusActive,
			ExpiresAt: time.Now().Add(time.Hour),
		})
	})
	assert.NoError(t, err)

	err = st.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Reservations().MarkIfActive(ctx, id, model.ReservationStatusReleased)
		assert.NoError(t, err)
		assert.True(t, ok)

		//released からはどこにも動かない
		ok, err = r.Reservations().MarkIfActive(ctx, id, model.ReservationStatusCompleted)
		assert.NoError(t, err)
		assert.False(t, ok)

		rv, err := r.Reservations().FindByID(ctx, id)
		assert.NoError(t, err)
		assert.Equal(t, model.ReservationStatusReleased, rv.Status)
		return nil
	})
	assert.NoError(t, err)
}
