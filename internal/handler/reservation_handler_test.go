package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"
	"inventory/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// APIから予約を1本張ってIDを返す
func (env *apiEnv) reserve(t *testing.T, productID, locationID string, qty int64) usecase.ReservationOutput {
	t.Helper()

	body := fmt.Sprintf(`{"product_id":%q,"location_id":%q,"order_id":%q,"quantity":%d}`,
		productID, locationID, uuid.NewString(), qty)
	rec := doJSON(t, env.e, http.MethodPost, "/inventory/reserve", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("reserve failed: status=%d body=%s", rec.Code, rec.Body.String())
	}

	var out usecase.ReserveOutput
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode reserve response failed: %v", err)
	}
	return out.Reservation
}

func decodeReservation(t *testing.T, body *json.Decoder) usecase.ReservationOutput {
	t.Helper()
	var out usecase.ReservationOutput
	if err := body.Decode(&out); err != nil {
		t.Fatalf("decode reservation failed: %v", err)
	}
	return out
}

// =====================
// GET /reservations/:id
// =====================

func TestHandler_GetReservation(t *testing.T) {
	env := newAPIEnv(t)
	productID, locationID := env.seedRecord(t, 10)
	rv := env.reserve(t, productID, locationID, 2)

	rec := doJSON(t, env.e, http.MethodGet, "/reservations/"+rv.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decodeReservation(t, json.NewDecoder(rec.Body))
	assert.Equal(t, rv.ID, got.ID)
	assert.Equal(t, "active", got.Status)
	assert.Equal(t, int64(2), got.Quantity)
}

func TestHandler_GetReservation_NotFound(t *testing.T) {
	env := newAPIEnv(t)

	rec := doJSON(t, env.e, http.MethodGet, "/reservations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not found", decodeErr(t, rec).Error)
}

func TestHandler_GetReservation_BadID(t *testing.T) {
	env := newAPIEnv(t)

	rec := doJSON(t, env.e, http.MethodGet, "/reservations/nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid reservation id", decodeErr(t, rec).Error)
}

// =====================
// POST /reservations/:id/release, /:id/complete
// =====================

func TestHandler_Release(t *testing.T) {
	env := newAPIEnv(t)
	productID, locationID := env.seedRecord(t, 10)
	rv := env.reserve(t, productID, locationID, 4)

	rec := doJSON(t, env.e, http.MethodPost, "/reservations/"+rv.ID+"/release", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decodeReservation(t, json.NewDecoder(rec.Body))
	assert.Equal(t, "released", got.Status)

	//在庫が戻る
	stock := doJSON(t, env.e, http.MethodGet, "/inventory/"+productID, "")
	var s usecase.StockOutput
	assert.NoError(t, json.NewDecoder(stock.Body).Decode(&s))
	assert.Equal(t, int64(10), s.TotalAvailable)
	assert.Equal(t, int64(0), s.TotalReserved)
}

func TestHandler_Release_Twice(t *testing.T) {
	env := newAPIEnv(t)
	productID, locationID := env.seedRecord(t, 10)
	rv := env.reserve(t, productID, locationID, 4)

	rec := doJSON(t, env.e, http.MethodPost, "/reservations/"+rv.ID+"/release", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, env.e, http.MethodPost, "/reservations/"+rv.ID+"/release", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid state: released", decodeErr(t, rec).Error)
}

func TestHandler_Complete(t *testing.T) {
	env := newAPIEnv(t)
	productID, locationID := env.seedRecord(t, 10)
	rv := env.reserve(t, productID, locationID, 4)

	rec := doJSON(t, env.e, http.MethodPost, "/reservations/"+rv.ID+"/complete", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	got := decodeReservation(t, json.NewDecoder(rec.Body))
	assert.Equal(t, "completed", got.Status)

	//引当分は消費され、利用可能分には戻らない
	stock := doJSON(t, env.e, http.MethodGet, "/inventory/"+productID, "")
	var s usecase.StockOutput
	assert.NoError(t, json.NewDecoder(stock.Body).Decode(&s))
	assert.Equal(t, int64(6), s.TotalAvailable)
	assert.Equal(t, int64(0), s.TotalReserved)
}

// =====================
// GET /reservations
// =====================

func TestHandler_ListReservations_FilterByOrder(t *testing.T) {
	env := newAPIEnv(t)
	productID, locationID := env.seedRecord(t, 10)
	rv1 := env.reserve(t, productID, locationID, 1)
	env.reserve(t, productID, locationID, 1)

	rec := doJSON(t, env.e, http.MethodGet, "/reservations?order_id="+rv1.OrderID, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got []usecase.ReservationOutput
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Len(t, got, 1)
	assert.Equal(t, rv1.ID, got[0].ID)
}

func TestHandler_ListReservations_BadStatus(t *testing.T) {
	env := newAPIEnv(t)

	rec := doJSON(t, env.e, http.MethodGet, "/reservations?status=pending", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid status", decodeErr(t, rec).Error)
}

// =====================
// POST /reservations/expire
// =====================

func TestHandler_Expire(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	productID, locationID := env.seedRecord(t, 10)

	//期限切れの予約を直接仕込む
	rvID := uuid.NewString()
	err := env.store.WithinTx(ctx, func(r repo.TxRepos) error {
		ok, err := r.Inventory().ReserveStockIfEnough(ctx, productID, locationID, 3)
		if err != nil || !ok {
			t.Fatalf("seed reserve failed: ok=%v err=%v", ok, err)
		}
		return r.Reservations().Create(ctx, model.Reservation{
			ID:        rvID,
			ProductID: productID, LocationID: locationID,
			OrderID:   uuid.NewString(),
			Quantity:  3,
			Status:    model.ReservationStatusActive,
			ExpiresAt: time.Now().Add(-time.Minute),
		})
	})
	assert.NoError(t, err)

	//掃除前は候補一覧に出る
	candidates := doJSON(t, env.e, http.MethodGet, "/reservations/expired", "")
	assert.Equal(t, http.StatusOK, candidates.Code)
	var due []usecase.ReservationOutput
	assert.NoError(t, json.NewDecoder(candidates.Body).Decode(&due))
	assert.Len(t, due, 1)
	assert.Equal(t, rvID, due[0].ID)

	rec := doJSON(t, env.e, http.MethodPost, "/reservations/expire", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		Expired int `json:"expired"`
	}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 1, got.Expired)

	//在庫が戻り、ステータスはexpired
	stock := doJSON(t, env.e, http.MethodGet, "/inventory/"+productID, "")
	var s usecase.StockOutput
	assert.NoError(t, json.NewDecoder(stock.Body).Decode(&s))
	assert.Equal(t, int64(10), s.TotalAvailable)
	assert.Equal(t, int64(0), s.TotalReserved)

	show := doJSON(t, env.e, http.MethodGet, "/reservations/"+rvID, "")
	rv := decodeReservation(t, json.NewDecoder(show.Body))
	assert.Equal(t, "expired", rv.Status)

	//候補一覧からは消え、ステータスフィルタで追える
	candidates = doJSON(t, env.e, http.MethodGet, "/reservations/expired", "")
	var remaining []usecase.ReservationOutput
	assert.NoError(t, json.NewDecoder(candidates.Body).Decode(&remaining))
	assert.Len(t, remaining, 0)

	listed := doJSON(t, env.e, http.MethodGet, "/reservations?status=expired", "")
	assert.Equal(t, http.StatusOK, listed.Code)
	var expired []usecase.ReservationOutput
	assert.NoError(t, json.NewDecoder(listed.Body).Decode(&expired))
	assert.Len(t, expired, 1)
	assert.Equal(t, rvID, expired[0].ID)
}
