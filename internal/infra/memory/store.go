// Package memory は Ledger 一式のインメモリ実装。
// テストとローカル起動用で、トランザクション契約はGORM実装と同じ:
// WithinTx 内の変更は fn が成功したときだけ反映され、失敗時は全部捨てる。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"inventory/internal/domain/model"
	repo "inventory/internal/repository"
)

// 全テーブルを1つのロックで守る。
// レコード単位の直列化より粗いが、契約（同一レコードの直列化と全量ロールバック）は満たす。
type Store struct {
	mu sync.Mutex
	s  *state
}

type state struct {
	records      map[string]model.InventoryRecord // key: product|location
	reservations map[string]model.Reservation     // key: id
	adjustments  []model.InventoryAdjustment
	locations    map[string]model.Location // key: id
}

func NewStore() *Store {
	return &Store{
		s: &state{
			records:      map[string]model.InventoryRecord{},
			reservations: map[string]model.Reservation{},
			locations:    map[string]model.Location{},
		},
	}
}

func recordKey(productID, locationID string) string {
	return productID + "|" + locationID
}

func (st *state) clone() *state {
	c := &state{
		records:      make(map[string]model.InventoryRecord, len(st.records)),
		reservations: make(map[string]model.Reservation, len(st.reservations)),
		adjustments:  make([]model.InventoryAdjustment, len(st.adjustments)),
		locations:    make(map[string]model.Location, len(st.locations)),
	}
	for k, v := range st.records {
		c.records[k] = v
	}
	for k, v := range st.reservations {
		c.reservations[k] = v
	}
	copy(c.adjustments, st.adjustments)
	for k, v := range st.locations {
		c.locations[k] = v
	}
	return c
}

// コピーに対して fn を実行し、成功したときだけ差し替える。
func (st *Store) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	tx := st.s.clone()
	if err := fn(&txRepos{s: tx}); err != nil {
		return err
	}
	st.s = tx
	return nil
}

type txRepos struct {
	s *state
}

func (r *txRepos) Inventory() repo.InventoryRepository      { return &inventoryMem{s: r.s} }
func (r *txRepos) Reservations() repo.ReservationRepository { return &reservationMem{s: r.s} }
func (r *txRepos) Locations() repo.LocationRepository       { return &locationMem{s: r.s} }

// =====================
// InventoryRepository
// =====================

type inventoryMem struct {
	s *state
}

func (m *inventoryMem) Create(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	key := recordKey(rec.ProductID, rec.LocationID)
	if _, ok := m.s.records[key]; ok {
		return model.InventoryRecord{}, repo.ErrConflict
	}

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.s.records[key] = rec
	return rec, nil
}

func (m *inventoryMem) FindByProductAndLocation(ctx context.Context, productID, locationID string) (model.InventoryRecord, error) {
	rec, ok := m.s.records[recordKey(productID, locationID)]
	if !ok {
		return model.InventoryRecord{}, repo.ErrNotFound
	}
	return rec, nil
}

func (m *inventoryMem) ListByProduct(ctx context.Context, productID string) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	for _, rec := range m.s.records {
		if rec.ProductID == productID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].LocationID < recs[j].LocationID })
	return recs, nil
}

func (m *inventoryMem) ListLowStock(ctx context.Context, limit int) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	for _, rec := range m.s.records {
		if rec.IsLowStock() {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		di := recs[i].ReorderPoint - recs[i].QuantityAvailable
		dj := recs[j].ReorderPoint - recs[j].QuantityAvailable
		if di != dj {
			return di > dj
		}
		return recs[i].ProductID < recs[j].ProductID
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (m *inventoryMem) UpdateReorderLevels(ctx context.Context, productID, locationID string, reorderPoint, reorderQuantity int64) error {
	key := recordKey(productID, locationID)
	rec, ok := m.s.records[key]
	if !ok {
		return repo.ErrNotFound
	}
	rec.ReorderPoint = reorderPoint
	rec.ReorderQuantity = reorderQuantity
	rec.UpdatedAt = time.Now()
	m.s.records[key] = rec
	return nil
}

func (m *inventoryMem) ReserveStockIfEnough(ctx context.Context, productID, locationID string, qty int64) (bool, error) {
	key := recordKey(productID, locationID)
	rec, ok := m.s.records[key]
	if !ok || rec.QuantityAvailable < qty {
		return false, nil
	}
	rec.QuantityAvailable -= qty
	rec.QuantityReserved += qty
	rec.UpdatedAt = time.Now()
	m.s.records[key] = rec
	return true, nil
}

func (m *inventoryMem) ReleaseStock(ctx context.Context, productID, locationID string, qty int64) error {
	key := recordKey(productID, locationID)
	rec, ok := m.s.records[key]
	if !ok || rec.QuantityReserved < qty {
		return repo.ErrNotFound
	}
	rec.QuantityReserved -= qty
	rec.QuantityAvailable += qty
	rec.UpdatedAt = time.Now()
	m.s.records[key] = rec
	return nil
}

func (m *inventoryMem) ConsumeStock(ctx context.Context, productID, locationID string, qty int64) error {
	key := recordKey(productID, locationID)
	rec, ok := m.s.records[key]
	if !ok || rec.QuantityReserved < qty {
		return repo.ErrNotFound
	}
	rec.QuantityReserved -= qty
	rec.UpdatedAt = time.Now()
	m.s.records[key] = rec
	return nil
}

func (m *inventoryMem) AdjustStockIfEnough(ctx context.Context, productID, locationID string, delta int64) (bool, error) {
	key := recordKey(productID, locationID)
	rec, ok := m.s.records[key]
	if !ok || rec.QuantityAvailable+delta < 0 {
		return false, nil
	}
	rec.QuantityAvailable += delta
	rec.UpdatedAt = time.Now()
	m.s.records[key] = rec
	return true, nil
}

func (m *inventoryMem) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if adj.CreatedAt.IsZero() {
		adj.CreatedAt = time.Now()
	}
	m.s.adjustments = append(m.s.adjustments, adj)
	return nil
}

func (m *inventoryMem) ListAdjustments(ctx context.Context, productID string, limit int) ([]model.InventoryAdjustment, error) {
	var adjs []model.InventoryAdjustment
	//追記順の逆 = 新しい順
	for i := len(m.s.adjustments) - 1; i >= 0; i-- {
		if m.s.adjustments[i].ProductID == productID {
			adjs = append(adjs, m.s.adjustments[i])
			if limit > 0 && len(adjs) == limit {
				break
			}
		}
	}
	return adjs, nil
}

// =====================
// ReservationRepository
// =====================

type reservationMem struct {
	s *state
}

func (m *reservationMem) Create(ctx context.Context, rv model.Reservation) error {
	now := time.Now()
	if rv.CreatedAt.IsZero() {
		rv.CreatedAt = now
	}
	rv.UpdatedAt = now
	m.s.reservations[rv.ID] = rv
	return nil
}

func (m *reservationMem) FindByID(ctx context.Context, id string) (model.Reservation, error) {
	rv, ok := m.s.reservations[id]
	if !ok {
		return model.Reservation{}, repo.ErrNotFound
	}
	return rv, nil
}

func (m *reservationMem) List(ctx context.Context, q repo.ReservationListQuery) ([]model.Reservation, error) {
	var rvs []model.Reservation
	for _, rv := range m.s.reservations {
		if q.OrderID != "" && rv.OrderID != q.OrderID {
			continue
		}
		if q.ProductID != "" && rv.ProductID != q.ProductID {
			continue
		}
		if q.Status != "" && rv.Status != q.Status {
			continue
		}
		rvs = append(rvs, rv)
	}
	sort.Slice(rvs, func(i, j int) bool {
		if !rvs[i].CreatedAt.Equal(rvs[j].CreatedAt) {
			return rvs[i].CreatedAt.After(rvs[j].CreatedAt)
		}
		return rvs[i].ID < rvs[j].ID
	})

	if q.Offset > 0 {
		if q.Offset >= len(rvs) {
			return nil, nil
		}
		rvs = rvs[q.Offset:]
	}
	if q.Limit > 0 && len(rvs) > q.Limit {
		rvs = rvs[:q.Limit]
	}
	return rvs, nil
}

func (m *reservationMem) ListDue(ctx context.Context, now time.Time, limit int) ([]model.Reservation, error) {
	var rvs []model.Reservation
	for _, rv := range m.s.reservations {
		if rv.Status == model.ReservationStatusActive && !rv.ExpiresAt.After(now) {
			rvs = append(rvs, rv)
		}
	}
	sort.Slice(rvs, func(i, j int) bool {
		if !rvs[i].ExpiresAt.Equal(rvs[j].ExpiresAt) {
			return rvs[i].ExpiresAt.Before(rvs[j].ExpiresAt)
		}
		return rvs[i].ID < rvs[j].ID
	})
	if limit > 0 && len(rvs) > limit {
		rvs = rvs[:limit]
	}
	return rvs, nil
}

func (m *reservationMem) MarkIfActive(ctx context.Context, id string, to model.ReservationStatus) (bool, error) {
	rv, ok := m.s.reservations[id]
	if !ok || rv.Status != model.ReservationStatusActive {
		return false, nil
	}
	rv.Status = to
	rv.UpdatedAt = time.Now()
	m.s.reservations[id] = rv
	return true, nil
}

// =====================
// LocationRepository
// =====================

type locationMem struct {
	s *state
}

func (m *locationMem) Create(ctx context.Context, l model.Location) error {
	now := time.Now()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
	m.s.locations[l.ID] = l
	return nil
}

func (m *locationMem) FindByID(ctx context.Context, id string) (model.Location, error) {
	l, ok := m.s.locations[id]
	if !ok {
		return model.Location{}, repo.ErrNotFound
	}
	return l, nil
}

func (m *locationMem) List(ctx context.Context) ([]model.Location, error) {
	var ls []model.Location
	for _, l := range m.s.locations {
		ls = append(ls, l)
	}
	sort.Slice(ls, func(i, j int) bool { return ls[i].Name < ls[j].Name })
	return ls, nil
}
