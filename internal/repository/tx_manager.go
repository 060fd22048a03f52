package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Inventory() InventoryRepository
	Reservations() ReservationRepository
	Locations() LocationRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fn がエラーを返したら全部ロールバックされる。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
