package main

import (
	"context"
	"time"

	"inventory/internal/config"
	"inventory/internal/domain/model"
	"inventory/internal/handler"
	"inventory/internal/infra/db"
	infraRepo "inventory/internal/infra/repository"
	"inventory/internal/metrics"
	"inventory/internal/server"
	"inventory/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//.envはローカル用。無ければ環境変数だけで動く。
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.Location{},
		&model.InventoryRecord{},
		&model.Reservation{},
		&model.InventoryAdjustment{},
	); err != nil {
		logger.Fatal("db migrate failed", zap.Error(err))
	}

	m := metrics.New()

	//同一レコードの読み書きは全部TxManager経由で直列化する
	tm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	invUC := usecase.NewInventoryUsecase(tm, logger, m)
	resUC := usecase.NewReservationUsecase(tm, logger, m)

	//Handler生成
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("db handle failed", zap.Error(err))
	}

	invH := handler.NewInventoryHandler(invUC, resUC)
	resH := handler.NewReservationHandler(resUC)
	healthH := handler.NewHealthHandler(sqlDB)

	//期限切れ予約の掃除。リクエストの生死とは無関係に回り続ける。
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if _, err := resUC.ExpireDue(context.Background(), time.Now()); err != nil {
				logger.Warn("reservation sweep failed", zap.Error(err))
			}
		}
	}()

	//Server起動
	addr := ":" + cfg.Port
	if cfg.Port[0] == ':' {
		addr = cfg.Port
	}

	e := server.New(logger, m, invH, resH, healthH)
	logger.Info("server starting", zap.String("addr", addr))
	if err := server.Start(e, addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
