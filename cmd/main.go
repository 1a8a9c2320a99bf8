package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/retailcore/order-service/internal/app"
	"github.com/retailcore/order-service/internal/config"
	"github.com/retailcore/order-service/internal/handler"
	"github.com/retailcore/order-service/internal/notifier"
	"github.com/retailcore/order-service/internal/postgres"
	"github.com/retailcore/order-service/internal/repo"
	"github.com/retailcore/order-service/internal/service"
	"github.com/retailcore/order-service/pkg/cache"
	"github.com/retailcore/order-service/pkg/trm"

	"github.com/joho/godotenv"
)

func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	orderRepo := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)
	orderCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)
	orderNotifier := notifier.NewKafkaNotifier(logger, conf.Kafka)

	// orderRepo is both the order store and the inventory ledger, they
	// live in the same database.
	orderService := service.NewOrderService(logger, txManager, orderRepo, orderRepo, orderNotifier, orderCache)

	httpHandler := handler.NewHTTPHandler(logger, orderService)

	app := app.New(logger, conf)
	app.SetHTTPHandlers(httpHandler)
	app.AddClosers(orderNotifier)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	orderCache.StartJanitor(ctx)

	app.Start()
	<-ctx.Done()
	app.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
