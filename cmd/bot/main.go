package bot

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	tgbot "github.com/mkdir-username/etlon-coffee/internal/bot"
	"github.com/mkdir-username/etlon-coffee/internal/catalog"
	"github.com/mkdir-username/etlon-coffee/internal/checkout"
	"github.com/mkdir-username/etlon-coffee/internal/loyalty"
	"github.com/mkdir-username/etlon-coffee/internal/notify"
	"github.com/mkdir-username/etlon-coffee/internal/orders"
	"github.com/mkdir-username/etlon-coffee/internal/session"
	"github.com/mkdir-username/etlon-coffee/internal/stats"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/config"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/db"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

func Main() {
	configPath := flag.String("config-path", "config/config.yaml", "path to config yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	mylog := logger.New("coffee-bot", cfg.Logging.Level)
	mylog.Action("service_started").Info("coffee bot starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Start(ctx, cfg.DB)
	if err != nil {
		mylog.Action("db_connection_failed").Error("failed to connect to database", err)
		log.Fatal(err)
	}
	defer database.Stop()
	mylog.Action("db_connected").Info("database connection established")

	if err := database.EnsureSchema(ctx); err != nil {
		mylog.Action("schema_failed").Error("failed to ensure schema", err)
		log.Fatal(err)
	}

	broker, err := notify.Connect(cfg.RMQ, mylog)
	if err != nil {
		mylog.Action("mb_connection_failed").Error("failed to connect to message broker", err)
		log.Fatal(err)
	}
	defer broker.Close()
	mylog.Action("mb_connected").Info("message broker connection established")

	sessions, err := newSessionStore(ctx, cfg, mylog)
	if err != nil {
		mylog.Action("session_store_failed").Error("failed to initialize session store", err)
		log.Fatal(err)
	}

	dispatcher := notify.NewDispatcher(broker, mylog)
	ledger := loyalty.NewLedger(loyalty.NewPostgresStore(database.Pool), mylog)
	catalogRepo := catalog.NewRepo(database.Pool, mylog)
	orderRepo := orders.NewRepo(database.Pool, mylog)
	orderSvc := orders.NewService(orderRepo, ledger, dispatcher, mylog)
	statsRepo := stats.NewRepo(database.Pool, mylog)
	checkoutSvc := checkout.NewService(sessions, catalogRepo, orderRepo, ledger, dispatcher, mylog)

	b, err := tgbot.New(cfg.Telegram, tgbot.Deps{
		Sessions:  sessions,
		Checkout:  checkoutSvc,
		Catalog:   catalogRepo,
		Orders:    orderSvc,
		OrderRepo: orderRepo,
		Ledger:    ledger,
		Stats:     statsRepo,
	}, mylog)
	if err != nil {
		mylog.Action("telegram_connection_failed").Error("failed to connect to telegram", err)
		log.Fatal(err)
	}

	go func() {
		if err := b.Run(ctx); err != nil {
			mylog.Action("bot_run_failed").Error("bot stopped with error", err)
			stop()
		}
	}()

	<-ctx.Done()
	mylog.Action("graceful_shutdown").Info("shutting down coffee bot")
}

func newSessionStore(ctx context.Context, cfg *config.Config, mylog logger.Logger) (session.Store, error) {
	if cfg.Redis != nil && cfg.Redis.Enabled {
		store, err := session.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		mylog.Action("session_store_ready").Info("using redis session store", "addr", cfg.Redis.Addr)
		return store, nil
	}
	mylog.Action("session_store_ready").Info("using in-memory session store")
	return session.NewMemoryStore(), nil
}
