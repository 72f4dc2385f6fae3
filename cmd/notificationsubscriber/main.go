package notificationsubscriber

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/mkdir-username/etlon-coffee/internal/bot"
	"github.com/mkdir-username/etlon-coffee/internal/notify"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/config"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

func Main() {
	configPath := flag.String("config-path", "config/config.yaml", "path to config yaml")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	mylog := logger.New("notification-subscriber", cfg.Logging.Level)
	mylog.Action("service_started").Info("notification subscriber starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	broker, err := notify.Connect(cfg.RMQ, mylog)
	if err != nil {
		mylog.Action("mb_connection_failed").Error("failed to connect to message broker", err)
		log.Fatal(err)
	}
	mylog.Action("mb_connected").Info("message broker connection established")

	deliverer, err := bot.NewDeliverer(cfg.Telegram)
	if err != nil {
		mylog.Action("telegram_connection_failed").Error("failed to connect to telegram", err)
		log.Fatal(err)
	}

	subscriber := notify.NewSubscriber(broker, deliverer, mylog)

	go func() {
		if err := subscriber.Run(ctx); err != nil {
			mylog.Action("subscriber_run_failed").Error("subscriber stopped with error", err)
			stop()
		}
	}()

	<-ctx.Done()
	mylog.Action("graceful_shutdown").Info("shutting down subscriber")

	if err := subscriber.Stop(); err != nil {
		mylog.Action("shutdown_failed").Error("failed to stop subscriber cleanly", err)
	}
	mylog.Action("service_stopped").Info("subscriber exiting")
}
