package seed

import (
	"context"
	"flag"
	"log"

	"github.com/mkdir-username/etlon-coffee/internal/catalog"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/config"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/db"
	"github.com/mkdir-username/etlon-coffee/internal/xpkg/logger"
)

func Main() {
	configPath := flag.String("config-path", "config/config.yaml", "path to config yaml")
	menuPath := flag.String("menu", "data/menu.json", "path to menu seed file")
	modifiersPath := flag.String("modifiers", "data/modifiers.json", "path to modifiers seed file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	mylog := logger.New("seed", cfg.Logging.Level)
	ctx := context.Background()

	database, err := db.Start(ctx, cfg.DB)
	if err != nil {
		mylog.Action("db_connection_failed").Error("failed to connect to database", err)
		log.Fatal(err)
	}
	defer database.Stop()

	if err := database.EnsureSchema(ctx); err != nil {
		mylog.Action("schema_failed").Error("failed to ensure schema", err)
		log.Fatal(err)
	}

	repo := catalog.NewRepo(database.Pool, mylog)
	if err := repo.Seed(ctx, *menuPath, *modifiersPath); err != nil {
		mylog.Action("seed_failed").Error("failed to seed catalog", err)
		log.Fatal(err)
	}

	mylog.Action("seed_completed").Info("catalog seeded", "menu", *menuPath, "modifiers", *modifiersPath)
}
