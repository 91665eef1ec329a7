package main

import (
	"context"
	"log"

	"agencywheel/adapters/excel"
	"agencywheel/adapters/postgres"
	"agencywheel/adapters/rng"
	appstats "agencywheel/adapters/stats"
	"agencywheel/internal"
	"agencywheel/internal/config"
	"agencywheel/internal/errors"
	"agencywheel/internal/experiment"
	"agencywheel/internal/migration"
	"agencywheel/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	logger := internal.NewDefaultLogger()

	svc := experiment.NewService(
		postgres.NewSessionRepository(db),
		postgres.NewTrialRepository(db),
		rng.New(appConfig.Experiment.BaseSeed),
		appstats.NewSummaryAdapter(),
		appConfig.Experiment,
		logger,
	)

	app := ui.NewApp(svc, excel.NewSessionWriter(), logger)
	if err := app.Run(ui.Config{Port: appConfig.Server.Port}); err != nil {
		log.Fatal("Server failed:", err)
	}
}
