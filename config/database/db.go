package database

import (
	"database/sql"
	_ "embed"
	"time"

	"catatbuku/config"
	"catatbuku/pkg/logger"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

func Connect(cfg config.DatabaseConfig) *sql.DB {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		logger.Sugar.Fatalf("Failed to open database connection: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db
		}
		logger.Sugar.Infof("Database connection failed, retrying in 2s... (%v)", err)
		time.Sleep(2 * time.Second)
	}
	logger.Sugar.Fatal("Could not connect to database after retries. Check your internet or Supabase status.")
	return nil
}

// Migrate creates the tables used by the service if they do not exist yet.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		logger.Sugar.Errorf("Failed to apply schema: %v", err)
		return err
	}
	logger.Sugar.Info("Database schema is up to date")
	return nil
}
