package database

import (
	"context"
	"database/sql"
	"log"
	"time"

	"wheels/config"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and waits for it to answer a ping.
func Open(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("Database connected.")
	return db, nil
}
