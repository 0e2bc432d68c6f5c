package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

const (
	connectAttempts = 10
	connectBackoff  = 3 * time.Second
)

// WaitForDB pings the database until it answers or the attempts run out.
func WaitForDB(dbURL string) error {
	var err error
	for i := 0; i < connectAttempts; i++ {
		var db *sql.DB
		db, err = sql.Open("postgres", dbURL)
		if err == nil {
			err = db.Ping()
			db.Close()
		}
		if err == nil {
			log.Println("migration: connected to the database")
			return nil
		}
		log.Printf("migration: waiting for the database (attempt %d): %v", i+1, err)
		time.Sleep(connectBackoff)
	}
	return fmt.Errorf("could not connect to the database: %w", err)
}

// Run applies (or with down, reverts) every migration under sourceURL.
func Run(dbURL, sourceURL string, down bool) error {
	if err := WaitForDB(dbURL); err != nil {
		return err
	}

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return fmt.Errorf("could not start migrations: %w", err)
	}
	defer m.Close()

	if down {
		err = m.Down()
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", verr)
	}
	log.Printf("migration: done version=%d dirty=%t down=%t", version, dirty, down)
	return nil
}
