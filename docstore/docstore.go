// Package docstore keeps trips and profiles as JSON documents in an
// embedded Badger database.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"wheels/metrics"
	"wheels/models"
)

const (
	tripPrefix    = "trip/"
	profilePrefix = "profile/"

	maxConflictRetries = 8
)

type Options struct {
	// Dir is the data directory. Empty means in-memory.
	Dir     string
	Metrics *metrics.Collector
}

type Store struct {
	db      *badger.DB
	metrics *metrics.Collector
	now     func() time.Time
}

// Open opens (or creates) the Badger database described by opts.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Dir).WithLogger(nil)
	if opts.Dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	if opts.Dir == "" {
		log.Println("docstore: using in-memory badger")
	} else {
		log.Printf("docstore: opened badger dir=%s", opts.Dir)
	}
	return &Store{db: db, metrics: opts.Metrics, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func tripKey(id string) []byte    { return []byte(tripPrefix + id) }
func profileKey(id string) []byte { return []byte(profilePrefix + id) }

func getJSON(txn *badger.Txn, key []byte, v interface{}) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, b)
}

// CreateTrip assigns the trip an id and stores it.
func (s *Store) CreateTrip(ctx context.Context, trip *models.Trip) error {
	now := s.now()
	trip.ID = uuid.NewString()
	trip.Version = 1
	trip.CreatedAt = now
	trip.UpdatedAt = now
	if trip.Points == nil {
		trip.Points = []models.Point{}
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, tripKey(trip.ID), trip)
	})
	if err != nil {
		return fmt.Errorf("store trip: %w", err)
	}
	return nil
}

func (s *Store) GetTrip(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, tripKey(id), &trip)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrTripNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read trip %s: %w", id, err)
	}
	return &trip, nil
}

// ListTrips scans every trip document and keeps those matching filter.
func (s *Store) ListTrips(ctx context.Context, filter models.TripFilter) ([]*models.Trip, error) {
	var trips []*models.Trip
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(tripPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			trip := &models.Trip{}
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, trip)
			}); err != nil {
				return err
			}
			if filter.Match(trip) {
				trips = append(trips, trip)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan trips: %w", err)
	}
	return trips, nil
}

// UpdateTrip reads, mutates and writes the trip in one transaction. Badger
// aborts the commit if another transaction wrote the key since the read;
// the whole read-modify-write is then retried.
func (s *Store) UpdateTrip(ctx context.Context, id string, mutate func(*models.Trip) error) (*models.Trip, error) {
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var trip models.Trip
		err := s.db.Update(func(txn *badger.Txn) error {
			if err := getJSON(txn, tripKey(id), &trip); err != nil {
				return err
			}
			if err := mutate(&trip); err != nil {
				return err
			}
			trip.Version++
			trip.UpdatedAt = s.now()
			return setJSON(txn, tripKey(id), &trip)
		})
		switch {
		case err == nil:
			return &trip, nil
		case errors.Is(err, badger.ErrConflict):
			s.metrics.StoreConflict()
			continue
		case errors.Is(err, badger.ErrKeyNotFound):
			return nil, models.ErrTripNotFound
		default:
			return nil, err
		}
	}
	return nil, models.ErrConflict
}

func (s *Store) UpsertProfile(ctx context.Context, p *models.Profile) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, profileKey(p.ID), p)
	})
	if err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, profileKey(id), &p)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", id, err)
	}
	return &p, nil
}
