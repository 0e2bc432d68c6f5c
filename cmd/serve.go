package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"wheels/api"
	"wheels/auth"
	"wheels/cache"
	"wheels/config"
	"wheels/database"
	"wheels/directions"
	"wheels/docstore"
	"wheels/fare"
	"wheels/metrics"
	"wheels/models"
	"wheels/notify"
	"wheels/realtime"
	"wheels/trips"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, realtime hub and notification dispatcher",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, cfg)
	},
}

// openStore returns the configured trip store and whatever must be closed
// with it.
func openStore(ctx context.Context, cfg *config.Config, mcol *metrics.Collector) (trips.Store, io.Closer, error) {
	switch cfg.Store.Driver {
	case "badger":
		s, err := docstore.Open(docstore.Options{Dir: cfg.Store.BadgerDir, Metrics: mcol})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		db, err := database.Open(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return database.NewRepository(db), db, nil
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	mcol := metrics.NewCollector()

	store, closer, err := openStore(ctx, cfg, mcol)
	if err != nil {
		return err
	}
	defer closer.Close()

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	} else {
		log.Println("redis not configured, caches are in-process only")
	}
	names := cache.NewNames(cfg.Names.CacheSize, cfg.Names.TTL, rdb, store)
	devices := cache.NewDevices(rdb)

	hub := realtime.NewHub(func(ctx context.Context) ([]*models.Trip, error) {
		return store.ListTrips(ctx, models.TripFilter{})
	}, mcol)
	go hub.Run(ctx)

	deps := trips.Deps{
		Store:         store,
		Names:         names,
		Broadcaster:   hub,
		Metrics:       mcol,
		CloseWhenFull: cfg.Trips.CloseWhenFull,
	}

	maps := directions.NewClient(cfg.Maps)
	if maps.Enabled() {
		deps.Geocoder = maps
	} else {
		log.Println("maps api key not set, trips are stored without coordinates")
	}

	if cfg.NATS.URL != "" {
		nc, err := notify.Connect(cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer nc.Drain()
		deps.Notifier = notify.NewPublisher(nc, cfg.NATS.SubjectPrefix)

		dispatcher := notify.NewDispatcher(devices, notify.LogPusher{}, mcol)
		sub, err := dispatcher.Subscribe(nc, cfg.NATS.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer func(sub *nats.Subscription) { _ = sub.Unsubscribe() }(sub)
		log.Printf("notifications enabled url=%s prefix=%s", cfg.NATS.URL, cfg.NATS.SubjectPrefix)
	} else {
		log.Println("nats not configured, pickup notifications are disabled")
	}

	university := models.Coordinates{Lat: cfg.Maps.University.Lat, Lng: cfg.Maps.University.Lng}
	h := &api.Handler{
		Driver:   trips.NewDriverService(deps),
		Rider:    trips.NewRiderService(deps),
		Profiles: trips.NewProfileService(deps),
		Fares:    fare.NewEstimator(fare.NewCalculator(cfg.Fare), maps, university),
		Devices:  devices,
		Hub:      hub,
		Auth:     auth.NewJWTService(cfg.JWT),
		Metrics:  mcol,
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.RegisterRoutes(h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("Server started on %s store=%s", cfg.Server.Addr, cfg.Store.Driver)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
