package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Store      StoreConfig      `mapstructure:"store"`
	DB         DBConfig         `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	NATS       NATSConfig       `mapstructure:"nats"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Maps       MapsConfig       `mapstructure:"maps"`
	Fare       FareConfig       `mapstructure:"fare"`
	Trips      TripsConfig      `mapstructure:"trips"`
	Names      NamesConfig      `mapstructure:"names"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// StoreConfig selects the trip store backend: "postgres" or "badger".
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	BadgerDir string `mapstructure:"badger_dir"`
}

type DBConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
}

// DSN renders the lib/pq keyword/value connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL renders the postgres:// form golang-migrate expects.
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpiryMinutes int    `mapstructure:"expiry_minutes"`
}

type MapsConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	University LatLng        `mapstructure:"university"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type LatLng struct {
	Lat float64 `mapstructure:"lat"`
	Lng float64 `mapstructure:"lng"`
}

type FareConfig struct {
	Base    float64 `mapstructure:"base"`
	PerKm   float64 `mapstructure:"per_km"`
	RoundTo float64 `mapstructure:"round_to"`
}

type TripsConfig struct {
	// CloseWhenFull marks a not-started trip finished when its last seat is taken.
	CloseWhenFull bool `mapstructure:"close_when_full"`
}

type NamesConfig struct {
	CacheSize int           `mapstructure:"cache_size"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type MigrationsConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.badger_dir", "")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "postgres")
	v.SetDefault("db.dbname", "wheels")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "wheels")
	v.SetDefault("jwt.secret", "dev_secret")
	v.SetDefault("jwt.expiry_minutes", 60*24)
	v.SetDefault("maps.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("maps.api_key", "")
	v.SetDefault("maps.university.lat", 4.6015)
	v.SetDefault("maps.university.lng", -74.0655)
	v.SetDefault("maps.timeout", 5*time.Second)
	v.SetDefault("fare.base", 2000)
	v.SetDefault("fare.per_km", 900)
	v.SetDefault("fare.round_to", 100)
	v.SetDefault("trips.close_when_full", true)
	v.SetDefault("names.cache_size", 1024)
	v.SetDefault("names.ttl", 10*time.Minute)
	v.SetDefault("migrations.path", "file://database/migrations")
}

// Load reads .env, the optional config file at path (or ./config.yaml) and
// WHEELS_* environment overrides, in increasing priority.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("wheels")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Store.Driver != "postgres" && cfg.Store.Driver != "badger" {
		return nil, fmt.Errorf("invalid store.driver %q", cfg.Store.Driver)
	}
	return cfg, nil
}
