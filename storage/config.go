package storage

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/credhouse/credhouse/storage/model"
)

// DriverType represents the type of storage driver
type DriverType string

const (
	// DriverBadger is the embedded badger key-value store
	DriverBadger DriverType = "badger"
	// DriverRedis is a redis server
	DriverRedis DriverType = "redis"
	// DriverSQLite is the SQLite driver
	DriverSQLite DriverType = "sqlite"
	// DriverMySQL is the MySQL driver
	DriverMySQL DriverType = "mysql"
	// DriverPostgres is the PostgreSQL driver
	DriverPostgres DriverType = "postgres"
)

// SupportedDrivers lists all drivers accepted in Config.Driver
var SupportedDrivers = []DriverType{
	DriverBadger,
	DriverRedis,
	DriverSQLite,
	DriverMySQL,
	DriverPostgres,
}

// IsSQL reports whether the driver is backed by gorm
func (d DriverType) IsSQL() bool {
	return d == DriverSQLite || d == DriverMySQL || d == DriverPostgres
}

// DSN creates and returns a dsn connection string for the passed DriverType and DSNConf
func DSN(driver DriverType, conf DSNConf) (string, error) {
	switch driver {
	case DriverSQLite, DriverBadger, DriverRedis:
		return "", errors.Errorf("driver %s does not use dsn", driver)
	case DriverMySQL:
		if conf.Port == 0 {
			conf.Port = 3306
		}
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True", conf.User, conf.Password, conf.Host, conf.Port,
			conf.DB,
		), nil
	case DriverPostgres:
		if conf.Port == 0 {
			conf.Port = 5432
		}
		return fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%d",
			conf.Host, conf.User, conf.Password, conf.DB, conf.Port,
		), nil
	default:
		return "", errors.Errorf("unsupported driver '%s'", driver)
	}
}

// DSNConf provides configuration options for database connection strings
// used by the MySQL and PostgreSQL drivers.
type DSNConf struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"db"`
}

// RedisConf configures the redis driver
type RedisConf struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Prefix is prepended to every redis key
	Prefix string `yaml:"prefix"`
}

// Config represents the storage configuration
type Config struct {
	// Driver is the storage driver type
	Driver DriverType `yaml:"driver"`
	// DSN is the data source name for MySQL and PostgreSQL. For SQLite it
	// is the database file path.
	DSN string `yaml:"dsn"`
	// DataDir is the directory where the SQLite database or the badger
	// files are stored
	DataDir string `yaml:"data_dir"`
	// InMemory keeps badger data in memory only
	InMemory bool `yaml:"in_memory"`
	// Redis configures the redis driver
	Redis RedisConf `yaml:"redis"`
	// Debug enables debug logging
	Debug bool `yaml:"debug"`
}

// Connect establishes a gorm connection for the SQL drivers
func Connect(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = filepath.Join(cfg.DataDir, "credhouse.db")
		}
		dialector = sqlite.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	logMode := logger.Silent
	if cfg.Debug {
		logMode = logger.Info
	}

	return gorm.Open(
		dialector, &gorm.Config{
			Logger: logger.Default.LogMode(logMode),
		},
	)
}

// OpenKeyValueStore opens the key-value store selected by cfg.Driver
func OpenKeyValueStore(cfg Config) (model.KeyValueStore, error) {
	switch {
	case cfg.Driver == DriverBadger:
		return NewBadgerKeyValueStorage(cfg)
	case cfg.Driver == DriverRedis:
		return NewRedisKeyValueStorage(cfg.Redis)
	case cfg.Driver.IsSQL():
		warehouse, err := NewStorage(cfg)
		if err != nil {
			return nil, err
		}
		return warehouse.KeyValue(), nil
	default:
		return nil, errors.Errorf("unsupported storage driver '%s'", cfg.Driver)
	}
}

// NewBackends builds the identity store and the ledger on top of kv.
func NewBackends(kv model.KeyValueStore) model.Backends {
	return model.Backends{
		KV:       kv,
		Identity: NewIdentityStorage(kv),
		Ledger:   NewLedgerStorage(kv),
	}
}

// LoadStorageBackends opens the configured store and returns grouped backends.
func LoadStorageBackends(cfg Config) (model.Backends, error) {
	kv, err := OpenKeyValueStore(cfg)
	if err != nil {
		return model.Backends{}, err
	}
	log.WithField("driver", cfg.Driver).Info("Loaded storage backend")
	return NewBackends(kv), nil
}
