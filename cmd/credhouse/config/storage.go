package config

import (
	"github.com/pkg/errors"

	"github.com/credhouse/credhouse/storage"
	"github.com/credhouse/credhouse/storage/model"
)

type storageConf struct {
	Driver          storage.DriverType `yaml:"driver"`
	DataDir         string             `yaml:"data_dir"`
	DSN             string             `yaml:"dsn"`
	InMemory        bool               `yaml:"in_memory"`
	Redis           storage.RedisConf  `yaml:"redis"`
	storage.DSNConf `yaml:",inline"`
	Debug           bool `yaml:"debug"`
}

func (c *storageConf) validate() error {
	switch c.Driver {
	case storage.DriverSQLite:
		if c.DataDir == "" && c.DSN == "" {
			return errors.New("data_dir must be specified")
		}
		return nil
	case storage.DriverBadger:
		if c.DataDir == "" && !c.InMemory {
			return errors.New("data_dir must be specified")
		}
		return nil
	case storage.DriverRedis:
		if c.Redis.Addr == "" {
			return errors.New("redis.addr must be specified")
		}
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver:  storage.DriverBadger,
	DataDir: "data",
	DSNConf: storage.DSNConf{
		User: "credhouse",
		Host: "localhost",
		DB:   "credhouse",
	},
	Redis: storage.RedisConf{
		Prefix: "credhouse",
	},
}

// StorageConfig converts the storage section into a storage.Config
func (c storageConf) StorageConfig() storage.Config {
	return storage.Config{
		Driver:   c.Driver,
		DSN:      c.DSN,
		DataDir:  c.DataDir,
		InMemory: c.InMemory,
		Redis:    c.Redis,
		Debug:    c.Debug,
	}
}

// LoadStorageBackends loads and returns the storage backends for the
// storage section
func LoadStorageBackends(c storageConf) (model.Backends, error) {
	return storage.LoadStorageBackends(c.StorageConfig())
}
