// Package config loads the credhouse server configuration from a yaml file.
package config

import (
	"os"
	"path/filepath"

	"github.com/fatih/structs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/credhouse/credhouse"
	"github.com/credhouse/credhouse/internal/logger"
)

// Config holds the complete server configuration
type Config struct {
	Server   credhouse.ServerConf `yaml:"server"`
	Storage  storageConf          `yaml:"storage"`
	Logging  logger.Conf          `yaml:"logging"`
	Issuance issuanceConf         `yaml:"issuance"`
}

var c Config

// Get returns the loaded Config
func Get() Config {
	return c
}

var possibleConfigLocations = []string{
	".",
	"config",
	"/config",
	"/credhouse",
	"/credhouse/config",
	"/data",
	"/data/config",
	"/etc/credhouse",
}

const defaultConfigFile = "config.yaml"

func defaultConfig() Config {
	return Config{
		Server:   defaultServerConf,
		Storage:  defaultStorageConf,
		Logging:  logger.DefaultConf,
		Issuance: defaultIssuanceConf,
	}
}

// Load reads the config file and stores it so it can be obtained with Get.
// If filename is empty the default locations are searched.
// Load terminates the program if the config cannot be loaded.
func Load(filename string) {
	conf, err := LoadFile(filename)
	if err != nil {
		log.WithError(err).Fatal("could not load config")
	}
	c = conf
}

// LoadFile reads and validates the config file
func LoadFile(filename string) (Config, error) {
	path, err := findConfigFile(filename)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "could not read config file '%s'", path)
	}
	conf, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "error in config file '%s'", path)
	}
	return conf, nil
}

// Parse decodes the yaml data on top of the defaults and validates the result
func Parse(data []byte) (Config, error) {
	conf := defaultConfig()
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return Config{}, errors.WithStack(err)
	}
	warnUnknownKeys(data)
	if err := conf.validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

func findConfigFile(filename string) (string, error) {
	if filename != "" {
		if !fileutils.FileExists(filename) {
			return "", errors.Errorf("config file '%s' does not exist", filename)
		}
		return filename, nil
	}
	for _, dir := range possibleConfigLocations {
		path := filepath.Join(dir, defaultConfigFile)
		if fileutils.FileExists(path) {
			return path, nil
		}
	}
	return "", errors.Errorf("could not find %s in any of %v", defaultConfigFile, possibleConfigLocations)
}

func (conf *Config) validate() error {
	if err := validateServer(conf.Server); err != nil {
		return errors.Wrap(err, "error in server conf")
	}
	if err := conf.Storage.validate(); err != nil {
		return errors.Wrap(err, "error in storage conf")
	}
	if err := conf.Logging.Validate(); err != nil {
		return errors.Wrap(err, "error in logging conf")
	}
	if err := conf.Issuance.validate(); err != nil {
		return errors.Wrap(err, "error in issuance conf")
	}
	return nil
}

// warnUnknownKeys logs top level keys that no config section consumes
func warnUnknownKeys(data []byte) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return
	}
	for _, tag := range fieldTagNames(structs.New(Config{}).Fields(), "yaml") {
		delete(raw, tag)
	}
	for key := range raw {
		log.WithField("key", key).Warn("ignoring unknown config option")
	}
}

func fieldTagNames(fields []*structs.Field, tag string) (names []string) {
	for _, f := range fields {
		if name := f.Tag(tag); name != "" && name != "-" {
			names = append(names, name)
		}
	}
	return
}

// LogDebug dumps the loaded config at debug level. Secrets are masked.
func (conf Config) LogDebug() {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	masked := conf
	if masked.Storage.Password != "" {
		masked.Storage.Password = "***"
	}
	if masked.Storage.Redis.Password != "" {
		masked.Storage.Redis.Password = "***"
	}
	if masked.Storage.DSN != "" {
		masked.Storage.DSN = "***"
	}
	for section, values := range structs.Map(masked) {
		log.WithField("section", section).WithField("values", values).Debug("config")
	}
}
