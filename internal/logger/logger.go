// Package logger sets up the internal logrus logger and the writer for the
// http access log.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
)

const (
	internalLogFile = "credhouse.log"
	accessLogFile   = "access.log"
)

// Conf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/credhouse
//	    stderr: false
//	  internal:
//	    dir: /var/log/credhouse
//	    stderr: false
//	    level: INFO
type Conf struct {
	Access   OutputConf   `yaml:"access"`
	Internal InternalConf `yaml:"internal"`
}

// InternalConf configures application-internal logging.
// Level accepts the logrus level names (e.g. DEBUG, INFO, WARN, ERROR).
type InternalConf struct {
	OutputConf `yaml:",inline"`
	Level      string `yaml:"level"`
}

// OutputConf selects where a logger writes to. Without a directory the
// logger writes to stdout, StdErr additionally mirrors file output to stderr.
type OutputConf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
}

// DefaultConf is the logging configuration used when nothing is configured
var DefaultConf = Conf{
	Internal: InternalConf{
		Level: "INFO",
	},
}

// Validate checks that all configured log directories exist
func (c Conf) Validate() error {
	for _, dir := range []string{
		c.Access.Dir,
		c.Internal.Dir,
	} {
		if dir != "" && !fileutils.FileExists(dir) {
			return errors.Errorf("logging directory '%s' does not exist", dir)
		}
	}
	if _, err := ParseLevel(c.Internal.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel parses a level name case-insensitively; an empty name is INFO
func ParseLevel(level string) (log.Level, error) {
	if level == "" {
		return log.InfoLevel, nil
	}
	l, err := log.ParseLevel(strings.ToLower(level))
	return l, errors.Wrapf(err, "invalid log level '%s'", level)
}

var accessWriter io.Writer = os.Stdout

// Init initializes the internal logger and prepares the access log writer
func Init(conf Conf) error {
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)
	level, err := ParseLevel(conf.Internal.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	out, err := outputWriter(conf.Internal.OutputConf, internalLogFile)
	if err != nil {
		return err
	}
	log.SetOutput(out)

	if accessWriter, err = outputWriter(conf.Access, accessLogFile); err != nil {
		return err
	}
	return nil
}

// AccessWriter returns the writer the http access log is written to
func AccessWriter() io.Writer {
	return accessWriter
}

func outputWriter(conf OutputConf, filename string) (io.Writer, error) {
	if conf.Dir == "" {
		return os.Stdout, nil
	}
	file, err := os.OpenFile(
		filepath.Join(conf.Dir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640,
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not open log file")
	}
	if conf.StdErr {
		return io.MultiWriter(file, os.Stderr), nil
	}
	return file, nil
}
