// Package config handles the configuration of a Valorium X engine.
package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/SylverbladeX/ValoriumX-Simulator/src/common"
)

// Default filenames.
const (
	// DefaultKeyfile is the default name of the file containing the node's
	// private key.
	DefaultKeyfile = "priv_key"

	// DefaultBadgerFile is the default name of the folder containing the
	// Badger database.
	DefaultBadgerFile = "badger_db"

	// DefaultNodesFile is the default name of the file describing the
	// validator set.
	DefaultNodesFile = "nodes.json"
)

// Default configuration values.
const (
	DefaultLogLevel        = "debug"
	DefaultServiceAddr     = "127.0.0.1:8000"
	DefaultSoftwareVersion = "1.0.0"
	DefaultValidators      = 4
	DefaultInitialStake    = 1000.0
	DefaultInitialRep      = 1.0
	DefaultRoundTimeout    = 1000 * time.Millisecond
	DefaultMaxBatch        = 100
	DefaultRedundancy      = 3
	DefaultStore           = false
)

// Config contains all the configuration properties of a Valorium X engine.
type Config struct {
	// DataDir is the top-level directory containing configuration and data.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// ServiceAddr is the address:port of the HTTP API service.
	ServiceAddr string `mapstructure:"service-listen"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// SoftwareVersion is the version registered as official with the stencil
	// and declared by the simulated nodes.
	SoftwareVersion string `mapstructure:"software-version"`

	// Validators is the number of simulated validators when no nodes.json is
	// present in the data directory.
	Validators int `mapstructure:"validators"`

	// InitialStake and InitialRep are the standing every validator starts
	// with.
	InitialStake float64 `mapstructure:"initial-stake"`
	InitialRep   float64 `mapstructure:"initial-rep"`

	// RoundTimeout bounds attestation collection in a consensus round.
	RoundTimeout time.Duration `mapstructure:"round-timeout"`

	// MaxBatch caps the transactions per block.
	MaxBatch int `mapstructure:"max-batch"`

	// Redundancy is the fragment redundancy factor for committed blocks.
	Redundancy int `mapstructure:"redundancy"`

	// Store activates persistent storage.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		DataDir:         DefaultDataDir(),
		LogLevel:        DefaultLogLevel,
		ServiceAddr:     DefaultServiceAddr,
		SoftwareVersion: DefaultSoftwareVersion,
		Validators:      DefaultValidators,
		InitialStake:    DefaultInitialStake,
		InitialRep:      DefaultInitialRep,
		RoundTimeout:    DefaultRoundTimeout,
		MaxBatch:        DefaultMaxBatch,
		Redundancy:      DefaultRedundancy,
		Store:           DefaultStore,
		DatabaseDir:     DefaultDatabaseDir(),
	}
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t)
	return config
}

// SetDataDir sets the top-level data directory, and updates the database
// directory if it is currently set to the default value. If it is not, the
// user has explicitly set it to something else, so leave it alone.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// Keyfile returns the full path of the file containing the private key.
func (c *Config) Keyfile() string {
	return filepath.Join(c.DataDir, DefaultKeyfile)
}

// NodesFile returns the full path of the validator-set file.
func (c *Config) NodesFile() string {
	return filepath.Join(c.DataDir, DefaultNodesFile)
}

// Logger returns a formatted logrus Entry, with prefix set to "valorium".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "valorium")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir returns the default directory name for top-level Valorium
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Valorium")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Valorium")
		} else {
			return filepath.Join(home, ".valorium")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
