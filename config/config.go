// Package config loads offercube configuration from YAML over defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"offercube/logger"
)

// Config is the top level configuration.
type Config struct {
	Server    Server        `yaml:"server"`
	Store     Store         `yaml:"store"`
	Evaluator Evaluator     `yaml:"evaluator"`
	Scheduler Scheduler     `yaml:"scheduler"`
	Manager   Manager       `yaml:"manager"`
	Logger    logger.Config `yaml:"logger"`
}

type Server struct {
	Address string `yaml:"address"`
}

// Store selects where offers, tasks and decisions are kept.
type Store struct {
	// Type is "memory" or "persistent".
	Type string `yaml:"type"`
	// Path is the bbolt database file for the persistent store.
	Path string `yaml:"path"`
}

type Evaluator struct {
	// Parallelism bounds how many offers are evaluated at once.
	Parallelism int `yaml:"parallelism"`
	// Aggregation is "accepted" (skip recommendations under failing
	// outcomes) or "computed" (every recommendation in the tree).
	Aggregation string `yaml:"aggregation"`
}

type Scheduler struct {
	Picker string `yaml:"picker"`
}

type Manager struct {
	Interval time.Duration `yaml:"interval"`
	// Launch starts accepted tasks with docker.
	Launch bool `yaml:"launch"`
	// OffersFile seeds the offer store at startup.
	OffersFile string `yaml:"offers_file"`
	// LocalOffer adds an offer describing this host.
	LocalOffer bool `yaml:"local_offer"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Server: Server{Address: "localhost:5555"},
		Store:  Store{Type: "memory", Path: "offercube.db"},
		Evaluator: Evaluator{
			Parallelism: 4,
			Aggregation: "accepted",
		},
		Scheduler: Scheduler{Picker: "firstfit"},
		Manager:   Manager{Interval: 10 * time.Second},
		Logger:    logger.DefaultConfig(),
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	conf := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs *multierror.Error

	if c.Server.Address == "" {
		errs = multierror.Append(errs, errors.New("server.address is required"))
	}
	switch c.Store.Type {
	case "memory":
	case "persistent":
		if c.Store.Path == "" {
			errs = multierror.Append(errs, errors.New("store.path is required for the persistent store"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("store.type %q must be memory or persistent", c.Store.Type))
	}
	if c.Evaluator.Parallelism < 1 {
		errs = multierror.Append(errs, fmt.Errorf("evaluator.parallelism must be at least 1, got %d", c.Evaluator.Parallelism))
	}
	switch c.Evaluator.Aggregation {
	case "accepted", "computed":
	default:
		errs = multierror.Append(errs, fmt.Errorf("evaluator.aggregation %q must be accepted or computed", c.Evaluator.Aggregation))
	}
	switch c.Scheduler.Picker {
	case "firstfit", "roundrobin", "epvm":
	default:
		errs = multierror.Append(errs, fmt.Errorf("scheduler.picker %q must be firstfit, roundrobin or epvm", c.Scheduler.Picker))
	}
	if c.Manager.Interval <= 0 {
		errs = multierror.Append(errs, errors.New("manager.interval must be positive"))
	}

	return errs.ErrorOrNil()
}
