package collector

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint       = "http://localhost:8080/ingest"
	DefaultBatchSize      = 50
	DefaultRetryAttempts  = 3
	DefaultRetryDelay     = 5 * time.Second
	DefaultRequestTimeout = 10 * time.Second
)

// Config is the collector configuration file.
type Config struct {
	Endpoint       string        `yaml:"endpoint" validate:"required,url"`
	Token          string        `yaml:"token" validate:"required"`
	BatchSize      int           `yaml:"batch_size" validate:"min=1,max=1000"`
	RetryAttempts  int           `yaml:"retry_attempts" validate:"min=1,max=10"`
	RetryDelay     time.Duration `yaml:"retry_delay" validate:"min=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
	DryRun         bool          `yaml:"dry_run"`
	Sources        []Source      `yaml:"sources" validate:"required,min=1,dive"`
}

// Source is one log file and the honeypot service that writes it.
type Source struct {
	Service string `yaml:"service" validate:"required,oneof=http ssh ftp mysql"`
	Path    string `yaml:"path" validate:"required"`
	// Follow defaults to true when omitted.
	Follow *bool `yaml:"follow"`
}

func (s Source) Following() bool {
	return s.Follow == nil || *s.Follow
}

func DefaultConfig() *Config {
	return &Config{
		Endpoint:       DefaultEndpoint,
		BatchSize:      DefaultBatchSize,
		RetryAttempts:  DefaultRetryAttempts,
		RetryDelay:     DefaultRetryDelay,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// LoadConfig reads a YAML file over the defaults. ${VAR} references are
// expanded first so the token can stay out of the file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags and reports every failing field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
