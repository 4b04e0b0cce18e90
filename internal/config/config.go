// Package config loads process settings from the environment and detector
// tuning from an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"tendersight/internal/domain"
	"tendersight/internal/services/detectors"
)

type Config struct {
	Env         string
	ListenAddr  string
	DatabaseURL string
	LogLevel    string
	BoltPath    string

	AnalysisTimeout    time.Duration
	AnalysisWorker     bool
	PollInterval       time.Duration
	ReportTopN         int
	RecordWindowDays   int
	RecordMunicipality string

	DetectorsConfig string
	Detectors       detectors.Settings
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Load reads the environment. Malformed values are reported together; the
// returned Config still carries defaults for them.
func Load() (Config, error) {
	var errs []error
	cfg := Config{
		Env:                getenv("APP_ENV", "development"),
		ListenAddr:         getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		BoltPath:           os.Getenv("BOLT_PATH"),
		AnalysisTimeout:    getenvDuration("ANALYSIS_TIMEOUT", 2*time.Minute, &errs),
		AnalysisWorker:     getenvBool("ANALYSIS_WORKER", false, &errs),
		PollInterval:       getenvDuration("ANALYSIS_POLL_INTERVAL", 2*time.Second, &errs),
		ReportTopN:         getenvInt("REPORT_TOP_N", 20, &errs),
		RecordWindowDays:   getenvInt("RECORD_WINDOW_DAYS", 0, &errs),
		RecordMunicipality: os.Getenv("RECORD_MUNICIPALITY"),
		DetectorsConfig:    os.Getenv("DETECTORS_CONFIG"),
		Detectors:          detectors.DefaultSettings(),
	}
	if cfg.DetectorsConfig != "" {
		s, err := LoadDetectorSettings(cfg.DetectorsConfig)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.Detectors = s
		}
	}
	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}

// LoadDetectorSettings overlays the YAML file at path on the defaults. Keys
// absent from the file keep their default value.
func LoadDetectorSettings(path string) (detectors.Settings, error) {
	s := detectors.DefaultSettings()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read detector settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return detectors.DefaultSettings(), fmt.Errorf("parse detector settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return detectors.DefaultSettings(), fmt.Errorf("detector settings %s: %w", path, err)
	}
	return s, nil
}

func (c Config) Validate() error {
	switch {
	case c.AnalysisTimeout < 0:
		return fmt.Errorf("ANALYSIS_TIMEOUT must not be negative")
	case c.PollInterval <= 0:
		return fmt.Errorf("ANALYSIS_POLL_INTERVAL must be positive")
	case c.ReportTopN < 0:
		return fmt.Errorf("REPORT_TOP_N must not be negative")
	case c.RecordWindowDays < 0:
		return fmt.Errorf("RECORD_WINDOW_DAYS must not be negative")
	}
	return nil
}

func (c Config) Development() bool { return c.Env == "development" }

// RecordFilter is the snapshot filter implied by RECORD_WINDOW_DAYS and
// RECORD_MUNICIPALITY.
func (c Config) RecordFilter() domain.RecordFilter {
	return domain.RecordFilter{
		AwardedWithin: time.Duration(c.RecordWindowDays) * 24 * time.Hour,
		Municipality:  c.RecordMunicipality,
	}
}

func getenvInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func getenvBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func getenvDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
