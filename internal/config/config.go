// Package config loads the registry's runtime configuration from a JSON or
// YAML file, applying the same defaults as the original service.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full set of values a running registry needs.
type Config struct {
	ClientEORI     string `json:"client_eori" yaml:"client_eori"`
	IDPURL         string `json:"idp_url" yaml:"idp_url"`
	IDPEORI        string `json:"idp_eori" yaml:"idp_eori"`
	ClientCertPath string `json:"client_cert_path" yaml:"client_cert_path"`
	ClientCertPass string `json:"client_cert_pass" yaml:"client_cert_pass"`
	SatelliteURL   string `json:"satellite_url" yaml:"satellite_url"`
	IshareCAPath   string `json:"ishare_ca_path" yaml:"ishare_ca_path"`
	SatelliteEORI  string `json:"satellite_eori" yaml:"satellite_eori"`
	JWTSecret      string `json:"jwt_secret" yaml:"jwt_secret"`
	JWTExpirySecs  int64  `json:"jwt_expiry_seconds" yaml:"jwt_expiry_seconds"`
	DatabaseURL    string `json:"database_url" yaml:"database_url"`
	ListenAddress  string `json:"listen_address" yaml:"listen_address"`
	DEExpirySecs   int64  `json:"de_expiry_seconds" yaml:"de_expiry_seconds"`
	DeployRoute    string `json:"deploy_route" yaml:"deploy_route"`
	SeedFolder     string `json:"seed_folder,omitempty" yaml:"seed_folder,omitempty"`
	LogLevel       string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	RedisURL       string `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
}

const (
	defaultListenAddress = "0.0.0.0:4000"
	defaultJWTExpiry     = 3600
	defaultDEExpiry      = 3600
	defaultDeployRoute   = "/api"
)

// Load reads and parses the configuration file at path, applying defaults
// for any field the file omits. YAML is used for .yaml/.yml paths, JSON
// otherwise — the log-level hot-reload watcher always re-parses as JSON
// since the seed deployments it targets ship JSON configs.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &Config{
		ListenAddress: defaultListenAddress,
		JWTExpirySecs: defaultJWTExpiry,
		DEExpirySecs:  defaultDEExpiry,
		DeployRoute:   defaultDeployRoute,
	}
	if isYAML(path) {
		err = yaml.Unmarshal(raw, cfg)
	} else {
		err = json.Unmarshal(raw, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("config: applying env overrides: %w", err)
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = defaultListenAddress
	}
	if cfg.JWTExpirySecs == 0 {
		cfg.JWTExpirySecs = defaultJWTExpiry
	}
	if cfg.DEExpirySecs == 0 {
		cfg.DEExpirySecs = defaultDEExpiry
	}
	if cfg.DeployRoute == "" {
		cfg.DeployRoute = defaultDeployRoute
	}

	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// applyEnvOverrides lets deployment tooling override individual fields
// without rewriting the config file, following the AR_<FIELD> convention:
// any set env var wins over the value the file carried.
func applyEnvOverrides(cfg *Config) error {
	overrideString := func(dst *string, env string) {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}
	overrideInt64 := func(dst *int64, env string) error {
		v, ok := os.LookupEnv(env)
		if !ok {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		*dst = n
		return nil
	}

	overrideString(&cfg.ClientEORI, "AR_CLIENT_EORI")
	overrideString(&cfg.IDPURL, "AR_IDP_URL")
	overrideString(&cfg.IDPEORI, "AR_IDP_EORI")
	overrideString(&cfg.ClientCertPath, "AR_CLIENT_CERT_PATH")
	overrideString(&cfg.ClientCertPass, "AR_CLIENT_CERT_PASS")
	overrideString(&cfg.SatelliteURL, "AR_SATELLITE_URL")
	overrideString(&cfg.IshareCAPath, "AR_ISHARE_CA_PATH")
	overrideString(&cfg.SatelliteEORI, "AR_SATELLITE_EORI")
	overrideString(&cfg.JWTSecret, "AR_JWT_SECRET")
	overrideString(&cfg.DatabaseURL, "AR_DATABASE_URL")
	overrideString(&cfg.ListenAddress, "AR_LISTEN_ADDRESS")
	overrideString(&cfg.DeployRoute, "AR_DEPLOY_ROUTE")
	overrideString(&cfg.SeedFolder, "AR_SEED_FOLDER")
	overrideString(&cfg.LogLevel, "AR_LOG_LEVEL")
	overrideString(&cfg.RedisURL, "AR_REDIS_URL")

	if err := overrideInt64(&cfg.JWTExpirySecs, "AR_JWT_EXPIRY_SECONDS"); err != nil {
		return err
	}
	if err := overrideInt64(&cfg.DEExpirySecs, "AR_DE_EXPIRY_SECONDS"); err != nil {
		return err
	}
	return nil
}
