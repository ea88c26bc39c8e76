/*
 * Copyright (c) 2025 the Firewatch authors.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields should be preserved when possible (yaml handles this by ignoring extras on unmarshal).

type APIConfig struct {
	BaseURL     string `yaml:"base_url"`
	Login       string `yaml:"login"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Password and token are not stored on disk; they live in the OS keychain.
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark" (informational for now)
	RefreshSeconds int    `yaml:"refresh_seconds"`
	EnableArchive  bool   `yaml:"enable_archive"`
}

type ArchiveConfig struct {
	DSN string `yaml:"dsn"` // Postgres DSN for the shared acknowledgement archive
}

// ViewportConfig tunes the alert image viewport and its overlay.
type ViewportConfig struct {
	MaxScale        float64 `yaml:"max_scale"`
	BBoxStrokeWidth float64 `yaml:"bbox_stroke_width"` // screen-space width, kept constant under zoom
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	API           APIConfig      `yaml:"api"`
	Archive       ArchiveConfig  `yaml:"archive"`
	Viewport      ViewportConfig `yaml:"viewport"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system", RefreshSeconds: 30, EnableArchive: false},
		API:           APIConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000, TLSInsecure: false},
		Archive:       ArchiveConfig{DSN: ""},
		Viewport:      ViewportConfig{MaxScale: 8, BBoxStrokeWidth: 2},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvAPIURL         = "FW_API_URL"
	EnvAPILogin       = "FW_API_LOGIN"
	EnvAPIPassword    = "FW_API_PWD" // read-only; never written back to the keyring implicitly
	EnvAPITimeoutMs   = "FW_API_TIMEOUT_MS"
	EnvAPITLSInsec    = "FW_TLS_INSECURE"
	EnvTelemetryOptIn = "FW_TELEMETRY_OPT_IN"
	EnvRefreshSeconds = "FW_REFRESH_SECONDS"
	EnvEnableArchive  = "FW_ENABLE_ARCHIVE"
	EnvArchiveDSN     = "FW_ARCHIVE_DSN"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "FW_LOG_LEVEL"
	EnvLogFormat = "FW_LOG_FORMAT"
	EnvLogSource = "FW_LOG_SOURCE"
	EnvLogFile   = "FW_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "Firewatch"
	keyringToken    = "api_token"
	keyringPassword = "api_password"
)

// tokenStore abstracts keyring, so we can stub in tests.
var tokenStore TokenStore = &osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) {
	return keyringGet(service, key)
}
func (k *osKeyring) Set(service, key, value string) error {
	return keyringSet(service, key, value)
}
func (k *osKeyring) Delete(service, key string) error {
	return keyringDelete(service, key)
}

// The following vars are assigned by keyring_real.go or keyring_stub.go depending on build tags.
var (
	keyringGet    func(service, key string) (string, error)
	keyringSet    func(service, key, value string) error
	keyringDelete func(service, key string) error
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "Firewatch")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "Firewatch")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "firewatch")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment
// overrides. The API token is loaded from the OS keyring and returned separately; it is
// never part of the on-disk struct.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// Password returns the stored API password: the FW_API_PWD env var wins, then the keyring.
func Password() string {
	if v := strings.TrimSpace(os.Getenv(EnvAPIPassword)); v != "" {
		return v
	}
	pw, _ := tokenStore.Get(keyringService, keyringPassword)
	return pw
}

// SavePassword persists the API password into the OS keyring.
func SavePassword(pw string) error {
	return tokenStore.Set(keyringService, keyringPassword, pw)
}

// ClearCredentials removes token and password from the keyring.
func ClearCredentials() error {
	err1 := tokenStore.Delete(keyringService, keyringToken)
	err2 := tokenStore.Delete(keyringService, keyringPassword)
	if err1 != nil {
		return err1
	}
	return err2
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	if src.General.RefreshSeconds != 0 {
		dst.General.RefreshSeconds = src.General.RefreshSeconds
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	dst.General.EnableArchive = src.General.EnableArchive
	if src.API.BaseURL != "" {
		dst.API.BaseURL = src.API.BaseURL
	}
	if src.API.Login != "" {
		dst.API.Login = src.API.Login
	}
	if src.API.TimeoutMs != 0 {
		dst.API.TimeoutMs = src.API.TimeoutMs
	}
	dst.API.TLSInsecure = src.API.TLSInsecure
	if strings.TrimSpace(src.Archive.DSN) != "" {
		dst.Archive.DSN = strings.TrimSpace(src.Archive.DSN)
	}
	if src.Viewport.MaxScale > 0 {
		dst.Viewport.MaxScale = src.Viewport.MaxScale
	}
	if src.Viewport.BBoxStrokeWidth > 0 {
		dst.Viewport.BBoxStrokeWidth = src.Viewport.BBoxStrokeWidth
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPILogin)); v != "" {
		cfg.API.Login = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPITimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAPITLSInsec)); v != "" {
		cfg.API.TLSInsecure = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvRefreshSeconds)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.General.RefreshSeconds = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvEnableArchive)); v != "" {
		cfg.General.EnableArchive = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvArchiveDSN)); v != "" {
		cfg.Archive.DSN = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "api.base_url":
		if os.Getenv(EnvAPIURL) != "" {
			return EnvAPIURL, true
		}
	case "api.login":
		if os.Getenv(EnvAPILogin) != "" {
			return EnvAPILogin, true
		}
	case "api.timeout_ms":
		if os.Getenv(EnvAPITimeoutMs) != "" {
			return EnvAPITimeoutMs, true
		}
	case "api.tls_insecure":
		if os.Getenv(EnvAPITLSInsec) != "" {
			return EnvAPITLSInsec, true
		}
	case "general.telemetry_opt_in":
		if os.Getenv(EnvTelemetryOptIn) != "" {
			return EnvTelemetryOptIn, true
		}
	case "general.refresh_seconds":
		if os.Getenv(EnvRefreshSeconds) != "" {
			return EnvRefreshSeconds, true
		}
	case "general.enable_archive":
		if os.Getenv(EnvEnableArchive) != "" {
			return EnvEnableArchive, true
		}
	case "archive.dsn":
		if os.Getenv(EnvArchiveDSN) != "" {
			return EnvArchiveDSN, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	}
	return "", false
}
