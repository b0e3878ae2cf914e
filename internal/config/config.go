// Package config provides configuration helpers for clockcam commands:
// environment lookups with defaults and YAML file loading.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable clockcam reads.
const EnvPrefix = "CLOCKCAM_"

// Env returns the value of CLOCKCAM_<key>, or def if unset or empty.
func Env(key, def string) string {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		return v
	}
	return def
}

// EnvInt returns CLOCKCAM_<key> parsed as an int.
// Falls back to def if unset or not a number.
func EnvInt(key string, def int) int {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

// EnvFloat returns CLOCKCAM_<key> parsed as a float64.
func EnvFloat(key string, def float64) float64 {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

// EnvBool returns CLOCKCAM_<key> parsed as a bool ("1", "true", "yes", ...).
func EnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(EnvPrefix + key)))
	switch v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

// LoadYAML decodes the YAML file at path into out.
// Fields missing from the file keep whatever value out already holds,
// so callers pass a struct pre-filled with defaults.
func LoadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
