// Package config loads user configuration from a key=value file with
// environment-variable fallbacks. Limits are explicit values handed to the
// pipeline at call time; nothing here leaks into core logic as a hidden
// global.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/voxpipe/voxpipe/internal/chunk"
)

// Config keys.
const (
	KeyAPIURL        = "api-url"
	KeyChunkDuration = "chunk-duration"
	KeyMaxDuration   = "max-duration"
	KeyMaxSizeMB     = "max-size-mb"
)

// Environment variable fallbacks.
const (
	EnvAPIURL        = "VOXPIPE_API_URL"
	EnvChunkDuration = "VOXPIPE_CHUNK_DURATION"
	EnvMaxDuration   = "VOXPIPE_MAX_DURATION"
	EnvMaxSizeMB     = "VOXPIPE_MAX_SIZE_MB"
)

// Defaults applied when neither file nor environment provides a value.
const (
	// DefaultAPIURL is the local proxy's transcription endpoint.
	DefaultAPIURL = "http://localhost:8090/api/transcribe"

	// DefaultChunkDuration bounds each extracted chunk.
	DefaultChunkDuration = 300 * time.Second

	// DefaultMaxDuration is the longest payload sent in a single call.
	DefaultMaxDuration = 300 * time.Second

	// DefaultMaxSizeMB keeps uploads under the provider's 25MB cap with
	// headroom.
	DefaultMaxSizeMB = 20
)

// Config holds user configuration loaded from
// ~/.config/voxpipe/config.
type Config struct {
	APIURL        string
	ChunkDuration time.Duration
	MaxDuration   time.Duration
	MaxSizeMB     int64
}

// Limits converts the configuration into chunking limits.
func (c Config) Limits() chunk.Limits {
	return chunk.Limits{
		MaxUploadBytes: c.MaxSizeMB * 1024 * 1024,
		MaxDuration:    c.MaxDuration,
		ChunkDuration:  c.ChunkDuration,
	}
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/voxpipe.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "voxpipe"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "voxpipe"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file, environment variables, and defaults,
// in that precedence order. A missing file is not an error.
func Load() (Config, error) {
	cfg := Config{
		APIURL:        DefaultAPIURL,
		ChunkDuration: DefaultChunkDuration,
		MaxDuration:   DefaultMaxDuration,
		MaxSizeMB:     DefaultMaxSizeMB,
	}

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	get := func(key, env string) string {
		if v, ok := data[key]; ok {
			return v
		}
		return os.Getenv(env)
	}

	if v := get(KeyAPIURL, EnvAPIURL); v != "" {
		cfg.APIURL = v
	}
	if v := get(KeyChunkDuration, EnvChunkDuration); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return cfg, fmt.Errorf("invalid %s: %q (want seconds)", KeyChunkDuration, v)
		}
		cfg.ChunkDuration = time.Duration(seconds) * time.Second
	}
	if v := get(KeyMaxDuration, EnvMaxDuration); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return cfg, fmt.Errorf("invalid %s: %q (want seconds)", KeyMaxDuration, v)
		}
		cfg.MaxDuration = time.Duration(seconds) * time.Second
	}
	if v := get(KeyMaxSizeMB, EnvMaxSizeMB); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil || mb <= 0 {
			return cfg, fmt.Errorf("invalid %s: %q (want megabytes)", KeyMaxSizeMB, v)
		}
		cfg.MaxSizeMB = mb
	}

	return cfg, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid syntax at line %d: %q", lineNum, line)
		}
		data[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return data, nil
}
