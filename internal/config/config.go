// Package config reads the gateway's environment-variable-driven
// configuration once at startup (spec §6).
package config

import (
	"os"
	"path/filepath"

	"github.com/opsgate/opsgate/internal/policy"
	"github.com/opsgate/opsgate/internal/telemetry"
)

// Config is the immutable, startup-resolved configuration.
type Config struct {
	ProfilesDir      string
	RunbooksPath     string
	CapabilitiesPath string
	ArtifactRoot     string
	Flags            policy.Flags
	LogLevel         telemetry.Level
}

// FromEnv resolves Config from the process environment, applying the
// documented defaults relative to MCP_PROFILES_DIR.
func FromEnv() (Config, error) {
	profilesDir := os.Getenv("MCP_PROFILES_DIR")
	if profilesDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		profilesDir = filepath.Join(home, ".opsgate")
	}

	runbooksPath := os.Getenv("MCP_RUNBOOKS_PATH")
	if runbooksPath == "" {
		runbooksPath = filepath.Join(profilesDir, "runbooks.json")
	}
	capabilitiesPath := os.Getenv("MCP_CAPABILITIES_PATH")
	if capabilitiesPath == "" {
		capabilitiesPath = filepath.Join(profilesDir, "capabilities.json")
	}
	artifactRoot := os.Getenv("MCP_CONTEXT_REPO_ROOT")
	if artifactRoot == "" {
		artifactRoot = filepath.Join(profilesDir, "artifacts")
	}

	if err := os.MkdirAll(profilesDir, 0o755); err != nil {
		return Config{}, err
	}

	return Config{
		ProfilesDir:      profilesDir,
		RunbooksPath:     runbooksPath,
		CapabilitiesPath: capabilitiesPath,
		ArtifactRoot:     artifactRoot,
		Flags:            policy.FromEnv(),
		LogLevel:         telemetry.ParseLevel(os.Getenv("LOG_LEVEL")),
	}, nil
}

// ProfilesSubdir returns <ProfilesDir>/profiles, where per-name profile
// files live.
func (c Config) ProfilesSubdir() string {
	return filepath.Join(c.ProfilesDir, "profiles")
}

// AuditDir returns <ProfilesDir>/audit.
func (c Config) AuditDir() string {
	return filepath.Join(c.ProfilesDir, "audit")
}
