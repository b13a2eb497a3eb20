package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
)

// Sentinel errors
var (
	// ErrProfileNotFound is returned when a profile doesn't exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNoDefaultProfile is returned when no default is set.
	ErrNoDefaultProfile = errors.New("no default profile set, run login first")
)

const configFile = "credentials.json"

// Profile is a server URL with the bearer token used to call it.
type Profile struct {
	Name      string    `json:"name"`
	ServerURL string    `json:"server_url"`
	Token     string    `json:"token"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Config represents the credentials file.
type Config struct {
	Version        int                `json:"version"`
	DefaultProfile string             `json:"default_profile,omitempty"`
	Profiles       map[string]Profile `json:"profiles"`
}

// Store manages the credentials file on the local filesystem.
type Store struct {
	baseDir string
	now     func() time.Time
}

// NewStore creates a new credential store.
// If baseDir is empty, uses ~/.sessionhub/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".sessionhub")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}

	store := &Store{baseDir: baseDir, now: time.Now}

	if err := store.ensureConfig(); err != nil {
		return nil, err
	}

	log.Debug().Str("baseDir", baseDir).Msg("credential store initialized")

	return store, nil
}

// Dir returns the directory holding the credentials file.
func (s *Store) Dir() string {
	return s.baseDir
}

// Save creates or replaces a profile. The first profile saved becomes the default.
func (s *Store) Save(profile Profile) error {
	if profile.Name == "" {
		return errors.New("profile name is required")
	}

	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}

	now := s.now()
	profile.UpdatedAt = now
	if existing, ok := cfg.Profiles[profile.Name]; ok {
		profile.CreatedAt = existing.CreatedAt
	} else {
		profile.CreatedAt = now
	}

	cfg.Profiles[profile.Name] = profile
	if cfg.DefaultProfile == "" {
		cfg.DefaultProfile = profile.Name
	}

	log.Debug().Str("name", profile.Name).Str("server", profile.ServerURL).Msg("saving profile")

	return s.saveConfig(cfg)
}

// Get retrieves a profile by name.
func (s *Store) Get(name string) (*Profile, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}

	profile, ok := cfg.Profiles[name]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &profile, nil
}

// GetDefault retrieves the default profile.
func (s *Store) GetDefault() (*Profile, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.DefaultProfile == "" {
		return nil, ErrNoDefaultProfile
	}

	profile, ok := cfg.Profiles[cfg.DefaultProfile]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return &profile, nil
}

// List returns all profiles sorted by name.
func (s *Store) List() ([]Profile, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(cfg.Profiles))
	for _, name := range slices.Sorted(maps.Keys(cfg.Profiles)) {
		profiles = append(profiles, cfg.Profiles[name])
	}
	return profiles, nil
}

// SetDefault marks a profile as the default.
func (s *Store) SetDefault(name string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}

	if _, ok := cfg.Profiles[name]; !ok {
		return ErrProfileNotFound
	}

	cfg.DefaultProfile = name
	return s.saveConfig(cfg)
}

// Delete removes a profile, clearing the default if it pointed at it.
func (s *Store) Delete(name string) error {
	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}

	if _, ok := cfg.Profiles[name]; !ok {
		return ErrProfileNotFound
	}

	delete(cfg.Profiles, name)
	if cfg.DefaultProfile == name {
		cfg.DefaultProfile = ""
	}

	return s.saveConfig(cfg)
}

// ensureConfig creates an empty config if it doesn't exist.
func (s *Store) ensureConfig() error {
	if _, err := os.Stat(filepath.Join(s.baseDir, configFile)); err == nil {
		return nil
	}

	return s.saveConfig(&Config{
		Version:  1,
		Profiles: make(map[string]Profile),
	})
}

// loadConfig reads the config file.
func (s *Store) loadConfig() (*Config, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, configFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}

	return &cfg, nil
}

// saveConfig writes the config file atomically. Tokens are secrets, so the file is 0600.
func (s *Store) saveConfig(cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	configPath := filepath.Join(s.baseDir, configFile)
	tempPath := configPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}
