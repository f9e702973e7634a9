package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
}

// Script contains settings for scene breakdown via the remote LLM.
type Script struct {
	SceneCount     int    `toml:"scene_count"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	// APIKey is sourced from STORYREEL_LLM_API_KEY, never from the file.
	APIKey string `toml:"-"`
}

// Image contains settings for remote still generation.
type Image struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Size           string `toml:"size"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Voice contains settings for remote narration synthesis.
type Voice struct {
	BaseURL        string `toml:"base_url"`
	VoiceID        string `toml:"voice_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`

	// APIKey is sourced from STORYREEL_VOICE_API_KEY, never from the file.
	APIKey string `toml:"-"`
}

// Music contains settings for background track generation.
type Music struct {
	BaseURL         string `toml:"base_url"`
	DurationSeconds int    `toml:"duration_seconds"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`

	// APIKey is sourced from STORYREEL_MUSIC_API_KEY, never from the file.
	APIKey string `toml:"-"`
}

// Video contains slideshow assembly settings.
type Video struct {
	FPS              int     `toml:"fps"`
	SecondsPerScene  float64 `toml:"seconds_per_scene"`
	CrossfadeSeconds float64 `toml:"crossfade_seconds"`
	MusicVolume      float64 `toml:"music_volume"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for storyreel.
//
// API credentials never live in the file. They are read from the
// environment (optionally via a .env file next to the working
// directory): STORYREEL_LLM_API_KEY, STORYREEL_VOICE_API_KEY, and
// STORYREEL_MUSIC_API_KEY. A missing key simply routes the matching
// stage to the local synthesizer.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Script        Script        `toml:"script"`
	Image         Image         `toml:"image"`
	Voice         Voice         `toml:"voice"`
	Music         Music         `toml:"music"`
	Video         Video         `toml:"video"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// Environment variable names for per-provider credentials.
const (
	EnvLLMAPIKey   = "STORYREEL_LLM_API_KEY"
	EnvVoiceAPIKey = "STORYREEL_VOICE_API_KEY"
	EnvMusicAPIKey = "STORYREEL_MUSIC_API_KEY"
)

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/storyreel/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and credentials resolved from the environment.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	// Best effort; a missing .env is the common case.
	_ = godotenv.Load()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("storyreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories runs write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LibraryDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RunDir returns the output directory for a given run identifier.
func (c *Config) RunDir(runID int64) string {
	return filepath.Join(c.Paths.LibraryDir, fmt.Sprintf("run-%d", runID))
}

// FFmpegBinary returns the ffmpeg executable name used for assembly.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return expanded, fmt.Errorf("config file already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write sample config: %w", err)
	}
	return expanded, nil
}
