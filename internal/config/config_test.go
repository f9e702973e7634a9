package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"storyreel/internal/config"
)

func TestDefaultValidates(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LibraryDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Script.SceneCount != 4 {
		t.Fatalf("scene count = %d, want default 4", cfg.Script.SceneCount)
	}
	if cfg.Video.MusicVolume != 0.2 {
		t.Fatalf("music volume = %v, want default 0.2", cfg.Video.MusicVolume)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := strings.Join([]string{
		"[paths]",
		`library_dir = "` + filepath.Join(dir, "library") + `"`,
		`log_dir = "` + filepath.Join(dir, "logs") + `"`,
		"[script]",
		"scene_count = 7",
		"[video]",
		"fps = 30",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if cfg.Script.SceneCount != 7 {
		t.Fatalf("scene count = %d, want 7", cfg.Script.SceneCount)
	}
	if cfg.Video.FPS != 30 {
		t.Fatalf("fps = %d, want 30", cfg.Video.FPS)
	}
	if cfg.Script.Model == "" {
		t.Fatal("expected default model to survive partial override")
	}
}

func TestLoadReadsAPIKeysFromEnv(t *testing.T) {
	t.Setenv(config.EnvLLMAPIKey, " sk-test ")
	t.Setenv(config.EnvVoiceAPIKey, "va-test")
	t.Setenv(config.EnvMusicAPIKey, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Script.APIKey != "sk-test" {
		t.Fatalf("script key = %q, want trimmed env value", cfg.Script.APIKey)
	}
	if cfg.Voice.APIKey != "va-test" {
		t.Fatalf("voice key = %q", cfg.Voice.APIKey)
	}
	if cfg.Music.APIKey != "" {
		t.Fatalf("music key = %q, want empty", cfg.Music.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"zero scenes", func(c *config.Config) { c.Script.SceneCount = 0 }},
		{"zero fps", func(c *config.Config) { c.Video.FPS = 0 }},
		{"crossfade too long", func(c *config.Config) { c.Video.CrossfadeSeconds = c.Video.SecondsPerScene }},
		{"volume out of range", func(c *config.Config) { c.Video.MusicVolume = 1.5 }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "pretty" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	written, err := config.CreateSample(path)
	if err != nil {
		t.Fatalf("create sample: %v", err)
	}
	data, err := os.ReadFile(written)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[video]") {
		t.Fatal("sample config missing video section")
	}
	if _, err := config.CreateSample(path); err == nil {
		t.Fatal("expected error when sample already exists")
	}
}
