package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScript()
	c.normalizeImage()
	c.normalizeVoice()
	c.normalizeMusic()
	c.normalizeLogging()
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeScript() {
	c.Script.BaseURL = strings.TrimSpace(c.Script.BaseURL)
	if c.Script.BaseURL == "" {
		c.Script.BaseURL = defaultScriptBaseURL
	}
	c.Script.Model = strings.TrimSpace(c.Script.Model)
	if c.Script.Model == "" {
		c.Script.Model = defaultScriptModel
	}
	if c.Script.TimeoutSeconds <= 0 {
		c.Script.TimeoutSeconds = defaultScriptTimeoutSeconds
	}
	c.Script.APIKey = strings.TrimSpace(os.Getenv(EnvLLMAPIKey))
}

func (c *Config) normalizeImage() {
	c.Image.BaseURL = strings.TrimSpace(c.Image.BaseURL)
	if c.Image.BaseURL == "" {
		c.Image.BaseURL = defaultImageBaseURL
	}
	c.Image.Model = strings.TrimSpace(c.Image.Model)
	if c.Image.Model == "" {
		c.Image.Model = defaultImageModel
	}
	c.Image.Size = strings.TrimSpace(c.Image.Size)
	if c.Image.Size == "" {
		c.Image.Size = defaultImageSize
	}
	if c.Image.TimeoutSeconds <= 0 {
		c.Image.TimeoutSeconds = defaultImageTimeoutSeconds
	}
}

func (c *Config) normalizeVoice() {
	c.Voice.BaseURL = strings.TrimSpace(c.Voice.BaseURL)
	if c.Voice.BaseURL == "" {
		c.Voice.BaseURL = defaultVoiceBaseURL
	}
	c.Voice.VoiceID = strings.TrimSpace(c.Voice.VoiceID)
	if c.Voice.VoiceID == "" {
		c.Voice.VoiceID = defaultVoiceID
	}
	if c.Voice.TimeoutSeconds <= 0 {
		c.Voice.TimeoutSeconds = defaultVoiceTimeoutSeconds
	}
	c.Voice.APIKey = strings.TrimSpace(os.Getenv(EnvVoiceAPIKey))
}

func (c *Config) normalizeMusic() {
	c.Music.BaseURL = strings.TrimSpace(c.Music.BaseURL)
	if c.Music.BaseURL == "" {
		c.Music.BaseURL = defaultMusicBaseURL
	}
	if c.Music.DurationSeconds <= 0 {
		c.Music.DurationSeconds = defaultMusicDuration
	}
	if c.Music.TimeoutSeconds <= 0 {
		c.Music.TimeoutSeconds = defaultMusicTimeoutSeconds
	}
	c.Music.APIKey = strings.TrimSpace(os.Getenv(EnvMusicAPIKey))
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
