package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Missing API keys are not an
// error; they route the matching stage to the local synthesizer.
func (c *Config) Validate() error {
	if err := c.validateScript(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateScript() error {
	if c.Script.SceneCount < 1 {
		return errors.New("script.scene_count must be at least 1")
	}
	return ensurePositiveMap(map[string]int{
		"script.timeout_seconds": c.Script.TimeoutSeconds,
	})
}

func (c *Config) validateMedia() error {
	return ensurePositiveMap(map[string]int{
		"image.timeout_seconds":  c.Image.TimeoutSeconds,
		"voice.timeout_seconds":  c.Voice.TimeoutSeconds,
		"music.timeout_seconds":  c.Music.TimeoutSeconds,
		"music.duration_seconds": c.Music.DurationSeconds,
	})
}

func (c *Config) validateVideo() error {
	if c.Video.FPS < 1 {
		return errors.New("video.fps must be at least 1")
	}
	if c.Video.SecondsPerScene <= 0 {
		return errors.New("video.seconds_per_scene must be positive")
	}
	if c.Video.CrossfadeSeconds < 0 {
		return errors.New("video.crossfade_seconds must not be negative")
	}
	if c.Video.CrossfadeSeconds >= c.Video.SecondsPerScene {
		return errors.New("video.crossfade_seconds must be shorter than video.seconds_per_scene")
	}
	if c.Video.MusicVolume < 0 || c.Video.MusicVolume > 1 {
		return errors.New("video.music_volume must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
