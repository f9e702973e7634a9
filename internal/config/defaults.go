package config

const (
	defaultLibraryDir           = "~/.local/share/storyreel/library"
	defaultLogDir               = "~/.local/share/storyreel/logs"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultSceneCount           = 4
	defaultScriptBaseURL        = "https://api.openai.com/v1/chat/completions"
	defaultScriptModel          = "gpt-4o-mini"
	defaultScriptTimeoutSeconds = 60
	defaultImageBaseURL         = "https://api.openai.com/v1/images/generations"
	defaultImageModel           = "dall-e-3"
	defaultImageSize            = "1024x1024"
	defaultImageTimeoutSeconds  = 120
	defaultVoiceBaseURL         = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultVoiceID              = "21m00Tcm4TlvDq8ikWAM"
	defaultVoiceTimeoutSeconds  = 60
	defaultMusicBaseURL         = "https://api.sunoapi.org/v1/generate"
	defaultMusicDuration        = 15
	defaultMusicTimeoutSeconds  = 120
	defaultVideoFPS             = 24
	defaultSecondsPerScene      = 8.0
	defaultCrossfadeSeconds     = 1.0
	defaultMusicVolume          = 0.2
	defaultNotifyTimeout        = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Script: Script{
			SceneCount:     defaultSceneCount,
			BaseURL:        defaultScriptBaseURL,
			Model:          defaultScriptModel,
			TimeoutSeconds: defaultScriptTimeoutSeconds,
		},
		Image: Image{
			BaseURL:        defaultImageBaseURL,
			Model:          defaultImageModel,
			Size:           defaultImageSize,
			TimeoutSeconds: defaultImageTimeoutSeconds,
		},
		Voice: Voice{
			BaseURL:        defaultVoiceBaseURL,
			VoiceID:        defaultVoiceID,
			TimeoutSeconds: defaultVoiceTimeoutSeconds,
		},
		Music: Music{
			BaseURL:         defaultMusicBaseURL,
			DurationSeconds: defaultMusicDuration,
			TimeoutSeconds:  defaultMusicTimeoutSeconds,
		},
		Video: Video{
			FPS:              defaultVideoFPS,
			SecondsPerScene:  defaultSecondsPerScene,
			CrossfadeSeconds: defaultCrossfadeSeconds,
			MusicVolume:      defaultMusicVolume,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
