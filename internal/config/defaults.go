package config

const (
	defaultWorkspaceDir    = "~/.local/share/splice/workspace"
	defaultLogDir          = "~/.local/share/splice/logs"
	defaultDatabasePath    = "~/.local/share/splice/splice.db"
	defaultAPIBind         = "127.0.0.1:7490"
	defaultMaxFiles        = 5
	defaultMaxRequestBytes = int64(2) << 30 // 2 GiB
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultPreset          = "fast"
	defaultMergeTimeout    = 7200
	defaultSweepInterval   = 600
	defaultStaleAge        = 21600
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			DatabasePath: defaultDatabasePath,
		},
		Server: Server{
			Bind:            defaultAPIBind,
			MaxFiles:        defaultMaxFiles,
			MaxRequestBytes: defaultMaxRequestBytes,
			AllowedOrigins:  []string{"*"},
		},
		FFmpeg: FFmpeg{
			Binary:      defaultFFmpegBinary,
			ProbeBinary: defaultFFprobeBinary,
			Preset:      defaultPreset,
			Timeout:     defaultMergeTimeout,
		},
		Cleanup: Cleanup{
			SweepInterval: defaultSweepInterval,
			MaxAge:        defaultStaleAge,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
