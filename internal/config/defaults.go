package config

const (
	defaultConfigPath      = "~/.config/plex-file-namer/config.toml"
	projectConfigName      = "plex-file-namer.toml"
	defaultTMDBBaseURL     = "https://api.themoviedb.org/3"
	defaultTMDBLanguage    = "en-US"
	defaultTMDBDetailLimit = 5
	defaultType            = "auto"
	defaultRenameMode      = "move"
	defaultFFprobeBinary   = "ffprobe"
	defaultProbeTimeout    = 30
	defaultCachePath       = "~/.cache/plex-file-namer/catalog.db"
	defaultCacheTTLHours   = 24 * 7
	defaultLogLevel        = "info"
	defaultLogMaxSizeMB    = 10
	defaultLogMaxBackups   = 3
	defaultLogMaxAgeDays   = 28
)

var defaultExtensions = []string{
	".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm",
	".m4v", ".mpg", ".mpeg", ".3gp", ".3g2", ".ts", ".mts",
	".m2ts", ".vob", ".ogv", ".divx", ".xvid", ".rm", ".rmvb",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		TMDB: TMDB{
			BaseURL:     defaultTMDBBaseURL,
			Language:    defaultTMDBLanguage,
			DetailLimit: defaultTMDBDetailLimit,
		},
		Naming: Naming{
			DefaultType: defaultType,
		},
		Rename: Rename{
			CreateBackups: true,
			Mode:          defaultRenameMode,
		},
		Probe: Probe{
			Enabled:        true,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultProbeTimeout,
		},
		Cache: Cache{
			Enabled:  true,
			Path:     defaultCachePath,
			TTLHours: defaultCacheTTLHours,
		},
		Logging: Logging{
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
		Scan: Scan{
			Extensions: append([]string(nil), defaultExtensions...),
		},
	}
}
