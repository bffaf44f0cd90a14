package config

const (
	defaultLogDir           = "~/.local/share/reshelf/logs"
	defaultDataDir          = "~/.local/share/reshelf"
	defaultMoviesDir        = "Movies"
	defaultTVDir            = "TV Shows"
	defaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	defaultTMDBLanguage     = "en-US"
	defaultTransferMode     = "hardlink"
	defaultSettleSeconds    = 2
	defaultAPIBind          = "127.0.0.1:7955"
	defaultNtfyServer       = "https://ntfy.sh"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 14
)

func defaultExtensions() []string {
	return []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".iso"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			DataDir: defaultDataDir,
		},
		Library: Library{
			MoviesDir: defaultMoviesDir,
			TVDir:     defaultTVDir,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Transfer: Transfer{
			Mode: defaultTransferMode,
		},
		Watch: Watch{
			SettleSeconds: defaultSettleSeconds,
			Extensions:    defaultExtensions(),
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Notify: Notify{
			NtfyServer: defaultNtfyServer,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
