package config

const (
	defaultConfigPath      = "~/.config/campusfound/config.toml"
	defaultAddr            = ":8080"
	defaultShutdownTimeout = 10
	defaultDatabasePath    = "~/.local/share/campusfound/campusfound.db"
	defaultUploadDir       = "~/.local/share/campusfound/uploads"
	defaultStagingDir      = "~/.local/share/campusfound/staging"
	defaultLockPath        = "~/.local/share/campusfound/automatch.lock"
	defaultMaxImageBytes   = 10 << 20
	defaultMaxImages       = 5
	defaultMaxDimension    = 1600
	defaultTopN            = 5
	defaultMinScore        = 50
	defaultDateWindowDays  = 30
	defaultIdentifierFloor = 80
	defaultMinDescription  = 20
	defaultAutoReject      = "Item was claimed by another user"
	defaultQueueSize       = 100
	defaultMaxAttempts     = 3
	defaultInitialBackoff  = 1
	defaultMaxBackoff      = 30
	defaultLogLevel        = "info"
	defaultLogFormat       = "auto"
	defaultTokenTTLHours   = 7 * 24
	defaultAdminUsername   = "admin"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            defaultAddr,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Database: Database{
			Path: defaultDatabasePath,
		},
		Storage: Storage{
			UploadDir:     defaultUploadDir,
			StagingDir:    defaultStagingDir,
			MaxImageBytes: defaultMaxImageBytes,
			MaxImages:     defaultMaxImages,
			MaxDimension:  defaultMaxDimension,
		},
		Matching: Matching{
			TopN:            defaultTopN,
			MinScore:        defaultMinScore,
			DateWindowDays:  defaultDateWindowDays,
			IdentifierFloor: defaultIdentifierFloor,
			LockPath:        defaultLockPath,
			Weights: Weights{
				Category: 25,
				Text:     35,
				Date:     20,
				Location: 20,
			},
		},
		Claims: Claims{
			MinDescriptionLength: defaultMinDescription,
			AutoRejectReason:     defaultAutoReject,
		},
		Mail: Mail{
			QueueSize:      defaultQueueSize,
			MaxAttempts:    defaultMaxAttempts,
			InitialBackoff: defaultInitialBackoff,
			MaxBackoff:     defaultMaxBackoff,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Auth: Auth{
			TokenTTLHours: defaultTokenTTLHours,
			AdminUsername: defaultAdminUsername,
		},
	}
}
