package config

const (
	defaultDataDir  = "~/.local/share/scribe/data"
	defaultLogDir   = "~/.local/share/scribe/logs"
	defaultWorkDir  = "~/.local/share/scribe/work"
	defaultAPIBind  = "127.0.0.1:8273"
	defaultLogLevel = "info"
	defaultLogFmt   = "console"

	defaultBrokerAddr    = "127.0.0.1:6379"
	defaultBrokerQueue   = "scribe:jobs"
	defaultEnqueuePolicy = EnqueueLeave

	// Whisper tasks routinely run for hours on CPU hosts. The hard limit
	// leaves the engine an hour beyond the soft limit for cleanup.
	defaultSoftTimeLimit = 3 * 60 * 60
	defaultHardTimeLimit = 4 * 60 * 60
	defaultMaxAttempts   = 2
	defaultReceiveBlock  = 5

	defaultWhisperModel  = "base"
	defaultWhisperBinary = "whisper"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			WorkDir: defaultWorkDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Broker: Broker{
			Addr:          defaultBrokerAddr,
			Queue:         defaultBrokerQueue,
			EnqueuePolicy: defaultEnqueuePolicy,
		},
		Worker: Worker{
			SoftTimeLimit: defaultSoftTimeLimit,
			HardTimeLimit: defaultHardTimeLimit,
			MaxAttempts:   defaultMaxAttempts,
			ReceiveBlock:  defaultReceiveBlock,
		},
		Whisper: Whisper{
			Model:  defaultWhisperModel,
			Binary: defaultWhisperBinary,
		},
		Logging: Logging{
			Format: defaultLogFmt,
			Level:  defaultLogLevel,
		},
	}
}
