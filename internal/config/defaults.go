package config

const (
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultProbeWidth  = 4096
	defaultProbeHeight = 2160
	defaultPreviewW    = 1920
	defaultPreviewH    = 1080
	defaultFrameRate   = 30
	defaultJPEGQuality = 85
	defaultFacing      = "environment"
	defaultServerBind  = "127.0.0.1"
	defaultServerPort  = 8090
	defaultRelayURL    = "ws://localhost:8080/ws"
	defaultRelayListen = ":8080"
	defaultHistoryPath = "~/.local/share/camscope/history.db"
	defaultHistoryLim  = 10
	defaultLockDir     = "~/.local/state/camscope"
	defaultDebounceMS  = 750
)

// Default возвращает конфигурацию по умолчанию
func Default() Config {
	return Config{
		Log: Log{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Probe: Probe{
			Width:  defaultProbeWidth,
			Height: defaultProbeHeight,
		},
		Preview: Preview{
			Width:       defaultPreviewW,
			Height:      defaultPreviewH,
			FrameRate:   defaultFrameRate,
			JPEGQuality: defaultJPEGQuality,
			Facing:      defaultFacing,
		},
		Server: Server{
			Bind: defaultServerBind,
			Port: defaultServerPort,
		},
		Relay: Relay{
			URL:    defaultRelayURL,
			Listen: defaultRelayListen,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
			Limit:   defaultHistoryLim,
		},
		Lock: Lock{
			Enabled: true,
			Dir:     defaultLockDir,
		},
		Hotplug: Hotplug{
			Enabled:    true,
			DebounceMS: defaultDebounceMS,
		},
	}
}
