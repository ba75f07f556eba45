package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"tempopitch/playback"
	"tempopitch/prefs"
)

const version = "1.0.0"

func printVersion() {
	fmt.Printf("tempopitchd v%s\n", version)
	fmt.Println("Playback speed and pitch control daemon")
}

func printUsage() {
	printVersion()
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  tempopitchd [OPTIONS]")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Owns the tempo/pitch control session of a media player. Control events")
	fmt.Println("  arrive over a Unix socket, an HTTP API and Linux input devices; applied")
	fmt.Println("  values are streamed to WebSocket clients.")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -config string")
	fmt.Println("        YAML config file (optional)")
	fmt.Println()
	fmt.Println("  -tempo float")
	fmt.Printf("        Initial tempo multiplier (default %.2f)\n", playback.DefaultTempo)
	fmt.Println()
	fmt.Println("  -pitch float")
	fmt.Printf("        Initial pitch multiplier (default %.2f)\n", playback.DefaultPitch)
	fmt.Println()
	fmt.Println("  -skip-silence")
	fmt.Println("        Initial skip-silence flag (default false)")
	fmt.Println()
	fmt.Println("  -step-size float")
	fmt.Printf("        Step size: 0.01, 0.05, 0.10, 0.25 or 1.00 (default %.2f)\n", float64(playback.DefaultStepSize))
	fmt.Println()
	fmt.Println("  -state-file string")
	fmt.Println("        Keep applied values and any open session across restarts")
	fmt.Println()
	fmt.Println("  -prefs-backend string")
	fmt.Println("        Preference backend: yaml|sqlite|memory (default \"yaml\")")
	fmt.Println()
	fmt.Println("  -prefs-path string")
	fmt.Printf("        Preference file or database (default %q)\n", defaultPrefsPath)
	fmt.Println()
	fmt.Println("  -ipc-socket string")
	fmt.Printf("        Unix domain socket path for IPC (default %q)\n", defaultSocketPath)
	fmt.Println()
	fmt.Println("  -http")
	fmt.Println("        Enable the HTTP API and state stream (default true)")
	fmt.Println()
	fmt.Println("  -http-addr string")
	fmt.Printf("        HTTP listen address (default %q)\n", defaultHTTPAddr)
	fmt.Println()
	fmt.Println("  -input-devices string")
	fmt.Println("        Comma-separated Linux input devices (e.g. /dev/input/event4)")
	fmt.Println()
	fmt.Println("  -log-level string")
	fmt.Println("        Log level: error, warn, info, debug (default \"info\")")
	fmt.Println()
	fmt.Println("  -log-format string")
	fmt.Println("        Log format: text|json (default \"text\")")
	fmt.Println()
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println()
	fmt.Println("  -help")
	fmt.Println("        Print this help message")
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  TEMPOPITCH_* variables override the config file; flags override both.")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Start daemon with default settings")
	fmt.Println("  tempopitchd")
	fmt.Println()
	fmt.Println("  # SQLite preferences and an IR remote")
	fmt.Println("  tempopitchd -prefs-backend sqlite -prefs-path ~/.config/tempopitch/prefs.db -input-devices /dev/input/event4")
	fmt.Println()
	fmt.Println("NOTES:")
	fmt.Println("  - Input devices need read access (run as root or add user to 'input' group)")
	fmt.Println("  - Up/Down step tempo, Left/Right step pitch, PageUp/PageDown step semitones")
	fmt.Println("  - Enter/OK accepts, Esc/Back cancels, Home resets")
	fmt.Println()
}

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" {
			printVersion()
			return
		}
		if arg == "-help" || arg == "--help" || arg == "-h" {
			printUsage()
			return
		}
	}

	var (
		configPath   = flag.String("config", "", "YAML config file")
		tempo        = flag.Float64("tempo", playback.DefaultTempo, "Initial tempo multiplier")
		pitch        = flag.Float64("pitch", playback.DefaultPitch, "Initial pitch multiplier")
		skipSilence  = flag.Bool("skip-silence", playback.DefaultSkipSilence, "Initial skip-silence flag")
		stepSize     = flag.Float64("step-size", float64(playback.DefaultStepSize), "Step size")
		stateFile    = flag.String("state-file", "", "State file kept across restarts")
		prefsBackend = flag.String("prefs-backend", prefs.BackendYAML, "Preference backend: yaml|sqlite|memory")
		prefsPath    = flag.String("prefs-path", defaultPrefsPath, "Preference file or database")
		ipcSocket    = flag.String("ipc-socket", defaultSocketPath, "Unix domain socket path for IPC")
		httpEnabled  = flag.Bool("http", true, "Enable the HTTP API and state stream")
		httpAddr     = flag.String("http-addr", defaultHTTPAddr, "HTTP listen address")
		inputDevices = flag.String("input-devices", "", "Comma-separated Linux input devices")
		logLevelStr  = flag.String("log-level", "info", "Log level: error, warn, info, debug")
		logFormat    = flag.String("log-format", "text", "Log format: text|json")
	)

	flag.Usage = printUsage
	flag.Parse()

	cfg := DefaultConfig()
	if *configPath != "" {
		fileCfg, err := LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		cfg = fileCfg
	}
	if err := ApplyEnv(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	// Only flags given on the command line override file and env.
	var o FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "tempo":
			o.Tempo = tempo
		case "pitch":
			o.Pitch = pitch
		case "skip-silence":
			o.SkipSilence = skipSilence
		case "step-size":
			o.StepSize = stepSize
		case "state-file":
			o.StateFile = stateFile
		case "prefs-backend":
			o.PrefsBackend = prefsBackend
		case "prefs-path":
			o.PrefsPath = prefsPath
		case "ipc-socket":
			o.IPCSocketPath = ipcSocket
		case "http":
			o.HTTPEnabled = httpEnabled
		case "http-addr":
			o.HTTPAddr = httpAddr
		case "input-devices":
			o.InputDevices = inputDevices
		case "log-level":
			o.LogLevel = logLevelStr
		case "log-format":
			o.LogFormat = logFormat
		}
	})
	o.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	logLevel, _ := parseLogLevel(cfg.Logging.Level)
	logger := setupLogger(os.Stderr, logLevel, cfg.Logging.Format)

	if err := run(cfg, logger); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

// run wires the daemon together and blocks until SIGINT/SIGTERM.
func run(cfg Config, logger *slog.Logger) error {
	backend, err := prefs.Open(cfg.Preferences.Backend, ExpandPath(cfg.Preferences.Path))
	if err != nil {
		return fmt.Errorf("open preferences: %w", err)
	}
	defer backend.Close()

	seed, err := loadPreferences(backend)
	if err != nil {
		return err
	}

	reduceCfg := ReduceConfig{SessionLogger: logger.With("component", "session")}
	state := NewDaemonState(cfg.InitialValues(), cfg.StepSize(), seed)

	stateFile := ExpandPath(cfg.Session.StateFile)
	if stateFile != "" {
		ps, err := loadStateFile(stateFile)
		if err != nil {
			logger.Warn("ignoring state file", "path", stateFile, "error", err)
		} else if err := state.applyPersisted(ps, reduceCfg); err != nil {
			logger.Warn("ignoring persisted session", "path", stateFile, "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := make(chan Event, eventQueueSize)
	var broadcasts chan StateBroadcast

	var wg sync.WaitGroup
	goRun := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.Error(name+" stopped", "error", err)
				stop()
			}
		}()
	}

	if cfg.HTTP.Enabled {
		broadcasts = make(chan StateBroadcast, broadcastQueueSize)
		ws := NewStateServer(logger, events, HubConfig{SendBuf: cfg.HTTP.WSSendBuf})
		router := newRouter(events, ws, logger)

		wg.Add(2)
		go func() { defer wg.Done(); ws.Hub().Run(ctx) }()
		go func() { defer wg.Done(); RunBroadcaster(ctx, ws.Hub(), broadcasts, logger) }()

		goRun("http server", func() error {
			return runHTTPServer(ctx, cfg.HTTP.Addr, router, logger)
		})
	}

	goRun("ipc server", func() error {
		return runIPCServer(ctx, ExpandPath(cfg.IPC.SocketPath), events, logger)
	})

	if len(cfg.Input.Devices) > 0 {
		goRun("input", func() error {
			return runInput(ctx, cfg.Input.Devices, events, logger)
		})
	}

	logger.Info("tempopitchd started",
		"version", version,
		"tempo", state.Applied.Tempo,
		"pitch", state.Applied.Pitch,
		"step_size", float64(state.StepSize),
		"session_restored", state.sessionOpen(),
		"prefs_backend", cfg.Preferences.Backend,
		"ipc", cfg.IPC.SocketPath,
		"http", cfg.HTTP.Enabled,
		"http_addr", cfg.HTTP.Addr,
		"input_devices", cfg.Input.Devices)

	final := runDaemon(ctx, events, broadcasts, backend, state, reduceCfg, logger)

	logger.Info("shutting down")
	stop()

	waitDone := make(chan struct{})
	go func() { wg.Wait(); close(waitDone) }()
	select {
	case <-waitDone:
	case <-time.After(5 * time.Second):
		logger.Warn("timed out waiting for servers to stop")
	}

	if stateFile != "" && final != nil {
		if err := saveStateFile(stateFile, final); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		logger.Info("state saved", "path", stateFile)
	}
	return nil
}

// loadPreferences seeds the daemon's preference cache from the backend.
func loadPreferences(backend prefs.Backend) (map[string]bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
	defer cancel()

	seed := make(map[string]bool, 2)
	for _, key := range []string{playback.PrefCoupled, playback.PrefSemitoneMode} {
		v, ok, err := backend.Load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load preference %s: %w", key, err)
		}
		if ok {
			seed[key] = v
		}
	}
	return seed, nil
}
