package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"playoutd/internal/api/rpc"
	"playoutd/internal/app"
	"playoutd/internal/domain"
	"playoutd/internal/metrics"
	"playoutd/internal/services/notify/mail"
	"playoutd/internal/services/playout/clock"
	"playoutd/internal/services/playout/decoder"
	"playoutd/internal/services/playout/iterator"
	"playoutd/internal/services/playout/loader"
	"playoutd/internal/services/playout/status"
	"playoutd/internal/services/playout/watchdog"
	"playoutd/internal/telemetry"
)

func main() {
	flags := parseFlags()

	cfg := app.LoadConfig()
	applyFlagOverrides(&cfg, flags)

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, flags.logPath)
	slog.SetDefault(logger)

	if flags.generate != "" {
		if err := runGenerate(cfg, flags, logger); err != nil {
			logger.Error("generate failed", "error", err)
			os.Exit(1)
		}
		return
	}

	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "playoutd")
	if err != nil {
		logger.Warn("otel init failed", "error", err)
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		"rpcAddr", cfg.RPCAddr,
		"playlistRoot", cfg.PlaylistRoot,
		"dayLengthSec", cfg.DayLengthSec,
		"playMode", flags.playMode,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	statusStore := status.New(cfg.StatusFilePath, logger)
	timeShift, date, _ := statusStore.Read()
	playoutStatus := domain.NewPlayoutStatus(timeShift, date)
	player := domain.NewPlayerControl()
	proc := domain.NewProcessControl()

	ld := loader.New(loader.Config{
		Root:         cfg.PlaylistRoot,
		URLPrefix:    cfg.PlaylistURLPrefix,
		DayStartSec:  cfg.DayStartSec,
		DayLengthSec: cfg.DayLengthSec,
		DummyLenSec:  cfg.DummyLenSec,
	}, nil, nil, logger)

	decoderSupervisor := decoder.NewProcessSupervisor(flags.ffmpegBinary, logger)

	var mailNotifier *mail.Notifier
	if cfg.NotifyMailAddress != "" {
		mailNotifier = mail.New(cfg.MailjetPublicKey, cfg.MailjetPrivateKey, cfg.NotifyMailSender, cfg.NotifyMailAddress, logger)
		defer mailNotifier.Close()
	}

	iterCfg := iterator.Config{
		DayStartSec:      cfg.DayStartSec,
		DayLengthSec:     cfg.DayLengthSec,
		SyncThresholdSec: cfg.SyncThresholdSec,
		StopThresholdSec: cfg.StopThresholdSec,
		DummyLenSec:      cfg.DummyLenSec,
		Bounded:          flags.length != "" && flags.length != "none",
	}

	rpcServer := rpc.NewServer(player, playoutStatus, proc, clock.Config{
		DayStartSec:      cfg.DayStartSec,
		DayLengthSec:     cfg.DayLengthSec,
		SyncThresholdSec: cfg.SyncThresholdSec,
	},
		rpc.WithStatusStore(statusStore),
		rpc.WithDecoderSupervisor(decoderSupervisor),
		rpc.WithSharedSecret(cfg.RPCSharedSecret),
		rpc.WithPlayMode(flags.playMode),
		rpc.WithRateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		rpc.WithCORSOrigins(cfg.CORSAllowedOrigins),
		rpc.WithLogger(logger),
	)
	defer rpcServer.Close()

	itOpts := []iterator.Option{
		iterator.WithSnapshotHook(rpcServer.PublishSnapshot),
	}
	if mailNotifier != nil {
		itOpts = append(itOpts, iterator.WithNotifier(mailNotifier))
	}

	it := iterator.New(iterCfg, ld, statusStore, decoder.FileValidator{}, decoder.FFmpegCommandBuilder{},
		player, playoutStatus, proc, logger, itOpts...)

	if err := it.Bootstrap(rootCtx); err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	watchdogJob, err := watchdog.New(cfg.CronRolloverSpec, it, logger)
	if err != nil {
		logger.Warn("watchdog init failed", "error", err)
	} else {
		watchdogJob.Start()
		defer watchdogJob.Stop()
	}

	go runPlaybackLoop(rootCtx, it, decoderSupervisor, logger)

	srv := &http.Server{
		Addr:              cfg.RPCAddr,
		Handler:           rpcServer,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("playoutd started", "addr", cfg.RPCAddr)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("rpc shutdown error", "error", err)
	}
	_ = decoderSupervisor.Kill(shutdownCtx)
	logger.Info("playoutd stopped")
}

// runPlaybackLoop drives the Iterator against the external decoder: each
// emitted Media starts the decoder argv, the loop waits out the clip's
// scheduled length (out - seek, or the context being cancelled) and then
// kills the decoder before requesting the next item, mirroring the "one
// decoder instance per clip" lifecycle the spec treats as the Decoder
// collaborator's responsibility.
func runPlaybackLoop(ctx context.Context, it *iterator.Iterator, dec *decoder.ProcessSupervisor, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		media := it.Next(ctx)
		if len(media.Cmd) == 0 {
			time.Sleep(time.Second)
			continue
		}

		if err := dec.Start(ctx, media.Cmd); err != nil {
			logger.Error("playback: decoder start failed", "source", media.Source, "error", err)
			time.Sleep(time.Second)
			continue
		}

		waitCtx, cancel := context.WithTimeout(ctx, durationOf(media))
		<-waitCtx.Done()
		cancel()
		_ = dec.Kill(context.Background())
	}
}

func durationOf(m domain.Media) time.Duration {
	secs := m.Out - m.Seek
	if secs <= 0 {
		return time.Second
	}
	return time.Duration(secs * float64(time.Second))
}

type cliFlags struct {
	configPath   string
	logPath      string
	generate     string
	playMode     string
	folder       string
	playlist     string
	start        string
	length       string
	infinit      bool
	output       string
	volume       float64
	ffmpegBinary string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "path to a config file (unused: configuration is environment-driven)")
	flag.StringVar(&f.logPath, "log", "", "path to a log file (default: stderr)")
	flag.StringVar(&f.generate, "generate", "", "generate and print the playlist for a date (YYYY-MM-DD) and exit")
	flag.StringVar(&f.playMode, "play-mode", "playlist", "playback mode: folder or playlist")
	flag.StringVar(&f.folder, "folder", "", "folder to play when -play-mode=folder")
	flag.StringVar(&f.playlist, "playlist", "", "explicit playlist file to load, overriding date-based lookup")
	flag.StringVar(&f.start, "start", "now", "schedule start time, hh:mm:ss or now")
	flag.StringVar(&f.length, "length", "none", "schedule length, hh:mm:ss or none for unbounded")
	flag.BoolVar(&f.infinit, "infinit", false, "loop the folder/playlist indefinitely")
	flag.StringVar(&f.output, "output", "desktop", "output sink: desktop, hls or stream")
	flag.Float64Var(&f.volume, "volume", 1.0, "output volume multiplier")
	flag.StringVar(&f.ffmpegBinary, "ffmpeg", "ffmpeg", "path to the ffmpeg binary the decoder supervisor runs")
	flag.Parse()
	return f
}

func applyFlagOverrides(cfg *app.Config, f cliFlags) {
	if f.playlist != "" {
		cfg.PlaylistRoot = f.playlist
	}
}

func runGenerate(cfg app.Config, f cliFlags, logger *slog.Logger) error {
	ld := loader.New(loader.Config{
		Root:         cfg.PlaylistRoot,
		URLPrefix:    cfg.PlaylistURLPrefix,
		DayStartSec:  cfg.DayStartSec,
		DayLengthSec: cfg.DayLengthSec,
		DummyLenSec:  cfg.DummyLenSec,
	}, nil, nil, logger)

	day, err := time.ParseInLocation("2006-01-02", f.generate, time.Local)
	if err != nil {
		return fmt.Errorf("parse --generate date %q: %w", f.generate, err)
	}
	ld.Now = func() time.Time { return day }

	pl, err := ld.Load(context.Background(), f.playlist, 0)
	if err != nil {
		return fmt.Errorf("load playlist for %s: %w", f.generate, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pl)
}

func newLogger(levelRaw, formatRaw, logPath string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	opts := &slog.HandlerOptions{Level: level}

	dest := os.Stderr
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			dest = os.Stderr
		} else {
			dest = f
		}
	}

	if strings.ToLower(strings.TrimSpace(formatRaw)) == "json" {
		return slog.New(slog.NewJSONHandler(dest, opts))
	}
	return slog.New(slog.NewTextHandler(dest, opts))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
