package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brensch/gridsnake/driver"
	"github.com/brensch/gridsnake/engine"
	"github.com/brensch/gridsnake/game"
	"github.com/brensch/gridsnake/logging"
	"github.com/brensch/gridsnake/server"
	"github.com/brensch/gridsnake/settings"
	"github.com/brensch/gridsnake/store"
	"github.com/brensch/gridsnake/tui"
)

func main() {
	def := settings.Default()

	ui := flag.String("ui", getEnvOrDefault("SNAKE_UI", "tui"), "Front end: tui or serve")
	rows := flag.Int("rows", getEnvIntOrDefault("SNAKE_ROWS", def.Rows), "Grid rows")
	cols := flag.Int("cols", getEnvIntOrDefault("SNAKE_COLS", def.Cols), "Grid columns")
	speed := flag.Int("speed", getEnvIntOrDefault("SNAKE_SPEED_MS", def.SpeedMs), "Tick interval in milliseconds")
	mode := flag.String("mode", getEnvOrDefault("SNAKE_MODE", def.Mode.String()), "Edge mode: WALLS_SOLID or WRAP")
	food := flag.Int("food", getEnvIntOrDefault("SNAKE_FOOD", def.Config.InitialFoodCount), "Initial food count")
	bombs := flag.Int("bombs", getEnvIntOrDefault("SNAKE_BOMBS", def.Config.InitialBombCount), "Initial bomb count")
	autoBombs := flag.Bool("auto-bombs", getEnvBoolOrDefault("SNAKE_AUTO_BOMBS", def.Config.AutoBombSpawn), "Spawn a bomb every bomb-interval points")
	bombInterval := flag.Int("bomb-interval", getEnvIntOrDefault("SNAKE_BOMB_INTERVAL", def.Config.BombSpawnInterval), "Score points between auto-spawned bombs")
	listen := flag.String("listen", getEnvOrDefault("SNAKE_LISTEN", ":8080"), "Listen address in serve mode")
	recordDir := flag.String("record-dir", getEnvOrDefault("SNAKE_RECORD_DIR", ""), "Write one parquet file per game here (empty disables)")
	logFormat := flag.String("log-format", getEnvOrDefault("SNAKE_LOG_FORMAT", logging.FormatPretty), "Log format: pretty, json or text")
	logLevel := flag.String("log-level", getEnvOrDefault("SNAKE_LOG_LEVEL", "info"), "Log level")
	logFile := flag.String("log-file", getEnvOrDefault("SNAKE_LOG_FILE", ""), "Log file (tui mode discards logs when empty)")
	seed := flag.Int64("seed", getEnvInt64OrDefault("SNAKE_SEED", 0), "Random seed (0 picks one from the clock)")

	flag.Parse()

	// Checked before anything with a deferred cleanup is set up.
	if err := checkUI(*ui); err != nil {
		log.Fatalf("Invalid -ui: %v", err)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	var logOut io.Writer = os.Stderr
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer f.Close()
		logOut = f
	} else if *ui == "tui" {
		// The terminal belongs to the board.
		logOut = io.Discard
	}
	logger, err := logging.New(logOut, *logFormat, level)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	slog.SetDefault(logger)

	parsedMode, err := game.ParseMode(*mode)
	if err != nil {
		log.Fatalf("Invalid mode: %v", err)
	}
	cfg := settings.Settings{
		Rows:    *rows,
		Cols:    *cols,
		SpeedMs: *speed,
		Mode:    parsedMode,
		Config: game.Config{
			InitialFoodCount:  *food,
			InitialBombCount:  *bombs,
			AutoBombSpawn:     *autoBombs,
			BombSpawnInterval: *bombInterval,
		},
	}.Clamped()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	opts := append(cfg.Options(), engine.WithRand(rand.New(rand.NewSource(*seed))))
	eng := engine.New(opts...)
	logger.Info("engine ready",
		"rows", cfg.Rows, "cols", cfg.Cols, "speed_ms", cfg.SpeedMs, "mode", cfg.Mode,
		"config", cfg.Config, "seed", *seed)

	if *recordDir != "" {
		rec, err := store.NewRecorder(*recordDir, "", logger)
		if err != nil {
			log.Fatalf("Failed to create recorder: %v", err)
		}
		detach := rec.Attach(eng)
		defer func() {
			detach()
			if err := rec.Close(); err != nil {
				logger.Error("close recorder", "err", err)
			}
			logger.Info("recorder closed", "files", len(rec.Files()))
		}()
		logger.Info("recording games", "dir", *recordDir, "session", rec.SessionID())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *ui {
	case "tui":
		if err := tui.Run(eng); err != nil {
			logger.Error("tui exited", "err", err)
		}
	case "serve":
		var srvOpts []server.Option
		if *recordDir != "" {
			srvOpts = append(srvOpts, server.WithArchive(*recordDir))
		}
		if err := serve(ctx, eng, *listen, logger, srvOpts...); err != nil {
			logger.Error("server exited", "err", err)
		}
	}
}

func checkUI(ui string) error {
	switch ui {
	case "tui", "serve":
		return nil
	}
	return fmt.Errorf("unknown front end %q (want tui or serve)", ui)
}

func serve(ctx context.Context, eng *engine.Engine, addr string, logger *slog.Logger, opts ...server.Option) error {
	srv := server.New(eng, logger, opts...)
	defer srv.Close()

	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

	driverDone := make(chan error, 1)
	go func() {
		driverDone <- driver.New(eng, logger).Run(ctx)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "err", err)
		}
	}()

	logger.Info("listening", "addr", addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-driverDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shut down")
	return nil
}
