package main

import (
	"StrokeRecorder/internal/adapter/ws"
	"StrokeRecorder/internal/app/session"
	"StrokeRecorder/internal/clock"
	"StrokeRecorder/internal/config"
	"StrokeRecorder/internal/service/events"
	"StrokeRecorder/internal/service/export"
	"StrokeRecorder/internal/service/notify"
	"StrokeRecorder/internal/service/player"
	"StrokeRecorder/internal/service/raster"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// создаём регистратор zap: в дебаге — development, иначе production
	newLogger := zap.NewProduction
	if cfg.DebugMode {
		newLogger = zap.NewDevelopment
	}
	logger, err := newLogger()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Debugw("Failed to sync logger", "error", err)
		}
	}()

	if err := cfg.Validate(); err != nil {
		sugar.Fatalw("Invalid configuration", "error", err)
	}

	sugar.Infow(
		"Starting recorder",
		"DebugMode", cfg.DebugMode,
		"BindAddr", cfg.BindAddr,
		"InactivityTimeoutMs", cfg.InactivityTimeoutMs,
		"ExportDir", cfg.ExportDir,
		"SoundEnabled", cfg.SoundEnabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Звуковой сигнал завершения символа. Общий динамик, выключатель — на подключение.
	cue := notify.NewSoundNotifier(sugar.Named("cue"), player.NewWithVolume(cfg.CueVolumeDB), notify.Config{
		Enabled:     true,
		SoundPath:   cfg.CueSoundPath,
		FrequencyHz: cfg.CueFrequencyHz,
		Duration:    cfg.CueDuration,
	})

	renderer := raster.Renderer{
		SurfaceWidth:  cfg.SurfaceWidth,
		SurfaceHeight: cfg.SurfaceHeight,
		ThumbnailSize: cfg.ThumbnailSize,
		StrokeWidth:   cfg.StrokeWidth,
	}
	clk := clock.NewSystem()
	registry := session.NewRegistry()
	sessionLog := sugar.Named("session")

	surface := ws.NewHandler(ws.Options{
		Registry: registry,
		NewSession: func(id string, p session.Presenter, c session.Cue) *session.Session {
			return session.New(session.Options{
				ID:        id,
				Clock:     clk,
				Timeout:   cfg.InactivityTimeout(),
				Renderer:  renderer,
				Columns:   cfg.GridColumns,
				Presenter: p,
				Cue:       c,
				Logger:    sessionLog,
			})
		},
		Cue:          cue,
		Saver:        export.NewWriter(cfg.ExportDir),
		SoundEnabled: cfg.SoundEnabled,
		TimeoutStep:  time.Duration(cfg.TimeoutStepMs) * time.Millisecond,
		MinTimeout:   time.Duration(cfg.MinTimeoutMs) * time.Millisecond,
		Logger:       sugar.Named("ws"),
	})

	// Очистка старых экспортов (если задан срок хранения)
	if cfg.ExportRetention > 0 {
		cleaner := export.NewCleaner(sugar.Named("cleaner"), cfg.ExportDir, cfg.ExportRetention)
		cleaner.Clean(time.Now())
		go cleaner.Run(ctx, max(cfg.ExportRetention/4, time.Minute))
	}

	srv := events.NewServer(events.Config{BindAddr: cfg.BindAddr, WSPath: cfg.WSPath}, registry, surface, sugar.Named("http"))
	if err := srv.Start(ctx); err != nil {
		sugar.Errorw("Failed to start capture server", "error", err)
		return
	}
	sugar.Infow("Capture surface endpoint", "url", "ws://"+srv.Addr()+cfg.WSPath)

	<-ctx.Done()
	sugar.Infow("Shutting down", "sessions", registry.Len())
	// Stop ждёт остановку, даже если её уже начал Start по отмене ctx
	if err := srv.Stop(context.Background()); err != nil {
		sugar.Warnw("Server stop failed", "error", err)
	}
	// Shutdown не трогает захваченные WebSocket-соединения
	surface.Close()
	if n := registry.CloseAll(); n > 0 {
		sugar.Warnw("Sessions left after surface close", "sessions", n)
	}
}
