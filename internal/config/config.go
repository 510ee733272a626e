package config

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DebugMode bool   `env:"DEBUG_MODE"` // Режим дебага: development-логгер, уровень debug
	BindAddr  string `env:"BIND_ADDR"`  // Адрес HTTP-сервера, напр. 127.0.0.1:8080
	WSPath    string `env:"WS_PATH"`    // HTTP-путь WebSocket для событий указателя

	// Сегментация
	InactivityTimeoutMs int `env:"INACTIVITY_TIMEOUT_MS"` // Таймаут бездействия, после которого символ считается законченным
	TimeoutStepMs       int `env:"TIMEOUT_STEP_MS"`       // Шаг изменения таймаута командами timeout_up/timeout_down
	MinTimeoutMs        int `env:"MIN_TIMEOUT_MS"`        // Ниже этого значения timeout_down таймаут не уменьшает

	// Поверхность и растр
	SurfaceWidth  int     `env:"SURFACE_WIDTH"`  // Ширина поверхности захвата, px
	SurfaceHeight int     `env:"SURFACE_HEIGHT"` // Высота поверхности захвата, px
	ThumbnailSize int     `env:"THUMBNAIL_SIZE"` // Сторона миниатюры символа, px
	StrokeWidth   float64 `env:"STROKE_WIDTH"`   // Толщина линии при рендере миниатюр
	GridColumns   int     `env:"GRID_COLUMNS"`   // Миниатюр в строке итогового PNG

	// Экспорт
	ExportDir       string        `env:"EXPORT_DIR"`       // Каталог для файлов save_json/save_png
	ExportRetention time.Duration `env:"EXPORT_RETENTION"` // Через сколько удалять старые экспорты; 0 — не удалять

	// Звуковой сигнал
	SoundEnabled   bool          `env:"SOUND_ENABLED"`    // Сигнал после финализации символа
	CueSoundPath   string        `env:"CUE_SOUND_PATH"`   // wav|mp3; пусто — синтезированный тон
	CueFrequencyHz float64       `env:"CUE_FREQUENCY_HZ"` // Частота тона
	CueDuration    time.Duration `env:"CUE_DURATION"`     // Длительность тона
	CueVolumeDB    float64       `env:"CUE_VOLUME_DB"`    // Громкость в dB (отрицательные — тише)
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:           false,
		BindAddr:            "127.0.0.1:8080",
		WSPath:              "/ws",
		InactivityTimeoutMs: 1000,
		TimeoutStepMs:       50,
		MinTimeoutMs:        100,
		SurfaceWidth:        200,
		SurfaceHeight:       200,
		ThumbnailSize:       80,
		StrokeWidth:         5,
		GridColumns:         10,
		ExportDir:           "exports",
		ExportRetention:     0,
		SoundEnabled:        true,
		CueFrequencyHz:      880,
		CueDuration:         80 * time.Millisecond,
		CueVolumeDB:         0,
	}
}

// NewConfig загружает конфигурацию приложения: дефолты → .env → окружение → флаги.
func NewConfig() *Config {
	return Load(flag.CommandLine, nil)
}

// Load — NewConfig с явным набором флагов и аргументами (для тестов и вложенных команд).
// args == nil при flag.CommandLine — разбираем os.Args.
func Load(fs *flag.FlagSet, args []string) *Config {
	_ = godotenv.Load()

	cfg := Defaults()
	_ = env.Parse(cfg)

	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага")
	fs.StringVar(&cfg.BindAddr, "bind-addr", cfg.BindAddr, "адрес HTTP-сервера (напр. 127.0.0.1:8080)")
	fs.StringVar(&cfg.WSPath, "ws-path", cfg.WSPath, "HTTP-путь WebSocket")
	// Сегментация
	fs.IntVar(&cfg.InactivityTimeoutMs, "inactivity-timeout-ms", cfg.InactivityTimeoutMs, "таймаут бездействия для завершения символа, мс")
	fs.IntVar(&cfg.TimeoutStepMs, "timeout-step-ms", cfg.TimeoutStepMs, "шаг изменения таймаута, мс")
	fs.IntVar(&cfg.MinTimeoutMs, "min-timeout-ms", cfg.MinTimeoutMs, "порог, ниже которого таймаут не уменьшается, мс")
	// Растр
	fs.IntVar(&cfg.SurfaceWidth, "surface-width", cfg.SurfaceWidth, "ширина поверхности захвата, px")
	fs.IntVar(&cfg.SurfaceHeight, "surface-height", cfg.SurfaceHeight, "высота поверхности захвата, px")
	fs.IntVar(&cfg.ThumbnailSize, "thumbnail-size", cfg.ThumbnailSize, "сторона миниатюры, px")
	fs.Float64Var(&cfg.StrokeWidth, "stroke-width", cfg.StrokeWidth, "толщина линии миниатюр")
	fs.IntVar(&cfg.GridColumns, "grid-columns", cfg.GridColumns, "миниатюр в строке PNG")
	// Экспорт
	fs.StringVar(&cfg.ExportDir, "export-dir", cfg.ExportDir, "каталог для файлов экспорта")
	fs.DurationVar(&cfg.ExportRetention, "export-retention", cfg.ExportRetention, "срок хранения экспортов, напр. 24h; 0 — хранить всегда")
	// Звук
	fs.BoolVar(&cfg.SoundEnabled, "sound-enabled", cfg.SoundEnabled, "сигнал после завершения символа")
	fs.StringVar(&cfg.CueSoundPath, "cue-sound-path", cfg.CueSoundPath, "звуковой файл сигнала (mp3 или wav); пусто — тон")
	fs.Float64Var(&cfg.CueFrequencyHz, "cue-frequency-hz", cfg.CueFrequencyHz, "частота тона сигнала, Гц")
	fs.DurationVar(&cfg.CueDuration, "cue-duration", cfg.CueDuration, "длительность тона, напр. 80ms")
	fs.Float64Var(&cfg.CueVolumeDB, "cue-volume-db", cfg.CueVolumeDB, "громкость сигнала, dB")

	if args == nil {
		if fs == flag.CommandLine {
			flag.Parse()
		}
	} else {
		_ = fs.Parse(args)
	}
	return cfg
}

// InactivityTimeout возвращает таймаут бездействия как time.Duration.
func (c *Config) InactivityTimeout() time.Duration {
	return time.Duration(c.InactivityTimeoutMs) * time.Millisecond
}

// Validate проверяет значения, без которых сервис не может работать.
func (c *Config) Validate() error {
	var errs []error
	if c.InactivityTimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("inactivity timeout must be positive, got %d", c.InactivityTimeoutMs))
	}
	if c.TimeoutStepMs <= 0 {
		errs = append(errs, fmt.Errorf("timeout step must be positive, got %d", c.TimeoutStepMs))
	}
	if c.SurfaceWidth <= 0 || c.SurfaceHeight <= 0 {
		errs = append(errs, fmt.Errorf("surface must be non-empty, got %dx%d", c.SurfaceWidth, c.SurfaceHeight))
	}
	if c.ThumbnailSize <= 0 {
		errs = append(errs, fmt.Errorf("thumbnail size must be positive, got %d", c.ThumbnailSize))
	}
	if c.StrokeWidth <= 0 {
		errs = append(errs, fmt.Errorf("stroke width must be positive, got %v", c.StrokeWidth))
	}
	if c.GridColumns <= 0 {
		errs = append(errs, fmt.Errorf("grid columns must be positive, got %d", c.GridColumns))
	}
	if c.BindAddr == "" {
		errs = append(errs, errors.New("bind address is empty"))
	}
	if c.WSPath == "" || c.WSPath[0] != '/' {
		errs = append(errs, fmt.Errorf("ws path must start with '/', got %q", c.WSPath))
	}
	return errors.Join(errs...)
}
