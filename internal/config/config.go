package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	APIBaseURL    string
	UserID        string
	SessionCookie string
	XSRFToken     string

	GridSize         int
	DurationSec      int
	PollInterval     time.Duration
	HTTPTimeout      time.Duration
	OrderedApply     bool
	BrushRadius      float64
	RevealThreshold  float64
	SampleStep       int
	StrokesPerCheck  int
	CanvasMinWidth   int
	CanvasMinHeight  int
	DevicePixelRatio float64

	RedisURL    string
	DatabaseURL string

	MessagesDir string
	PrizesFile  string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		GridSize:         40,
		DurationSec:      300,
		PollInterval:     3000 * time.Millisecond,
		HTTPTimeout:      10 * time.Second,
		BrushRadius:      26,
		RevealThreshold:  0.62,
		SampleStep:       8,
		StrokesPerCheck:  12,
		CanvasMinWidth:   280,
		CanvasMinHeight:  160,
		DevicePixelRatio: 1,
	}

	cfg.APIBaseURL = strings.TrimSpace(os.Getenv("SCRATCH_API_BASE_URL"))
	cfg.UserID = strings.TrimSpace(os.Getenv("SCRATCH_USER_ID"))
	cfg.SessionCookie = strings.TrimSpace(os.Getenv("SCRATCH_SESSION_COOKIE"))
	cfg.XSRFToken = strings.TrimSpace(os.Getenv("SCRATCH_XSRF_TOKEN"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("SCRATCH_MESSAGES_DIR"))
	cfg.PrizesFile = strings.TrimSpace(os.Getenv("SCRATCH_PRIZES_FILE"))

	// grid size 0 selects continuous canvas mode
	if n, ok := envInt("SCRATCH_GRID_SIZE"); ok && n >= 0 {
		cfg.GridSize = n
	}
	if n, ok := envInt("SCRATCH_DURATION_SEC"); ok && n > 0 {
		cfg.DurationSec = n
	}
	if n, ok := envInt("SCRATCH_POLL_INTERVAL_MS"); ok && n > 0 {
		cfg.PollInterval = time.Duration(n) * time.Millisecond
	}
	if n, ok := envInt("SCRATCH_HTTP_TIMEOUT_MS"); ok && n > 0 {
		cfg.HTTPTimeout = time.Duration(n) * time.Millisecond
	}
	if v := strings.TrimSpace(os.Getenv("SCRATCH_ORDERED_APPLY")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OrderedApply = b
		}
	}
	if f, ok := envFloat("SCRATCH_BRUSH_RADIUS"); ok && f > 0 {
		cfg.BrushRadius = f
	}
	if f, ok := envFloat("SCRATCH_REVEAL_THRESHOLD"); ok && f > 0 && f <= 1 {
		cfg.RevealThreshold = f
	}
	if n, ok := envInt("SCRATCH_SAMPLE_STEP"); ok && n > 0 {
		cfg.SampleStep = n
	}
	if n, ok := envInt("SCRATCH_STROKES_PER_CHECK"); ok && n > 0 {
		cfg.StrokesPerCheck = n
	}
	if n, ok := envInt("SCRATCH_CANVAS_MIN_WIDTH"); ok && n > 0 {
		cfg.CanvasMinWidth = n
	}
	if n, ok := envInt("SCRATCH_CANVAS_MIN_HEIGHT"); ok && n > 0 {
		cfg.CanvasMinHeight = n
	}
	if f, ok := envFloat("SCRATCH_DEVICE_PIXEL_RATIO"); ok && f >= 1 {
		cfg.DevicePixelRatio = f
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("SCRATCH_API_BASE_URL is required")
	}
	return cfg, nil
}

func envInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
