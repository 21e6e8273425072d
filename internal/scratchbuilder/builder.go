package scratchbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/Cheese-scratch-card/internal/config"
	"github.com/park285/Cheese-scratch-card/internal/gameapi"
	"github.com/park285/Cheese-scratch-card/internal/msgcat"
	"github.com/park285/Cheese-scratch-card/internal/playlog"
	"github.com/park285/Cheese-scratch-card/internal/prize"
	"github.com/park285/Cheese-scratch-card/internal/scratch"
	"github.com/park285/Cheese-scratch-card/internal/session"
	"github.com/park285/Cheese-scratch-card/internal/sessionstore"
	"github.com/park285/Cheese-scratch-card/pkg/scratchdto"
	"go.uber.org/zap"
)

const localOwner = "local"

type Deps struct {
	Client     *gameapi.Client
	Messages   *msgcat.Catalog
	Prizes     *prize.Catalog
	Store      session.ActiveStore
	Rounds     playlog.Repository
	Controller *session.Controller
	Engine     scratch.Options
	Owner      string

	closers []func() error
}

// New wires the game client, stores and session controller from config.
// Redis and Postgres are optional; in-memory fallbacks are used when their
// URLs are unset.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Deps{Owner: strings.TrimSpace(cfg.UserID)}
	if d.Owner == "" {
		d.Owner = localOwner
	}

	msgs, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	d.Messages = msgs

	prizes, err := prize.New(cfg.PrizesFile)
	if err != nil {
		return nil, fmt.Errorf("load prizes: %w", err)
	}
	d.Prizes = prizes

	d.Client = gameapi.NewClient(cfg.APIBaseURL,
		gameapi.WithTimeout(cfg.HTTPTimeout),
		gameapi.WithHeaderProvider(gameapi.SessionHeaders(cfg.SessionCookie, cfg.XSRFToken)),
		gameapi.WithLogger(logger.Named("gameapi")),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Active session store (Redis optional)
	if strings.TrimSpace(cfg.RedisURL) != "" {
		rs, err := sessionstore.Open(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("init session store: %w", err)
		}
		d.Store = rs
		d.closers = append(d.closers, rs.Close)
	} else {
		d.Store = sessionstore.NewMemoryStore()
	}

	// Round archive (Postgres optional)
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		repo, closeDB, err := playlog.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("init playlog: %w", err)
		}
		d.Rounds = repo
		d.closers = append(d.closers, closeDB)
	} else {
		d.Rounds = playlog.NewMemoryRepository()
	}

	d.Controller = session.New(d.Client,
		session.WithPollInterval(cfg.PollInterval),
		session.WithLogger(logger.Named("session")),
		session.WithMessages(msgs),
		session.WithOrderedApply(cfg.OrderedApply),
		session.WithActiveStore(d.Store, d.Owner),
		session.WithStartDefaults(scratchdto.StartRequest{Size: cfg.GridSize, DurationSeconds: cfg.DurationSec}),
	)

	d.Engine = scratch.Options{
		BrushRadius:      cfg.BrushRadius,
		RevealThreshold:  cfg.RevealThreshold,
		SampleStep:       cfg.SampleStep,
		StrokesPerCheck:  cfg.StrokesPerCheck,
		MinWidth:         cfg.CanvasMinWidth,
		MinHeight:        cfg.CanvasMinHeight,
		DevicePixelRatio: cfg.DevicePixelRatio,
	}
	return d, nil
}

// EntryText renders play log lines through the message catalog.
func (d *Deps) EntryText(p prize.Prize) string {
	key := "play.lose"
	if p.Kind == prize.KindWin {
		key = "play.win"
	}
	s, err := d.Messages.Render(key, map[string]string{"Label": p.Label, "Sub": p.Sub})
	if err != nil {
		return prize.DefaultEntryText(p)
	}
	return s
}

// PlayLog fetches the server history of the owner mapped through the prize
// catalog.
func (d *Deps) PlayLog(ctx context.Context) ([]prize.LogEntry, error) {
	items, err := d.Client.History(ctx, d.Owner)
	if err != nil {
		return nil, err
	}
	return d.Prizes.PlayLog(items, d.EntryText), nil
}

// Close stops the controller and releases stores.
func (d *Deps) Close() {
	if d == nil {
		return
	}
	if d.Controller != nil {
		d.Controller.Close()
	}
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
	d.closers = nil
}
