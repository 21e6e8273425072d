package termui

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/park285/Cheese-scratch-card/internal/domain"
	"github.com/park285/Cheese-scratch-card/internal/playlog"
	"github.com/park285/Cheese-scratch-card/internal/prize"
	"github.com/park285/Cheese-scratch-card/internal/scratch"
	"github.com/park285/Cheese-scratch-card/internal/session"
	"github.com/park285/Cheese-scratch-card/pkg/scratchdto"
	"go.uber.org/zap"
)

const (
	tickInterval = 500 * time.Millisecond
	playLogLines = 3
	queueSize    = 256
)

var (
	styleBase   = tcell.StyleDefault
	styleStatus = tcell.StyleDefault.Bold(true)
	styleError  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleCell   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleWin    = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleDim    = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

type Config struct {
	Controller *session.Controller
	Rounds     playlog.Repository
	Prizes     *prize.Catalog
	Messages   Renderer
	PlayLog    func(ctx context.Context) ([]prize.LogEntry, error)
	Engine     scratch.Options
	Owner      string
	Logger     *zap.Logger
}

// interrupt payloads posted from worker goroutines back to the event loop
type (
	roundStarted  struct{ err error }
	playLogLoaded struct{ entries []prize.LogEntry }
)

type scratchJob struct {
	sessionID string
	index     int
}

// App is the terminal front end. The event loop owns the engine and layout;
// network calls run on worker goroutines and report back via PostEvent.
type App struct {
	cfg    Config
	screen tcell.Screen
	port   *scratch.Port
	engine *scratch.Engine
	layout Layout
	hud    *HUD
	game   session.GameState
	logger *zap.Logger
	rng    *rand.Rand

	ctx      context.Context
	jobs     chan scratchJob
	wg       sync.WaitGroup
	dragging bool
	queued   map[int]bool
	archived map[string]bool
	started  time.Time
	prize    prize.Prize
}

func NewApp(screen tcell.Screen, cfg Config) *App {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Prizes == nil {
		cfg.Prizes = prize.Default()
	}
	a := &App{
		cfg:      cfg,
		screen:   screen,
		port:     scratch.NewPort(),
		hud:      NewHUD(cfg.Messages),
		logger:   cfg.Logger,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5c7a7c4)),
		ctx:      context.Background(),
		jobs:     make(chan scratchJob, queueSize),
		queued:   make(map[int]bool),
		archived: make(map[string]bool),
	}
	a.engine = scratch.NewEngine(&a.layout, a.port, cfg.Engine, scratch.Callbacks{
		OnInteractionStart: a.onInteraction,
		OnProgress:         a.onProgress,
		OnRevealed:         a.onRevealed,
	}, cfg.Logger.Named("scratch"))
	return a
}

// Run drives the event loop until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.ctx = ctx

	a.screen.EnableMouse()
	a.relayout()
	if err := a.engine.Initialize(); err != nil {
		a.logger.Warn("engine_init_failed", zap.Error(err))
	}
	defer a.engine.Cleanup()

	a.wg.Add(2)
	go a.scratchWorker(ctx)
	go a.tick(ctx)
	defer a.wg.Wait()
	defer cancel()

	a.game.SetBusy(true)
	a.goRound(a.resumeOrStart)
	a.refreshPlayLog()

	for {
		a.draw()
		ev := a.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}
		if !a.handle(ev) {
			return nil
		}
	}
}

func (a *App) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.screen.Sync()
		a.relayout()
		a.port.DispatchResize()
	case *tcell.EventKey:
		return a.handleKey(ev)
	case *tcell.EventMouse:
		a.handleMouse(ev)
	case *tcell.EventInterrupt:
		a.handleInterrupt(ev.Data())
	}
	return true
}

func (a *App) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q', 'Q':
			return false
		case 'n', 'N':
			a.newGame()
		}
	}
	return true
}

func (a *App) handleMouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	pe := a.layout.Pointer(x, y)
	pressed := ev.Buttons()&tcell.Button1 != 0
	switch {
	case pressed && !a.dragging:
		if !a.layout.InCard(x, y) || !a.canScratch() {
			return
		}
		if err := a.engine.StartScratching(pe); err != nil {
			return
		}
		a.dragging = true
	case pressed:
		a.port.DispatchMove(pe)
	case a.dragging:
		a.port.DispatchUp(pe)
		a.dragging = false
	}
}

func (a *App) handleInterrupt(data any) {
	switch msg := data.(type) {
	case roundStarted:
		a.beginRound(msg.err)
	case playLogLoaded:
		a.game.SetPlayLog(msg.entries)
	default:
		a.checkFinished()
	}
}

func (a *App) canScratch() bool {
	snap := a.cfg.Controller.Snapshot()
	return snap.SessionID != "" && !snap.Finished && !snap.Desynced
}

func (a *App) relayout() {
	w, h := a.screen.Size()
	size := a.cfg.Controller.Snapshot().Size
	a.layout = NewLayout(w, h, size, a.cfg.Engine.MinWidth, a.cfg.Engine.MinHeight)
}

func (a *App) newGame() {
	if a.game.View().Busy {
		return
	}
	a.game.SetBusy(true)
	a.goRound(func(ctx context.Context) error {
		return a.cfg.Controller.StartGame(ctx, scratchdto.StartRequest{})
	})
}

func (a *App) resumeOrStart(ctx context.Context) error {
	err := a.cfg.Controller.ResumeActive(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, session.ErrNoActiveSession) {
		a.logger.Info("resume_failed", zap.Error(err))
	}
	return a.cfg.Controller.StartGame(ctx, scratchdto.StartRequest{})
}

func (a *App) goRound(fn func(ctx context.Context) error) {
	ctx := a.ctx
	a.spawn(func() {
		a.post(roundStarted{err: fn(ctx)})
	})
}

// spawn runs fn on a goroutine that Run waits for before returning.
func (a *App) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

// beginRound resets the local card for whatever session the controller now
// holds.
func (a *App) beginRound(err error) {
	a.game.SetBusy(false)
	if err != nil {
		a.logger.Warn("round_start_failed", zap.Error(err))
		return
	}
	a.game.Reset()
	a.queued = make(map[int]bool)
	a.dragging = false
	a.started = time.Now()
	a.prize = prize.Prize{}
	a.relayout()
	a.port.DispatchResize()
	a.engine.ResetScratchSurface()
	a.checkFinished()
}

func (a *App) onInteraction() {
	a.game.SetStarted(true)
	ctx := a.ctx
	a.spawn(func() {
		_ = a.cfg.Controller.ReportInteraction(ctx)
	})
}

func (a *App) onProgress(p float64) {
	a.game.SetProgress(p)
	a.queueCleared()
}

func (a *App) onRevealed(p float64) {
	a.game.SetProgress(p)
	a.engine.ClearScratchSurface()
	if a.layout.Size == 0 {
		// shown until the server state arrives; the outcome comes from checkFinished
		a.prize = a.cfg.Prizes.Placeholder(a.rng)
		ctx := a.ctx
		a.spawn(func() {
			if err := a.cfg.Controller.SurfaceRevealed(ctx, p); err != nil {
				a.logger.Debug("reveal_refresh_failed", zap.Error(err))
			}
			a.post(nil)
		})
		return
	}
	for i := 0; i < a.layout.Size; i++ {
		a.enqueue(i)
	}
}

// queueCleared scratches every grid cell whose center the foil no longer
// covers.
func (a *App) queueCleared() {
	for i := 0; i < a.layout.Size; i++ {
		if a.queued[i] {
			continue
		}
		x, y := a.layout.CellCenter(i)
		if a.engine.Cleared(x, y) {
			a.enqueue(i)
		}
	}
}

func (a *App) enqueue(i int) {
	if a.queued[i] {
		return
	}
	snap := a.cfg.Controller.Snapshot()
	if snap.IsRevealed(i) {
		a.queued[i] = true
		return
	}
	select {
	case a.jobs <- scratchJob{sessionID: snap.SessionID, index: i}:
		a.queued[i] = true
	default:
	}
}

func (a *App) scratchWorker(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-a.jobs:
			if a.cfg.Controller.Snapshot().SessionID != job.sessionID {
				continue
			}
			if err := a.cfg.Controller.Scratch(ctx, job.index); err != nil {
				a.logger.Debug("cell_scratch_failed", zap.Int("index", job.index), zap.Error(err))
			}
			a.post(nil)
		}
	}
}

func (a *App) tick(ctx context.Context) {
	defer a.wg.Done()
	t := time.NewTicker(tickInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.post(nil)
		}
	}
}

// post is a no-op once Run is winding down.
func (a *App) post(data any) {
	if a.ctx.Err() != nil {
		return
	}
	_ = a.screen.PostEvent(tcell.NewEventInterrupt(data))
}

// checkFinished archives a round once the controller reports it finished.
func (a *App) checkFinished() {
	snap := a.cfg.Controller.Snapshot()
	if !snap.Finished || snap.SessionID == "" || a.archived[snap.SessionID] {
		return
	}
	a.archived[snap.SessionID] = true
	a.game.SetFinished(true)
	if a.layout.Size == 0 {
		if p, ok := a.cfg.Prizes.Lookup(string(outcomeKind(snap))); ok {
			a.prize = p
		}
	}
	if a.cfg.Rounds == nil {
		return
	}
	round := a.roundResult(snap, time.Now())
	ctx := a.ctx
	a.spawn(func() {
		if _, err := a.cfg.Rounds.Insert(ctx, round); err != nil && !errors.Is(err, playlog.ErrDuplicateRound) {
			a.logger.Warn("round_archive_failed", zap.String("session_id", round.SessionID), zap.Error(err))
		}
		a.refreshPlayLog()
	})
}

// outcomeKind is the win/lose result of a finished round, from the server
// score only.
func outcomeKind(snap session.Snapshot) prize.Kind {
	if snap.Score > 0 {
		return prize.KindWin
	}
	return prize.KindLose
}

func (a *App) roundResult(snap session.Snapshot, now time.Time) *domain.RoundResult {
	kind := string(outcomeKind(snap))
	started := a.started
	if started.IsZero() {
		started = now
	}
	return &domain.RoundResult{
		Owner:     a.cfg.Owner,
		SessionID: snap.SessionID,
		Score:     snap.Score,
		Revealed:  append([]int(nil), snap.Revealed...),
		Kind:      kind,
		StartedAt: started,
		EndedAt:   now,
		Duration:  now.Sub(started),
	}
}

func (a *App) refreshPlayLog() {
	if a.cfg.PlayLog == nil {
		return
	}
	ctx := a.ctx
	a.spawn(func() {
		entries, err := a.cfg.PlayLog(ctx)
		if err != nil {
			a.logger.Debug("play_log_failed", zap.Error(err))
			return
		}
		a.post(playLogLoaded{entries: entries})
	})
}
