package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	appcfg "github.com/park285/Cheese-scratch-card/internal/config"
	"github.com/park285/Cheese-scratch-card/internal/obslog"
	"github.com/park285/Cheese-scratch-card/internal/scratchbuilder"
	"github.com/park285/Cheese-scratch-card/internal/termui"
	"go.uber.org/zap"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	// the terminal is owned by tcell; logs go to LOG_FILE only
	if err := obslog.InitForTerminal(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	deps, err := scratchbuilder.New(cfg, logger)
	if err != nil {
		log.Fatalf("scratch init error: %v", err)
	}
	defer deps.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatalf("screen error: %v", err)
	}
	if err := screen.Init(); err != nil {
		log.Fatalf("screen init error: %v", err)
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// wake PollEvent so Run can observe the cancellation
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	app := termui.NewApp(screen, termui.Config{
		Controller: deps.Controller,
		Rounds:     deps.Rounds,
		Prizes:     deps.Prizes,
		Messages:   deps.Messages,
		PlayLog:    deps.PlayLog,
		Engine:     deps.Engine,
		Owner:      deps.Owner,
		Logger:     logger.Named("termui"),
	})
	logger.Info("scratch_tui_start", zap.String("api", cfg.APIBaseURL), zap.Int("grid_size", cfg.GridSize))
	if err := app.Run(ctx); err != nil {
		logger.Error("scratch_tui_exit", zap.Error(err))
	}
}
