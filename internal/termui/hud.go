package termui

import (
	"strconv"
	"strings"

	"github.com/park285/Cheese-scratch-card/internal/prize"
	"github.com/park285/Cheese-scratch-card/internal/session"
)

// Renderer resolves message templates by key.
type Renderer interface {
	Render(key string, data any) (string, error)
	Text(key, fallback string) string
}

// HUD renders session snapshots into terminal text lines.
type HUD struct {
	messages Renderer
}

func NewHUD(messages Renderer) *HUD {
	return &HUD{messages: messages}
}

func (h *HUD) render(key string, data any, fallback string) string {
	if h == nil || h.messages == nil {
		return fallback
	}
	s, err := h.messages.Render(key, data)
	if err != nil {
		return fallback
	}
	return s
}

// Status is the top line: score, time left and revealed cells, or the final
// score once the round is over.
func (h *HUD) Status(snap session.Snapshot) string {
	if snap.SessionID == "" {
		if snap.Starting {
			return "…"
		}
		return h.Help()
	}
	if snap.Finished {
		return h.render("hud.finished", map[string]any{"Score": snap.Score},
			"Round over. Final score "+strconv.Itoa(snap.Score))
	}
	data := map[string]any{
		"Score":    snap.Score,
		"TimeLeft": snap.TimeLeftSeconds,
		"Revealed": len(snap.Revealed),
		"Size":     snap.Size,
	}
	return h.render("hud.status", data,
		"Score "+strconv.Itoa(snap.Score)+" | "+strconv.Itoa(snap.TimeLeftSeconds)+"s left")
}

func (h *HUD) Help() string {
	if h == nil || h.messages == nil {
		return "drag to scratch, n new game, q quit"
	}
	return h.messages.Text("hud.help", "drag to scratch, n new game, q quit")
}

// CellLabel is the text under a grid cell once the foil above it is gone.
func (h *HUD) CellLabel(snap session.Snapshot, i int) string {
	if v, ok := snap.RevealedValues[i]; ok {
		return strconv.Itoa(v)
	}
	switch {
	case snap.IsRevealed(i):
		return "✓"
	case snap.ScratchingIndex == i:
		return "…"
	default:
		return "?"
	}
}

// Prize is the text shown under the foil of a continuous card.
func (h *HUD) Prize(p prize.Prize) string {
	if p.Label == "" {
		return ""
	}
	if p.Sub == "" {
		return p.Label
	}
	return p.Label + " · " + p.Sub
}

// PlayLog formats the newest entries, one per line.
func (h *HUD) PlayLog(entries []prize.LogEntry, limit int) []string {
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	out := make([]string, 0, limit)
	for _, e := range entries[:limit] {
		var sb strings.Builder
		if !e.Timestamp.IsZero() {
			sb.WriteString(e.Timestamp.Local().Format("01-02 15:04"))
			sb.WriteString("  ")
		}
		sb.WriteString(e.Text)
		out = append(out, sb.String())
	}
	return out
}
