package prize

import (
	"sort"
	"time"

	"github.com/park285/Cheese-scratch-card/pkg/scratchdto"
)

type LogEntry struct {
	Timestamp time.Time
	Text      string
	Kind      Kind
}

// EntryText renders a log line for a prize.
type EntryText func(Prize) string

func DefaultEntryText(p Prize) string {
	if p.Kind == KindWin {
		return "WIN — " + p.Sub
	}
	return "No win"
}

// PlayLog maps server history onto display entries, newest first. Items with
// a kind the catalog does not know are skipped.
func (c *Catalog) PlayLog(items []scratchdto.HistoryItem, text EntryText) []LogEntry {
	if text == nil {
		text = DefaultEntryText
	}
	out := make([]LogEntry, 0, len(items))
	for _, it := range items {
		p, ok := c.Lookup(it.Kind)
		if !ok {
			continue
		}
		out = append(out, LogEntry{Timestamp: it.Timestamp, Text: text(p), Kind: p.Kind})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}
