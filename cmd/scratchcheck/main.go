package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/Cheese-scratch-card/internal/gameapi"
	"github.com/park285/Cheese-scratch-card/pkg/scratchdto"
)

func main() {
	size := flag.Int("size", 40, "grid size to request (0 = continuous)")
	scratchIdx := flag.Int("scratch", -1, "cell index to scratch after start (-1 = skip)")
	flag.Parse()

	baseURL := strings.TrimSpace(os.Getenv("SCRATCH_API_BASE_URL"))
	if baseURL == "" {
		log.Fatal("SCRATCH_API_BASE_URL is required")
	}
	userID := strings.TrimSpace(os.Getenv("SCRATCH_USER_ID"))

	client := gameapi.NewClient(baseURL,
		gameapi.WithHeaderProvider(gameapi.SessionHeaders(os.Getenv("SCRATCH_SESSION_COOKIE"), os.Getenv("SCRATCH_XSRF_TOKEN"))),
		gameapi.WithTimeout(8*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	start, err := client.Start(ctx, scratchdto.StartRequest{Size: *size})
	if err != nil {
		log.Fatalf("/api/game/start error: %v", err)
	}
	log.Printf("/api/game/start ok: session=%s size=%d hash=%s expires=%s",
		start.SessionID, start.Size, start.ValuesHash, start.ExpiresAt.Format(time.RFC3339))

	st, err := client.State(ctx, start.SessionID)
	if err != nil {
		log.Printf("/api/game/state error: %v", err)
	} else {
		log.Printf("/api/game/state ok: score=%d left=%ds finished=%t scratched=%v", st.Score, st.TimeLeftSeconds, st.Finished, st.Scratched)
		if st.ValuesHash != start.ValuesHash {
			log.Printf("values_hash mismatch: start=%s state=%s", start.ValuesHash, st.ValuesHash)
		}
	}

	if *scratchIdx >= 0 {
		res, err := client.Scratch(ctx, scratchdto.ScratchRequest{SessionID: start.SessionID, Index: *scratchIdx})
		switch {
		case err == nil:
			log.Printf("/api/game/scratch ok: value=%d revealed=%v score=%d", res.Value, res.RevealedIndex, res.Score)
		case errors.Is(err, scratchdto.ErrAlreadyScratched):
			log.Printf("/api/game/scratch conflict: %v", err)
		case errors.Is(err, scratchdto.ErrSessionGone):
			log.Printf("/api/game/scratch gone: %v", err)
		default:
			log.Printf("/api/game/scratch error: %v", err)
		}
	}

	if userID == "" {
		log.Println("SCRATCH_USER_ID not set; skipping history check")
		return
	}
	items, err := client.History(ctx, userID)
	if err != nil {
		log.Printf("/api/game/get error: %v", err)
		return
	}
	log.Printf("/api/game/get ok: %d entries", len(items))
}
