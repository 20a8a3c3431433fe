package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-lab/internal/audit"
	"github.com/noah-isme/backend-lab/internal/config"
	"github.com/noah-isme/backend-lab/internal/quote"
)

func main() {
	var (
		batchSize = flag.Int("batch", 200, "documents fetched per page")
		after     = flag.String("after", "", "resume after this document id")
		only      = flag.String("ids", "", "comma separated document ids to check instead of scanning")
		asJSON    = flag.Bool("json", false, "print drifted reports as JSON lines")
	)
	flag.Parse()

	baseCtx := context.Background()
	connectCtx, cancel := context.WithTimeout(baseCtx, 10*time.Second)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(connectCtx); err != nil {
		log.Fatalf("ping database: %v", err)
	}

	repo := quote.PGRepository{DB: pool}
	enc := json.NewEncoder(os.Stdout)
	counts := map[string]int{}

	check := func(id string) {
		doc, err := repo.LoadDocument(baseCtx, id)
		if errors.Is(err, quote.ErrDocumentNotFound) {
			log.Printf("document %s not found", id)
			return
		}
		if err != nil {
			log.Fatalf("load %s: %v", id, err)
		}
		report := audit.Check(doc)
		counts[report.Result()]++
		if report.Result() != audit.ResultDrift {
			return
		}
		if *asJSON {
			if err := enc.Encode(report); err != nil {
				log.Fatalf("encode report: %v", err)
			}
			return
		}
		for _, d := range report.Diffs {
			log.Printf("drift %s %s stored=%.6f live=%.6f delta=%.6f", id, d.Field, d.Stored, d.Live, d.Delta)
		}
	}

	if ids := splitIDs(*only); len(ids) > 0 {
		for _, id := range ids {
			check(id)
		}
	} else {
		cursor := *after
		for {
			ids, err := repo.ListDocumentIDs(baseCtx, cursor, *batchSize)
			if err != nil {
				log.Fatalf("list documents after %q: %v", cursor, err)
			}
			if len(ids) == 0 {
				break
			}
			for _, id := range ids {
				check(id)
			}
			cursor = ids[len(ids)-1]
		}
	}

	log.Printf("checked %d documents: %d match, %d drift, %d without snapshot",
		counts[audit.ResultMatch]+counts[audit.ResultDrift]+counts[audit.ResultNoSnapshot],
		counts[audit.ResultMatch], counts[audit.ResultDrift], counts[audit.ResultNoSnapshot])
}

func splitIDs(value string) []string {
	var ids []string
	for _, part := range strings.Split(value, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
