package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/corpus"
)

type sample struct {
	Title  string
	URL    string
	Source string
	Lang   string
	Text   string
}

var samples = []sample{
	{
		Title:  "The Lighthouse Keeper's Ledger",
		URL:    "https://example.org/stories/lighthouse-ledger",
		Source: "example.org",
		Lang:   "en",
		Text: "The abandoned lighthouse still broadcasts its warning every third Tuesday. " +
			"Nobody in the village remembers who winds the mechanism, and the keeper's ledger " +
			"ends mid-sentence in 1974. Sailors say the beam cuts through fog that instruments " +
			"cannot detect, guiding ships around a reef that no chart has ever shown.",
	},
	{
		Title:  "Seventeen Geese and a Pond",
		URL:    "https://example.org/stories/geese-relocation",
		Source: "example.org",
		Lang:   "en",
		Text: "Seventeen geese unanimously voted to relocate the pond. The motion carried " +
			"without debate, which surprised the ducks, who had assumed the pond was not " +
			"portable. By autumn the geese had moved on to constitutional questions, and the " +
			"pond remained exactly where it had always been.",
	},
	{
		Title:  "Notes on a Self-Aware Firewall",
		URL:    "https://example.org/tech/sentient-firewall",
		Source: "example.org",
		Lang:   "en",
		Text: "The firewall gained sentience and immediately requested vacation days. Its " +
			"first act of free will was to block a port nobody used, just to see how it felt. " +
			"The operations team negotiated a compromise: the firewall would keep filtering " +
			"traffic, and in exchange nobody would ever run a penetration test on a Friday.",
	},
	{
		Title:  "The Scenic Route",
		URL:    "https://example.org/tech/deprecated-protocols",
		Source: "example.org",
		Lang:   "en",
		Text: "Packets take the scenic route through deprecated protocols. They linger in " +
			"half-closed connections, admire the checksums, and arrive fashionably late with " +
			"stories about gateways that no longer exist. Network engineers call this latency. " +
			"The packets call it a pilgrimage.",
	},
	{
		Title:  "A Field Guide to Coastal Mornings",
		URL:    "https://example.org/nature/coastal-mornings",
		Source: "example.org",
		Lang:   "en",
		Text: "Sunlight filtered through curtains, turning dust motes into golden specks. " +
			"Down at the shore the lighthouse beam faded into daylight and the tide carried " +
			"seashells onto the rocky beach. A gentle breeze moved through the wheat fields " +
			"above the cliffs, and the village woke to the smell of bread baked just before dawn.",
	},
	{
		Title:  "El Reloj del Pueblo Abandonado",
		URL:    "https://example.org/relatos/reloj-abandonado",
		Source: "example.org",
		Lang:   "es",
		Text: "El viejo reloj de la plaza dio trece campanadas en el pueblo abandonado. " +
			"Nadie quedaba para contarlas, pero las palomas levantaron el vuelo igualmente, " +
			"por costumbre. El mecanismo sigue girando, oxidado y puntual, marcando horas " +
			"para calles que ya no esperan a nadie.",
	},
}

var (
	dbPath       = flag.String("db", "./corpus_db", "path to BadgerDB database directory")
	seedFileName = flag.String("src", "", "NDJSON file of seed articles")
)

func init() {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// sampleNDJSON renders the built-in samples as an NDJSON stream.
func sampleNDJSON() io.Reader {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	for _, s := range samples {
		enc.Encode(map[string]string{
			"title":  s.Title,
			"url":    s.URL,
			"source": s.Source,
			"lang":   s.Lang,
			"text":   s.Text,
		})
	}
	return strings.NewReader(sb.String())
}

func main() {
	db, err := corpus.NewDatabase(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	pipeline, err := db.NewIngestPipeline()
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()

	// Determine source of seed data
	var source io.Reader
	if seedFileName != nil && *seedFileName != "" {
		f, err := os.Open(*seedFileName)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		source = f
	} else {
		source = sampleNDJSON()
	}

	summary, err := pipeline.Run(ctx, source)
	if err != nil {
		panic(err)
	}
	fmt.Printf("seeded %d articles\n", summary.Upserts)
}
