// Package main runs a single catalog search and prints the normalized books.
//
// Usage:
//
//	go run ./cmd/catalog-probe                       # ISBN 9781547603909
//	go run ./cmd/catalog-probe -q "the left hand of darkness" -n 3
//	CATALOG_API_KEY=... go run ./cmd/catalog-probe -json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/readingnook/readingnook-server/internal/catalog"
	"github.com/readingnook/readingnook-server/internal/color"
	"github.com/readingnook/readingnook-server/internal/cover"
	"github.com/readingnook/readingnook-server/internal/logger"
)

const defaultTerm = "9781547603909"

func main() {
	term := flag.String("q", defaultTerm, "Search term or ISBN")
	maxResults := flag.Int("n", 5, "Maximum results")
	asJSON := flag.Bool("json", false, "Print raw JSON")
	covers := flag.Bool("covers", false, "Sample each cover's dominant color")
	baseURL := flag.String("base-url", catalog.DefaultBaseURL, "Catalog base URL")
	verbose := flag.Bool("v", false, "Debug logging to stderr")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Level:       logger.ParseLevel(level),
		Environment: "development",
	})

	client := catalog.New(catalog.Options{
		BaseURL: *baseURL,
		APIKey:  os.Getenv("CATALOG_API_KEY"),
		Timeout: 15 * time.Second,
	}, log.Component("catalog"))
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Fprintf(os.Stderr, "q=%s isbn=%t\n", catalog.BuildQuery(*term), catalog.IsISBN(*term))
	books := client.Search(ctx, *term, *maxResults)

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(books); err != nil {
			log.Fatal("encode results", "error", err)
		}
		return
	}

	if len(books) == 0 {
		fmt.Println("No results.")
		return
	}

	var extractor *cover.Extractor
	if *covers {
		extractor = cover.NewExtractor(cover.Options{}, log.Component("cover"))
	}

	for i, b := range books {
		fmt.Printf("%d. %s\n", i+1, b.Title)
		fmt.Printf("   by %s\n", strings.Join(b.Authors, ", "))
		fmt.Printf("   id=%s isbn=%s pages=%d published=%s\n", b.ID, b.ISBN, b.PageCount, b.PublishedDate)
		if b.Thumbnail != "" {
			fmt.Printf("   cover %s\n", b.Thumbnail)
		}
		if extractor != nil {
			if hex, ok := extractor.Dominant(ctx, b.Thumbnail); ok {
				fmt.Printf("   spine %s\n", hex)
			} else {
				fmt.Printf("   spine %s (status fallback)\n", color.ForStatus(b.Status))
			}
		}
	}
}
