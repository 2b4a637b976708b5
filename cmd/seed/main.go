// Package main provides a tool to seed a user's library with sample books.
//
// It signs in as the given user against the configured storage and adds a
// shelf spread across every status and format, so stats and palettes have
// something to show. Books already on the shelf are skipped.
//
// Usage:
//
//	STORAGE_DRIVER=sqlite DATA_PATH=~/ReadingNook/data go run ./cmd/seed -user ada
//	go run ./cmd/seed -user ada -catalog "ursula le guin"  # Also add catalog results
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/samber/do/v2"

	"github.com/readingnook/readingnook-server/internal/catalog"
	"github.com/readingnook/readingnook-server/internal/config"
	"github.com/readingnook/readingnook-server/internal/di/providers"
	"github.com/readingnook/readingnook-server/internal/domain"
	"github.com/readingnook/readingnook-server/internal/errors"
	"github.com/readingnook/readingnook-server/internal/library"
	"github.com/readingnook/readingnook-server/internal/logger"
	"github.com/readingnook/readingnook-server/internal/session"
)

var (
	username    = flag.String("user", "reader", "Username to seed")
	password    = flag.String("password", "seed", "Password (not verified)")
	catalogTerm = flag.String("catalog", "", "Also add the results of this catalog search")
)

var sampleShelf = []domain.Book{
	{
		ID:            "seed-left-hand",
		Title:         "The Left Hand of Darkness",
		Authors:       []string{"Ursula K. Le Guin"},
		PublishedDate: "1969",
		PageCount:     304,
		Categories:    []string{"Fiction", "Science Fiction"},
		ISBN:          "9780441478125",
		Status:        domain.StatusRead,
		Format:        domain.FormatPhysical,
		Rating:        5,
		Notes:         "Winter, and Estraven on the ice.",
	},
	{
		ID:         "seed-piranesi",
		Title:      "Piranesi",
		Authors:    []string{"Susanna Clarke"},
		PageCount:  272,
		Categories: []string{"Fiction", "Fantasy"},
		ISBN:       "9781635575637",
		Status:     domain.StatusReading,
		Format:     domain.FormatEbook,
	},
	{
		ID:         "seed-hyperion",
		Title:      "Hyperion",
		Authors:    []string{"Dan Simmons"},
		PageCount:  482,
		Categories: []string{"Fiction"},
		Status:     domain.StatusReading,
		Format:     domain.FormatAudiobook,
		Rating:     4,
	},
	{
		ID:        "seed-gideon",
		Title:     "Gideon the Ninth",
		Authors:   []string{"Tamsyn Muir"},
		PageCount: 448,
		Status:    domain.StatusWantToRead,
	},
	{
		ID:        "seed-dispossessed",
		Title:     "The Dispossessed",
		Authors:   []string{"Ursula K. Le Guin"},
		PageCount: 387,
		Status:    domain.StatusRead,
		Format:    domain.FormatPhysical,
		Rating:    4,
	},
}

func main() {
	flag.Parse()

	injector := do.New()
	do.Provide(injector, func(do.Injector) (*config.Config, error) { return config.Load(nil) })
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)
	defer func() { _ = injector.Shutdown() }()

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	storeHandle, err := do.Invoke[*providers.StoreHandle](injector)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	quiet := logger.Discard()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sessions := session.New(storeHandle.KV, quiet)
	shelf := library.New(storeHandle.KV, quiet)

	user, err := sessions.Login(ctx, *username, *password)
	if err != nil {
		log.Fatalf("Failed to sign in: %v", err)
	}
	if err := shelf.Load(ctx, user.ID); err != nil {
		log.Fatalf("Failed to load library: %v", err)
	}
	fmt.Printf("Seeding library for %s (%s) in %s storage\n", user.Username, user.ID, cfg.Storage.Driver)

	books := append([]domain.Book(nil), sampleShelf...)
	if *catalogTerm != "" {
		client := catalog.New(catalog.Options{
			BaseURL: cfg.Catalog.BaseURL,
			APIKey:  cfg.Catalog.APIKey,
			Timeout: 15 * time.Second,
		}, quiet)
		found := client.Search(ctx, *catalogTerm, 10)
		fmt.Printf("Catalog returned %d books for %q\n", len(found), *catalogTerm)
		books = append(books, found...)
	}

	var added, skipped int
	for _, b := range books {
		switch _, err := shelf.Add(ctx, b); {
		case errors.Is(err, errors.ErrAlreadyExists):
			skipped++
		case err != nil:
			fmt.Fprintf(os.Stderr, "  failed to add %q: %v\n", b.Title, err)
		default:
			added++
			fmt.Printf("  + %s [%s]\n", b.Title, b.Status)
		}
	}

	stats := shelf.Stats()
	fmt.Printf("\nAdded %d, skipped %d already shelved\n", added, skipped)
	fmt.Printf("Library: %d books, %d read, %d reading, %d want to read, avg rating %s\n",
		stats.Total, stats.Read, stats.Reading, stats.WantToRead, stats.AvgRating)
}
