package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"showdex/config"
	"showdex/internal/database"
)

// catalogdump prints the stored show catalog as JSON for debugging. With
// -show it prints one show's stored episode table instead.
func main() {
	var (
		configPath = flag.String("config", "cache/settings.json", "Path to settings.json")
		showID     = flag.Int("show", 0, "dump one show's stored episode table instead of the catalog")
		limit      = flag.Int("limit", 0, "cap the number of catalog rows (0 = all)")
	)
	flag.Parse()

	mgr := config.NewManager(*configPath)
	settings, err := mgr.Load()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	db, err := database.Open(settings.Catalog.DatabasePath)
	if err != nil {
		log.Fatalf("open catalog database: %v", err)
	}
	defer db.Close()

	repo := database.NewShowRepository(db)
	ctx := context.Background()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *showID > 0 {
		show, err := repo.GetEpisodes(ctx, *showID)
		if err != nil {
			log.Fatalf("get episodes for show %d: %v", *showID, err)
		}
		if err := enc.Encode(show); err != nil {
			log.Fatalf("encode: %v", err)
		}
		return
	}

	stubs, err := repo.ListShows(ctx, *limit)
	if err != nil {
		log.Fatalf("list shows: %v", err)
	}
	count, err := repo.CountShows(ctx)
	if err != nil {
		log.Fatalf("count shows: %v", err)
	}
	fmt.Fprintf(os.Stderr, "%d shows stored\n", count)
	if err := enc.Encode(stubs); err != nil {
		log.Fatalf("encode: %v", err)
	}
}
