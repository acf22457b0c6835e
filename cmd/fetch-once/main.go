package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Amund211/fetchcache/internal/adapters/fetcher"
	"github.com/Amund211/fetchcache/internal/domain"
	"github.com/Amund211/fetchcache/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("No url provided")
	}

	rawURL := os.Args[1]
	if rawURL == "" {
		log.Fatal("No url provided")
	}

	logger := logging.SlogLogger{
		L: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}

	f, err := fetcher.NewHTTPFetcher(fetcher.NewHTTPClient(10*time.Second), logger)
	if err != nil {
		log.Fatalf("Failed creating fetcher: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	response, err := f.Fetch(ctx, domain.NewGetRequest(rawURL))
	if err != nil {
		log.Fatalf("Failed fetching %s: %v", rawURL, err)
	}

	fmt.Println(string(response.Payload))
	fmt.Println(response.StatusCode)
}
