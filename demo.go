package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Amund211/fetchcache/internal/domain"
	"github.com/Amund211/fetchcache/internal/measures"
)

var errInvalidArgument = errors.New("invalid argument")

// descriptorsFromArgs parses TTL=URL pairs, e.g. 100s=https://www.google.com/.
// Repeating a pair dispatches the same descriptor again. Without args the default list is used.
func descriptorsFromArgs(args []string, maxPermits int) ([]*domain.RequestDescriptor, error) {
	if len(args) == 0 {
		return defaultDescriptors(maxPermits), nil
	}

	byArg := make(map[string]*domain.RequestDescriptor, len(args))
	descriptors := make([]*domain.RequestDescriptor, 0, len(args))
	for _, arg := range args {
		if descriptor, ok := byArg[arg]; ok {
			descriptors = append(descriptors, descriptor)
			continue
		}

		rawTTL, rawURL, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not of the form TTL=URL", errInvalidArgument, arg)
		}

		ttl, err := time.ParseDuration(rawTTL)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("%w: invalid ttl in %q", errInvalidArgument, arg)
		}

		parsed, err := url.Parse(rawURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, fmt.Errorf("%w: invalid url in %q", errInvalidArgument, arg)
		}

		descriptor := domain.NewRequestDescriptor(domain.NewGetRequest(rawURL), ttl, domain.WithMaxPermits(maxPermits))
		byArg[arg] = descriptor
		descriptors = append(descriptors, descriptor)
	}

	return descriptors, nil
}

func defaultDescriptors(maxPermits int) []*domain.RequestDescriptor {
	longLived := domain.NewRequestDescriptor(
		domain.NewGetRequest("https://www.google.com/"),
		100*time.Second,
		domain.WithMaxPermits(maxPermits),
	)
	shortLived := domain.NewRequestDescriptor(
		domain.NewGetRequest("https://go.dev/doc/"),
		1*time.Second,
		domain.WithMaxPermits(maxPermits),
	)

	return []*domain.RequestDescriptor{
		longLived,
		shortLived,
		longLived,
		shortLived,
		shortLived,
		shortLived,
	}
}

func printStatus(w io.Writer, snapshot measures.Snapshot, size int) {
	fmt.Fprintln(w, "| Gets  | Cache hits missed | Cache hit | Entries |")
	fmt.Fprintf(
		w,
		"|   %02d  |        %02d         |     %02d    |   %02d    |\n",
		snapshot.GetAttempts,
		snapshot.Misses,
		snapshot.Hits(),
		size,
	)
	fmt.Fprintln(w)
}
