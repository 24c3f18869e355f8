package source

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
	"golang.org/x/time/rate"
)

// PagePlaceholder is replaced with the page number in a listing URL
const PagePlaceholder = "{page}"

// Crawl walks a paginated listing and returns the links matching pattern. Pages are
// numbered from 1 and fetched until a page adds no new link or maxPages is reached. A page
// that still fails after retries ends the crawl; the links gathered so far are returned.
func (l *Loader) Crawl(ctx context.Context, listingURL string, pattern *regexp.Regexp, maxPages int) ([]string, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if !strings.Contains(listingURL, PagePlaceholder) {
		maxPages = 1
	}

	limiter := rate.NewLimiter(rate.Every(l.pageInterval), 1)
	if l.pageInterval <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	seen := make(map[string]struct{})
	var links []string

	for page := 1; page <= maxPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return links, goerr.Wrap(err, "crawl interrupted")
		}

		pageURL := strings.ReplaceAll(listingURL, PagePlaceholder, strconv.Itoa(page))
		base, err := url.Parse(pageURL)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid listing URL", goerr.V("url", pageURL))
		}

		data, err := l.Fetch(ctx, pageURL)
		if err != nil {
			logging.From(ctx).Warn("Listing page failed, stopping crawl",
				slog.String("url", pageURL),
				slog.Int("links", len(links)),
				slog.Any("error", err),
			)
			break
		}

		found, err := ExtractLinks(bytes.NewReader(data), base, pattern)
		if err != nil {
			return links, goerr.Wrap(err, "failed to parse listing page", goerr.V("url", pageURL))
		}

		added := 0
		for _, link := range found {
			if _, ok := seen[link]; ok {
				continue
			}
			seen[link] = struct{}{}
			links = append(links, link)
			added++
		}

		logging.From(ctx).Debug("Listing page crawled",
			slog.String("url", pageURL),
			slog.Int("added", added),
		)
		if added == 0 {
			break
		}
	}

	return links, nil
}
