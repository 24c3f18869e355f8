package source

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/darbolex/pkg/domain/model"
	"github.com/secmon-lab/darbolex/pkg/service/notion"
	"github.com/secmon-lab/darbolex/pkg/utils/logging"
	"github.com/secmon-lab/darbolex/pkg/utils/safe"
)

const (
	DefaultMaxTries     = 3
	DefaultPageInterval = time.Second
	DefaultMaxPages     = 50
	DefaultMaxBodyBytes = 64 << 20

	userAgent = "darbolex/1.0 (+https://github.com/secmon-lab/darbolex)"
)

var (
	ErrNotionNotConfigured = goerr.New("Notion token is not configured")
	ErrUnexpectedStatus    = goerr.New("unexpected HTTP status")
	ErrBodyTooLarge        = goerr.New("response body exceeds size limit")
)

// Loader fetches corpus documents from local files, HTTP(S) URLs and Notion
type Loader struct {
	httpClient   *http.Client
	notion       notion.Service
	maxTries     uint
	newBackOff   func() backoff.BackOff
	pageInterval time.Duration
	maxBodyBytes int64
	now          func() time.Time
}

// Option configures a Loader
type Option func(*Loader)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(l *Loader) {
		l.httpClient = c
	}
}

// WithNotion enables "notion:<page-id>" locations
func WithNotion(svc notion.Service) Option {
	return func(l *Loader) {
		l.notion = svc
	}
}

// WithMaxTries sets how many times one HTTP fetch is attempted
func WithMaxTries(n uint) Option {
	return func(l *Loader) {
		l.maxTries = n
	}
}

// WithRetryInterval replaces exponential backoff with a constant pause between attempts
func WithRetryInterval(d time.Duration) Option {
	return func(l *Loader) {
		l.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(d) }
	}
}

// WithPageInterval sets the pause between two listing page fetches
func WithPageInterval(d time.Duration) Option {
	return func(l *Loader) {
		l.pageInterval = d
	}
}

// WithMaxBodyBytes sets the largest HTTP response body Fetch accepts
func WithMaxBodyBytes(n int64) Option {
	return func(l *Loader) {
		l.maxBodyBytes = n
	}
}

// WithClock replaces time.Now for FetchedAt
func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		l.now = now
	}
}

// New creates a Loader
func New(opts ...Option) *Loader {
	l := &Loader{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		maxTries:     DefaultMaxTries,
		newBackOff:   func() backoff.BackOff { return backoff.NewExponentialBackOff() },
		pageInterval: DefaultPageInterval,
		maxBodyBytes: DefaultMaxBodyBytes,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches the entry's location and extracts its text according to its format
func (l *Loader) Load(ctx context.Context, entry *model.CorpusEntry) (*model.Document, error) {
	doc := &model.Document{
		Slug:       entry.Slug,
		SourceType: entry.SourceType,
		SourceID:   entry.Location,
		Title:      entry.Title,
	}

	switch entry.ResolvedFormat() {
	case model.SourceFormatNotion:
		if l.notion == nil {
			return nil, goerr.Wrap(ErrNotionNotConfigured, "cannot load Notion page",
				goerr.V("location", entry.Location))
		}
		page, err := l.notion.GetPage(ctx, strings.TrimPrefix(entry.Location, model.NotionScheme))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to load Notion page", goerr.V("location", entry.Location))
		}
		doc.RawText = page.Blocks.ToText()
		if page.URL != "" {
			doc.SourceID = page.URL
		}
		if doc.Title == "" {
			doc.Title = page.Title
		}

	case model.SourceFormatPDF:
		data, err := l.Fetch(ctx, entry.Location)
		if err != nil {
			return nil, err
		}
		text, err := ExtractPDFText(data)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to extract PDF text", goerr.V("location", entry.Location))
		}
		doc.RawText = text

	case model.SourceFormatHTML:
		data, err := l.Fetch(ctx, entry.Location)
		if err != nil {
			return nil, err
		}
		text, err := ExtractHTMLText(bytes.NewReader(data))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to extract HTML text", goerr.V("location", entry.Location))
		}
		doc.RawText = text

	default:
		data, err := l.Fetch(ctx, entry.Location)
		if err != nil {
			return nil, err
		}
		doc.RawText = string(data)
	}

	doc.FetchedAt = l.now()
	return doc, nil
}

// Fetch reads a local file or downloads a URL. HTTP failures that may be transient
// (transport errors, 429 and 5xx) are retried with exponential backoff.
func (l *Loader) Fetch(ctx context.Context, location string) ([]byte, error) {
	if !isRemote(location) {
		data, err := os.ReadFile(strings.TrimPrefix(location, "file://"))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read source file", goerr.V("path", location))
		}
		return data, nil
	}

	attempt := 0
	op := func() ([]byte, error) {
		attempt++
		return l.get(ctx, location)
	}
	notify := func(err error, wait time.Duration) {
		logging.From(ctx).Warn("Retrying source fetch",
			slog.String("location", location),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err),
		)
	}

	data, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(l.newBackOff()),
		backoff.WithMaxTries(l.maxTries),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch source",
			goerr.V("location", location),
			goerr.V("attempts", attempt))
	}
	return data, nil
}

func (l *Loader) get(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, backoff.Permanent(goerr.Wrap(err, "failed to create request"))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "HTTP request failed")
	}
	defer safe.Close(ctx, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, goerr.Wrap(ErrUnexpectedStatus, "transient HTTP status", goerr.V("status", resp.StatusCode))
	default:
		return nil, backoff.Permanent(goerr.Wrap(ErrUnexpectedStatus, "HTTP status", goerr.V("status", resp.StatusCode)))
	}

	// One byte past the limit tells an oversized body apart from one that fits exactly.
	data, err := io.ReadAll(io.LimitReader(resp.Body, l.maxBodyBytes+1))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read response body")
	}
	if int64(len(data)) > l.maxBodyBytes {
		return nil, backoff.Permanent(goerr.Wrap(ErrBodyTooLarge, "refusing truncated document",
			goerr.V("location", location),
			goerr.V("limit", l.maxBodyBytes)))
	}
	return data, nil
}

func isRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}
