// Package reference turns traveler-supplied documents (a friend's
// itinerary saved as HTML, markdown notes, a PDF printout, a budget
// spreadsheet, a blog URL) into plain text that can be quoted in research
// prompts.
package reference

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"ai-trip-planner/internal/logging"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

const (
	// MaxDocumentChars bounds how much of each document reaches a prompt.
	MaxDocumentChars = 4000
	// MaxFetchBytes bounds how much of a remote page is read.
	MaxFetchBytes = 2 << 20
)

// ErrLocalSource is returned by a public loader for anything that is not
// an http(s) URL.
var ErrLocalSource = errors.New("local references are not allowed")

// Document is the extracted text of one reference.
type Document struct {
	Source string
	Title  string
	Text   string
}

// Loader reads local files and remote pages.
type Loader struct {
	httpClient *http.Client
	logger     *logging.Logger
	publicOnly bool
}

// NewLoader creates a Loader for local use: files and any URL.
func NewLoader(logger *logging.Logger) *Loader {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Loader{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// NewPublicLoader creates a Loader for references supplied by remote
// callers. It reads URLs only, and refuses to connect to loopback,
// private, link-local or otherwise non-public addresses, including after
// DNS resolution and redirects.
func NewPublicLoader(logger *logging.Logger) *Loader {
	l := NewLoader(logger)
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: publicAddressOnly,
	}
	l.httpClient = &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
	l.publicOnly = true
	return l
}

// LoadAll extracts every source it can. Unreadable or unsupported sources
// are logged and skipped so a bad reference never blocks planning.
func (l *Loader) LoadAll(ctx context.Context, sources []string) []Document {
	docs := make([]Document, 0, len(sources))
	for _, src := range sources {
		doc, err := l.Load(ctx, src)
		if err != nil {
			l.logger.Warn("skipping reference", "source", src, "error", err.Error())
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// Load extracts a single source.
func (l *Loader) Load(ctx context.Context, source string) (Document, error) {
	if isURL(source) {
		if l.publicOnly {
			if err := CheckPublicURL(source); err != nil {
				return Document{}, err
			}
		}
		return l.fetch(ctx, source)
	}
	if l.publicOnly {
		return Document{}, fmt.Errorf("%w: %q", ErrLocalSource, source)
	}

	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(source)) {
	case ".html", ".htm":
		f, err := os.Open(source)
		if err != nil {
			return Document{}, fmt.Errorf("failed to open reference: %w", err)
		}
		defer f.Close()
		r, err := charset.NewReader(f, "text/html")
		if err != nil {
			return Document{}, fmt.Errorf("failed to decode reference: %w", err)
		}
		return fromHTML(source, r)
	case ".md", ".markdown", ".txt", "":
		var data []byte
		data, err = os.ReadFile(source)
		if err != nil {
			return Document{}, fmt.Errorf("failed to read reference: %w", err)
		}
		text = decodeText(data)
	case ".pdf":
		text, err = pdfText(source)
	case ".docx":
		text, err = docxText(source)
	case ".xlsx":
		text, err = xlsxText(source)
	default:
		return Document{}, fmt.Errorf("unsupported reference format %q", filepath.Ext(source))
	}
	if err != nil {
		return Document{}, fmt.Errorf("failed to read reference: %w", err)
	}

	return Document{
		Source: source,
		Title:  filepath.Base(source),
		Text:   truncate(collapse(text)),
	}, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (l *Loader) fetch(ctx context.Context, url string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, err
	}
	resp, err := l.httpClient.Do(req)
	if err != nil {
		return Document{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, MaxFetchBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return Document{}, fmt.Errorf("failed to decode page: %w", err)
	}
	return fromHTML(url, body)
}

func fromHTML(source string, r io.Reader) (Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Document{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Remove noise to save tokens
	doc.Find("script, style, nav, footer, iframe, noscript, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = filepath.Base(source)
	}

	// Keep list items on their own lines so itineraries stay readable.
	var lines []string
	doc.Find("body h1, body h2, body h3, body p, body li, body td").Each(func(i int, s *goquery.Selection) {
		if text := collapse(s.Text()); text != "" {
			if goquery.NodeName(s) == "li" {
				text = "- " + text
			}
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		lines = append(lines, collapse(doc.Find("body").Text()))
	}

	return Document{
		Source: source,
		Title:  title,
		Text:   truncate(strings.Join(lines, "\n")),
	}, nil
}

var spaceRun = regexp.MustCompile(`[ \t\r\f\v]+`)
var blankLines = regexp.MustCompile(`\n{3,}`)

func collapse(s string) string {
	s = spaceRun.ReplaceAllString(s, " ")
	s = blankLines.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// truncate cuts s to MaxDocumentChars bytes on a rune boundary. s must
// already be valid UTF-8.
func truncate(s string) string {
	if len(s) <= MaxDocumentChars {
		return s
	}
	cut := MaxDocumentChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
