package disposable

import (
	"bufio"
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

//go:embed domains.txt
var embeddedDomains []byte

// DefaultListURL is the community-maintained disposable-email-domains list.
const DefaultListURL = "https://disposable.github.io/disposable-email-domains/domains.json"

// EmbeddedSource serves the list compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Name() string { return "embedded" }

func (EmbeddedSource) Load(_ context.Context) ([]string, error) {
	return parseLines(bytes.NewReader(embeddedDomains))
}

// URLSource fetches a list over HTTP. JSON string arrays and plain
// one-per-line text are both accepted.
type URLSource struct {
	URL    string
	Client *http.Client
}

// NewURLSource builds a source for url, falling back to DefaultListURL.
func NewURLSource(url string) *URLSource {
	if url == "" {
		url = DefaultListURL
	}
	return &URLSource{
		URL:    url,
		Client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (s *URLSource) Name() string { return "url:" + s.URL }

func (s *URLSource) Load(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "mailprobe")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching disposable list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching disposable list: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("reading disposable list: %w", err)
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		var domains []string
		if err := json.Unmarshal(trimmed, &domains); err != nil {
			return nil, fmt.Errorf("decoding disposable list: %w", err)
		}
		return domains, nil
	}
	return parseLines(bytes.NewReader(body))
}

func parseLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
