package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	// playerResponseMarker marks the start of the player response JSON in watch page HTML.
	playerResponseMarker = "ytInitialPlayerResponse = "

	maxWatchPageBytes = 6 * 1024 * 1024
	maxCaptionBytes   = 2 * 1024 * 1024
)

// tagRE matches inline formatting tags such as <font color="#fff"> or </i>.
// A bare "<" followed by a space or digit is caption text and is kept.
var tagRE = regexp.MustCompile(`</?[a-zA-Z][^<>]*>`)

// YouTubeClient fetches captions by scraping the watch page for its caption
// track list and downloading the chosen track's timedtext XML.
type YouTubeClient struct {
	httpClient *http.Client
	baseURL    string
}

type Option func(*YouTubeClient)

// WithBaseURL points the client at another host, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(c *YouTubeClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *YouTubeClient) { c.httpClient = hc }
}

// NewYouTubeClient creates a client whose calls are bounded by timeout.
func NewYouTubeClient(timeout time.Duration, opts ...Option) *YouTubeClient {
	c := &YouTubeClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch returns the caption entries of videoID in the first of languages that
// has a track. Manually created tracks win over auto-generated ones for the
// same language.
func (c *YouTubeClient) Fetch(ctx context.Context, videoID string, languages []string) ([]Entry, error) {
	player, err := c.playerResponse(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: video %s: %w", ErrRetrievalFailed, videoID, err)
	}

	if s := player.PlayabilityStatus; s != nil && s.Status != "" && s.Status != "OK" {
		return nil, fmt.Errorf("%w: video %s is unplayable (%s): %s", ErrRetrievalFailed, videoID, s.Status, s.Reason)
	}

	if player.Captions == nil {
		return nil, fmt.Errorf("%w: video %s", ErrTranscriptsDisabled, videoID)
	}
	tracks := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, fmt.Errorf("%w: video %s", ErrTranscriptsDisabled, videoID)
	}

	track, ok := pickTrack(tracks, languages)
	if !ok {
		return nil, fmt.Errorf("%w: video %s, requested %s, available %s",
			ErrNoTranscriptFound, videoID, strings.Join(languages, ","), strings.Join(trackLanguages(tracks), ","))
	}

	slog.Debug("youtube: caption track selected",
		slog.String("id", videoID),
		slog.String("lang", track.LanguageCode),
		slog.Bool("generated", track.generated()))

	entries, err := c.timedText(ctx, track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: video %s: %w", ErrRetrievalFailed, videoID, err)
	}
	return entries, nil
}

// pickTrack walks languages in preference order, taking a manual track before
// an auto-generated one for each language.
func pickTrack(tracks []captionTrack, languages []string) (captionTrack, bool) {
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang && !t.generated() {
				return t, true
			}
		}
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	return captionTrack{}, false
}

func trackLanguages(tracks []captionTrack) []string {
	seen := make(map[string]bool, len(tracks))
	var langs []string
	for _, t := range tracks {
		if !seen[t.LanguageCode] {
			seen[t.LanguageCode] = true
			langs = append(langs, t.LanguageCode)
		}
	}
	return langs
}

func (c *YouTubeClient) playerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	watchURL := c.baseURL + "/watch?v=" + url.QueryEscape(videoID)

	body, err := c.get(ctx, watchURL, maxWatchPageBytes)
	if err != nil {
		return nil, fmt.Errorf("watch page: %w", err)
	}

	idx := bytes.Index(body, []byte(playerResponseMarker))
	if idx < 0 {
		return nil, errors.New("ytInitialPlayerResponse not found in watch page")
	}

	// The decoder stops after the first JSON value, ignoring the trailing script.
	var player playerResponse
	dec := json.NewDecoder(bytes.NewReader(body[idx+len(playerResponseMarker):]))
	if err := dec.Decode(&player); err != nil {
		return nil, fmt.Errorf("decode ytInitialPlayerResponse: %w", err)
	}
	return &player, nil
}

func (c *YouTubeClient) timedText(ctx context.Context, trackURL string) ([]Entry, error) {
	body, err := c.get(ctx, trackURL, maxCaptionBytes)
	if err != nil {
		return nil, fmt.Errorf("timedtext: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("timedtext: empty caption document")
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, fmt.Errorf("parse timedtext XML: %w", err)
	}

	entries := make([]Entry, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := cleanCaption(line.Text)
		if text == "" {
			continue
		}
		entries = append(entries, Entry{Text: text, Start: line.Start, Duration: line.Dur})
	}
	return entries, nil
}

// cleanCaption undoes the second level of HTML escaping YouTube applies inside
// timedtext and drops inline formatting tags.
func cleanCaption(s string) string {
	s = html.UnescapeString(s)
	s = tagRE.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func (c *YouTubeClient) get(ctx context.Context, u string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cookie", "CONSENT=YES+cb")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, limit))
}
