package transcript

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTimedText = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.0" dur="1.5">Bonjour &amp;amp; bienvenue</text>
<text start="1.5" dur="2.25">dans cette vid&amp;#39;eo</text>
<text start="3.75" dur="1">   </text>
<text start="4.75" dur="0.5">&lt;font color=&quot;#fff&quot;&gt;fin&lt;/font&gt;</text>
</transcript>`

// fakeYouTube serves a watch page whose player response is built by player,
// with caption URLs rewritten to the test server.
func fakeYouTube(t *testing.T, player func(base string) string, captions map[string]string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			fmt.Fprintf(w, `<html><script>var ytInitialPlayerResponse = %s;var meta = {};</script></html>`, player(srv.URL))
		case "/timedtext":
			body, ok := captions[r.URL.Query().Get("lang")]
			if !ok {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, body)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func tracksPlayer(tracks string) func(string) string {
	return func(base string) string {
		return fmt.Sprintf(`{"playabilityStatus":{"status":"OK"},"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[%s]}}}`,
			strings.ReplaceAll(tracks, "{base}", base))
	}
}

func TestFetchPrefersFirstLanguage(t *testing.T) {
	srv := fakeYouTube(t, tracksPlayer(
		`{"baseUrl":"{base}/timedtext?lang=en","languageCode":"en"},
		 {"baseUrl":"{base}/timedtext?lang=fr-asr","languageCode":"fr","kind":"asr"},
		 {"baseUrl":"{base}/timedtext?lang=fr","languageCode":"fr"}`),
		map[string]string{"fr": sampleTimedText, "fr-asr": `<transcript><text>auto</text></transcript>`})

	c := NewYouTubeClient(5*time.Second, WithBaseURL(srv.URL))
	entries, err := c.Fetch(context.Background(), "abc123", []string{"fr", "en"})
	require.NoError(t, err)

	require.Len(t, entries, 3, "blank caption lines are dropped")
	assert.Equal(t, Entry{Text: "Bonjour & bienvenue", Start: 0, Duration: 1.5}, entries[0])
	assert.Equal(t, "dans cette vid'eo", entries[1].Text)
	assert.Equal(t, "fin", entries[2].Text, "inline tags are stripped")
	assert.InDelta(t, 4.75, entries[2].Start, 0.001)
}

func TestFetchFallsBackToSecondLanguage(t *testing.T) {
	srv := fakeYouTube(t, tracksPlayer(`{"baseUrl":"{base}/timedtext?lang=en","languageCode":"en","kind":"asr"}`),
		map[string]string{"en": `<transcript><text start="0" dur="1">hello</text></transcript>`})

	c := NewYouTubeClient(5*time.Second, WithBaseURL(srv.URL))
	entries, err := c.Fetch(context.Background(), "abc123", []string{"fr", "en"})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Text: "hello", Start: 0, Duration: 1}}, entries)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name     string
		player   func(string) string
		captions map[string]string
		want     error
	}{
		{
			name:   "no captions renderer",
			player: func(string) string { return `{"playabilityStatus":{"status":"OK"}}` },
			want:   ErrTranscriptsDisabled,
		},
		{
			name:   "empty track list",
			player: tracksPlayer(``),
			want:   ErrTranscriptsDisabled,
		},
		{
			name:   "no track in requested languages",
			player: tracksPlayer(`{"baseUrl":"{base}/timedtext?lang=de","languageCode":"de"}`),
			want:   ErrNoTranscriptFound,
		},
		{
			name: "video unavailable",
			player: func(string) string {
				return `{"playabilityStatus":{"status":"ERROR","reason":"Video unavailable"}}`
			},
			want: ErrRetrievalFailed,
		},
		{
			name:     "caption download fails",
			player:   tracksPlayer(`{"baseUrl":"{base}/timedtext?lang=missing","languageCode":"fr"}`),
			captions: map[string]string{},
			want:     ErrRetrievalFailed,
		},
		{
			name:     "empty caption document",
			player:   tracksPlayer(`{"baseUrl":"{base}/timedtext?lang=fr","languageCode":"fr"}`),
			captions: map[string]string{"fr": ""},
			want:     ErrRetrievalFailed,
		},
		{
			name:     "malformed caption XML",
			player:   tracksPlayer(`{"baseUrl":"{base}/timedtext?lang=fr","languageCode":"fr"}`),
			captions: map[string]string{"fr": "<transcript><text>"},
			want:     ErrRetrievalFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeYouTube(t, tt.player, tt.captions)
			c := NewYouTubeClient(5*time.Second, WithBaseURL(srv.URL))

			_, err := c.Fetch(context.Background(), "abc123", []string{"fr", "en"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
		})
	}
}

func TestFetchWatchPageWithoutPlayerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>consent wall</html>")
	}))
	defer srv.Close()

	c := NewYouTubeClient(5*time.Second, WithBaseURL(srv.URL))
	_, err := c.Fetch(context.Background(), "abc123", []string{"fr"})
	assert.ErrorIs(t, err, ErrRetrievalFailed)
}

func TestFetchWatchPageStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewYouTubeClient(5*time.Second, WithBaseURL(srv.URL))
	_, err := c.Fetch(context.Background(), "abc123", []string{"fr"})
	require.ErrorIs(t, err, ErrRetrievalFailed)
	assert.Contains(t, err.Error(), "429")
}

func TestPickTrack(t *testing.T) {
	tracks := []captionTrack{
		{LanguageCode: "en", Kind: "asr", BaseURL: "en-asr"},
		{LanguageCode: "en", BaseURL: "en"},
		{LanguageCode: "fr", Kind: "asr", BaseURL: "fr-asr"},
	}

	got, ok := pickTrack(tracks, []string{"fr", "en"})
	require.True(t, ok)
	assert.Equal(t, "fr-asr", got.BaseURL, "language order beats manual/generated")

	got, ok = pickTrack(tracks, []string{"en"})
	require.True(t, ok)
	assert.Equal(t, "en", got.BaseURL, "manual track wins within a language")

	_, ok = pickTrack(tracks, []string{"de"})
	assert.False(t, ok)
}

func TestFlatten(t *testing.T) {
	assert.Equal(t, "a b", Flatten([]Entry{{Text: "a"}, {Text: "b"}}))
	assert.Equal(t, "", Flatten(nil))
	assert.Equal(t, "only", Flatten([]Entry{{Text: "only"}}))
}

func TestCleanCaption(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"entities", "it&#39;s &amp;amp; fine", "it's &amp; fine"},
		{"formatting tags", `&lt;font color="#E5E5E5"&gt;hello&lt;/font&gt; &lt;i&gt;world&lt;/i&gt;`, "hello world"},
		{"comparisons survive", "if x &lt; 3 and y &gt; 5 then", "if x < 3 and y > 5 then"},
		{"blank", "  \n ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanCaption(tt.in))
		})
	}
}
