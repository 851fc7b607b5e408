package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Mause/menu-system/internal/adapters/memory"
	"github.com/Mause/menu-system/internal/config"
	"github.com/Mause/menu-system/internal/dialog"
	"github.com/Mause/menu-system/pkg/domain"
	"github.com/Mause/menu-system/pkg/ports"
	"github.com/Mause/menu-system/pkg/twiml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var walkingRoute = []domain.Route{{Legs: []domain.Leg{{Steps: []domain.Step{
	{TravelMode: "WALKING", Instructions: "Head <b>north</b> on <b>Menangle St</b>"},
}}}}}

func newMachine(baseURL string) *dialog.Machine {
	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.Callers = map[string]config.Caller{
		"+61416041357": {Name: "Dominic", Passcode: "1234", Messages: []string{"https://media.example.com/one.wav"}},
	}
	locator := memory.NewLocator(
		domain.Payphone{ID: "9876543201", Name: "Wilton", Latitude: -34.2411, Longitude: 150.6966},
		domain.Payphone{ID: "5555555505", Name: "Picton", Latitude: -34.1699, Longitude: 150.6113},
		domain.Payphone{ID: "5555555515", Name: "Appin", Latitude: -34.2009, Longitude: 150.7883},
	)
	directions := ports.DirectionsFunc(func(context.Context, domain.DirectionsRequest) ([]domain.Route, error) {
		return walkingRoute, nil
	})
	fixed := time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
	return dialog.New(cfg, locator, directions, dialog.WithClock(func() time.Time { return fixed }))
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func parseDocument(t *testing.T, rr *httptest.ResponseRecorder) []twiml.Verb {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, twiml.ContentType, rr.Header().Get("Content-Type"))
	verbs, err := twiml.Parse(rr.Body.Bytes())
	require.NoError(t, err)
	return verbs
}

// nextTarget returns the path and query of the first gather action in verbs.
func nextTarget(t *testing.T, verbs []twiml.Verb) string {
	t.Helper()
	for _, v := range verbs {
		if g, ok := v.(twiml.Gather); ok {
			u, err := url.Parse(g.Action)
			require.NoError(t, err)
			return u.RequestURI()
		}
	}
	t.Fatalf("no gather in %v", verbs)
	return ""
}

func TestGetHealth(t *testing.T) {
	handler := NewHandler(Config{Dialog: newMachine("")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	handler := NewHandler(Config{Dialog: newMachine(""), Version: "1.2.3\n"})

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		App       string   `json:"app"`
		Version   string   `json:"version"`
		Endpoints []string `json:"endpoints"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "menu-system", resp.App)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Contains(t, resp.Endpoints, "/location/id_received")
}

func TestEntryPrompt_GetAndPost(t *testing.T) {
	handler := NewHandler(Config{Dialog: newMachine("")})

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(method, "/location", nil))

			verbs := parseDocument(t, rr)
			require.NotEmpty(t, verbs)
			assert.Equal(t, "/location/id_received?v=1", nextTarget(t, verbs))
		})
	}
}

func TestLocationFlow(t *testing.T) {
	handler := NewHandler(Config{Dialog: newMachine("")})

	verbs := parseDocument(t, postForm(t, handler, "/location", url.Values{"CallSid": {"CA1"}}))

	verbs = parseDocument(t, postForm(t, handler, nextTarget(t, verbs), url.Values{
		"CallSid": {"CA1"},
		"Digits":  {"555555555"},
	}))
	gather := verbs[0].(twiml.Gather)
	require.Len(t, gather.Children, 3)
	assert.Equal(t, "Press 2 for Appin", gather.Children[2].Text)

	verbs = parseDocument(t, postForm(t, handler, nextTarget(t, verbs), url.Values{"Digits": {"2"}}))
	assert.Equal(t, twiml.Say{Text: "Payphone found in Appin", Language: "en-AU"}, verbs[0])

	instructions := postForm(t, handler, nextTarget(t, verbs), url.Values{"Digits": {"1"}})
	verbs = parseDocument(t, instructions)
	assert.Equal(t, twiml.Say{Text: "Head north on Menangle St .", Language: "en-AU"}, verbs[0])

	// The repeat endpoint replays the same document.
	repeat := postForm(t, handler, nextTarget(t, verbs), url.Values{"Digits": {"1"}})
	assert.Equal(t, instructions.Body.String(), repeat.Body.String())
}

func TestMessageFlow(t *testing.T) {
	handler := NewHandler(Config{Dialog: newMachine("")})
	caller := url.Values{"From": {"+61416041357"}}

	verbs := parseDocument(t, postForm(t, handler, "/message", caller))
	assert.Equal(t, "/message/passcode?v=1", nextTarget(t, verbs))

	caller.Set("Digits", "1234")
	verbs = parseDocument(t, postForm(t, handler, "/message/passcode", caller))
	assert.Contains(t, verbs, twiml.Play{URL: "https://media.example.com/one.wav"})
	assert.Equal(t, twiml.Hangup{}, verbs[len(verbs)-1])
}

func TestFallback_BadContinuation(t *testing.T) {
	fallbacks := 0
	handler := NewHandler(Config{Dialog: newMachine(""), OnFallback: func() { fallbacks++ }})

	targets := []string{
		"/location/selection?candidates=%7Bnot-json&v=1",
		"/location/mode?v=1",
		"/location/id_received?v=99",
	}
	for _, target := range targets {
		verbs := parseDocument(t, postForm(t, handler, target, url.Values{"Digits": {"1"}}))
		assert.Equal(t, []twiml.Verb{
			twiml.Say{Text: "Sorry, something went wrong. Goodbye.", Language: "en-AU"},
			twiml.Hangup{},
		}, verbs, target)
	}
	assert.Equal(t, len(targets), fallbacks)
}

type panickingDialog struct {
	*dialog.Machine
}

func (panickingDialog) Handle(context.Context, domain.State, dialog.Turn) (dialog.Decision, error) {
	panic("boom")
}

func TestFallback_Panic(t *testing.T) {
	fallbacks := 0
	handler := NewHandler(Config{
		Dialog:     panickingDialog{Machine: newMachine("")},
		OnFallback: func() { fallbacks++ },
	})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/location", nil))

	verbs := parseDocument(t, rr)
	assert.Equal(t, twiml.Hangup{}, verbs[len(verbs)-1])
	assert.Equal(t, 1, fallbacks)
}

func TestMetricsAndStatic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("ID3"), 0o600))
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "menu_turns_total 0\n")
	})

	handler := NewHandler(Config{Dialog: newMachine(""), Metrics: metrics, StaticDir: dir})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "menu_turns_total")

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/static/song.mp3", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ID3", rr.Body.String())
}

func TestSignatureRequired(t *testing.T) {
	const token = "12345"
	handler := NewHandler(Config{
		Dialog:           newMachine("https://calls.example.com"),
		AuthToken:        token,
		VerifySignatures: true,
		PublicURL:        "https://calls.example.com/",
	})
	form := url.Values{"CallSid": {"CA1"}, "Digits": {"123456789"}}

	rr := postForm(t, handler, "/location/id_received?v=1", form)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/location/id_received?v=1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(SignatureHeader, Sign(token, "https://calls.example.com/location/id_received?v=1", form))
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	verbs := parseDocument(t, rr)
	assert.IsType(t, twiml.Play{}, verbs[0])

	// Operational endpoints are not signed.
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
