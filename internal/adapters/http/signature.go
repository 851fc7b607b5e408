package http

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// SignatureHeader carries the platform's request signature.
const SignatureHeader = "X-Twilio-Signature"

var (
	ErrMissingSignature = errors.New("missing request signature")
	ErrInvalidSignature = errors.New("invalid request signature")
)

// Sign computes the request signature: base64 HMAC-SHA1 keyed by the auth token over
// the full request URL followed by every form key and value, keys sorted.
func Sign(authToken, fullURL string, form url.Values) string {
	var b strings.Builder
	b.WriteString(fullURL)

	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range form[k] {
			b.WriteString(k)
			b.WriteString(v)
		}
	}

	mac := hmac.New(sha1.New, []byte(authToken))
	_, _ = mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks signature against the request URL and form.
func VerifySignature(authToken, signature, fullURL string, form url.Values) error {
	if signature == "" {
		return ErrMissingSignature
	}
	expected := Sign(authToken, fullURL, form)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

// requestURL reconstructs the URL the platform called. publicBase, when set, replaces
// scheme and host, which are otherwise taken from the request and proxy headers.
func requestURL(r *http.Request, publicBase string) string {
	if publicBase != "" {
		return strings.TrimRight(publicBase, "/") + r.URL.RequestURI()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// verifySignatures rejects requests whose signature does not match with 403.
func verifySignatures(authToken, publicBase string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				http.Error(w, "Invalid form", http.StatusBadRequest)
				return
			}
			fullURL := requestURL(r, publicBase)
			// Only body parameters are signed; query parameters are part of the URL.
			err := VerifySignature(authToken, r.Header.Get(SignatureHeader), fullURL, r.PostForm)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected callback", "url", fullURL, "error", err)
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
