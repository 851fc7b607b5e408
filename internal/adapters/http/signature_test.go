package http

import (
	"crypto/tls"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

var signedForm = url.Values{
	"CallSid": {"CA1234567890ABCDE"},
	"Caller":  {"+14158675309"},
	"Digits":  {"1234"},
	"From":    {"+14158675309"},
	"To":      {"+18005551212"},
}

const signedURL = "https://mycompany.com/myapp.php?foo=1&bar=2"

func TestSign(t *testing.T) {
	assert.Equal(t, "RSOYDt4T1cUTdK1PDd93/VVr8B8=", Sign("12345", signedURL, signedForm))
}

func TestVerifySignature(t *testing.T) {
	assert.NoError(t, VerifySignature("12345", "RSOYDt4T1cUTdK1PDd93/VVr8B8=", signedURL, signedForm))
	assert.ErrorIs(t, VerifySignature("12345", "", signedURL, signedForm), ErrMissingSignature)
	assert.ErrorIs(t, VerifySignature("54321", "RSOYDt4T1cUTdK1PDd93/VVr8B8=", signedURL, signedForm), ErrInvalidSignature)

	tampered := url.Values{}
	for k, v := range signedForm {
		tampered[k] = v
	}
	tampered.Set("Digits", "4321")
	assert.ErrorIs(t, VerifySignature("12345", "RSOYDt4T1cUTdK1PDd93/VVr8B8=", signedURL, tampered), ErrInvalidSignature)
}

func TestRequestURL(t *testing.T) {
	req := httptest.NewRequest("POST", "http://internal:5555/location/mode?origin=1%2C2&v=1", nil)
	assert.Equal(t, "http://internal:5555/location/mode?origin=1%2C2&v=1", requestURL(req, ""))
	assert.Equal(t, "https://calls.example.com/location/mode?origin=1%2C2&v=1", requestURL(req, "https://calls.example.com/"))

	req.Header.Set("X-Forwarded-Proto", "https")
	assert.Equal(t, "https://internal:5555/location/mode?origin=1%2C2&v=1", requestURL(req, ""))

	req = httptest.NewRequest("GET", "/location", nil)
	req.TLS = &tls.ConnectionState{}
	assert.Equal(t, "https://example.com/location", requestURL(req, ""))
}
