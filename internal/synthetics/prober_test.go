package synthetics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/tracing"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

func newTestProber() *Prober {
	return NewProber(tracing.NewProbeTracer("test"), logger.NewNop())
}

func TestProbeSuccessCriterion(t *testing.T) {
	body := "fail"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	m := models.Monitor{
		Name:                 "checkout",
		URL:                  srv.URL,
		Method:               "GET",
		ExpectedStatus:       200,
		MaxLatencyMs:         2000,
		ExpectedBodyContains: "ok",
	}
	p := newTestProber()

	result := p.Probe(context.Background(), m, models.APIKeys{})
	assert.False(t, result.OK)
	assert.Equal(t, 200, result.Status)
	assert.NotEmpty(t, result.Error)

	body = "all ok here"
	result = p.Probe(context.Background(), m, models.APIKeys{})
	assert.True(t, result.OK)
	assert.Empty(t, result.Error)
}

func TestProbeUnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := newTestProber()
	result := p.Probe(context.Background(), models.Monitor{
		Name: "m", URL: srv.URL, Method: "GET", ExpectedStatus: 200, MaxLatencyMs: 2000,
	}, models.APIKeys{})

	assert.False(t, result.OK)
	assert.Equal(t, http.StatusBadGateway, result.Status)
}

func TestProbeAttachesCredentials(t *testing.T) {
	var got http.Header
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = buf[:n]
	}))
	defer srv.Close()

	m := models.Monitor{
		Name:           "m",
		URL:            srv.URL,
		Method:         "POST",
		ExpectedStatus: 200,
		MaxLatencyMs:   2000,
		Headers:        map[string]string{"X-Custom": "yes"},
		Body:           `{"ping":true}`,
		BearerToken:    "tok",
		UseDevKey:      true,
	}
	p := newTestProber()
	result := p.Probe(context.Background(), m, models.APIKeys{Production: "prod-key", Development: "dev-key"})

	require.True(t, result.OK)
	assert.Equal(t, "dev-key", got.Get("x-api-key"))
	assert.Equal(t, "Bearer tok", got.Get("Authorization"))
	assert.Equal(t, "yes", got.Get("X-Custom"))
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.JSONEq(t, `{"ping":true}`, string(gotBody))
}

func TestProbeUsesProductionKeyByDefault(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("x-api-key")
	}))
	defer srv.Close()

	p := newTestProber()
	p.Probe(context.Background(), models.Monitor{
		Name: "m", URL: srv.URL, Method: "GET", ExpectedStatus: 200, MaxLatencyMs: 2000,
	}, models.APIKeys{Production: "prod-key", Development: "dev-key"})

	assert.Equal(t, "prod-key", got)
}

func TestProbeCustomCredentialHeadersWin(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	m := models.Monitor{
		Name:           "m",
		URL:            srv.URL,
		Method:         "GET",
		ExpectedStatus: 200,
		MaxLatencyMs:   2000,
		Headers: map[string]string{
			"x-api-key":     "own-key",
			"Authorization": "Basic abc",
		},
		BearerToken: "tok",
	}
	p := newTestProber()
	result := p.Probe(context.Background(), m, models.APIKeys{Production: "prod-key"})

	require.True(t, result.OK)
	assert.Equal(t, "own-key", got.Get("x-api-key"))
	assert.Equal(t, "Basic abc", got.Get("Authorization"))
}

func TestProbeNetworkFailureIsAResult(t *testing.T) {
	p := newTestProber()
	result := p.Probe(context.Background(), models.Monitor{
		Name: "m", URL: "http://127.0.0.1:1/health", Method: "GET", ExpectedStatus: 200, MaxLatencyMs: 1000,
	}, models.APIKeys{})

	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.Status)
}
