package synthetics

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/models"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/monitoring"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/internal/tracing"
	"github.com/Rajkumar7633/API-Monitoring-Dashboard/pkg/logger"
)

const (
	minProbeTimeout = time.Second
	maxBodyPreview  = 64 * 1024
)

// Prober issues one HTTP probe per call. Safe for concurrent use.
type Prober struct {
	tracer *tracing.ProbeTracer
	logger logger.Logger
}

func NewProber(tracer *tracing.ProbeTracer, log logger.Logger) *Prober {
	return &Prober{tracer: tracer, logger: log}
}

// Probe executes the monitor's HTTP check. The timeout is the monitor's
// latency budget with a 1s floor; the response body is read up to 64KB for
// the substring check and preview. Network failures are results, not errors.
func (p *Prober) Probe(ctx context.Context, m models.Monitor, keys models.APIKeys) models.ProbeResult {
	ctx, span := p.tracer.StartProbeSpan(ctx, m.Name, m.Method, m.URL)

	timeout := time.Duration(m.MaxLatencyMs) * time.Millisecond
	if timeout < minProbeTimeout {
		timeout = minProbeTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetDoNotParseResponse(true)

	req := client.R().SetContext(ctx)
	for k, v := range m.Headers {
		req.SetHeader(k, v)
	}
	// Credential headers are defaults only; a monitor's own headers win.
	if key := selectAPIKey(m, keys); key != "" && req.Header.Get("x-api-key") == "" {
		req.SetHeader("x-api-key", key)
	}
	if m.BearerToken != "" && req.Header.Get("Authorization") == "" {
		req.SetHeader("Authorization", "Bearer "+m.BearerToken)
	}
	if tp := tracing.TraceparentHeader(ctx); tp != "" {
		req.SetHeader("traceparent", tp)
	}
	if methodHasBody(m.Method) && m.Body != "" {
		if req.Header.Get("Content-Type") == "" {
			req.SetHeader("Content-Type", "application/json")
		}
		req.SetBody(m.Body)
	}

	start := time.Now()
	resp, err := req.Execute(m.Method, m.URL)
	elapsed := time.Since(start)

	result := models.ProbeResult{
		Name:       m.Name,
		URL:        m.URL,
		ResponseMs: elapsed.Milliseconds(),
		Timestamp:  start,
	}

	if err != nil {
		result.Error = err.Error()
		p.tracer.EndProbeSpan(span, 0, false, result.Error)
		monitoring.RecordProbeRun(m.Name, elapsed, false)
		return result
	}

	body := readPreview(resp.RawBody())
	result.Status = resp.StatusCode()
	result.BodyPreview = body

	result.OK = resp.StatusCode() == m.ExpectedStatus
	if result.OK && m.ExpectedBodyContains != "" {
		result.OK = strings.Contains(body, m.ExpectedBodyContains)
		if !result.OK {
			result.Error = "response body does not contain expected text"
		}
	}
	if !result.OK && result.Error == "" {
		result.Error = "unexpected status code"
	}

	p.tracer.EndProbeSpan(span, result.Status, result.OK, result.Error)
	monitoring.RecordProbeRun(m.Name, elapsed, result.OK)
	return result
}

func selectAPIKey(m models.Monitor, keys models.APIKeys) string {
	if m.UseDevKey {
		return keys.Development
	}
	return keys.Production
}

func methodHasBody(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

func readPreview(rc io.ReadCloser) string {
	if rc == nil {
		return ""
	}
	defer rc.Close()
	b, _ := io.ReadAll(io.LimitReader(rc, maxBodyPreview))
	return string(b)
}
