package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thc1006/tmf921-intent-bridge/internal/pipeline"
	"github.com/thc1006/tmf921-intent-bridge/pkg/gst"
	"github.com/thc1006/tmf921-intent-bridge/pkg/llm"
)

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Text: f.text, CompletionTokens: 40}, nil
}

func (f *fakeLLM) Name() string { return "fake" }

type fakeChecker struct{ err error }

func (f *fakeChecker) CheckConnection(ctx context.Context) error { return f.err }

const completion = `{
	"name": "Gaming slice",
	"description": "Low latency slice",
	"serviceSpecCharacteristic": [
		{"name": "Delay tolerance", "value": {"value": "20", "unitOfMeasure": "ms"}}
	]
}`

func newTestServer(t *testing.T, client llm.Client, checker Checker, opts pipeline.Options) *Server {
	t.Helper()
	p, err := pipeline.New(gst.Default(), client, nil, nil, nil, opts)
	require.NoError(t, err)
	return New(p, checker, nil, Config{Address: ":0"})
}

func TestPostIntentJSONCandidate(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, nil, pipeline.Options{})

	req := httptest.NewRequest(http.MethodPost, "/intent", strings.NewReader(completion))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Validation)
	assert.True(t, result.Validation.OverallValid)
	assert.NotEmpty(t, result.ID)
}

func TestPostIntentPlainTextScenario(t *testing.T) {
	s := newTestServer(t, &fakeLLM{text: completion}, nil, pipeline.Options{})

	req := httptest.NewRequest(http.MethodPost, "/intent",
		strings.NewReader("gaming slice with 20ms latency"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Intent)
	assert.Equal(t, "Gaming slice", result.Intent.Name)
	assert.Equal(t, 40, result.Tokens)
}

func TestPostIntentICMFormat(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, nil, pipeline.Options{ExportICM: true})

	req := httptest.NewRequest(http.MethodPost, "/intent?format=icm", strings.NewReader(completion))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"icm:Intent"`)
	assert.Contains(t, body, `"quan:smaller"`)
}

func TestPostIntentICMFormatDisabled(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, nil, pipeline.Options{ExportICM: false})

	req := httptest.NewRequest(http.MethodPost, "/intent?format=icm", strings.NewReader(completion))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "icm export is disabled")
}

func TestPostIntentMalformedJSON(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, nil, pipeline.Options{})

	req := httptest.NewRequest(http.MethodPost, "/intent", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostIntentGenerationFailure(t *testing.T) {
	s := newTestServer(t, &fakeLLM{err: errors.New("model offline")}, nil, pipeline.Options{})

	req := httptest.NewRequest(http.MethodPost, "/intent", strings.NewReader("some scenario"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestPostIntentEmptyBody(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, nil, pipeline.Options{})

	req := httptest.NewRequest(http.MethodPost, "/intent", strings.NewReader("  "))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, &fakeChecker{}, pipeline.Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestHealthzDegraded(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, &fakeChecker{err: errors.New("connection refused")}, pipeline.Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeLLM{}, nil, pipeline.Options{})

	req := httptest.NewRequest(http.MethodGet, "/intent", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
