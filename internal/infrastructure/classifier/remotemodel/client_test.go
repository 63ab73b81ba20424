package remotemodel

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Policy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2,
		BreakerEnabled: false,
	})
}

func TestPredictMapsModelResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/predictions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("image part missing: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"variety": "amarilla",
			"confidence": 0.91,
			"predictions": [
				{"variety": "amarilla", "confidence": 0.91},
				{"variety": "huayro", "confidence": 0.06},
				{"variety": "peruanita", "confidence": 0.03}
			],
			"model_version": "2.1.0"
		}`))
	}))
	defer server.Close()

	client := New(server.URL, testExecutor())
	prediction, err := client.Predict(context.Background(), bytes.NewReader([]byte("jpegbytes")))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if prediction.Variety != "amarilla" || prediction.Confidence != 0.91 {
		t.Fatalf("prediction = %+v", prediction)
	}
	if len(prediction.Alternatives) != 3 {
		t.Fatalf("alternatives = %+v", prediction.Alternatives)
	}
	if prediction.ModelMetadata["model_version"] != "2.1.0" {
		t.Fatalf("model metadata = %+v", prediction.ModelMetadata)
	}
}

func TestPredictRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"variety": "huayro", "confidence": 0.74, "predictions": []}`))
	}))
	defer server.Close()

	client := New(server.URL, testExecutor())
	prediction, err := client.Predict(context.Background(), bytes.NewReader([]byte("jpegbytes")))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if prediction.Variety != "huayro" {
		t.Fatalf("variety = %q", prediction.Variety)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("calls = %d, want 3", got)
	}
}

func TestPredictDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unsupported media", http.StatusUnsupportedMediaType)
	}))
	defer server.Close()

	client := New(server.URL, testExecutor())
	_, err := client.Predict(context.Background(), bytes.NewReader([]byte("notanimage")))

	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected HTTPStatusError, got %v", err)
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("client error must not be marked temporary: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestPredictHonoursCallerDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := New(server.URL, testExecutor())
	_, err := client.Predict(ctx, bytes.NewReader([]byte("jpegbytes")))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestPredictRejectsEmptyPayload(t *testing.T) {
	client := New("http://model.invalid", testExecutor())
	_, err := client.Predict(context.Background(), bytes.NewReader(nil))
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
