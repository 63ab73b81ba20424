package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
)

func newSubmitFixture() (*SubmitClassificationUseCase, *fakeRepo, *fakeAuditLog, *fakeClassifier, *fakePublisher, *fakeMonitor) {
	repo := newFakeRepo()
	audit := &fakeAuditLog{}
	classifier := &fakeClassifier{
		prediction: domain.Prediction{
			Variety:    "amarilla",
			Confidence: 0.91,
			Alternatives: []domain.AlternativePrediction{
				{Variety: "huayro", Confidence: 0.06},
				{Variety: "peruanita", Confidence: 0.03},
			},
			LatencyMs:     412,
			ModelMetadata: map[string]string{"model_version": "2.1.0", "algorithm": "cnn"},
		},
	}
	publisher := &fakePublisher{}
	monitor := &fakeMonitor{}
	uc := NewSubmitClassificationUseCase(
		repo, audit, newFakeCatalog("amarilla", "huayro", "peruanita"),
		classifier, &fakeImageStore{}, publisher, monitor,
	)
	return uc, repo, audit, classifier, publisher, monitor
}

func submitRequest() ports.SubmitRequest {
	return ports.SubmitRequest{
		SubmitterID: "user-1",
		Filename:    "papa frente.jpg",
		Image:       strings.NewReader("jpeg-bytes"),
		Timeout:     time.Second,
		Metadata:    domain.RequestMetadata{IP: "10.0.0.7", UserAgent: "test"},
	}
}

func TestSubmitCreatesClassificationWithDerivedCondition(t *testing.T) {
	uc, repo, audit, _, publisher, _ := newSubmitFixture()

	got, err := uc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	wantCondition, _ := domain.DecideCondition(0.91)
	if got.Condition != wantCondition {
		t.Fatalf("condition = %q, want %q", got.Condition, wantCondition)
	}
	if got.State != domain.StateProcessed {
		t.Fatalf("state = %q, want %q", got.State, domain.StateProcessed)
	}
	if len(got.Alternatives) != 2 {
		t.Fatalf("alternatives = %d, want 2", len(got.Alternatives))
	}
	if got.ImageRef == "" || got.CorrelationID == "" {
		t.Fatalf("missing references: %+v", got)
	}

	stored, err := repo.GetByID(context.Background(), got.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Confidence != got.Confidence || stored.Condition != got.Condition || stored.SubmitterID != got.SubmitterID {
		t.Fatalf("stored record differs: %+v vs %+v", stored, got)
	}

	created := audit.entriesFor(got.ID, domain.ActionCreated)
	if len(created) != 1 {
		t.Fatalf("created audit entries = %d, want exactly 1", len(created))
	}
	if created[0].ActorID != "user-1" || created[0].Metadata.IP != "10.0.0.7" {
		t.Fatalf("unexpected audit entry: %+v", created[0])
	}
	if len(publisher.events) != 1 || publisher.events[0].Action != domain.ActionCreated {
		t.Fatalf("unexpected events: %+v", publisher.events)
	}
}

func TestSubmitUnknownVarietyLeavesNoTrace(t *testing.T) {
	uc, repo, audit, classifier, _, _ := newSubmitFixture()
	classifier.prediction.Variety = "nonexistent"

	_, err := uc.Submit(context.Background(), submitRequest())
	if !domain.IsKind(err, domain.ErrUnknownVariety) {
		t.Fatalf("Submit() error = %v, want ErrUnknownVariety", err)
	}
	if n, _ := repo.Count(context.Background(), domain.Filter{}); n != 0 {
		t.Fatalf("classifications stored = %d, want 0", n)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("audit entries = %d, want 0", len(audit.entries))
	}
}

func TestSubmitInvalidConfidenceRejectedBeforeWrite(t *testing.T) {
	uc, repo, audit, classifier, _, _ := newSubmitFixture()
	classifier.prediction.Confidence = 1.2

	_, err := uc.Submit(context.Background(), submitRequest())
	if !domain.IsKind(err, domain.ErrInvalidConfidence) {
		t.Fatalf("Submit() error = %v, want ErrInvalidConfidence", err)
	}
	if n, _ := repo.Count(context.Background(), domain.Filter{}); n != 0 {
		t.Fatalf("classifications stored = %d, want 0", n)
	}
	if len(audit.entries) != 0 {
		t.Fatalf("audit entries = %d, want 0", len(audit.entries))
	}
}

func TestSubmitTimeoutFailsClosed(t *testing.T) {
	uc, repo, audit, classifier, publisher, _ := newSubmitFixture()
	classifier.delay = 500 * time.Millisecond

	req := submitRequest()
	req.Timeout = 10 * time.Millisecond

	_, err := uc.Submit(context.Background(), req)
	if !domain.IsKind(err, domain.ErrPredictionTimeout) {
		t.Fatalf("Submit() error = %v, want ErrPredictionTimeout", err)
	}
	if n, _ := repo.Count(context.Background(), domain.Filter{}); n != 0 {
		t.Fatalf("classifications stored = %d, want 0", n)
	}
	if len(audit.entries) != 0 || len(publisher.events) != 0 {
		t.Fatalf("timed-out prediction left a trace: %d entries, %d events", len(audit.entries), len(publisher.events))
	}
}

func TestSubmitAuditAppendFailureIsPartialFailure(t *testing.T) {
	uc, repo, audit, _, _, monitor := newSubmitFixture()
	audit.appendErr = errors.New("audit table unavailable")

	got, err := uc.Submit(context.Background(), submitRequest())
	if !domain.IsKind(err, domain.ErrAuditTrailIncomplete) {
		t.Fatalf("Submit() error = %v, want ErrAuditTrailIncomplete", err)
	}
	if got == nil {
		t.Fatalf("expected the created classification alongside the partial failure")
	}
	if _, err := repo.GetByID(context.Background(), got.ID); err != nil {
		t.Fatalf("classification should exist despite audit failure: %v", err)
	}
	if len(monitor.failures) != 1 || monitor.failures[0] != domain.ActionCreated {
		t.Fatalf("monitor failures = %+v, want one created", monitor.failures)
	}
}

func TestSubmitRequiresSubmitterAndImage(t *testing.T) {
	uc, _, _, _, _, _ := newSubmitFixture()

	req := submitRequest()
	req.SubmitterID = " "
	if _, err := uc.Submit(context.Background(), req); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("missing submitter: error = %v, want ErrInvalidInput", err)
	}

	req = submitRequest()
	req.Image = strings.NewReader("")
	if _, err := uc.Submit(context.Background(), req); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("empty image: error = %v, want ErrInvalidInput", err)
	}
}
