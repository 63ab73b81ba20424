package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
	"github.com/papaclick/papaclick-engine/internal/observability/metrics"
)

const (
	submitterHeader = "X-Submitter-Id"
	actorHeader     = "X-Actor-Id"

	maxUploadBytes = 10 << 20
)

// Options carries the traffic knobs the router applies in front of the mux.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	ShedAfter      time.Duration
	PredictTimeout time.Duration
}

type Router struct {
	submitter ports.ClassificationSubmitter
	reviewer  ports.ClassificationReviewer
	querier   ports.ClassificationQuerier
	stats     ports.StatisticsProvider
	trail     ports.AuditTrailProvider
	exporter  ports.ReportExporter

	serverMetrics *metrics.HTTPServerMetrics
	opts          Options
}

func NewRouter(
	submitter ports.ClassificationSubmitter,
	reviewer ports.ClassificationReviewer,
	querier ports.ClassificationQuerier,
	stats ports.StatisticsProvider,
	trail ports.AuditTrailProvider,
	exporter ports.ReportExporter,
	serverMetrics *metrics.HTTPServerMetrics,
	opts Options,
) *Router {
	return &Router{
		submitter:     submitter,
		reviewer:      reviewer,
		querier:       querier,
		stats:         stats,
		trail:         trail,
		exporter:      exporter,
		serverMetrics: serverMetrics,
		opts:          opts,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/classifications", rt.classifications)
	mux.HandleFunc("/v1/classifications/", rt.classificationSubroutes)
	mux.HandleFunc("/v1/statistics", rt.statistics)
	mux.HandleFunc("/v1/reports/export", rt.exportReport)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst)
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, rt.opts.ShedAfter)
	if rt.serverMetrics != nil {
		handler = rt.serverMetrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) classifications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.submitClassification(w, r)
	case http.MethodGet:
		rt.listClassifications(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) submitClassification(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	submitterID := strings.TrimSpace(r.Header.Get(submitterHeader))
	if submitterID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s header is required", submitterHeader)})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, fileHeader, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'image' is required"})
		return
	}
	defer file.Close()

	classification, err := rt.submitter.Submit(r.Context(), ports.SubmitRequest{
		SubmitterID: submitterID,
		Filename:    fileHeader.Filename,
		Image:       file,
		Timeout:     rt.opts.PredictTimeout,
		Metadata:    requestMetadataFrom(r),
	})
	if err != nil && !domain.IsKind(err, domain.ErrAuditTrailIncomplete) {
		if rt.serverMetrics != nil && domain.IsKind(err, domain.ErrPredictionTimeout) {
			rt.serverMetrics.RecordPredictionTimeout()
		}
		rt.writeError(w, err)
		return
	}

	if rt.serverMetrics != nil {
		rt.serverMetrics.RecordSubmission(classification.PredictedVariety, classification.Condition, time.Since(start))
	}

	// The record is durable even when its audit entry is not; surface the
	// gap without failing the submission.
	if err != nil {
		writeJSON(w, http.StatusCreated, map[string]any{
			"classification": classification,
			"warning":        "audit trail incomplete",
		})
		return
	}
	writeJSON(w, http.StatusCreated, classification)
}

func (rt *Router) listClassifications(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	page := parseIntParam(r, "page", 1)
	pageSize := parseIntParam(r, "page_size", 0)

	result, err := rt.querier.Query(r.Context(), filter, page, pageSize)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) classificationSubroutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/classifications/")
	if rest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "classification id is required"})
		return
	}

	switch {
	case strings.HasSuffix(rest, "/review"):
		rt.reviewClassification(w, r, strings.TrimSuffix(rest, "/review"))
	case strings.HasSuffix(rest, "/audit"):
		rt.auditTrail(w, r, strings.TrimSuffix(rest, "/audit"))
	case !strings.Contains(rest, "/"):
		rt.getClassification(w, r, rest)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown route"})
	}
}

func (rt *Router) getClassification(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	classification, err := rt.querier.GetByID(r.Context(), id)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, classification)
}

func (rt *Router) reviewClassification(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	actorID := strings.TrimSpace(r.Header.Get(actorHeader))
	if actorID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s header is required", actorHeader)})
		return
	}

	var req struct {
		Approve bool   `json:"approve"`
		Notes   string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	classification, err := rt.reviewer.Review(r.Context(), ports.ReviewRequest{
		ClassificationID: id,
		ActorID:          actorID,
		Approve:          req.Approve,
		Notes:            req.Notes,
		Metadata:         requestMetadataFrom(r),
	})
	if err != nil && !domain.IsKind(err, domain.ErrAuditTrailIncomplete) {
		rt.writeError(w, err)
		return
	}

	if rt.serverMetrics != nil {
		decision := "reject"
		if req.Approve {
			decision = "approve"
		}
		rt.serverMetrics.RecordReview(decision)
	}

	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"classification": classification,
			"warning":        "audit trail incomplete",
		})
		return
	}
	writeJSON(w, http.StatusOK, classification)
}

func (rt *Router) auditTrail(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	entries, err := rt.trail.Trail(r.Context(), id)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"classification_id": id,
		"entries":           entries,
	})
}

func (rt *Router) statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stats, err := rt.stats.Statistics(r.Context(), filter)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (rt *Router) exportReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	actorID := strings.TrimSpace(r.Header.Get(actorHeader))
	if actorID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("%s header is required", actorHeader)})
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	report, err := rt.exporter.Export(r.Context(), filter, actorID, requestMetadataFrom(r))
	if rt.serverMetrics != nil {
		rt.serverMetrics.RecordExport(err)
	}
	if err != nil {
		rt.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.Content)
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func parseFilter(r *http.Request) (domain.Filter, error) {
	query := r.URL.Query()
	filter := domain.Filter{
		SubmitterID: query.Get("submitter"),
		Variety:     query.Get("variety"),
		Condition:   domain.Condition(query.Get("condition")),
		State:       domain.State(query.Get("state")),
	}

	if raw := query.Get("from"); raw != "" {
		from, err := parseTimeParam(raw)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("invalid 'from' timestamp %q", raw)
		}
		filter.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := parseTimeParam(raw)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("invalid 'to' timestamp %q", raw)
		}
		filter.To = to
	}
	return filter, nil
}

func parseTimeParam(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
