package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/poiesic/atlas"
	"github.com/poiesic/atlas/cognition"
	"github.com/poiesic/atlas/core"
	"github.com/poiesic/atlas/ingestion"
)

// maxBodyBytes bounds request bodies; absorption batches are the largest.
const maxBodyBytes = 8 << 20

type Handler struct {
	engine Engine
	logger *slog.Logger
}

func NewHandler(engine Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// ThinkRequest is the body of POST /think.
type ThinkRequest struct {
	Prompt  string          `json:"prompt"`
	Context json.RawMessage `json:"context,omitempty"`
}

// AbsorbResponse is the body returned by POST /absorb.
type AbsorbResponse struct {
	Absorbed   int      `json:"absorbed"`
	Skipped    int      `json:"skipped"`
	Discovered []string `json:"discovered"`
	DataPoints float64  `json:"data_points"`
	Increment  float64  `json:"intelligence_increment"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status handles GET /status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Status())
}

// Insights handles GET /insights
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.CognitiveInsights())
}

// Think handles POST /think
func (h *Handler) Think(w http.ResponseWriter, r *http.Request) {
	var req ThinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if core.ValidatePrompt(req.Prompt) != nil {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	queryContext, err := core.NormalizeContext(req.Context)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.engine.Think(r.Context(), cognition.Query{Prompt: req.Prompt, Context: queryContext})
	if err != nil {
		// Failure details are logged by the engine; callers only learn that the query failed.
		writeError(w, http.StatusInternalServerError, atlas.ErrQueryFailed.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Absorb handles POST /absorb
func (h *Handler) Absorb(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	batch, err := ingestion.ParseBatch(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.engine.Absorb(r.Context(), batch)
	if err != nil {
		h.logger.Error("absorption failed", "error", err)
		writeError(w, http.StatusInternalServerError, "absorption failed")
		return
	}
	discovered := summary.Discovered
	if discovered == nil {
		discovered = []string{}
	}
	writeJSON(w, http.StatusOK, AbsorbResponse{
		Absorbed:   summary.Absorbed,
		Skipped:    summary.Skipped,
		Discovered: discovered,
		DataPoints: summary.DataPoints,
		Increment:  summary.Increment,
	})
}

// Consolidate handles POST /consolidate
func (h *Handler) Consolidate(w http.ResponseWriter, r *http.Request) {
	report, err := h.engine.Consolidate(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, atlas.ErrEngineClosed) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	if report.SaveError != nil {
		h.logger.Warn("consolidation save failed", "error", report.SaveError)
	}
	writeJSON(w, http.StatusOK, report)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
