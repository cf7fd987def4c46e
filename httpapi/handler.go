package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/amfn/engine/cashflow"
	"github.com/amfn/engine/fixture"
	"github.com/amfn/engine/fx"
	"github.com/amfn/engine/prefs"
	"github.com/amfn/engine/telemetry"
)

// Handler holds the dependencies every endpoint needs: the global
// preferences document every request evaluates against, since the C15
// YAML document is loaded once at startup rather than per-request.
type Handler struct {
	Global prefs.Preferences
}

// NewHandler builds a Handler with the supplied global preferences.
func NewHandler(global prefs.Preferences) *Handler {
	return &Handler{Global: global}
}

func (h *Handler) cashflowFromFixture(source string) (*cashflow.Cashflow, error) {
	cashflows, err := fixture.Parse(source)
	if err != nil {
		return nil, err
	}
	if len(cashflows) == 0 {
		return nil, fmt.Errorf("httpapi: fixture contains no cashflow statement")
	}
	return cashflows[0], nil
}

// Evaluate handles POST /v1/evaluate.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()

	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err, traceID, "")
		return
	}

	cf, err := h.cashflowFromFixture(req.Fixture)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fixture", err, traceID, "")
		return
	}

	ctx := withTrace(r.Context(), traceID)
	result, err := cashflow.Evaluate(ctx, cf, h.Global)
	if err != nil {
		status, kind := statusForError(err)
		writeError(w, status, "evaluation failed", err, traceID, kind)
		return
	}

	writeJSON(w, http.StatusOK, EvaluateResponse{
		TraceID:      traceID,
		EvaluationID: result.EvaluationID,
		Elements:     toElementDTOs(result.Elements),
		Runs:         toRunDTOs(result.Runs),
		Balance:      toBalanceDTO(result.Balance),
	})
}

// Expand handles POST /v1/expand.
func (h *Handler) Expand(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()

	var req ExpandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err, traceID, "")
		return
	}

	cf, err := h.cashflowFromFixture(req.Fixture)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fixture", err, traceID, "")
		return
	}

	ctx := withTrace(r.Context(), traceID)
	elements, balance, err := cashflow.Expand(ctx, cf, h.Global)
	if err != nil {
		status, kind := statusForError(err)
		writeError(w, status, "expand failed", err, traceID, kind)
		return
	}

	writeJSON(w, http.StatusOK, ExpandResponse{
		TraceID:  traceID,
		Elements: toElementDTOs(elements),
		Balance:  toBalanceDTO(balance),
	})
}

// Compress handles POST /v1/compress.
func (h *Handler) Compress(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()

	var req CompressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err, traceID, "")
		return
	}

	cf, err := h.cashflowFromFixture(req.Fixture)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fixture", err, traceID, "")
		return
	}

	ctx := withTrace(r.Context(), traceID)
	elements, _, err := cashflow.Expand(ctx, cf, h.Global)
	if err != nil {
		status, kind := statusForError(err)
		writeError(w, status, "expand failed", err, traceID, kind)
		return
	}
	runs := cashflow.Compress(ctx, elements, cf.Preferences)

	writeJSON(w, http.StatusOK, CompressResponse{
		TraceID: traceID,
		Runs:    toRunDTOs(runs),
	})
}

// Solve handles POST /v1/solve.
func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()

	var req SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err, traceID, "")
		return
	}

	cf, err := h.cashflowFromFixture(req.Fixture)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fixture", err, traceID, "")
		return
	}

	target, err := toTarget(req.Target)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid target", err, traceID, "")
		return
	}

	ctx := withTrace(r.Context(), traceID)
	result, err := cashflow.Solve(ctx, cf, h.Global, target)
	if err != nil {
		status, kind := statusForError(err)
		writeError(w, status, "solve failed", err, traceID, kind)
		return
	}

	writeJSON(w, http.StatusOK, SolveResponse{
		TraceID:    traceID,
		X:          result.X.String(),
		Residual:   result.Residual.String(),
		Iterations: result.Iterations,
	})
}

// Convert handles POST /v1/convert.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.NewString()

	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err, traceID, "")
		return
	}

	graph := fx.NewGraph()
	for _, rate := range req.Rates {
		date, err := parseRateDate(rate.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid rate date", err, traceID, "")
			return
		}
		value, err := parseDecimal(rate.Rate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid rate value", err, traceID, "")
			return
		}
		if err := graph.AddRate(date, rate.From, rate.To, value); err != nil {
			writeError(w, http.StatusBadRequest, "invalid rate", err, traceID, "")
			return
		}
	}

	date, err := parseRateDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err, traceID, "")
		return
	}
	amount, err := parseDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err, traceID, "")
		return
	}

	ctx := withTrace(r.Context(), traceID)
	converted, err := cashflow.Convert(ctx, graph, date, amount, req.From, req.To)
	if err != nil {
		status, kind := statusForError(err)
		writeError(w, status, "convert failed", err, traceID, kind)
		return
	}

	writeJSON(w, http.StatusOK, ConvertResponse{
		TraceID: traceID,
		Amount:  converted.String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error, traceID, kind string) {
	resp := ErrorResponse{Error: message, Code: kind, TraceID: traceID}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// withTrace attaches a fresh hierarchical timing collector to ctx so the
// cashflow package's per-stage timers (expand, accrue, compress,
// solve-iterate, convert) are actually recorded for this request, rather
// than falling through to telemetry's no-op default.
func withTrace(ctx context.Context, traceID string) context.Context {
	return telemetry.WithCollector(ctx, telemetry.NewTimingCollector())
}
