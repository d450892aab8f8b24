/*
handlers.go - HTTP API handlers for the depreciation engine

PURPOSE:
  Exposes the batch computation engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Batches:
    POST   /api/batches/compute        Compute one ledger batch, persist the run

  Runs:
    GET    /api/runs                   List persisted runs, newest first
    GET    /api/runs/{id}              Get one run with full results

  Tax years:
    GET    /api/taxyears               List supported tax years
    GET    /api/taxyears/{year}        Get one tax-year configuration entry

  Health:
    GET    /api/health                 Liveness probe

REQUEST FLOW:
  1. Parse HTTP request
  2. Convert DTOs to domain records (shape errors -> 400)
  3. Call engine (macrs.Compute)
  4. Persist the run, serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, unparseable dates, bad enum values
  - 404: Unknown run ID
  - 422: Configuration failure (missing/inconsistent tax-year entry);
         nothing was computed, fail closed
  - 500: Store failures

  Per-asset validation failures are NOT HTTP errors: the batch computes,
  and the excluded assets come back inside the 200 response.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/depreciation-engine/macrs"
	"github.com/warp/depreciation-engine/taxyear"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Years *taxyear.Registry
	Runs  macrs.RunStore

	// now is the run timestamp source; overridable in tests. The engine
	// itself never reads a clock.
	now func() time.Time
}

// NewHandler creates a new handler with the given registry and run store.
func NewHandler(years *taxyear.Registry, runs macrs.RunStore) *Handler {
	return &Handler{
		Years: years,
		Runs:  runs,
		now:   time.Now,
	}
}

// =============================================================================
// BATCH HANDLERS
// =============================================================================

// ComputeBatch runs one ledger batch through the engine and persists the run.
func (h *Handler) ComputeBatch(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Assets) == 0 {
		writeError(w, http.StatusBadRequest, "assets is empty", nil)
		return
	}

	opts, err := optionsFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid options", err)
		return
	}

	records := make([]macrs.AssetRecord, 0, len(req.Assets))
	for _, in := range req.Assets {
		rec, err := toAssetRecord(in)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid asset", err)
			return
		}
		records = append(records, rec)
	}

	tc, err := h.Years.ContextFor(req.TaxYear,
		decimalFromFloat(req.TaxableIncomeCeiling),
		decimalFromFloat(req.PriorExpensingCarryforward))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "tax year configuration", err)
		return
	}

	batch, err := macrs.Compute(records, tc, opts)
	if err != nil {
		// Only configuration failures escape Compute; nothing was computed.
		writeError(w, http.StatusUnprocessableEntity, "batch aborted", err)
		return
	}

	run := macrs.Run{
		ID:        uuid.NewString(),
		TaxYear:   batch.TaxYear,
		CreatedAt: h.now().UTC(),
		Result:    *batch,
	}
	if err := h.Runs.SaveRun(r.Context(), run); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist run", err)
		return
	}

	writeJSON(w, http.StatusOK, toBatchDTO(run.ID, *batch))
}

func optionsFromRequest(req ComputeRequest) (macrs.Options, error) {
	var opts macrs.Options

	switch req.VehicleTrimOrder {
	case "":
	case string(macrs.TrimBonusFirst), string(macrs.TrimExpensingFirst):
		opts.VehicleTrimOrder = macrs.TrimOrder(req.VehicleTrimOrder)
	default:
		return opts, errors.New("vehicle_trim_order must be bonus_first or expensing_first")
	}

	switch req.AllocationOrder {
	case "":
	case string(macrs.AllocLedgerOrder), string(macrs.AllocCostDescending):
		opts.AllocationOrder = macrs.AllocationOrder(req.AllocationOrder)
	default:
		return opts, errors.New("allocation_order must be ledger or cost_descending")
	}

	return opts, nil
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

const defaultRunListLimit = 50

// ListRuns returns recent runs, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs", err)
		return
	}

	headers := make([]RunHeaderDTO, len(runs))
	for i, run := range runs {
		headers[i] = toRunHeaderDTO(run)
	}
	writeJSON(w, http.StatusOK, headers)
}

// GetRun returns one persisted run with full results.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Runs.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, macrs.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// =============================================================================
// TAX YEAR HANDLERS
// =============================================================================

// ListTaxYears returns the supported tax years in ascending order.
func (h *Handler) ListTaxYears(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Years.Years())
}

// GetTaxYear returns one tax-year configuration entry.
func (h *Handler) GetTaxYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tax year", err)
		return
	}

	tc, err := h.Years.Context(year)
	if err != nil {
		writeError(w, http.StatusNotFound, "no configuration for tax year", err)
		return
	}
	writeJSON(w, http.StatusOK, toTaxYearDTO(tc))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health is a liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
