/*
handlers.go - HTTP API handlers for the policy data service

PURPOSE:
  Exposes the service operations via REST API. Handles HTTP request and
  response, query parsing, JSON serialization, and delegates to the service.

ENDPOINTS (under /api/v2):
  Policy holders:
    GET    /policy-holders                     List policy holders (skip, take, AgentEmail)
    GET    /policy-holders/{keys}/{year}       Policy holder detail
    GET    /policy-holders/emails?keys=        Producer e-mails
    PUT    /policy-holders/emails              Replace a producer's e-mails
    GET    /policy-holders/commodities?keys=   Producer commodity abbreviations

  Policies:
    GET    /policies                           Policy listing (skip, take, filters)
    GET    /policies/export                    Policy listing as XLSX
    GET    /policies/detail?year=&keys=        Policy detail view
    GET    /policies/detail/export?year=&keys= Policy detail as XLSX

  Lookups:
    GET    /lookups/states?codes=
    GET    /lookups/counties?ref=48:001,003
    GET    /lookups/agents?ref=A1:2024
    GET    /lookups/commodities?codes=
    GET    /lookups/types

  Reports:
    POST   /reports/actual-history             Queue an actual history report

  Scenarios:
    GET    /scenarios                          List sample datasets
    GET    /scenarios/current                  Currently loaded dataset
    POST   /scenarios/load                     Load a sample dataset

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Service: Policy data operations (authorization included)
  - Store: Database access for scenario loading and health checks
  - Tokens: Client token validation (nil runs as DevClient)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing or invalid client token
  - 403: Caller not authorized for the producer
  - 404: Insurance or e-mail not found
  - 502/503: Report service rejected the request or is not configured
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Sample dataset loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wsr/cims/access"
	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/metrics"
	"github.com/wsr/cims/report"
	"github.com/wsr/cims/service"
	"github.com/wsr/cims/store/sqlite"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *service.Service
	Store   *sqlite.Store
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Tokens validates bearer tokens. When nil every request runs as DevClient.
	Tokens    *access.TokenValidator
	DevClient access.Client

	// Gatherer backs /metrics. Defaults to the global registry.
	Gatherer prometheus.Gatherer

	mu sync.Mutex
	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(svc *service.Service, store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:  svc,
		Store:    store,
		Logger:   logger,
		Gatherer: prometheus.DefaultGatherer,
	}
}

// =============================================================================
// POLICY HOLDER HANDLERS
// =============================================================================

// ListPolicyHolders returns a page of authorized policy holders.
func (h *Handler) ListPolicyHolders(w http.ResponseWriter, r *http.Request) {
	skip, take, err := paging(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paging parameters", err)
		return
	}

	holders, err := h.Service.GetPolicyHolders(r.Context(), skip, take, filters(r.URL.Query()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PolicyHoldersResponse{
		Skip:      skip,
		Take:      take,
		Producers: holders.Producers,
		Addresses: holders.Addresses,
	})
}

// GetPolicyHolder returns one policy holder for a year.
func (h *Handler) GetPolicyHolder(w http.ResponseWriter, r *http.Request) {
	holder, err := h.Service.GetPolicyHolder(r.Context(), chi.URLParam(r, "keys"), chi.URLParam(r, "year"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, holder)
}

// GetPolicyHolderEmails returns the stored e-mails of producers.
func (h *Handler) GetPolicyHolderEmails(w http.ResponseWriter, r *http.Request) {
	emails, err := h.Service.GetPolicyProducerEmails(r.Context(), listParam(r.URL.Query(), "keys"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emails)
}

// PutPolicyHolderEmails replaces a producer's e-mail list.
func (h *Handler) PutPolicyHolderEmails(w http.ResponseWriter, r *http.Request) {
	var req service.EmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, err := h.Service.UpsertPolicyProducerEmail(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPolicyHolderCommodities returns producer commodity abbreviations.
func (h *Handler) GetPolicyHolderCommodities(w http.ResponseWriter, r *http.Request) {
	pcs, err := h.Service.GetPolicyProducerCommodities(r.Context(), listParam(r.URL.Query(), "keys"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pcs)
}

// =============================================================================
// POLICY HANDLERS
// =============================================================================

// ListPolicies returns a page of the policy listing.
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	skip, take, err := paging(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paging parameters", err)
		return
	}

	page, err := h.Service.GetPolicies(r.Context(), skip, take, filters(r.URL.Query()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ExportPolicies returns the policy listing as an XLSX workbook.
func (h *Handler) ExportPolicies(w http.ResponseWriter, r *http.Request) {
	skip, take, err := paging(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paging parameters", err)
		return
	}

	page, err := h.Service.GetPolicies(r.Context(), skip, take, filters(r.URL.Query()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeWorkbook(w, "policies.xlsx", func(out io.Writer) error {
		return report.WritePolicies(out, page.Policies)
	})
}

// GetPolicy returns the finalized policy detail view.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	policy, err := h.Service.GetPolicy(r.Context(), listParam(q, "keys"), q.Get("year"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// ExportPolicy returns the policy detail view as an XLSX workbook.
func (h *Handler) ExportPolicy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	policy, err := h.Service.GetPolicy(r.Context(), listParam(q, "keys"), q.Get("year"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeWorkbook(w, "policy-"+policy.PolicyNumber+"-"+policy.ReinsuranceYear+".xlsx", func(out io.Writer) error {
		return report.WritePolicyDetail(out, policy)
	})
}

// =============================================================================
// LOOKUP HANDLERS
// =============================================================================

// GetStates returns states by code.
func (h *Handler) GetStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.Service.GetStateDetails(r.Context(), listParam(r.URL.Query(), "codes"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

// GetCounties looks counties up by repeated ref=<state>:<county,county> params.
func (h *Handler) GetCounties(w http.ResponseWriter, r *http.Request) {
	var refs []cims.CountyRef
	for _, ref := range r.URL.Query()["ref"] {
		state, counties, ok := strings.Cut(ref, ":")
		if !ok || cims.IsBlank(state) {
			writeError(w, http.StatusBadRequest, "Invalid county ref (use state:county,county)", nil)
			return
		}
		refs = append(refs, cims.CountyRef{StateCode: strings.TrimSpace(state), CountyCodes: cims.SplitList(counties)})
	}

	counties, err := h.Service.GetCountyDetails(r.Context(), refs)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counties)
}

// GetAgents looks agents up by repeated ref=<agent key>:<year> params.
func (h *Handler) GetAgents(w http.ResponseWriter, r *http.Request) {
	var refs []cims.AgentRef
	for _, ref := range r.URL.Query()["ref"] {
		key, year, ok := strings.Cut(ref, ":")
		if !ok || cims.IsBlank(key) || cims.IsBlank(year) {
			writeError(w, http.StatusBadRequest, "Invalid agent ref (use agent_key:year)", nil)
			return
		}
		refs = append(refs, cims.AgentRef{AgentKey: strings.TrimSpace(key), ReinsuranceYear: strings.TrimSpace(year)})
	}

	agents, err := h.Service.GetAgentDetails(r.Context(), refs)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

// GetCommodities returns commodities of the reference year by code.
func (h *Handler) GetCommodities(w http.ResponseWriter, r *http.Request) {
	commodities, err := h.Service.GetCommodityDetails(r.Context(), listParam(r.URL.Query(), "codes"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, commodities)
}

// GetTypes returns every type value label.
func (h *Handler) GetTypes(w http.ResponseWriter, r *http.Request) {
	values, err := h.Service.GetTypeDetails(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, values)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// QueueActualHistoryReport queues an actual history report for the caller.
func (h *Handler) QueueActualHistoryReport(w http.ResponseWriter, r *http.Request) {
	var req service.ActualHistoryReport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id, err := h.Service.QueueActualHistoryReport(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, QueueReportResponse{Status: "queued", RequestID: id})
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the database is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthDTO{Status: "degraded", Database: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthDTO{Status: "ok", Database: "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// pagingParams are query keys that are not listing filters.
var pagingParams = map[string]bool{"skip": true, "take": true}

func paging(q url.Values) (skip, take int, err error) {
	if v := q.Get("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil || skip < 0 {
			return 0, 0, &cims.FieldError{Field: "skip", Reason: "must be a non-negative integer"}
		}
	}
	if v := q.Get("take"); v != "" {
		if take, err = strconv.Atoi(v); err != nil || take < 0 {
			return 0, 0, &cims.FieldError{Field: "take", Reason: "must be a non-negative integer"}
		}
	}
	return skip, take, nil
}

// filters turns every non-paging query parameter into a listing filter.
// Repeated parameters are joined as a comma separated list.
func filters(q url.Values) service.Filters {
	f := service.Filters{}
	for key, values := range q {
		if pagingParams[strings.ToLower(key)] {
			continue
		}
		f[key] = strings.Join(values, ",")
	}
	return f
}

// listParam reads a comma separated (or repeated) query parameter.
func listParam(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		out = append(out, cims.SplitList(v)...)
	}
	return out
}

// writeWorkbook builds the workbook in memory. Headers are written only once
// the workbook is complete.
func (h *Handler) writeWorkbook(w http.ResponseWriter, filename string, build func(io.Writer) error) {
	var buf bytes.Buffer
	if err := build(&buf); err != nil {
		h.Logger.Error("failed to build workbook", zap.String("file", filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.Logger.Warn("failed to send workbook", zap.String("file", filename), zap.Error(err))
	}
}

// writeServiceError maps service errors to HTTP status codes.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case cims.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	case cims.IsUnauthenticated(err):
		writeError(w, http.StatusUnauthorized, "Authentication required", err)
	case cims.IsForbidden(err):
		writeError(w, http.StatusForbidden, "Not authorized for this policy producer", err)
	case cims.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, report.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "Report service unavailable", err)
	case errors.Is(err, report.ErrReportRejected):
		writeError(w, http.StatusBadGateway, "Report service rejected the request", err)
	default:
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

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
