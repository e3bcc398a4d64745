// Package v0 provides the REST API handlers for bundle registry access.
package v0

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dagsmith/bundle-registry-server/internal/bundles"
	"github.com/dagsmith/bundle-registry-server/internal/logger"
	"github.com/dagsmith/bundle-registry-server/internal/state"
)

// BundleResponse is one bundle in API responses: the persisted record
// joined with the configured entry's metadata when the bundle is still
// configured.
type BundleResponse struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`

	// Configured reports whether the bundle is in the current
	// configuration snapshot. Inactive historical records are not.
	Configured bool `json:"configured"`

	// Classpath and RefreshInterval are only set for configured bundles.
	Classpath       string `json:"classpath,omitempty"`
	RefreshInterval string `json:"refresh_interval,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListBundlesResponse wraps the bundle list.
type ListBundlesResponse struct {
	Bundles []BundleResponse `json:"bundles"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Routes defines the routes for the bundle registry API with dependency
// injection.
type Routes struct {
	manager *bundles.Manager
	state   state.Service
}

// NewRoutes creates a new Routes instance with the provided dependencies
func NewRoutes(manager *bundles.Manager, stateService state.Service) *Routes {
	return &Routes{
		manager: manager,
		state:   stateService,
	}
}

// Router creates a new router for the bundle registry API
func Router(manager *bundles.Manager, stateService state.Service) http.Handler {
	routes := NewRoutes(manager, stateService)

	r := chi.NewRouter()
	r.Get("/bundles", routes.listBundles)
	r.Get("/bundles/{name}", routes.getBundle)

	return r
}

// listBundles handles GET /api/v0/bundles
func (rr *Routes) listBundles(w http.ResponseWriter, r *http.Request) {
	records, err := rr.state.ListRecords(r.Context())
	if err != nil {
		logger.Errorf("Failed to list bundle records: %v", err)
		writeErrorResponse(w, "Failed to list bundles", http.StatusInternalServerError)
		return
	}

	resp := ListBundlesResponse{Bundles: make([]BundleResponse, 0, len(records))}
	for _, rec := range records {
		resp.Bundles = append(resp.Bundles, rr.toResponse(rec))
	}

	writeJSONResponse(w, resp, http.StatusOK)
}

// getBundle handles GET /api/v0/bundles/{name}
func (rr *Routes) getBundle(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	rec, err := rr.state.GetRecord(r.Context(), name)
	if err != nil {
		if errors.Is(err, state.ErrBundleNotFound) {
			writeErrorResponse(w, "Bundle not found", http.StatusNotFound)
			return
		}
		logger.Errorf("Failed to get bundle record %s: %v", name, err)
		writeErrorResponse(w, "Failed to get bundle", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, rr.toResponse(*rec), http.StatusOK)
}

func (rr *Routes) toResponse(rec state.BundleRecord) BundleResponse {
	resp := BundleResponse{
		Name:      rec.Name,
		Active:    rec.Active,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}

	for _, entry := range rr.manager.Entries() {
		if entry.Name != rec.Name {
			continue
		}
		resp.Configured = true
		resp.Classpath = entry.Classpath
		if b, err := rr.manager.GetBundle(entry.Name, ""); err == nil {
			resp.RefreshInterval = b.RefreshInterval().String()
		}
		break
	}

	return resp
}

func writeJSONResponse(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func writeErrorResponse(w http.ResponseWriter, message string, status int) {
	writeJSONResponse(w, ErrorResponse{Error: message}, status)
}
