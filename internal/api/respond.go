package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/fastprodman/coinmarket/internal/apperr"
	"github.com/fastprodman/coinmarket/internal/auth"
	"github.com/fastprodman/coinmarket/internal/infra/idempotency"
	"github.com/fastprodman/coinmarket/internal/infra/logging"
	"github.com/fastprodman/coinmarket/internal/repos/products"
	"github.com/fastprodman/coinmarket/internal/repos/users"
	"github.com/fastprodman/coinmarket/internal/services/market"
)

const (
	maxBodyBytes = 1 << 20

	msgRequired       = "This field is required."
	msgNotFound       = "Not found."
	msgNoCredentials  = "Authentication credentials were not provided."
	msgForbidden      = "You do not have permission to perform this action."
	msgLoginFailed    = "Authentication failed. Make sure to provide the correct credentials."
	msgInternal       = "internal error"
	msgInProgress     = "A request with this Idempotency-Key is still in progress."
	msgKeyReused      = "This Idempotency-Key was already used for a different request."
	msgNoFunds        = "Insufficient funds."
	msgNoStock        = "Product insufficient stock."
	msgStoreUnhealthy = "Idempotency store unavailable. Retry later."
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logging.From(r.Context()).Error("failed to encode JSON response", "error", err)
	}
}

func writeDetail(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"detail": msg})
}

// writeServiceError maps domain errors onto status codes and bodies.
// Anything unrecognized is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *market.PurchaseRejectedError

	if verr, ok := apperr.AsValidation(err); ok {
		writeJSON(w, r, http.StatusBadRequest, verr.Fields)
		return
	}

	switch {
	case errors.As(err, &rejected):
		writeJSON(w, r, http.StatusBadRequest, map[string][]string{"details": rejected.Details})
	case errors.Is(err, users.ErrInsufficientFunds), errors.Is(err, products.ErrInsufficientStock):
		writeJSON(w, r, http.StatusBadRequest, map[string][]string{"details": shortfallDetails(err)})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeJSON(w, r, http.StatusBadRequest, map[string]string{"details": msgLoginFailed})
	case errors.Is(err, users.ErrUserNotFound),
		errors.Is(err, products.ErrProductNotFound),
		errors.Is(err, products.ErrSellerNotFound):
		writeDetail(w, r, http.StatusNotFound, msgNotFound)
	case errors.Is(err, idempotency.ErrInProgress):
		writeDetail(w, r, http.StatusConflict, msgInProgress)
	case errors.Is(err, idempotency.ErrKeyReused):
		writeDetail(w, r, http.StatusUnprocessableEntity, msgKeyReused)
	default:
		logging.From(r.Context()).Error("request failed", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, map[string]string{"error": msgInternal})
	}
}

// shortfallDetails describes a funds or stock shortfall that surfaced from a
// guarded update rather than from the purchase checks.
func shortfallDetails(err error) []string {
	var details []string

	if errors.Is(err, users.ErrInsufficientFunds) {
		details = append(details, msgNoFunds)
	}

	if errors.Is(err, products.ErrInsufficientStock) {
		details = append(details, msgNoStock)
	}

	return details
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
// On failure it has already written the 400 response.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	//nolint:errcheck
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			writeDetail(w, r, http.StatusBadRequest, "empty body")
			return false
		}

		writeDetail(w, r, http.StatusBadRequest, "JSON parse error - "+err.Error())

		return false
	}

	return true
}

// requireFields returns a validation error naming every missing field.
func requireFields(present map[string]bool) error {
	verr := &apperr.ValidationError{}

	for field, ok := range present {
		if !ok {
			verr.Add(field, msgRequired)
		}
	}

	return verr.Err()
}
