package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/shiftopia/shiftopia/modules/scheduling/services"
	"github.com/shiftopia/shiftopia/pkg/api"
	"github.com/shiftopia/shiftopia/pkg/authz"
	"github.com/shiftopia/shiftopia/pkg/composables"
	"github.com/shiftopia/shiftopia/pkg/configuration"
)

func writeJSON[T any](w http.ResponseWriter, status int, payload T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func ensureRequestID(r *http.Request) string {
	conf := configuration.Use()
	v := strings.TrimSpace(r.Header.Get(conf.RequestIDHeader))
	if v != "" {
		return v
	}
	v = uuid.NewString()
	r.Header.Set(conf.RequestIDHeader, v)
	return v
}

func writeAPIError(w http.ResponseWriter, status int, requestID, code, message string) {
	meta := map[string]string{}
	if requestID != "" {
		meta["request_id"] = requestID
	}
	writeJSON(w, status, api.APIError{
		Message: message,
		Code:    code,
		Meta:    meta,
	})
}

func writeServiceError(w http.ResponseWriter, requestID string, err error) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		writeAPIError(w, svcErr.Status, requestID, svcErr.Code, svcErr.Message)
		return
	}
	writeAPIError(w, http.StatusInternalServerError, requestID, "SCHEDULING_INTERNAL", "internal server error")
}

func decodeJSON(body io.ReadCloser, out any) error {
	defer func() { _ = body.Close() }()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(out)
}

func requireUser(w http.ResponseWriter, r *http.Request) (*authz.Claims, string, bool) {
	requestID := ensureRequestID(r)
	claims, err := composables.UseUser(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusUnauthorized, requestID, "UNAUTHORIZED", "authentication required")
		return nil, requestID, false
	}
	return claims, requestID, true
}

func requireManager(w http.ResponseWriter, r *http.Request) (*authz.Claims, string, bool) {
	claims, requestID, ok := requireUser(w, r)
	if !ok {
		return nil, requestID, false
	}
	if !claims.IsManager() {
		writeAPIError(w, http.StatusForbidden, requestID, "FORBIDDEN", "manager role required")
		return nil, requestID, false
	}
	return claims, requestID, true
}
