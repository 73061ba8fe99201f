package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/services"
	"github.com/vikasavnish/parentportal/internal/store"
)

// errorResponse is the JSON body of every error reply
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeServiceError maps service sentinel errors onto HTTP statuses.
// Anything unrecognised is logged and reported as a 500 with a generic message.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, services.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrParentNotFound):
		writeError(w, http.StatusNotFound, "Parent not found")
	case errors.Is(err, services.ErrChildNotFound):
		writeError(w, http.StatusNotFound, "Child not found")
	case errors.Is(err, services.ErrActivationTokenNotFound):
		writeError(w, http.StatusNotFound, "Invalid activation token")
	case errors.Is(err, services.ErrActivationTokenExpired):
		writeError(w, http.StatusGone, "Activation token expired")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Incorrect password")
	case errors.Is(err, services.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Could not validate credentials")
	case errors.Is(err, services.ErrAccountInactive):
		writeError(w, http.StatusForbidden, "Account not activated")
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathID parses a numeric mux path variable
func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// pageParams reads skip and limit from the query string. A missing limit
// means store.DefaultLimit; skip below 0 and limit outside 1..store.MaxLimit
// are rejected.
func pageParams(r *http.Request) (skip, limit int, err error) {
	q := r.URL.Query()
	limit = store.DefaultLimit
	if v := q.Get("skip"); v != "" {
		if skip, err = strconv.Atoi(v); err != nil || skip < 0 {
			return 0, 0, errors.New("skip must be a non-negative integer")
		}
	}
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 || limit > store.MaxLimit {
			return 0, 0, fmt.Errorf("limit must be an integer between 1 and %d", store.MaxLimit)
		}
	}
	return skip, limit, nil
}
