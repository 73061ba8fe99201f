package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/models"
	"github.com/vikasavnish/parentportal/internal/services"
	"github.com/vikasavnish/parentportal/internal/store"
)

// ChildHandler handles child record requests
type ChildHandler struct {
	tx           *store.Transactor
	childService services.ChildService
	logger       *zap.Logger
}

// NewChildHandler creates a new child handler
func NewChildHandler(tx *store.Transactor, childService services.ChildService, logger *zap.Logger) *ChildHandler {
	return &ChildHandler{
		tx:           tx,
		childService: childService,
		logger:       logger,
	}
}

func (h *ChildHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/parents/{parentId}/children/", h.CreateChild).Methods("POST")
	router.HandleFunc("/parents/{parentId}/children/", h.ListChildren).Methods("GET")
	router.HandleFunc("/children/{childId}/", h.UpdateChild).Methods("PUT")
	router.HandleFunc("/children/", h.FilterChildren).Methods("GET")
}

// CreateChild adds a child to a parent
func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathID(r, "parentId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid parent ID")
		return
	}

	var req models.ChildCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var child models.Child
	err := h.tx.Do(r.Context(), func(uow store.UnitOfWork) error {
		var err error
		child, err = h.childService.CreateChild(uow, parentID, req)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, child)
}

// ListChildren lists a parent's children with skip/limit paging
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathID(r, "parentId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid parent ID")
		return
	}
	skip, limit, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var children []models.Child
	err = h.tx.Do(r.Context(), func(uow store.UnitOfWork) error {
		var err error
		children, err = h.childService.ListChildren(uow, parentID, skip, limit)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, children)
}

// UpdateChild applies a partial JSON update to a child
func (h *ChildHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	childID, ok := pathID(r, "childId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid child ID")
		return
	}

	var update models.ChildUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var child models.Child
	err := h.tx.Do(r.Context(), func(uow store.UnitOfWork) error {
		var err error
		child, err = h.childService.UpdateChild(uow, childID, update)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, child)
}

// FilterChildren lists a parent's children narrowed by added_after and name_contains
func (h *ChildHandler) FilterChildren(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	parentID, err := strconv.ParseUint(q.Get("parent_id"), 10, 32)
	if err != nil || parentID == 0 {
		writeError(w, http.StatusBadRequest, "parent_id is required")
		return
	}
	skip, limit, err := pageParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := models.ChildFilter{
		ParentID:     uint(parentID),
		NameContains: q.Get("name_contains"),
		Skip:         skip,
		Limit:        limit,
	}
	if raw := q.Get("added_after"); raw != "" {
		after, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid added_after")
			return
		}
		filter.AddedAfter = &after
	}

	var children []models.Child
	err = h.tx.Do(r.Context(), func(uow store.UnitOfWork) error {
		var err error
		children, err = h.childService.FilterChildren(uow, filter)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, children)
}

// parseDate accepts RFC 3339 timestamps or plain dates, the latter as midnight UTC
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t.UTC(), nil
	}
	return time.Parse("2006-01-02", raw)
}
