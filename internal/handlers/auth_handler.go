package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/models"
	"github.com/vikasavnish/parentportal/internal/services"
	"github.com/vikasavnish/parentportal/internal/store"
	"github.com/vikasavnish/parentportal/internal/utils"
)

// AuthHandler handles registration, activation and login requests
type AuthHandler struct {
	tx             *store.Transactor
	accountService services.AccountService
	logger         *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(tx *store.Transactor, accountService services.AccountService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		tx:             tx,
		accountService: accountService,
		logger:         logger,
	}
}

// RegisterRoutes registers the public account routes
func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/register/", h.Register).Methods("POST")
	router.HandleFunc("/activate/{token}/", h.Activate).Methods("POST")
	router.HandleFunc("/login/", h.Login).Methods("POST")
}

// RegisterProtectedRoutes registers routes that need a bearer token
func (h *AuthHandler) RegisterProtectedRoutes(router *mux.Router) {
	router.HandleFunc("/me/", h.Me).Methods("GET")
}

// Register creates a pending parent and sends the activation email
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.tx.Do(r.Context(), func(uow store.UnitOfWork) error {
		_, err := h.accountService.Register(uow, req)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeText(w, http.StatusOK, "success")
}

// Activate consumes the activation token from the emailed link
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	err := h.tx.Do(r.Context(), func(uow store.UnitOfWork) error {
		_, err := h.accountService.Activate(uow, token)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeText(w, http.StatusOK, "your account activated")
}

// Login handles form-encoded username/password login and returns a JWT token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	var resp models.TokenResponse
	err := h.tx.Do(r.Context(), func(uow store.UnitOfWork) error {
		var err error
		resp, err = h.accountService.Login(uow, username, password)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me returns the parent named by the bearer token
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token, err := utils.GetBearerTokenFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	var parent models.Parent
	err = h.tx.Do(r.Context(), func(uow store.UnitOfWork) error {
		var err error
		parent, err = h.accountService.CurrentParent(uow, token)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, parent)
}
