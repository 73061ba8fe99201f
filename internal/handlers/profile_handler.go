package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vikasavnish/parentportal/internal/models"
	"github.com/vikasavnish/parentportal/internal/services"
	"github.com/vikasavnish/parentportal/internal/store"
)

const maxUploadSize = 10 << 20

// ProfileHandler handles parent profile requests
type ProfileHandler struct {
	tx             *store.Transactor
	profileService services.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(tx *store.Transactor, profileService services.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		tx:             tx,
		profileService: profileService,
		logger:         logger,
	}
}

func (h *ProfileHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/parent/profile/{parentId}", h.UpdateProfile).Methods("PUT")
}

// UpdateProfile applies the multipart form fields present in the request and
// stores the uploaded profile_photo
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathID(r, "parentId")
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid parent ID")
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	update, err := parentUpdateFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("profile_photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "profile_photo is required")
		return
	}
	defer file.Close()
	photo := &services.PhotoUpload{Filename: header.Filename, Content: file}

	var parent models.Parent
	err = h.tx.Do(r.Context(), func(uow store.UnitOfWork) error {
		var err error
		parent, err = h.profileService.UpdateProfile(r.Context(), uow, parentID, update, photo)
		return err
	})
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, parent)
}

// parentUpdateFromForm sets only the fields whose keys appear in the form
func parentUpdateFromForm(r *http.Request) (models.ParentUpdate, error) {
	var update models.ParentUpdate
	form := r.MultipartForm.Value

	field := func(key string) *string {
		values, ok := form[key]
		if !ok || len(values) == 0 {
			return nil
		}
		v := values[0]
		return &v
	}

	update.FirstName = field("first_name")
	update.LastName = field("last_name")
	update.Address = field("address")
	update.City = field("city")
	update.Country = field("country")
	update.Pincode = field("pincode")
	update.Email = field("email")

	if raw := field("age"); raw != nil {
		age, err := strconv.Atoi(*raw)
		if err != nil || age < 0 {
			return models.ParentUpdate{}, fmt.Errorf("invalid age %q", *raw)
		}
		update.Age = &age
	}
	return update, nil
}
