package handler

import (
	"encoding/json"
	"net/http"

	"olimpiada_backend/internal/api/middleware"
	"olimpiada_backend/internal/app/service"
	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// AdminHandler covers competition management, tutor provisioning and
// the enrollment review queue.
type AdminHandler struct {
	competitionService *service.CompetitionService
	enrollmentService  *service.EnrollmentService
	registryService    *service.RegistryService
}

func NewAdminHandler(competitionService *service.CompetitionService, enrollmentService *service.EnrollmentService, registryService *service.RegistryService) *AdminHandler {
	return &AdminHandler{
		competitionService: competitionService,
		enrollmentService:  enrollmentService,
		registryService:    registryService,
	}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.RequireRole(model.RolAdministrador))

	r.Post("/competencias", h.createCompetition)
	r.Get("/competencias", h.listCompetitions)
	r.Get("/competencias/nombre-disponible", h.nameAvailable)
	r.Get("/competencias/{id}", h.getCompetition)
	r.Patch("/competencias/{id}", h.updateCompetition)

	r.Post("/tutores", h.registerTutor)
	r.Patch("/inscripciones/{id}/estado", h.updateEnrollmentStatus)
}

func (h *AdminHandler) createCompetition(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCompetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	competition, err := h.competitionService.Create(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, competition)
}

func (h *AdminHandler) listCompetitions(w http.ResponseWriter, r *http.Request) {
	comps, err := h.competitionService.List(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, comps)
}

func (h *AdminHandler) nameAvailable(w http.ResponseWriter, r *http.Request) {
	nombre := r.URL.Query().Get("nombre")
	available, err := h.competitionService.NameAvailable(r.Context(), nombre)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]bool{"disponible": available})
}

func (h *AdminHandler) getCompetition(w http.ResponseWriter, r *http.Request) {
	competition, err := h.competitionService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, competition)
}

func (h *AdminHandler) updateCompetition(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateCompetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.competitionService.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) registerTutor(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterTutorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	tutor, err := h.registryService.RegisterTutor(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, tutor)
}

func (h *AdminHandler) updateEnrollmentStatus(w http.ResponseWriter, r *http.Request) {
	var req service.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	enrollment, err := h.enrollmentService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, enrollment)
}
