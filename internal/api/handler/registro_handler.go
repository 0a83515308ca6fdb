package handler

import (
	"encoding/json"
	"net/http"

	"olimpiada_backend/internal/app/service"
	"olimpiada_backend/internal/common"

	"github.com/go-chi/chi/v5"
)

// RegistroHandler exposes the public registration flow: the enrollment
// submission plus the catalog lookups the form needs.
type RegistroHandler struct {
	enrollmentService *service.EnrollmentService
	consultaService   *service.ConsultaService
}

func NewRegistroHandler(enrollmentService *service.EnrollmentService, consultaService *service.ConsultaService) *RegistroHandler {
	return &RegistroHandler{enrollmentService: enrollmentService, consultaService: consultaService}
}

func (h *RegistroHandler) RegisterRoutes(r chi.Router) {
	r.Post("/inscripcion", h.enroll)
	r.Get("/areas", h.listAreas)
	r.Get("/areas/{areaID}/grados-nivel", h.gradosNivel)
	r.Get("/departamentos", h.listDepartamentos)
	r.Get("/departamentos/{codDept}/municipios", h.listMunicipios)
}

func (h *RegistroHandler) enroll(w http.ResponseWriter, r *http.Request) {
	var req service.EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.enrollmentService.Enroll(r.Context(), req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *RegistroHandler) listAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.consultaService.Areas(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, areas)
}

func (h *RegistroHandler) gradosNivel(w http.ResponseWriter, r *http.Request) {
	areaID := chi.URLParam(r, "areaID")
	catalog, err := h.consultaService.GradosNivel(r.Context(), areaID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, catalog)
}

func (h *RegistroHandler) listDepartamentos(w http.ResponseWriter, r *http.Request) {
	depts, err := h.consultaService.Departamentos(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, depts)
}

func (h *RegistroHandler) listMunicipios(w http.ResponseWriter, r *http.Request) {
	codDept := chi.URLParam(r, "codDept")
	munis, err := h.consultaService.Municipios(r.Context(), codDept)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, munis)
}
