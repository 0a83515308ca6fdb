package handler

import (
	"net/http"

	"olimpiada_backend/internal/api/middleware"
	"olimpiada_backend/internal/app/service"
	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

// ConsultaHandler serves the authenticated dashboards (tutor and
// competitor views) plus the public stage schedule lookup.
type ConsultaHandler struct {
	consultaService    *service.ConsultaService
	competitionService *service.CompetitionService
}

func NewConsultaHandler(consultaService *service.ConsultaService, competitionService *service.CompetitionService) *ConsultaHandler {
	return &ConsultaHandler{consultaService: consultaService, competitionService: competitionService}
}

func (h *ConsultaHandler) RegisterRoutes(r chi.Router) {
	r.Get("/competencias/{nombre}/etapas", h.stages)

	r.Group(func(tutorRouter chi.Router) {
		tutorRouter.Use(middleware.Authenticator)
		tutorRouter.Use(middleware.RequireRole(model.RolTutor, model.RolAdministrador))
		tutorRouter.Get("/tutor/competidores", h.competidores)
		tutorRouter.Get("/tutor/estados", h.estadoCounts)
	})

	r.Group(func(compRouter chi.Router) {
		compRouter.Use(middleware.Authenticator)
		compRouter.Get("/competidor/areas", h.areas)
	})
}

func (h *ConsultaHandler) stages(w http.ResponseWriter, r *http.Request) {
	stages, err := h.competitionService.StagesByName(r.Context(), chi.URLParam(r, "nombre"))
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stages)
}

func (h *ConsultaHandler) competidores(w http.ResponseWriter, r *http.Request) {
	personID, ok := middleware.GetPersonIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing person context")
		return
	}
	rows, err := h.consultaService.CompetidoresByTutor(r.Context(), personID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *ConsultaHandler) estadoCounts(w http.ResponseWriter, r *http.Request) {
	personID, ok := middleware.GetPersonIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing person context")
		return
	}
	counts, err := h.consultaService.EstadoCounts(r.Context(), personID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, counts)
}

func (h *ConsultaHandler) areas(w http.ResponseWriter, r *http.Request) {
	personID, ok := middleware.GetPersonIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing person context")
		return
	}
	areas, err := h.consultaService.AreasByCompetitor(r.Context(), personID)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, areas)
}
