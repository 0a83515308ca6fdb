package handler

import (
	"net/http"

	"olimpiada_backend/internal/api/middleware"
	"olimpiada_backend/internal/app/service"
	"olimpiada_backend/internal/common"
	"olimpiada_backend/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type CajeroHandler struct {
	cashierService *service.CashierService
}

func NewCajeroHandler(cashierService *service.CashierService) *CajeroHandler {
	return &CajeroHandler{cashierService: cashierService}
}

func (h *CajeroHandler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Authenticator)
	r.Use(middleware.RequireRole(model.RolCajero, model.RolAdministrador))

	r.Get("/aprobados", h.aprobados)
	r.Get("/habilitados", h.habilitados)
	r.Get("/stats", h.stats)
	r.Post("/inscripciones/{id}/pagar", h.markPaid)
}

func (h *CajeroHandler) aprobados(w http.ResponseWriter, r *http.Request) {
	rows, err := h.cashierService.Aprobados(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *CajeroHandler) habilitados(w http.ResponseWriter, r *http.Request) {
	rows, err := h.cashierService.Habilitados(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, rows)
}

func (h *CajeroHandler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.cashierService.Stats(r.Context())
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *CajeroHandler) markPaid(w http.ResponseWriter, r *http.Request) {
	if err := h.cashierService.MarkPaid(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"mensaje": "Pago registrado"})
}
