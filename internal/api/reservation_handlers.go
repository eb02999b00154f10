package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"cigale/internal/entities"
	apperrors "cigale/internal/errors"
	"cigale/internal/validation"
)

const maxBodyBytes = 1 << 20

const (
	msgListFailed   = "Impossible de récupérer les réservations"
	msgCreateFailed = "Impossible de créer la réservation"
	msgUpdateFailed = "Impossible de mettre à jour la réservation"
	msgDeleteFailed = "Impossible de supprimer la réservation"
	msgDeleted      = "Réservation supprimée avec succès"
)

// ReservationService is the write side used by the handlers.
type ReservationService interface {
	Create(ctx context.Context, obj validation.Object) (entities.Reservation, error)
	Apply(ctx context.Context, id string, change entities.Change) (entities.Reservation, error)
	SetArrival(ctx context.Context, id string, arrived bool) (entities.Reservation, error)
	Delete(ctx context.Context, id string) error
}

// ReservationLister is the read side, usually the list cache.
type ReservationLister interface {
	List(ctx context.Context, filter entities.Filter) (entities.ReservationsList, error)
}

type ReservationHandler struct {
	Service ReservationService
	Lister  ReservationLister
	respond responder
}

func NewReservationHandler(svc ReservationService, lister ReservationLister, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{Service: svc, Lister: lister, respond: newResponder(logger)}
}

// ListReservations handles GET /api/reservations?date=&statut=.
func (h *ReservationHandler) ListReservations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := entities.Filter{Date: query.Get("date"), Status: query.Get("statut")}
	if filter.Status == "" {
		filter.Status = query.Get("status")
	}

	list, err := h.Lister.List(r.Context(), filter)
	if err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgListFailed)
		return
	}

	data := list.Reservations
	if data == nil {
		data = []entities.Reservation{}
	}
	h.respond.writeJSON(r.Context(), w, http.StatusOK, ListReservationsResponse{
		Success: true,
		Data:    data,
		Count:   len(data),
		Skipped: list.Skipped,
	})
}

func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	obj, err := readObject(w, r)
	if err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgCreateFailed)
		return
	}

	created, err := h.Service.Create(r.Context(), obj)
	if err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgCreateFailed)
		return
	}
	h.respond.writeJSON(r.Context(), w, http.StatusCreated, ReservationResponse{Success: true, Data: created})
}

// UpdateReservation handles PUT /api/reservations/{id}, explicit or legacy body.
func (h *ReservationHandler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	obj, err := readObject(w, r)
	if err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgUpdateFailed)
		return
	}
	change, err := validation.ValidateChange(obj)
	if err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgUpdateFailed)
		return
	}

	updated, err := h.Service.Apply(r.Context(), id, change)
	if err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgUpdateFailed)
		return
	}
	h.respond.writeJSON(r.Context(), w, http.StatusOK, ReservationResponse{Success: true, Data: updated})
}

// UpdateStatus handles PATCH /api/reservations/{id}/status.
func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	obj, err := readObject(w, r)
	if err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgUpdateFailed)
		return
	}
	arrived, err := validation.ValidateStatus(obj)
	if err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgUpdateFailed)
		return
	}

	updated, err := h.Service.SetArrival(r.Context(), id, arrived)
	if err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgUpdateFailed)
		return
	}
	h.respond.writeJSON(r.Context(), w, http.StatusOK, ReservationResponse{Success: true, Data: updated})
}

func (h *ReservationHandler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.respond.handleServiceError(r.Context(), w, err, msgDeleteFailed)
		return
	}
	h.respond.writeJSON(r.Context(), w, http.StatusOK, MessageResponse{Success: true, Message: msgDeleted})
}

func (h *ReservationHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond.writeJSON(r.Context(), w, http.StatusOK, HealthResponse{Status: "ok"})
}

func readObject(w http.ResponseWriter, r *http.Request) (validation.Object, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperrors.NewHTTPError(http.StatusRequestEntityTooLarge, "Corps de requête trop volumineux")
		}
		return nil, apperrors.ErrBadRequest("Corps de requête illisible")
	}
	return validation.ParseObject(body)
}
