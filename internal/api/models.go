package api

import (
	"cigale/internal/entities"
	"cigale/internal/validation"
)

type ListReservationsResponse struct {
	Success bool                     `json:"success"`
	Data    []entities.Reservation   `json:"data"`
	Count   int                      `json:"count"`
	Skipped []entities.SkippedRecord `json:"skipped,omitempty"`
}

type ReservationResponse struct {
	Success bool                 `json:"success"`
	Data    entities.Reservation `json:"data"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool               `json:"success"`
	Error   string             `json:"error"`
	Details []validation.Issue `json:"details,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
