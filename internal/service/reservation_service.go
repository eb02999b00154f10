package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cigale/internal/entities"
	"cigale/internal/logging"
	"cigale/internal/repository"
	"cigale/internal/validation"
)

// ReservationStore is the persistence port of the reservation service.
type ReservationStore interface {
	ListReservations(ctx context.Context, filter entities.Filter) (entities.ReservationsList, error)
	CreateReservation(ctx context.Context, input entities.ReservationInput) (entities.Reservation, error)
	UpdateReservation(ctx context.Context, id string, patch entities.ReservationPatch) (entities.Reservation, error)
	UpdateStatus(ctx context.Context, id string, arrived bool) (entities.Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

// ChangeListener is called after every successful mutation.
type ChangeListener func(ctx context.Context, op string, id string)

type ReservationService struct {
	store  ReservationStore
	hours  validation.OperatingHours
	logger *slog.Logger

	mu        sync.RWMutex
	listeners []ChangeListener
}

func NewReservationService(store ReservationStore, hours validation.OperatingHours, logger *slog.Logger) *ReservationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationService{store: store, hours: hours, logger: logger}
}

// OnChange registers a listener for successful creates, updates and deletes.
func (s *ReservationService) OnChange(listener ChangeListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *ReservationService) Hours() validation.OperatingHours {
	return s.hours
}

// List never fails validation: unknown filter values simply match nothing.
func (s *ReservationService) List(ctx context.Context, filter entities.Filter) (entities.ReservationsList, error) {
	logger := s.serviceLogger(ctx, "List", "date", filter.Date, "status", filter.Status)

	list, err := s.store.ListReservations(ctx, filter)
	if err != nil {
		logger.ErrorContext(ctx, "list reservations failed", "error_kind", ErrorKind(err), "error", err)
		return entities.ReservationsList{}, fmt.Errorf("list reservations: %w", err)
	}
	if len(list.Skipped) > 0 {
		logger.WarnContext(ctx, "reservations skipped", "count", len(list.Skipped))
	}
	logger.DebugContext(ctx, "reservations listed", "count", len(list.Reservations))
	return list, nil
}

func (s *ReservationService) Create(ctx context.Context, obj validation.Object) (entities.Reservation, error) {
	logger := s.serviceLogger(ctx, "Create")

	input, err := validation.ValidateCreate(obj)
	if err != nil {
		logger.InfoContext(ctx, "create rejected", "error_kind", ErrorKind(err), "error", err)
		return entities.Reservation{}, err
	}
	if err := s.hours.Check(input.Time); err != nil {
		logger.InfoContext(ctx, "create rejected", "error_kind", ErrorKind(err), "time", input.Time)
		return entities.Reservation{}, err
	}

	created, err := s.store.CreateReservation(ctx, input)
	if err != nil {
		logger.ErrorContext(ctx, "create reservation failed", "error_kind", ErrorKind(err), "error", err)
		return entities.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}

	logger.InfoContext(ctx, "reservation created", "reservation_id", created.ID, "date", created.Date, "time", created.Time)
	s.notify(ctx, "create", created.ID)
	return created, nil
}

// Apply runs an explicit change: a status toggle or a general update.
func (s *ReservationService) Apply(ctx context.Context, id string, change entities.Change) (entities.Reservation, error) {
	switch change.Kind {
	case entities.ChangeStatus:
		return s.SetArrival(ctx, id, change.Arrived)
	case entities.ChangeFields:
		return s.UpdateFields(ctx, id, change.Patch)
	}
	return entities.Reservation{}, validation.Invalid("kind", fmt.Sprintf("type de modification inconnu %q", change.Kind))
}

// SetArrival is idempotent: setting the current status again succeeds.
func (s *ReservationService) SetArrival(ctx context.Context, id string, arrived bool) (entities.Reservation, error) {
	logger := s.serviceLogger(ctx, "SetArrival", "reservation_id", id, "arrived", arrived)

	id, err := requireID(id)
	if err != nil {
		return entities.Reservation{}, err
	}

	updated, err := s.store.UpdateStatus(ctx, id, arrived)
	if err != nil {
		logger.ErrorContext(ctx, "update status failed", "error_kind", ErrorKind(err), "error", err)
		return entities.Reservation{}, fmt.Errorf("update status: %w", err)
	}

	logger.InfoContext(ctx, "reservation status updated", "status", updated.Status)
	s.notify(ctx, "status", id)
	return updated, nil
}

func (s *ReservationService) UpdateFields(ctx context.Context, id string, patch entities.ReservationPatch) (entities.Reservation, error) {
	logger := s.serviceLogger(ctx, "UpdateFields", "reservation_id", id)

	id, err := requireID(id)
	if err != nil {
		return entities.Reservation{}, err
	}
	if patch.Time != nil {
		if err := s.hours.Check(*patch.Time); err != nil {
			logger.InfoContext(ctx, "update rejected", "error_kind", ErrorKind(err), "time", *patch.Time)
			return entities.Reservation{}, err
		}
	}

	updated, err := s.store.UpdateReservation(ctx, id, patch)
	if err != nil {
		logger.ErrorContext(ctx, "update reservation failed", "error_kind", ErrorKind(err), "error", err)
		return entities.Reservation{}, fmt.Errorf("update reservation: %w", err)
	}

	logger.InfoContext(ctx, "reservation updated")
	s.notify(ctx, "update", id)
	return updated, nil
}

func (s *ReservationService) Delete(ctx context.Context, id string) error {
	logger := s.serviceLogger(ctx, "Delete", "reservation_id", id)

	id, err := requireID(id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteReservation(ctx, id); err != nil {
		logger.ErrorContext(ctx, "delete reservation failed", "error_kind", ErrorKind(err), "error", err)
		return fmt.Errorf("delete reservation: %w", err)
	}

	logger.InfoContext(ctx, "reservation deleted")
	s.notify(ctx, "delete", id)
	return nil
}

func (s *ReservationService) notify(ctx context.Context, op, id string) {
	s.mu.RLock()
	listeners := make([]ChangeListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(ctx, op, id)
	}
}

func (s *ReservationService) serviceLogger(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	pairs := append([]any{"service", "ReservationService", "operation", operation}, attrs...)
	return logging.OrDefault(ctx, s.logger).With(pairs...)
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", validation.Invalid("id", "identifiant de réservation manquant")
	}
	return id, nil
}

// ErrorKind maps errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var vErr *validation.ValidationError
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.Is(err, repository.ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrUnparseableRecord):
		return "unparseable_record"
	case errors.Is(err, repository.ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, repository.ErrStoreWrite):
		return "store_write"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}
	return "unexpected"
}
