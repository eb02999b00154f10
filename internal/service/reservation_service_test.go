package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cigale/internal/entities"
	"cigale/internal/repository"
	"cigale/internal/validation"
)

type MockReservationStore struct {
	mock.Mock
}

func (m *MockReservationStore) ListReservations(ctx context.Context, filter entities.Filter) (entities.ReservationsList, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(entities.ReservationsList), args.Error(1)
}

func (m *MockReservationStore) CreateReservation(ctx context.Context, input entities.ReservationInput) (entities.Reservation, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(entities.Reservation), args.Error(1)
}

func (m *MockReservationStore) UpdateReservation(ctx context.Context, id string, patch entities.ReservationPatch) (entities.Reservation, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(entities.Reservation), args.Error(1)
}

func (m *MockReservationStore) UpdateStatus(ctx context.Context, id string, arrived bool) (entities.Reservation, error) {
	args := m.Called(ctx, id, arrived)
	return args.Get(0).(entities.Reservation), args.Error(1)
}

func (m *MockReservationStore) DeleteReservation(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store ReservationStore) (*ReservationService, *[]string) {
	svc := NewReservationService(store, validation.DefaultOperatingHours(), discardLogger())
	var changes []string
	svc.OnChange(func(_ context.Context, op, id string) {
		changes = append(changes, op+":"+id)
	})
	return svc, &changes
}

func object(t *testing.T, body string) validation.Object {
	t.Helper()
	obj, err := validation.ParseObject([]byte(body))
	require.NoError(t, err)
	return obj
}

var dupont = entities.Reservation{
	ID:        "rec1",
	Name:      "Dupont",
	Date:      "2026-01-16",
	Time:      "19:30",
	PartySize: 4,
	Phone:     "0601020304",
	Status:    entities.StatusUpcoming,
}

func TestReservationServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid input reaches the store", func(t *testing.T) {
		store := new(MockReservationStore)
		svc, changes := newTestService(store)
		store.On("CreateReservation", ctx, entities.ReservationInput{
			Name: "Dupont", Date: "2026-01-16", Time: "19:30", PartySize: 4, Phone: "0601020304", Status: entities.StatusUpcoming,
		}).Return(dupont, nil).Once()

		created, err := svc.Create(ctx, object(t, `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":4,"phone":"0601020304"}`))
		require.NoError(t, err)
		assert.Equal(t, dupont, created)
		assert.Equal(t, []string{"create:rec1"}, *changes)
		store.AssertExpectations(t)
	})

	t.Run("invalid input never reaches the store", func(t *testing.T) {
		store := new(MockReservationStore)
		svc, changes := newTestService(store)

		_, err := svc.Create(ctx, object(t, `{"name":"","date":"2026-01-16","time":"19:30","partySize":4}`))
		var vErr *validation.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Empty(t, *changes)
		store.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
	})

	t.Run("time outside service hours", func(t *testing.T) {
		store := new(MockReservationStore)
		svc, _ := newTestService(store)

		for _, at := range []string{"10:30", "23:00"} {
			_, err := svc.Create(ctx, object(t, `{"name":"Dupont","date":"2026-01-16","time":"`+at+`","partySize":4}`))
			var vErr *validation.ValidationError
			require.True(t, errors.As(err, &vErr), at)
			assert.Equal(t, "time", vErr.Issues[0].Path)
		}
		store.AssertNotCalled(t, "CreateReservation", mock.Anything, mock.Anything)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		store := new(MockReservationStore)
		svc, changes := newTestService(store)
		storeErr := &repository.StoreError{Op: "create", Kind: repository.ErrStoreWrite}
		store.On("CreateReservation", ctx, mock.Anything).Return(entities.Reservation{}, storeErr).Once()

		_, err := svc.Create(ctx, object(t, `{"name":"Dupont","date":"2026-01-16","time":"19:30","partySize":4}`))
		assert.True(t, errors.Is(err, repository.ErrStoreWrite))
		assert.Empty(t, *changes)
	})
}

func TestReservationServiceApply(t *testing.T) {
	ctx := context.Background()

	t.Run("status change goes to UpdateStatus", func(t *testing.T) {
		store := new(MockReservationStore)
		svc, changes := newTestService(store)
		arrived := dupont
		arrived.Status = entities.StatusArrived
		store.On("UpdateStatus", ctx, "rec1", true).Return(arrived, nil).Twice()

		first, err := svc.Apply(ctx, "rec1", entities.StatusChange(true))
		require.NoError(t, err)
		second, err := svc.Apply(ctx, "rec1", entities.StatusChange(true))
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, []string{"status:rec1", "status:rec1"}, *changes)
		store.AssertNotCalled(t, "UpdateReservation", mock.Anything, mock.Anything, mock.Anything)
		store.AssertExpectations(t)
	})

	t.Run("field change goes to UpdateReservation", func(t *testing.T) {
		store := new(MockReservationStore)
		svc, _ := newTestService(store)
		size := 6
		patch := entities.ReservationPatch{PartySize: &size}
		updated := dupont
		updated.PartySize = 6
		store.On("UpdateReservation", ctx, "rec1", patch).Return(updated, nil).Once()

		got, err := svc.Apply(ctx, "rec1", entities.FieldsChange(patch))
		require.NoError(t, err)
		assert.Equal(t, 6, got.PartySize)
		store.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("field change checks service hours", func(t *testing.T) {
		store := new(MockReservationStore)
		svc, _ := newTestService(store)
		late := "23:15"

		_, err := svc.Apply(ctx, "rec1", entities.FieldsChange(entities.ReservationPatch{Time: &late}))
		var vErr *validation.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("unknown kind", func(t *testing.T) {
		svc, _ := newTestService(new(MockReservationStore))
		_, err := svc.Apply(ctx, "rec1", entities.Change{Kind: "rename"})
		var vErr *validation.ValidationError
		assert.True(t, errors.As(err, &vErr))
	})

	t.Run("blank id", func(t *testing.T) {
		store := new(MockReservationStore)
		svc, _ := newTestService(store)

		_, err := svc.Apply(ctx, "  ", entities.StatusChange(true))
		var vErr *validation.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "id", vErr.Issues[0].Path)

		err = svc.Delete(ctx, "")
		assert.True(t, errors.As(err, &vErr))
		store.AssertExpectations(t)
	})

	t.Run("missing record", func(t *testing.T) {
		store := new(MockReservationStore)
		svc, changes := newTestService(store)
		notFound := &repository.StoreError{Op: "update status", Kind: repository.ErrRecordNotFound, Status: 404}
		store.On("UpdateStatus", ctx, "recGhost", false).Return(entities.Reservation{}, notFound).Once()

		_, err := svc.SetArrival(ctx, "recGhost", false)
		assert.True(t, errors.Is(err, repository.ErrRecordNotFound))
		assert.Equal(t, "not_found", ErrorKind(err))
		assert.Empty(t, *changes)
	})
}

func TestReservationServiceListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := new(MockReservationStore)
	svc, changes := newTestService(store)

	filter := entities.Filter{Date: "2026-01-16", Status: "NOPE"}
	store.On("ListReservations", ctx, filter).Return(entities.ReservationsList{}, nil).Once()
	store.On("DeleteReservation", ctx, "rec1").Return(nil).Once()

	list, err := svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Empty(t, list.Reservations)

	require.NoError(t, svc.Delete(ctx, " rec1 "))
	assert.Equal(t, []string{"delete:rec1"}, *changes)
	store.AssertExpectations(t)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "", ErrorKind(nil))
	assert.Equal(t, "validation", ErrorKind(validation.Invalid("name", "x")))
	assert.Equal(t, "store_unavailable", ErrorKind(&repository.StoreError{Kind: repository.ErrStoreUnavailable}))
	assert.Equal(t, "unparseable_record", ErrorKind(&repository.UnparseableRecordError{RecordID: "rec1"}))
	assert.Equal(t, "unexpected", ErrorKind(errors.New("boom")))
}
