package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cigale/internal/entities"
	"cigale/internal/testfixtures"
)

type stubLister struct {
	list    entities.ReservationsList
	err     error
	filters []entities.Filter
}

func (s *stubLister) List(_ context.Context, filter entities.Filter) (entities.ReservationsList, error) {
	s.filters = append(s.filters, filter)
	if s.err != nil {
		return entities.ReservationsList{}, s.err
	}
	var out entities.ReservationsList
	for _, r := range s.list.Reservations {
		if filter.Match(r) {
			out.Reservations = append(out.Reservations, r)
		}
	}
	return out, nil
}

type recordingSMS struct {
	mu   sync.Mutex
	sent map[string]string
	fail bool
}

func (r *recordingSMS) SendSMS(_ context.Context, to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("twilio down")
	}
	if r.sent == nil {
		r.sent = make(map[string]string)
	}
	r.sent[to] = body
	return nil
}

type recordingEmail struct {
	messages []EmailMessage
}

func (r *recordingEmail) SendEmail(_ context.Context, msg EmailMessage) error {
	r.messages = append(r.messages, msg)
	return nil
}

func newJobFixture(t *testing.T, reservations ...entities.Reservation) (*JobService, *recordingSMS, *recordingEmail, *testfixtures.Clock) {
	t.Helper()
	sms := &recordingSMS{}
	email := &recordingEmail{}
	sender, err := NewSenderService(&Notifier{SMS: sms, Email: email}, "La Cigale")
	require.NoError(t, err)
	clock := testfixtures.NewClock(testfixtures.At(2026, time.January, 16, 19, 45))
	jobs := NewJobService(&stubLister{list: entities.ReservationsList{Reservations: reservations}}, sender, JobOptions{
		Location:        testfixtures.Paris,
		LateAfter:       15 * time.Minute,
		DigestRecipient: "salle@lacigale.fr",
		Now:             clock.NowFunc(),
		Logger:          discardLogger(),
	})
	return jobs, sms, email, clock
}

func TestRemindLateArrivals(t *testing.T) {
	ctx := context.Background()
	late := dupont
	notLateEnough := entities.Reservation{ID: "rec2", Name: "Martin", Date: "2026-01-16", Time: "19:40", PartySize: 2, Phone: "0611111111", Status: entities.StatusUpcoming}
	noPhone := entities.Reservation{ID: "rec3", Name: "Leroy", Date: "2026-01-16", Time: "19:00", PartySize: 3, Status: entities.StatusUpcoming}
	arrived := entities.Reservation{ID: "rec4", Name: "Petit", Date: "2026-01-16", Time: "19:00", PartySize: 2, Phone: "0622222222", Status: entities.StatusArrived}

	jobs, sms, _, clock := newJobFixture(t, late, notLateEnough, noPhone, arrived)

	sent, err := jobs.RemindLateArrivals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Contains(t, sms.sent, "+33601020304")
	assert.Contains(t, sms.sent["+33601020304"], "15 min")

	sent, err = jobs.RemindLateArrivals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent, "a reservation is reminded once per day")

	clock.Advance(10 * time.Minute)
	sent, err = jobs.RemindLateArrivals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Contains(t, sms.sent, "+33611111111")
}

func TestRemindLateArrivalsFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("send failure is reported", func(t *testing.T) {
		jobs, sms, _, _ := newJobFixture(t, dupont)
		sms.fail = true

		sent, err := jobs.RemindLateArrivals(ctx)
		assert.Equal(t, 0, sent)
		assert.ErrorContains(t, err, "twilio down")
	})

	t.Run("disabled channel", func(t *testing.T) {
		sender, err := NewSenderService(&Notifier{}, "La Cigale")
		require.NoError(t, err)
		jobs := NewJobService(&stubLister{list: entities.ReservationsList{Reservations: []entities.Reservation{dupont}}}, sender, JobOptions{
			Location:  testfixtures.Paris,
			LateAfter: time.Minute,
			Now:       testfixtures.NewClock(testfixtures.At(2026, time.January, 16, 20, 0)).NowFunc(),
			Logger:    discardLogger(),
		})

		_, err = jobs.RemindLateArrivals(ctx)
		assert.True(t, errors.Is(err, ErrChannelDisabled))
	})
}

func TestSendDailyDigest(t *testing.T) {
	second := entities.Reservation{ID: "rec2", Name: "Martin", Date: "2026-01-16", Time: "12:15", PartySize: 2, Notes: "terrasse", Status: entities.StatusArrived}
	otherDay := entities.Reservation{ID: "rec3", Name: "Leroy", Date: "2026-01-17", Time: "12:00", PartySize: 8, Status: entities.StatusUpcoming}
	jobs, _, email, _ := newJobFixture(t, dupont, second, otherDay)

	require.NoError(t, jobs.SendDailyDigest(context.Background()))
	require.Len(t, email.messages, 1)

	msg := email.messages[0]
	assert.Equal(t, "salle@lacigale.fr", msg.ToEmail)
	assert.Equal(t, "La Cigale - 2 réservations le vendredi 16 janvier 2026", msg.Subject)
	assert.Contains(t, msg.HTML, "Martin")
	assert.Contains(t, msg.HTML, "<strong>6</strong> couverts")
	assert.NotContains(t, msg.HTML, "Leroy")
	assert.Less(t, strings.Index(msg.PlainText, "Martin"), strings.Index(msg.PlainText, "Dupont"))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+33601020304", NormalizePhone("06 01 02 03 04"))
	assert.Equal(t, "+33601020304", NormalizePhone("06.01.02.03.04"))
	assert.Equal(t, "+33601020304", NormalizePhone("+33 6 01 02 03 04"))
	assert.Equal(t, "+441234567890", NormalizePhone("0044 1234 567890"))
	assert.Equal(t, "12345", NormalizePhone("12-345"))
}
