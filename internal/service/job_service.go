package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cigale/internal/entities"
	"cigale/internal/lateness"
	"cigale/internal/utils"
)

// ReservationLister is the read side used by scheduled jobs.
type ReservationLister interface {
	List(ctx context.Context, filter entities.Filter) (entities.ReservationsList, error)
}

type JobOptions struct {
	Location        *time.Location
	LateAfter       time.Duration
	DigestRecipient string
	Now             func() time.Time
	Logger          *slog.Logger
}

type JobService struct {
	reservations ReservationLister
	sender       *SenderService
	loc          *time.Location
	lateAfter    time.Duration
	recipient    string
	now          func() time.Time
	logger       *slog.Logger

	mu          sync.Mutex
	remindedDay string
	reminded    map[string]struct{}
}

func NewJobService(reservations ReservationLister, sender *SenderService, opts JobOptions) *JobService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &JobService{
		reservations: reservations,
		sender:       sender,
		loc:          opts.Location,
		lateAfter:    opts.LateAfter,
		recipient:    strings.TrimSpace(opts.DigestRecipient),
		now:          opts.Now,
		logger:       opts.Logger.With("service", "JobService"),
		reminded:     make(map[string]struct{}),
	}
}

// RemindLateArrivals texts every guest of the day who is at least LateAfter
// late and has a phone number. Each reservation gets at most one SMS per day.
func (s *JobService) RemindLateArrivals(ctx context.Context) (int, error) {
	logger := s.logger.With("operation", "RemindLateArrivals")
	now := s.now().In(s.loc)
	today := now.Format(utils.DateLayout)

	list, err := s.reservations.List(ctx, entities.Filter{Date: today, Status: string(entities.StatusUpcoming)})
	if err != nil {
		return 0, fmt.Errorf("remind late arrivals: %w", err)
	}

	sent := 0
	var errs []error
	for _, r := range list.Reservations {
		if strings.TrimSpace(r.Phone) == "" {
			continue
		}
		delay := lateness.Compute(now, r)
		if !delay.IsLate || time.Duration(delay.Minutes)*time.Minute < s.lateAfter {
			continue
		}
		if !s.claim(today, r.ID) {
			continue
		}
		if err := s.sender.SendLateArrivalSMS(ctx, r, delay); err != nil {
			if errors.Is(err, ErrChannelDisabled) {
				s.release(today, r.ID)
				return sent, err
			}
			logger.ErrorContext(ctx, "late arrival sms failed", "reservation_id", r.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		sent++
		logger.InfoContext(ctx, "late arrival reminded", "reservation_id", r.ID, "delay_minutes", delay.Minutes)
	}

	return sent, errors.Join(errs...)
}

// SendDailyDigest emails the list of today's reservations.
func (s *JobService) SendDailyDigest(ctx context.Context) error {
	if s.recipient == "" {
		return fmt.Errorf("daily digest: %w", ErrChannelDisabled)
	}
	now := s.now().In(s.loc)

	list, err := s.reservations.List(ctx, entities.Filter{Date: now.Format(utils.DateLayout)})
	if err != nil {
		return fmt.Errorf("daily digest: %w", err)
	}

	data := s.sender.DigestData(now, list.Reservations)
	if err := s.sender.SendDigest(ctx, s.recipient, data); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "daily digest sent", "operation", "SendDailyDigest", "count", data.Count, "covers", data.Covers)
	return nil
}

// claim marks a reservation as reminded for day. The set is reset when the
// day changes.
func (s *JobService) claim(day, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remindedDay != day {
		s.remindedDay = day
		s.reminded = make(map[string]struct{})
	}
	if _, done := s.reminded[id]; done {
		return false
	}
	s.reminded[id] = struct{}{}
	return true
}

func (s *JobService) release(day, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.remindedDay == day {
		delete(s.reminded, id)
	}
}
