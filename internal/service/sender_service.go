package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"cigale/internal/entities"
	"cigale/internal/lateness"
	"cigale/internal/templates"
	"cigale/internal/utils"
)

// SenderService composes the texts of outgoing notifications.
type SenderService struct {
	notifier       *Notifier
	restaurantName string
	digest         *template.Template
}

func NewSenderService(notifier *Notifier, restaurantName string) (*SenderService, error) {
	digest, err := template.ParseFS(templates.FS, templates.DailyDigest)
	if err != nil {
		return nil, fmt.Errorf("parse digest template: %w", err)
	}
	return &SenderService{notifier: notifier, restaurantName: restaurantName, digest: digest}, nil
}

// LateArrivalMessage is the SMS sent to a guest who has not arrived yet.
func (s *SenderService) LateArrivalMessage(r entities.Reservation, delay lateness.Delay) string {
	return fmt.Sprintf("%s : bonjour %s, votre table de %d personnes était prévue à %s (retard %s). Merci de nous prévenir si vous êtes retardé.",
		s.restaurantName, r.Name, r.PartySize, r.Time, lateness.FormatDelay(delay.Minutes))
}

func (s *SenderService) SendLateArrivalSMS(ctx context.Context, r entities.Reservation, delay lateness.Delay) error {
	to := NormalizePhone(r.Phone)
	if err := s.notifier.SendSMS(ctx, to, s.LateArrivalMessage(r, delay)); err != nil {
		return fmt.Errorf("late arrival sms for %s: %w", r.ID, err)
	}
	return nil
}

// DigestData summarises one day of reservations, ordered by time.
func (s *SenderService) DigestData(day time.Time, reservations []entities.Reservation) entities.DigestEmailData {
	sorted := make([]entities.Reservation, len(reservations))
	copy(sorted, reservations)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	data := entities.DigestEmailData{
		RestaurantName: s.restaurantName,
		DayLabel:       utils.FrenchDayLabel(day),
		Count:          len(sorted),
		CurrentYear:    day.Year(),
	}
	for _, r := range sorted {
		data.Covers += r.PartySize
		data.Rows = append(data.Rows, entities.DigestRow{
			Time:      r.Time,
			Name:      r.Name,
			PartySize: r.PartySize,
			Phone:     r.Phone,
			Notes:     r.Notes,
			Arrived:   r.IsArrived(),
		})
	}
	return data
}

// DigestEmail renders the daily digest for one recipient.
func (s *SenderService) DigestEmail(recipient string, data entities.DigestEmailData) (EmailMessage, error) {
	var html bytes.Buffer
	if err := s.digest.Execute(&html, data); err != nil {
		return EmailMessage{}, fmt.Errorf("render digest: %w", err)
	}

	var plain strings.Builder
	fmt.Fprintf(&plain, "%s - réservations du %s\n%d tables, %d couverts\n\n", data.RestaurantName, data.DayLabel, data.Count, data.Covers)
	for _, row := range data.Rows {
		fmt.Fprintf(&plain, "%s  %s (%d)", row.Time, row.Name, row.PartySize)
		if row.Phone != "" {
			fmt.Fprintf(&plain, "  %s", row.Phone)
		}
		if row.Notes != "" {
			fmt.Fprintf(&plain, "  - %s", row.Notes)
		}
		plain.WriteString("\n")
	}

	return EmailMessage{
		ToEmail:   recipient,
		ToName:    data.RestaurantName,
		Subject:   fmt.Sprintf("%s - %d réservations le %s", data.RestaurantName, data.Count, data.DayLabel),
		PlainText: plain.String(),
		HTML:      html.String(),
	}, nil
}

func (s *SenderService) SendDigest(ctx context.Context, recipient string, data entities.DigestEmailData) error {
	msg, err := s.DigestEmail(recipient, data)
	if err != nil {
		return err
	}
	if err := s.notifier.SendEmail(ctx, msg); err != nil {
		return fmt.Errorf("daily digest: %w", err)
	}
	return nil
}

// NormalizePhone turns a French national number into E.164. Other values are
// returned with separators removed.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case strings.HasPrefix(digits, "+"):
		return digits
	case strings.HasPrefix(digits, "00"):
		return "+" + digits[2:]
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		return "+33" + digits[1:]
	}
	return digits
}
