package repository

import (
	"fmt"
	"math"
	"strings"
	"time"

	"cigale/internal/db"
	"cigale/internal/entities"
)

const (
	isoDateLayout   = "2006-01-02"
	storeDateLayout = "02/01/2006"
)

// storeDateLayouts lists the day/month/year forms accepted on read.
var storeDateLayouts = []string{storeDateLayout, "2/1/2006"}

// ParseStoreDate converts a DD/MM/YYYY store value to YYYY-MM-DD. A value that
// is already ISO (date typed column) is returned normalised.
func ParseStoreDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	for _, layout := range storeDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Format(isoDateLayout), nil
		}
	}
	if parsed, err := time.Parse(isoDateLayout, value); err == nil {
		return parsed.Format(isoDateLayout), nil
	}
	return "", fmt.Errorf("date %q is not DD/MM/YYYY", value)
}

// FormatStoreDate converts YYYY-MM-DD to the DD/MM/YYYY store form.
func FormatStoreDate(iso string) (string, error) {
	parsed, err := time.Parse(isoDateLayout, strings.TrimSpace(iso))
	if err != nil {
		return "", fmt.Errorf("date %q is not YYYY-MM-DD", iso)
	}
	return parsed.Format(storeDateLayout), nil
}

func isHereFlag(status entities.Status) int {
	if status == entities.StatusArrived {
		return 1
	}
	return 0
}

func toReservation(record db.Record) (entities.Reservation, error) {
	date, err := ParseStoreDate(record.Fields.Date)
	if err != nil {
		return entities.Reservation{}, &UnparseableRecordError{
			RecordID: record.ID,
			Field:    db.FieldDate,
			Value:    record.Fields.Date,
		}
	}

	if !record.Fields.IsHere.Valid() {
		return entities.Reservation{}, &UnparseableRecordError{
			RecordID: record.ID,
			Field:    db.FieldIsHere,
			Value:    record.Fields.IsHere.Raw,
		}
	}

	status := entities.StatusUpcoming
	if record.Fields.IsHere.Set {
		status = entities.StatusArrived
	}

	return entities.Reservation{
		ID:        record.ID,
		Name:      record.Fields.Name,
		Date:      date,
		Time:      strings.TrimSpace(record.Fields.Time),
		PartySize: int(math.Round(record.Fields.PartySize)),
		Phone:     record.Fields.Phone,
		Notes:     record.Fields.Notes,
		Status:    status,
	}, nil
}

func inputFields(input entities.ReservationInput) (map[string]any, error) {
	date, err := FormatStoreDate(input.Date)
	if err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = entities.StatusUpcoming
	}

	fields := map[string]any{
		db.FieldName:      input.Name,
		db.FieldDate:      date,
		db.FieldTime:      input.Time,
		db.FieldPartySize: input.PartySize,
		db.FieldIsHere:    isHereFlag(status),
	}
	if input.Phone != "" {
		fields[db.FieldPhone] = input.Phone
	}
	if input.Notes != "" {
		fields[db.FieldNotes] = input.Notes
	}
	return fields, nil
}

func patchFields(patch entities.ReservationPatch) (map[string]any, error) {
	fields := make(map[string]any)
	if patch.Name != nil {
		fields[db.FieldName] = *patch.Name
	}
	if patch.Date != nil {
		date, err := FormatStoreDate(*patch.Date)
		if err != nil {
			return nil, err
		}
		fields[db.FieldDate] = date
	}
	if patch.Time != nil {
		fields[db.FieldTime] = *patch.Time
	}
	if patch.PartySize != nil {
		fields[db.FieldPartySize] = *patch.PartySize
	}
	if patch.Phone != nil {
		fields[db.FieldPhone] = *patch.Phone
	}
	if patch.Notes != nil {
		fields[db.FieldNotes] = *patch.Notes
	}
	if patch.Status != nil {
		fields[db.FieldIsHere] = isHereFlag(*patch.Status)
	}
	return fields, nil
}
