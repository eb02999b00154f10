package db

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Airtable column names of the reservations table.
const (
	FieldName      = "nom_client"
	FieldDate      = "date_reservation"
	FieldTime      = "heure_arrivee"
	FieldPartySize = "nombre_personnes"
	FieldPhone     = "numero_telephone"
	FieldNotes     = "champ_complementaire"
	FieldIsHere    = "is_here"
)

// ReservationFields is the raw row of the reservations table.
type ReservationFields struct {
	Name      string  `json:"nom_client,omitempty"`
	Date      string  `json:"date_reservation,omitempty"`
	Time      string  `json:"heure_arrivee,omitempty"`
	PartySize float64 `json:"nombre_personnes,omitempty"`
	Phone     string  `json:"numero_telephone,omitempty"`
	Notes     string  `json:"champ_complementaire,omitempty"`
	IsHere    Flag    `json:"is_here"`
}

type Record struct {
	ID          string            `json:"id"`
	CreatedTime string            `json:"createdTime,omitempty"`
	Fields      ReservationFields `json:"fields"`
}

type ListResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// WriteRequest is the body of a create or update call. Only the keys present
// in Fields are written.
type WriteRequest struct {
	Fields map[string]any `json:"fields"`
}

type DeleteResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

// ErrorResponse covers both error shapes Airtable returns:
// {"error":"NOT_FOUND"} and {"error":{"type":"...","message":"..."}}.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *ErrorBody) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.Type)
	}
	type plain ErrorBody
	var body plain
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	*e = ErrorBody(body)
	return nil
}

// Flag is the 0/1 integer presence marker. Checkbox booleans and numeric
// strings are tolerated on read. Decoding never fails: any other value is kept
// in Raw so the row can be reported instead of failing the whole page.
type Flag struct {
	Set bool
	Raw string
}

func (f Flag) Valid() bool {
	return f.Raw == ""
}

func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag{}
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", "", "false":
		return nil
	case "true":
		f.Set = true
		return nil
	}
	value := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &value); err != nil {
			f.Raw = string(data)
			return nil
		}
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		if value == "" {
			return nil
		}
		f.Raw = value
		return nil
	}
	f.Set = n != 0
	return nil
}
