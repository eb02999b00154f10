package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable is returned when reading from Airtable fails for any reason.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStoreWrite is returned when a create, update or delete call fails.
	ErrStoreWrite = errors.New("store write failed")
	// ErrRecordNotFound is returned when Airtable answers 404 for a record id.
	ErrRecordNotFound = errors.New("record not found")
	// ErrUnparseableRecord marks a stored row whose fields cannot be mapped.
	ErrUnparseableRecord = errors.New("unparseable record")
)

// StoreError collapses every Airtable failure into one kind per operation.
// Status is the upstream HTTP status, zero when the call never completed.
type StoreError struct {
	Op     string
	Kind   error
	Status int
	Err    error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("airtable %s: %v", e.Op, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StoreError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// UnparseableRecordError reports the first field of a record that failed to map.
type UnparseableRecordError struct {
	RecordID string
	Field    string
	Value    string
}

func (e *UnparseableRecordError) Error() string {
	return fmt.Sprintf("record %s: unparseable %s %q", e.RecordID, e.Field, e.Value)
}

func (e *UnparseableRecordError) Unwrap() error {
	return ErrUnparseableRecord
}

// upstreamError is a non-2xx answer from Airtable.
type upstreamError struct {
	Status  int
	Type    string
	Message string
}

func (e *upstreamError) Error() string {
	switch {
	case e.Type != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	case e.Type != "":
		return e.Type
	case e.Message != "":
		return e.Message
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}
