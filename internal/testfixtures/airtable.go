package testfixtures

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	FakeBaseID = "appCigaleTest"
	FakeTable  = "Reservations"
	FakeToken  = "pat-test-token"
)

// RecordedRequest is one call received by FakeAirtable.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
}

type fakeRecord struct {
	id     string
	fields map[string]any
}

type cannedFailure struct {
	status int
	body   string
}

// FakeAirtable is an in-memory stand-in for the Airtable REST API serving a
// single table. Records are returned in insertion order.
type FakeAirtable struct {
	Server *httptest.Server
	// PageSize caps the number of records per list page. Zero means 100.
	PageSize int

	mu       sync.Mutex
	records  []*fakeRecord
	requests []RecordedRequest
	failures []cannedFailure
	nextID   int
}

func NewFakeAirtable(t testing.TB) *FakeAirtable {
	t.Helper()
	fake := &FakeAirtable{}
	fake.Server = httptest.NewServer(http.HandlerFunc(fake.serveHTTP))
	t.Cleanup(fake.Server.Close)
	return fake
}

func (f *FakeAirtable) URL() string {
	return f.Server.URL
}

// Seed stores a record with the given raw column values.
func (f *FakeAirtable) Seed(id string, fields map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, &fakeRecord{id: id, fields: copyFields(fields)})
}

// Fields returns a copy of the stored columns of a record.
func (f *FakeAirtable) Fields(id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.find(id)
	if record == nil {
		return nil, false
	}
	return copyFields(record.fields), true
}

func (f *FakeAirtable) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func (f *FakeAirtable) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]RecordedRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

// CountRequests returns how many calls used the given method.
func (f *FakeAirtable) CountRequests(method string) int {
	count := 0
	for _, req := range f.Requests() {
		if req.Method == method {
			count++
		}
	}
	return count
}

// FailNext makes the next call answer with the given status and raw body.
func (f *FakeAirtable) FailNext(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, cannedFailure{status: status, body: body})
}

func (f *FakeAirtable) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	recorded := RecordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if payload, _ := io.ReadAll(r.Body); len(payload) > 0 {
		_ = json.Unmarshal(payload, &recorded.Body)
	}
	f.requests = append(f.requests, recorded)

	if len(f.failures) > 0 {
		failure := f.failures[0]
		f.failures = f.failures[1:]
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(failure.status)
		_, _ = io.WriteString(w, failure.body)
		return
	}

	if r.Header.Get("Authorization") != "Bearer "+FakeToken {
		writeFakeJSON(w, http.StatusUnauthorized, map[string]any{
			"error": map[string]string{"type": "AUTHENTICATION_REQUIRED", "message": "Authentication required"},
		})
		return
	}

	prefix := "/v0/" + FakeBaseID + "/" + FakeTable
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		return
	}
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")

	switch {
	case id == "" && r.Method == http.MethodGet:
		f.list(w, r)
	case id == "" && r.Method == http.MethodPost:
		f.create(w, recorded.Body)
	case id != "" && r.Method == http.MethodPatch:
		f.update(w, id, recorded.Body)
	case id != "" && r.Method == http.MethodDelete:
		f.delete(w, id)
	default:
		writeFakeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "METHOD_NOT_ALLOWED"})
	}
}

func (f *FakeAirtable) list(w http.ResponseWriter, r *http.Request) {
	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	if requested, err := strconv.Atoi(r.URL.Query().Get("pageSize")); err == nil && requested > 0 && requested < pageSize {
		pageSize = requested
	}
	start := 0
	if offset := r.URL.Query().Get("offset"); offset != "" {
		parsed, err := strconv.Atoi(strings.TrimPrefix(offset, "itr"))
		if err != nil || parsed > len(f.records) {
			writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error": map[string]string{"type": "LIST_RECORDS_ITERATOR_NOT_AVAILABLE", "message": "offset expired"},
			})
			return
		}
		start = parsed
	}
	end := start + pageSize
	if end > len(f.records) {
		end = len(f.records)
	}

	records := make([]map[string]any, 0, end-start)
	for _, record := range f.records[start:end] {
		records = append(records, recordJSON(record))
	}
	body := map[string]any{"records": records}
	if end < len(f.records) {
		body["offset"] = fmt.Sprintf("itr%d", end)
	}
	writeFakeJSON(w, http.StatusOK, body)
}

func (f *FakeAirtable) create(w http.ResponseWriter, body map[string]any) {
	fields, ok := body["fields"].(map[string]any)
	if !ok {
		writeFakeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error": map[string]string{"type": "INVALID_REQUEST_MISSING_FIELDS", "message": "Could not find field \"fields\" in the request body"},
		})
		return
	}
	f.nextID++
	record := &fakeRecord{id: fmt.Sprintf("recNew%03d", f.nextID), fields: copyFields(fields)}
	f.records = append(f.records, record)
	writeFakeJSON(w, http.StatusOK, recordJSON(record))
}

func (f *FakeAirtable) update(w http.ResponseWriter, id string, body map[string]any) {
	record := f.find(id)
	if record == nil {
		writeFakeJSON(w, http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
		return
	}
	fields, _ := body["fields"].(map[string]any)
	for key, value := range fields {
		record.fields[key] = value
	}
	writeFakeJSON(w, http.StatusOK, recordJSON(record))
}

func (f *FakeAirtable) delete(w http.ResponseWriter, id string) {
	for i, record := range f.records {
		if record.id == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			writeFakeJSON(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
			return
		}
	}
	writeFakeJSON(w, http.StatusNotFound, map[string]any{"error": "NOT_FOUND"})
}

func (f *FakeAirtable) find(id string) *fakeRecord {
	for _, record := range f.records {
		if record.id == id {
			return record
		}
	}
	return nil
}

func recordJSON(record *fakeRecord) map[string]any {
	return map[string]any{
		"id":          record.id,
		"createdTime": "2026-01-01T10:00:00.000Z",
		"fields":      copyFields(record.fields),
	}
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		out[key] = value
	}
	return out
}

func writeFakeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
