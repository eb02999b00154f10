package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sendgrid/rest"

	"cigale/internal/db"
	"cigale/internal/entities"
)

const (
	DefaultEndpoint = "https://api.airtable.com"
	DefaultTable    = "Reservations"
	listPageSize    = "100"
)

type Options struct {
	Endpoint   string
	BaseID     string
	Table      string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// ReservationRepository maps the Airtable reservations table onto
// entities.Reservation. It never retries a failed call.
type ReservationRepository struct {
	client  *rest.Client
	baseURL string
	token   string
	logger  *slog.Logger
}

func NewReservationRepository(opts Options) *ReservationRepository {
	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	table := strings.TrimSpace(opts.Table)
	if table == "" {
		table = DefaultTable
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ReservationRepository{
		client:  &rest.Client{HTTPClient: httpClient},
		baseURL: fmt.Sprintf("%s/v0/%s/%s", endpoint, url.PathEscape(opts.BaseID), url.PathEscape(table)),
		token:   opts.Token,
		logger:  logger.With("component", "airtable"),
	}
}

// ListReservations fetches every record sorted by date, then applies the
// filter in process. Records that cannot be mapped are reported in Skipped.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter entities.Filter) (entities.ReservationsList, error) {
	var records []db.Record
	offset := ""
	for {
		query := map[string]string{
			"sort[0][field]":     db.FieldDate,
			"sort[0][direction]": "asc",
			"pageSize":           listPageSize,
		}
		if offset != "" {
			query["offset"] = offset
		}

		resp, err := r.send(ctx, rest.Get, r.baseURL, query, nil)
		if err != nil {
			return entities.ReservationsList{}, r.storeError("list", ErrStoreUnavailable, err)
		}
		var page db.ListResponse
		if err := json.Unmarshal([]byte(resp.Body), &page); err != nil {
			return entities.ReservationsList{}, r.storeError("list", ErrStoreUnavailable, fmt.Errorf("decode list response: %w", err))
		}
		records = append(records, page.Records...)
		if page.Offset == "" || page.Offset == offset {
			break
		}
		offset = page.Offset
	}

	result := entities.ReservationsList{Reservations: make([]entities.Reservation, 0, len(records))}
	for _, record := range records {
		reservation, err := toReservation(record)
		if err != nil {
			var unparseable *UnparseableRecordError
			if errors.As(err, &unparseable) {
				r.logger.WarnContext(ctx, "skipping unparseable record", "record_id", unparseable.RecordID, "field", unparseable.Field, "value", unparseable.Value)
				result.Skipped = append(result.Skipped, entities.SkippedRecord{
					ID:    unparseable.RecordID,
					Field: unparseable.Field,
					Value: unparseable.Value,
				})
				continue
			}
			return entities.ReservationsList{}, r.storeError("list", ErrStoreUnavailable, err)
		}
		if filter.Match(reservation) {
			result.Reservations = append(result.Reservations, reservation)
		}
	}

	sort.SliceStable(result.Reservations, func(i, j int) bool {
		a, b := result.Reservations[i], result.Reservations[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Time < b.Time
	})

	return result, nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, input entities.ReservationInput) (entities.Reservation, error) {
	fields, err := inputFields(input)
	if err != nil {
		return entities.Reservation{}, r.storeError("create", ErrStoreWrite, err)
	}
	return r.write(ctx, "create", rest.Post, r.baseURL, fields)
}

// UpdateReservation writes only the fields present in the patch.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, id string, patch entities.ReservationPatch) (entities.Reservation, error) {
	fields, err := patchFields(patch)
	if err != nil {
		return entities.Reservation{}, r.storeError("update", ErrStoreWrite, err)
	}
	return r.write(ctx, "update", rest.Patch, r.recordURL(id), fields)
}

// UpdateStatus touches the is_here flag and nothing else.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, arrived bool) (entities.Reservation, error) {
	fields := map[string]any{db.FieldIsHere: isHereFlag(entities.StatusFromArrived(arrived))}
	return r.write(ctx, "update status", rest.Patch, r.recordURL(id), fields)
}

func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	resp, err := r.send(ctx, rest.Delete, r.recordURL(id), nil, nil)
	if err != nil {
		return r.storeError("delete", ErrStoreWrite, err)
	}
	var deleted db.DeleteResponse
	if err := json.Unmarshal([]byte(resp.Body), &deleted); err != nil {
		return r.storeError("delete", ErrStoreWrite, fmt.Errorf("decode delete response: %w", err))
	}
	if !deleted.Deleted {
		return r.storeError("delete", ErrStoreWrite, fmt.Errorf("record %s was not deleted", id))
	}
	return nil
}

func (r *ReservationRepository) write(ctx context.Context, op string, method rest.Method, target string, fields map[string]any) (entities.Reservation, error) {
	resp, err := r.send(ctx, method, target, nil, db.WriteRequest{Fields: fields})
	if err != nil {
		return entities.Reservation{}, r.storeError(op, ErrStoreWrite, err)
	}
	var record db.Record
	if err := json.Unmarshal([]byte(resp.Body), &record); err != nil {
		return entities.Reservation{}, r.storeError(op, ErrStoreWrite, fmt.Errorf("decode %s response: %w", op, err))
	}
	reservation, err := toReservation(record)
	if err != nil {
		r.logger.WarnContext(ctx, "stored record is unparseable", "operation", op, "record_id", record.ID, "error", err)
		return entities.Reservation{}, err
	}
	return reservation, nil
}

func (r *ReservationRepository) send(ctx context.Context, method rest.Method, target string, query map[string]string, body any) (*rest.Response, error) {
	request := rest.Request{
		Method:      method,
		BaseURL:     target,
		Headers:     map[string]string{"Authorization": "Bearer " + r.token},
		QueryParams: query,
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		request.Body = payload
		request.Headers["Content-Type"] = "application/json"
	}

	resp, err := r.client.SendWithContext(ctx, request)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstream := &upstreamError{Status: resp.StatusCode}
		var payload db.ErrorResponse
		if json.Unmarshal([]byte(resp.Body), &payload) == nil {
			upstream.Type = payload.Error.Type
			upstream.Message = payload.Error.Message
		}
		return resp, upstream
	}
	return resp, nil
}

func (r *ReservationRepository) recordURL(id string) string {
	return r.baseURL + "/" + url.PathEscape(id)
}

func (r *ReservationRepository) storeError(op string, kind error, err error) *StoreError {
	storeErr := &StoreError{Op: op, Kind: kind, Err: err}
	var upstream *upstreamError
	if errors.As(err, &upstream) {
		storeErr.Status = upstream.Status
		if upstream.Status == http.StatusNotFound && kind == ErrStoreWrite {
			storeErr.Kind = ErrRecordNotFound
		}
	}
	return storeErr
}
