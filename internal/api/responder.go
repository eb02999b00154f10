package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "cigale/internal/errors"
	"cigale/internal/logging"
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.OrDefault(ctx, r.logger).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// handleServiceError writes the error envelope. The cause is logged and only
// validation details reach the client.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error, internalMessage string) {
	httpErr := apperrors.FromServiceError(err, internalMessage)
	logger := logging.OrDefault(ctx, r.logger)
	if httpErr.Code >= http.StatusInternalServerError {
		logger.ErrorContext(ctx, "request failed", "status", httpErr.Code, "error", err)
	} else {
		logger.InfoContext(ctx, "request rejected", "status", httpErr.Code, "error", err)
	}
	r.writeJSON(ctx, w, httpErr.Code, ErrorResponse{Error: httpErr.Message, Details: httpErr.Details})
}
