package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/knagata/storefront/internal/domain/cart"
	"github.com/knagata/storefront/internal/domain/catalog"
	"github.com/knagata/storefront/internal/domain/order"
	"github.com/knagata/storefront/internal/domain/session"
	"github.com/knagata/storefront/internal/domain/user"
)

type dataBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataBody{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int) {
	writeJSON(w, status, dataBody{Success: true})
}

// respondError translates a domain error into a transport status and JSON
// body. Unrecognized errors become 500 and are the only ones logged here;
// everything else is a normal client-visible outcome.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	var stockErr *catalog.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeJSON(w, http.StatusConflict, errorBody{
			Error: "insufficient stock",
			Details: map[string]any{
				"productId": stockErr.ProductID,
				"requested": stockErr.Requested,
				"available": stockErr.Available,
			},
		})
		return
	}

	var missingErr *catalog.NotFoundError
	if errors.As(err, &missingErr) {
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:   missingErr.Error(),
			Details: map[string]any{"productId": missingErr.ProductID},
		})
		return
	}

	switch {
	case errors.Is(err, user.ErrMissingCredentials),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})

	case errors.Is(err, user.ErrInvalidCredentials),
		errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})

	case errors.Is(err, order.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})

	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client went away; the status is unlikely to be seen.
		writeJSON(w, http.StatusRequestTimeout, errorBody{Error: "request cancelled"})

	default:
		zctx.From(ctx).Error("internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func respondBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func respondUnauthorized(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnauthorized, errorBody{Error: msg})
}
