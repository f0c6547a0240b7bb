package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/knagata/storefront/internal/domain/order"
	"github.com/knagata/storefront/internal/domain/user"
)

type orderLineView struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
}

type orderView struct {
	ID              string          `json:"id"`
	Status          order.Status    `json:"status"`
	OrderedAt       time.Time       `json:"orderedAt"`
	ShippingAddress addressView     `json:"shippingAddress"`
	Items           []orderLineView `json:"items"`
	Total           float64         `json:"totalAmount"`
}

type orderSummaryView struct {
	ID        string       `json:"id"`
	Total     float64      `json:"totalAmount"`
	Status    order.Status `json:"status"`
	ItemCount int          `json:"itemCount"`
	OrderedAt time.Time    `json:"orderedAt"`
}

func viewOrder(o *order.Order) orderView {
	items := make([]orderLineView, len(o.Lines))
	for i, line := range o.Lines {
		items[i] = orderLineView{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.InexactFloat64(),
			Subtotal:    line.Subtotal.InexactFloat64(),
		}
	}
	return orderView{
		ID:        o.ID,
		Status:    o.Status,
		OrderedAt: o.OrderedAt,
		ShippingAddress: addressView{
			Name:       o.ShippingAddress.Name,
			PostalCode: o.ShippingAddress.PostalCode,
			Prefecture: o.ShippingAddress.Prefecture,
			City:       o.ShippingAddress.City,
			Line1:      o.ShippingAddress.Line1,
			Line2:      o.ShippingAddress.Line2,
			Phone:      o.ShippingAddress.Phone,
		},
		Items: items,
		Total: o.Total.InexactFloat64(),
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, u *user.User) {
	summaries, err := h.orders.List(r.Context(), u.ID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	views := make([]orderSummaryView, len(summaries))
	for i, s := range summaries {
		views[i] = orderSummaryView{
			ID:        s.ID,
			Total:     s.Total.InexactFloat64(),
			Status:    s.Status,
			ItemCount: s.LineCount,
			OrderedAt: s.OrderedAt,
		}
	}
	respondData(w, http.StatusOK, views)
}

type placeOrderRequest struct {
	ShippingAddress *addressView `json:"shippingAddress"`
}

type placeOrderResponse struct {
	OrderID   string       `json:"orderId"`
	Total     float64      `json:"totalAmount"`
	Status    order.Status `json:"status"`
	OrderedAt time.Time    `json:"orderedAt"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request, u *user.User) {
	var req placeOrderRequest
	if err := decodeBody(r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondBadRequest(w, "invalid request body")
		return
	}

	// The shipping address must be explicit in the request; the profile
	// address is never used as a silent fallback.
	if req.ShippingAddress == nil {
		respondError(r.Context(), w, order.ErrMissingAddress)
		return
	}
	addr := user.Address{
		Name:       req.ShippingAddress.Name,
		PostalCode: req.ShippingAddress.PostalCode,
		Prefecture: req.ShippingAddress.Prefecture,
		City:       req.ShippingAddress.City,
		Line1:      req.ShippingAddress.Line1,
		Line2:      req.ShippingAddress.Line2,
		Phone:      req.ShippingAddress.Phone,
	}

	result, err := h.orders.Place(r.Context(), u.ID, addr)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}

	zctx.From(r.Context()).Info("order placed",
		zap.String("order_id", result.OrderID),
		zap.String("user_id", u.ID),
	)
	respondData(w, http.StatusCreated, placeOrderResponse{
		OrderID:   result.OrderID,
		Total:     result.Total.InexactFloat64(),
		Status:    result.Status,
		OrderedAt: result.OrderedAt,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, u *user.User) {
	o, err := h.orders.Get(r.Context(), r.PathValue("id"), u.ID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, viewOrder(o))
}
