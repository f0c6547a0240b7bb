package handler

import (
	"net/http"
	"time"

	"github.com/knagata/storefront/internal/domain/cart"
	"github.com/knagata/storefront/internal/domain/user"
)

type cartLineView struct {
	ProductID string      `json:"productId"`
	Product   productView `json:"product"`
	Quantity  int         `json:"quantity"`
	Subtotal  float64     `json:"subtotal"`
	AddedAt   time.Time   `json:"addedAt"`
}

type cartViewBody struct {
	Items     []cartLineView `json:"items"`
	Total     float64        `json:"totalAmount"`
	ItemCount int            `json:"itemCount"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (h *Handler) viewCartBody(v *cart.View) cartViewBody {
	items := make([]cartLineView, len(v.Lines))
	for i, line := range v.Lines {
		items[i] = cartLineView{
			ProductID: line.ProductID,
			Product:   h.viewProduct(line.Product),
			Quantity:  line.Quantity,
			Subtotal:  line.Subtotal.InexactFloat64(),
			AddedAt:   line.AddedAt,
		}
	}
	return cartViewBody{
		Items:     items,
		Total:     v.Total.InexactFloat64(),
		ItemCount: v.ItemCount,
		UpdatedAt: v.UpdatedAt,
	}
}

func (h *Handler) viewCart(w http.ResponseWriter, r *http.Request, u *user.User) {
	v, err := h.carts.View(r.Context(), u.ID)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, h.viewCartBody(v))
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request, u *user.User) {
	var req addToCartRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}
	if req.ProductID == "" {
		respondBadRequest(w, "productId is required")
		return
	}

	v, err := h.carts.Add(r.Context(), u.ID, req.ProductID, req.Quantity)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, h.viewCartBody(v))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request, u *user.User) {
	var req updateCartItemRequest
	if err := decodeBody(r, &req); err != nil {
		respondBadRequest(w, "invalid request body")
		return
	}

	v, err := h.carts.SetQuantity(r.Context(), u.ID, r.PathValue("productId"), req.Quantity)
	if err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondData(w, http.StatusOK, h.viewCartBody(v))
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request, u *user.User) {
	if err := h.carts.Remove(r.Context(), u.ID, r.PathValue("productId")); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondMessage(w, http.StatusOK)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request, u *user.User) {
	if err := h.carts.Clear(r.Context(), u.ID); err != nil {
		respondError(r.Context(), w, err)
		return
	}
	respondMessage(w, http.StatusOK)
}
