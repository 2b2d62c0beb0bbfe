package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/storefront/internal/domain/cart"
)

type cartItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type cartItemResponse struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type cartResponse struct {
	Items    []cartItemResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
}

func toCartItemResponses(items []cart.Item) []cartItemResponse {
	out := make([]cartItemResponse, len(items))
	for i, it := range items {
		out[i] = cartItemResponse{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// getCart returns the caller's open cart with the subtotal computed from
// current prices.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	items, subtotal, err := h.carts.Subtotal(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse{
		Items:    toCartItemResponses(items),
		Subtotal: subtotal,
	})
}

func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req cartItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	it, err := h.carts.AddItem(r.Context(), id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartItemResponse{
		ID:        it.ID,
		ProductID: it.ProductID,
		Quantity:  it.Quantity,
	})
}

func (h *Handler) setCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.carts.SetQuantity(r.Context(), id.UserID, itemID, req.Quantity); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	itemID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	if err := h.carts.RemoveItem(r.Context(), id.UserID, itemID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if err := h.carts.Clear(r.Context(), id.UserID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
