package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/storefront/internal/domain/catalog"
)

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type reviewResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

type reviewListResponse struct {
	Reviews       []reviewResponse `json:"reviews"`
	AverageRating *decimal.Decimal `json:"average_rating,omitempty"`
}

func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	productID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if _, err := h.products.GetByID(r.Context(), productID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	review := catalog.Review{
		UserID:    id.UserID,
		ProductID: productID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := review.Validate(); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.reviews.Create(r.Context(), &review); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, reviewResponse{
		ID:        review.ID,
		UserID:    review.UserID,
		ProductID: review.ProductID,
		Rating:    review.Rating,
		Comment:   review.Comment,
	})
}

// listReviews returns a product's reviews with the average rating. The
// average is omitted entirely when there are no reviews: zero would read as
// a terrible score.
func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if _, err := h.products.GetByID(r.Context(), productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	reviews, err := h.reviews.ListByProduct(r.Context(), productID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	resp := reviewListResponse{Reviews: make([]reviewResponse, len(reviews))}
	for i, rev := range reviews {
		resp.Reviews[i] = reviewResponse{
			ID:        rev.ID,
			UserID:    rev.UserID,
			ProductID: rev.ProductID,
			Rating:    rev.Rating,
			Comment:   rev.Comment,
		}
	}
	if avg, ok := catalog.AverageRating(reviews); ok {
		resp.AverageRating = &avg
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) likeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	productID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if _, err := h.products.GetByID(r.Context(), productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.likes.Add(r.Context(), id.UserID, productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) unlikeProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	productID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.likes.Remove(r.Context(), id.UserID, productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) listWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	products, err := h.wishlist.ListByUser(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponses(products))
}

func (h *Handler) addWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	productID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if _, err := h.products.GetByID(r.Context(), productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	if err := h.wishlist.Add(r.Context(), id.UserID, productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) removeWishlist(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	productID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if err := h.wishlist.Remove(r.Context(), id.UserID, productID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}
