// Package handler exposes the storefront over HTTP. Routing is declarative
// on a gorilla/mux router; handlers decode JSON, call domain services, and
// map domain errors to status codes in one place.
package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkuznetsov/storefront/internal/domain/cart"
	"github.com/mkuznetsov/storefront/internal/domain/catalog"
	"github.com/mkuznetsov/storefront/internal/domain/identity"
	"github.com/mkuznetsov/storefront/internal/domain/order"
)

// Handler holds the domain dependencies behind the HTTP surface.
type Handler struct {
	products catalog.Repository
	reviews  catalog.ReviewRepository
	likes    catalog.LikeRepository
	wishlist catalog.WishlistRepository
	carts    *cart.Service
	orders   *order.Service
	users    identity.UserRepository
}

// New creates a Handler with all dependencies.
func New(
	products catalog.Repository,
	reviews catalog.ReviewRepository,
	likes catalog.LikeRepository,
	wishlist catalog.WishlistRepository,
	carts *cart.Service,
	orders *order.Service,
	users identity.UserRepository,
) *Handler {
	return &Handler{
		products: products,
		reviews:  reviews,
		likes:    likes,
		wishlist: wishlist,
		carts:    carts,
		orders:   orders,
		users:    users,
	}
}

// Routes registers every API route on r. Authentication is resolved by the
// identity middleware; per-route authorization stays inside the handlers so
// the access rule is visible next to the logic it guards.
func (h *Handler) Routes(r *mux.Router) {
	r.Use(h.withIdentity)

	// Catalog.
	r.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	r.HandleFunc("/products", h.createProduct).Methods(http.MethodPost)
	r.HandleFunc("/products/{id:[0-9]+}", h.getProduct).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}", h.updateProduct).Methods(http.MethodPut)
	r.HandleFunc("/products/{id:[0-9]+}", h.deleteProduct).Methods(http.MethodDelete)
	r.HandleFunc("/categories", h.listCategories).Methods(http.MethodGet)

	// Reviews and likes.
	r.HandleFunc("/products/{id:[0-9]+}/reviews", h.listReviews).Methods(http.MethodGet)
	r.HandleFunc("/products/{id:[0-9]+}/reviews", h.createReview).Methods(http.MethodPost)
	r.HandleFunc("/products/{id:[0-9]+}/like", h.likeProduct).Methods(http.MethodPost)
	r.HandleFunc("/products/{id:[0-9]+}/like", h.unlikeProduct).Methods(http.MethodDelete)

	// Wishlist.
	r.HandleFunc("/wishlist", h.listWishlist).Methods(http.MethodGet)
	r.HandleFunc("/wishlist/{id:[0-9]+}", h.addWishlist).Methods(http.MethodPost)
	r.HandleFunc("/wishlist/{id:[0-9]+}", h.removeWishlist).Methods(http.MethodDelete)

	// Cart.
	r.HandleFunc("/cart", h.getCart).Methods(http.MethodGet)
	r.HandleFunc("/cart", h.clearCart).Methods(http.MethodDelete)
	r.HandleFunc("/cart/items", h.addCartItem).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id:[0-9]+}", h.setCartItemQuantity).Methods(http.MethodPut)
	r.HandleFunc("/cart/items/{id:[0-9]+}", h.removeCartItem).Methods(http.MethodDelete)

	// Orders.
	r.HandleFunc("/checkout", h.checkout).Methods(http.MethodPost)
	r.HandleFunc("/orders", h.listOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/all", h.listAllOrders).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id:[0-9]+}", h.getOrder).Methods(http.MethodGet)
	r.HandleFunc("/orders/{id:[0-9]+}/status", h.updateOrderStatus).Methods(http.MethodPut)
	r.HandleFunc("/orders/{id:[0-9]+}/cancel", h.cancelOrder).Methods(http.MethodPost)

	// Payment, shipment, invoice.
	r.HandleFunc("/orders/{id:[0-9]+}/payment", h.attachPayment).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/payment/refund", h.refundPayment).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/shipment", h.attachShipment).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/shipment/shipped", h.markShipped).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/shipment/delivered", h.markDelivered).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/invoice", h.issueInvoice).Methods(http.MethodPost)
	r.HandleFunc("/orders/{id:[0-9]+}/invoice", h.getInvoice).Methods(http.MethodGet)
}

func pathID(r *http.Request) (int64, error) {
	return parseInt64(mux.Vars(r)["id"])
}
