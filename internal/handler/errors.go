package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/mkuznetsov/storefront/internal/domain/cart"
	"github.com/mkuznetsov/storefront/internal/domain/catalog"
	"github.com/mkuznetsov/storefront/internal/domain/coupon"
	"github.com/mkuznetsov/storefront/internal/domain/identity"
	"github.com/mkuznetsov/storefront/internal/domain/order"
	"github.com/mkuznetsov/storefront/internal/repository"
)

// writeDomainError maps a domain error to an HTTP response. The mapping is
// the single source of truth: handlers never pick status codes themselves.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		oos     *catalog.OutOfStockError
		storage *repository.StorageError
	)
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, cart.ErrNoOpenCart),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, coupon.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())

	case errors.Is(err, identity.ErrForbidden),
		errors.Is(err, cart.ErrNotOwner),
		errors.Is(err, order.ErrNotOwner):
		respondError(w, http.StatusForbidden, err.Error())

	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrInvalidRating),
		errors.Is(err, order.ErrInvalidStatus),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrAmountMismatch),
		errors.Is(err, order.ErrShipmentDates),
		errors.Is(err, coupon.ErrIneligible):
		respondError(w, http.StatusBadRequest, err.Error())

	case errors.As(err, &oos),
		errors.Is(err, cart.ErrAlreadyOrdered),
		errors.Is(err, order.ErrTerminalState),
		errors.Is(err, order.ErrCannotCancelCompleted),
		errors.Is(err, order.ErrPaymentExists),
		errors.Is(err, order.ErrNotRefundable),
		errors.Is(err, order.ErrShipmentExists),
		errors.Is(err, order.ErrShipmentState),
		errors.Is(err, order.ErrInvoiceExists):
		respondError(w, http.StatusConflict, err.Error())

	case errors.As(err, &storage):
		zctx.From(r.Context()).Error("storage failure", zap.Error(err))
		if storage.Retryable() {
			respondError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry later")
			return
		}
		respondError(w, http.StatusInternalServerError, "internal error")

	default:
		zctx.From(r.Context()).Error("unhandled error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
