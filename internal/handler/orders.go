package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mkuznetsov/storefront/internal/domain/identity"
	"github.com/mkuznetsov/storefront/internal/domain/order"
)

type checkoutRequest struct {
	CartID          int64  `json:"cart_id"`
	ShippingAddress string `json:"shipping_address"`
	CouponCode      string `json:"coupon_code,omitempty"`
}

type orderItemResponse struct {
	ID              int64           `json:"id"`
	ProductID       int64           `json:"product_id"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
}

type orderResponse struct {
	ID              int64               `json:"id"`
	UserID          int64               `json:"user_id"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Status          order.Status        `json:"status"`
	PaymentStatus   order.PaymentStatus `json:"payment_status"`
	CreatedAt       time.Time           `json:"created_at"`
	ShippingAddress string              `json:"shipping_address"`
	CouponCode      string              `json:"coupon_code,omitempty"`
	Items           []orderItemResponse `json:"items"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ID:              it.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		}
	}
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		PaymentStatus:   o.PaymentStatus,
		CreatedAt:       o.CreatedAt,
		ShippingAddress: o.ShippingAddress,
		CouponCode:      o.CouponCode,
		Items:           items,
	}
}

func toOrderResponses(orders []order.Order) []orderResponse {
	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	return out
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.orders.Checkout(r.Context(), id, order.CheckoutRequest{
		CartID:          req.CartID,
		ShippingAddress: req.ShippingAddress,
		CouponCode:      req.CouponCode,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListForUser(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orders, err := h.orders.ListAll(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	o, err := h.orders.Get(r.Context(), id, orderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.orders.UpdateStatus(r.Context(), id, orderID, req.Status); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	if err := h.orders.Cancel(r.Context(), id, orderID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type paymentRequest struct {
	Method string          `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type paymentResponse struct {
	ID      int64               `json:"id"`
	OrderID int64               `json:"order_id"`
	Date    time.Time           `json:"date"`
	Method  string              `json:"method"`
	Amount  decimal.Decimal     `json:"amount"`
	Status  order.PaymentStatus `json:"status"`
}

func (h *Handler) attachPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.orders.AttachPayment(r.Context(), id, orderID, req.Method, req.Amount)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, paymentResponse{
		ID:      p.ID,
		OrderID: p.OrderID,
		Date:    p.Date,
		Method:  p.Method,
		Amount:  p.Amount,
		Status:  p.Status,
	})
}

func (h *Handler) refundPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	if err := h.orders.RefundPayment(r.Context(), id, orderID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type shipmentRequest struct {
	TrackingNumber string `json:"tracking_number"`
}

type shipmentDateRequest struct {
	Date time.Time `json:"date"`
}

type shipmentResponse struct {
	ID             int64                `json:"id"`
	OrderID        int64                `json:"order_id"`
	TrackingNumber string               `json:"tracking_number"`
	ShippedDate    *time.Time           `json:"shipped_date,omitempty"`
	DeliveryDate   *time.Time           `json:"delivery_date,omitempty"`
	Status         order.ShipmentStatus `json:"status"`
}

func (h *Handler) attachShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req shipmentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sh, err := h.orders.AttachShipment(r.Context(), id, orderID, req.TrackingNumber)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, shipmentResponse{
		ID:             sh.ID,
		OrderID:        sh.OrderID,
		TrackingNumber: sh.TrackingNumber,
		Status:         sh.Status,
	})
}

func (h *Handler) markShipped(w http.ResponseWriter, r *http.Request) {
	h.shipmentTransition(w, r, h.orders.MarkShipped)
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	h.shipmentTransition(w, r, h.orders.MarkDelivered)
}

func (h *Handler) shipmentTransition(
	w http.ResponseWriter, r *http.Request,
	apply func(ctx context.Context, id identity.Identity, orderID int64, when time.Time) error,
) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	var req shipmentDateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	when := req.Date
	if when.IsZero() {
		when = time.Now()
	}
	if err := apply(r.Context(), id, orderID, when); err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

type invoiceResponse struct {
	ID            int64           `json:"id"`
	OrderID       int64           `json:"order_id"`
	InvoiceNumber string          `json:"invoice_number"`
	IssuedDate    time.Time       `json:"issued_date"`
	DueDate       time.Time       `json:"due_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Paid          bool            `json:"paid"`
}

func toInvoiceResponse(inv *order.Invoice) invoiceResponse {
	return invoiceResponse{
		ID:            inv.ID,
		OrderID:       inv.OrderID,
		InvoiceNumber: inv.InvoiceNumber,
		IssuedDate:    inv.IssuedDate,
		DueDate:       inv.DueDate,
		TotalAmount:   inv.TotalAmount,
		TaxAmount:     inv.TaxAmount,
		Paid:          inv.Paid,
	}
}

func (h *Handler) issueInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	inv, err := h.orders.IssueInvoice(r.Context(), id, orderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	orderID, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return
	}
	// Ownership check rides on Get: customers see only their own invoices.
	if _, err := h.orders.Get(r.Context(), id, orderID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	inv, err := h.orders.GetInvoiceRecord(r.Context(), orderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toInvoiceResponse(inv))
}
