package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-storefront/internal/checkout"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/pricing"
	"ms-storefront/internal/receipts"
	"ms-storefront/internal/slugcache"
	"ms-storefront/internal/sse"
	"ms-storefront/internal/ticketapi"
)

type Handler struct {
	Sessions *checkout.SessionManager
	API      *ticketapi.Client
	Receipts *receipts.Store
	QR       *receipts.QRGenerator
	Slugs    *slugcache.Cache
	Emitter  *sse.CheckoutStateEmitter
	Logger   *logger.Logger
}

func NewHandler(sessions *checkout.SessionManager, apiClient *ticketapi.Client, store *receipts.Store, qr *receipts.QRGenerator, slugs *slugcache.Cache, emitter *sse.CheckoutStateEmitter, log *logger.Logger) *Handler {
	return &Handler{
		Sessions: sessions,
		API:      apiClient,
		Receipts: store,
		QR:       qr,
		Slugs:    slugs,
		Emitter:  emitter,
		Logger:   log,
	}
}

// PricingPreview computes a cart price summary without touching the network.
func (h *Handler) PricingPreview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lines []models.LineItem `json:"lines"`
		At    *time.Time        `json:"at,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("PricingPreview: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	if req.At != nil {
		now = *req.At
	}

	summary := pricing.Summarize(req.Lines, now)
	writeJSON(w, http.StatusOK, summary)
}

// ListTicketTypes proxies the upstream ticket-type listing for browse pages.
func (h *Handler) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventId")
	h.Logger.Info("API", fmt.Sprintf("ListTicketTypes: eventId=%s", eventID))

	types, err := h.API.ListTicketTypes(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListTicketTypes: upstream call failed: %v", err))
		writeClassified(w, checkout.Classify(err))
		return
	}

	writeJSON(w, http.StatusOK, types)
}

// OpenCheckout creates a checkout session for an event and cart.
func (h *Handler) OpenCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EventSlug string            `json:"event_slug"`
		Lines     []models.LineItem `json:"lines"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("OpenCheckout: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.EventSlug == "" {
		http.Error(w, "Event slug is required", http.StatusBadRequest)
		return
	}

	machine := h.Sessions.Open(req.EventSlug, req.Lines)
	h.Logger.LogCheckout("OPEN", machine.Snapshot().CheckoutID, fmt.Sprintf("event=%s lines=%d", req.EventSlug, len(req.Lines)))

	writeJSON(w, http.StatusCreated, machine.Snapshot())
}

// GetCheckout returns the current state of a session.
func (h *Handler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, machine.Snapshot())
}

// SubmitCheckout runs the purchase and returns the resulting state.
func (h *Handler) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req checkout.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Error("API", fmt.Sprintf("SubmitCheckout: failed to decode request body: %v", err))
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	snapshot, err := machine.Submit(r.Context(), req)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("SubmitCheckout: not allowed: %v", err))
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// RetryCheckout moves a failed session back to the details step.
func (h *Handler) RetryCheckout(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := machine.Retry(); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("RetryCheckout: not allowed: %v", err))
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	writeJSON(w, http.StatusOK, machine.Snapshot())
}

// CloseCheckout tears a session down. Any in-flight submission result is
// dropped.
func (h *Handler) CloseCheckout(w http.ResponseWriter, r *http.Request) {
	checkoutID := chi.URLParam(r, "checkoutId")

	if err := h.Sessions.Close(checkoutID); err != nil {
		http.Error(w, "Checkout not found", http.StatusNotFound)
		return
	}
	h.Logger.LogCheckout("CLOSE", checkoutID, "session closed")

	w.WriteHeader(http.StatusNoContent)
}

// StreamCheckoutEvents streams state changes for a session over SSE.
func (h *Handler) StreamCheckoutEvents(w http.ResponseWriter, r *http.Request) {
	machine, ok := h.lookup(w, r)
	if !ok {
		return
	}
	checkoutID := chi.URLParam(r, "checkoutId")

	flusher, canFlush := w.(http.Flusher)
	if !canFlush {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	stateChan := h.Emitter.Subscribe(ctx, checkoutID)

	// Current state first so the client never starts blind.
	h.writeSSE(w, machine.Snapshot())
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to checkout events for: %s", checkoutID))

	for {
		select {
		case snapshot, open := <-stateChan:
			if !open {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for checkout: %s", checkoutID))
				return
			}
			h.writeSSE(w, snapshot)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from checkout events for: %s", checkoutID))
			return
		}
	}
}

// LastEventSlug returns the slug cached for a buyer's most recent purchase,
// so a post-redirect landing page can find its way back to the event.
func (h *Handler) LastEventSlug(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	slug, err := h.Slugs.Get(r.Context(), email)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("LastEventSlug: cache read failed: %v", err))
		http.Error(w, "Failed to read slug cache", http.StatusInternalServerError)
		return
	}
	if slug == "" {
		http.Error(w, "No recent purchase", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"event_slug": slug})
}

// GetReceipt fetches a locally stored purchase receipt.
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	receipt, err := h.Receipts.GetByReference(r.Context(), reference)
	if err != nil {
		h.Logger.Warn("API", fmt.Sprintf("GetReceipt: receipt not found: %v", err))
		http.Error(w, "Receipt not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// GetReceiptQR renders a receipt as an encrypted QR PNG.
func (h *Handler) GetReceiptQR(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	receipt, err := h.Receipts.GetByReference(r.Context(), reference)
	if err != nil {
		http.Error(w, "Receipt not found", http.StatusNotFound)
		return
	}

	png, err := h.QR.GenerateEncryptedQR(*receipt)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetReceiptQR: failed to generate QR: %v", err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*checkout.StateMachine, bool) {
	checkoutID := chi.URLParam(r, "checkoutId")

	machine, err := h.Sessions.Get(checkoutID)
	if err != nil {
		if errors.Is(err, checkout.ErrSessionNotFound) {
			http.Error(w, "Checkout not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return nil, false
	}
	return machine, true
}

func (h *Handler) writeSSE(w http.ResponseWriter, snapshot checkout.StateSnapshot) {
	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize state snapshot: %v", err))
		return
	}
	fmt.Fprintf(w, "event: state\ndata: %s\n\n", jsonData)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeClassified maps a classified failure onto an HTTP response while
// keeping the remedy payload intact.
func writeClassified(w http.ResponseWriter, cerr *checkout.ClassifiedError) {
	status := http.StatusBadGateway
	if cerr.Kind == checkout.KindTicketType {
		status = http.StatusNotFound
	}
	writeJSON(w, status, cerr)
}
