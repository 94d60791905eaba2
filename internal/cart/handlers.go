package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/pos-checkout/internal/catalog"
	"github.com/noah-isme/pos-checkout/internal/common"
	"github.com/noah-isme/pos-checkout/internal/pricing"
)

// Handler wires the cart engine to HTTP.
type Handler struct {
	Engine   *Engine
	Products *catalog.Store
}

// Mount registers the cart routes on the given router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.Get)
	r.Delete("/", h.Cancel)
	r.Post("/items", h.Pick)
	r.Post("/items/{lineID}/increase", h.Increase)
	r.Post("/items/{lineID}/decrease", h.Decrease)
	r.Delete("/items/{lineID}", h.Remove)
	r.Post("/checkout", h.Checkout)
	r.Put("/tax-rate", h.SetTaxRate)
}

// Get returns the current cart snapshot.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeSnapshot(w, http.StatusOK, h.Engine.Snapshot())
}

// Pick adds the referenced product to the cart.
func (h *Handler) Pick(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	payload.ProductID = strings.TrimSpace(payload.ProductID)
	if payload.ProductID == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "productId is required", nil)
		return
	}
	if !h.Engine.Ready() {
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeCatalogNotReady, "catalog not loaded yet", nil)
		return
	}
	product, ok := h.Products.Get(payload.ProductID)
	if !ok {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "product not found", nil)
		return
	}
	snap, err := h.Engine.Pick(r.Context(), product)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, snap)
}

// Increase increments the quantity of the addressed line.
func (h *Handler) Increase(w http.ResponseWriter, r *http.Request) {
	h.lineOp(w, r, h.Engine.Increase)
}

// Decrease decrements the quantity of the addressed line.
func (h *Handler) Decrease(w http.ResponseWriter, r *http.Request) {
	h.lineOp(w, r, h.Engine.Decrease)
}

// Remove deletes the addressed line.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	h.lineOp(w, r, h.Engine.Remove)
}

// Cancel empties the cart.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.writeSnapshot(w, http.StatusOK, h.Engine.Cancel(r.Context()))
}

// Checkout finalises the sale and returns the receipt snapshot.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.Engine.Checkout(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, receipt)
}

// SetTaxRate changes the tax rate applied to totals.
func (h *Handler) SetTaxRate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TaxBps *int `json:"taxBps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.TaxBps == nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "taxBps is required", nil)
		return
	}
	snap, err := h.Engine.SetTaxRate(r.Context(), *payload.TaxBps)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, snap)
}

func (h *Handler) lineOp(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id uuid.UUID) (Snapshot, error)) {
	lineID, err := uuid.Parse(chi.URLParam(r, "lineID"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid line id", nil)
		return
	}
	snap, err := op(r.Context(), lineID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeSnapshot(w, http.StatusOK, snap)
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, status int, snap Snapshot) {
	common.JSON(w, status, map[string]any{
		"data": map[string]any{
			"items":           snap.Items,
			"totals":          snap.Totals,
			"taxBps":          snap.TaxBps,
			"currency":        snap.Currency,
			"currencySymbol":  pricing.Symbol(snap.Currency),
			"checkoutEnabled": snap.CheckoutEnabled,
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNoSuchLine):
		common.JSONError(w, http.StatusNotFound, common.CodeNoSuchLine, "no such cart line", nil)
	case errors.Is(err, ErrCatalogNotReady):
		common.JSONError(w, http.StatusServiceUnavailable, common.CodeCatalogNotReady, "catalog not loaded yet", nil)
	case errors.Is(err, ErrEmpty):
		common.JSONError(w, http.StatusConflict, common.CodeCartEmpty, "cart is empty", nil)
	case errors.Is(err, ErrInvalidTaxRate):
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "taxBps must be between 0 and 10000", nil)
	default:
		common.WriteAppError(w, err)
	}
}
