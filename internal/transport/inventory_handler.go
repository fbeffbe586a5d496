package transport

import (
	"net/http"
	"time"

	"retail-pos/internal/domain"

	"retail-pos/internal/middleware"
	"retail-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest adds a product to the catalog with its stock settings.
// ExpiresOn is a calendar date, YYYY-MM-DD.
type CreateProductRequest struct {
	ID              string  `json:"id" validate:"required,max=64"`
	Name            string  `json:"name" validate:"required,max=200"`
	Category        string  `json:"category" validate:"required,oneof=food non_food"`
	DeliveryCost    string  `json:"delivery_cost" validate:"required,money"`
	ExpiresOn       *string `json:"expires_on" validate:"omitempty,datetime=2006-01-02"`
	InitialStock    int     `json:"initial_stock" validate:"gte=0"`
	ReorderPoint    int     `json:"reorder_point" validate:"gte=0"`
	ReorderQuantity int     `json:"reorder_quantity" validate:"gt=0"`
}

// RestockRequest represents a manual delivery
type RestockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// InventoryHandler exposes stock levels and restocking
type InventoryHandler struct {
	inventoryService service.InventoryService
	logger           *zap.Logger
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService service.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		logger:           logger,
	}
}

// RegisterRoutes registers all inventory routes. Writes run behind guards.
func (h *InventoryHandler) RegisterRoutes(r chi.Router, guards ...func(http.Handler) http.Handler) {
	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/low-stock", h.LowStock)
		r.Get("/expired", h.Expired)
		r.Get("/{productID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(guards...)
			r.Post("/", h.Create)
			r.Post("/reorder", h.Reorder)
			r.Post("/{productID}/restock", h.Restock)
		})
	})
}

// List returns every ledger entry
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.inventoryService.Levels())
}

// Get returns one product's stock level
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	level, err := h.inventoryService.Level(chi.URLParam(r, "productID"))
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, level)
}

// LowStock returns products at or below their reorder point
func (h *InventoryHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.inventoryService.LowStock())
}

// Expired returns products past their expiration date
func (h *InventoryHandler) Expired(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, h.inventoryService.Expired())
}

// Create registers a new product and books the delivery of its initial stock
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	cost, err := decimal.NewFromString(req.DeliveryCost)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid delivery cost")
		return
	}

	item := &domain.CatalogItem{
		Product: domain.Product{
			ID:           req.ID,
			Name:         req.Name,
			Category:     domain.Category(req.Category),
			DeliveryCost: cost,
		},
		StockSettings: domain.StockSettings{
			InitialStock:    req.InitialStock,
			ReorderPoint:    req.ReorderPoint,
			ReorderQuantity: req.ReorderQuantity,
		},
	}
	if req.ExpiresOn != nil {
		expires, err := time.Parse(time.DateOnly, *req.ExpiresOn)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid expiration date")
			return
		}
		item.ExpiresOn = &expires
	}

	if err := h.inventoryService.RegisterProduct(r.Context(), item); err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}

	level, err := h.inventoryService.Level(item.ID)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, level)
}

// Restock applies a delivery of one product
func (h *InventoryHandler) Restock(w http.ResponseWriter, r *http.Request) {
	var req RestockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	restock, err := h.inventoryService.Restock(r.Context(), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, restock)
}

// Reorder restocks every low product by its reorder quantity
func (h *InventoryHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	restocks, err := h.inventoryService.ReorderLowStock(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, restocks)
}
