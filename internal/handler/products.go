package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bulkdrop/api/internal/auth"
	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/middleware"
	"github.com/bulkdrop/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	ListActiveProductsByRegion(ctx context.Context, regionID uuid.UUID) ([]database.Product, error)
	ListProducts(ctx context.Context, regionID pgtype.UUID) ([]database.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ProductHandler handles the catalog and its admin CRUD.
type ProductHandler struct {
	store ProductStore
	log   *logrus.Entry
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore, log *logrus.Entry) *ProductHandler {
	return &ProductHandler{store: store, log: log}
}

// RegisterRoutes registers the customer catalog. Expected at /api/products.
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Catalog)
}

// RegisterAdminRoutes registers product CRUD. Expected at /api/admin/products.
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type productRequest struct {
	RegionID         string `json:"region_id"`
	Name             string `json:"name"`
	SKU              string `json:"sku"`
	Description      string `json:"description"`
	Unit             string `json:"unit"`
	Price            string `json:"price"`
	PricePerQuantity string `json:"price_per_quantity"`
	Stock            int32  `json:"stock"`
	ImageURL         string `json:"image_url"`
	IsActive         *bool  `json:"is_active"`
}

type productResponse struct {
	ID               uuid.UUID `json:"id"`
	RegionID         uuid.UUID `json:"region_id"`
	Name             string    `json:"name"`
	SKU              *string   `json:"sku"`
	Description      *string   `json:"description"`
	Unit             *string   `json:"unit"`
	Price            string    `json:"price"`
	PricePerQuantity string    `json:"price_per_quantity"`
	Stock            int32     `json:"stock"`
	ImageURL         *string   `json:"image_url"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toProductResponse(p database.Product) productResponse {
	return productResponse{
		ID:               p.ID,
		RegionID:         p.RegionID,
		Name:             p.Name,
		SKU:              textPtr(p.Sku),
		Description:      textPtr(p.Description),
		Unit:             textPtr(p.Unit),
		Price:            money(p.Price),
		PricePerQuantity: service.NumericToDecimal(p.PricePerQuantity).String(),
		Stock:            p.Stock,
		ImageURL:         textPtr(p.ImageUrl),
		IsActive:         p.IsActive,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

func toProductList(products []database.Product) []productResponse {
	resp := make([]productResponse, len(products))
	for i, p := range products {
		resp[i] = toProductResponse(p)
	}
	return resp
}

// --- Helpers ---

// productFields is the validated, region-independent part of a product write.
type productFields struct {
	name     string
	price    pgtype.Numeric
	perQty   pgtype.Numeric
	isActive bool
}

func validateProduct(req productRequest) (productFields, string) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return productFields{}, "name is required"
	}

	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil {
		return productFields{}, "invalid price"
	}
	if price.IsNegative() {
		return productFields{}, "price must be >= 0"
	}

	perQty := decimal.NewFromInt(1)
	if s := strings.TrimSpace(req.PricePerQuantity); s != "" {
		perQty, err = decimal.NewFromString(s)
		if err != nil {
			return productFields{}, "invalid price_per_quantity"
		}
	}
	if !perQty.IsPositive() {
		return productFields{}, "price_per_quantity must be > 0"
	}

	if req.Stock < 0 {
		return productFields{}, "stock must be >= 0"
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return productFields{
		name:     name,
		price:    service.DecimalToNumeric(price.Round(2)),
		perQty:   service.DecimalToNumeric(perQty),
		isActive: isActive,
	}, ""
}

// productRegion picks the region a new product belongs to. Regional admins
// are pinned to their own region; super admins must name one.
func productRegion(actor *auth.Actor, requested string) (uuid.UUID, int, string) {
	requested = strings.TrimSpace(requested)
	if actor.IsSuperAdmin() {
		if requested == "" {
			return uuid.Nil, http.StatusBadRequest, "region_id is required"
		}
		id, err := uuid.Parse(requested)
		if err != nil {
			return uuid.Nil, http.StatusBadRequest, "invalid region_id"
		}
		return id, 0, ""
	}
	if !actor.HasRegion() {
		return uuid.Nil, http.StatusForbidden, errNoAdminRegion.Error()
	}
	if requested != "" {
		id, err := uuid.Parse(requested)
		if err != nil {
			return uuid.Nil, http.StatusBadRequest, "invalid region_id"
		}
		if id != actor.Region() {
			return uuid.Nil, http.StatusForbidden, "cannot create products outside your region"
		}
	}
	return actor.Region(), 0, ""
}

// loadScopedProduct fetches a product and checks the caller's region scope.
// It writes the error response and returns false on failure.
func (h *ProductHandler) loadScopedProduct(w http.ResponseWriter, r *http.Request) (database.Product, bool) {
	id, err := urlUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return database.Product{}, false
	}

	product, err := h.store.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return database.Product{}, false
		}
		writeInternal(w, h.log, r, "get product", err)
		return database.Product{}, false
	}

	if !middleware.ActorFromContext(r.Context()).CanAccessRegion(product.RegionID) {
		writeError(w, http.StatusForbidden, "product is outside your region")
		return database.Product{}, false
	}
	return product, true
}

// --- Handlers ---

// Catalog returns active products in the caller's region. Super admins may
// browse another region with region_id.
func (h *ProductHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var regionID uuid.UUID
	switch q := r.URL.Query().Get("region_id"); {
	case q != "" && actor.IsSuperAdmin():
		id, err := uuid.Parse(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid region_id")
			return
		}
		regionID = id
	case actor.HasRegion():
		regionID = actor.Region()
	default:
		writeError(w, http.StatusBadRequest, "select a region on your profile first")
		return
	}

	products, err := h.store.ListActiveProductsByRegion(r.Context(), regionID)
	if err != nil {
		writeInternal(w, h.log, r, "list catalog", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductList(products))
}

// List returns every product in the admin's scope, including inactive ones.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, err := adminScope(middleware.ActorFromContext(r.Context()), r)
	if err != nil {
		writeScopeError(w, err)
		return
	}

	products, err := h.store.ListProducts(r.Context(), scope)
	if err != nil {
		writeInternal(w, h.log, r, "list products", err)
		return
	}

	writeJSON(w, http.StatusOK, toProductList(products))
}

// Get returns a single product in scope.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, ok := h.loadScopedProduct(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Create adds a product to a region.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, msg := validateProduct(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	regionID, status, msg := productRegion(middleware.ActorFromContext(r.Context()), req.RegionID)
	if msg != "" {
		writeError(w, status, msg)
		return
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		RegionID:         regionID,
		Name:             fields.name,
		Sku:              optText(req.SKU),
		Description:      optText(req.Description),
		Unit:             optText(req.Unit),
		Price:            fields.price,
		PricePerQuantity: fields.perQty,
		Stock:            req.Stock,
		ImageUrl:         optText(req.ImageURL),
		IsActive:         fields.isActive,
	})
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			writeError(w, http.StatusBadRequest, "invalid region_id")
		case isUniqueViolation(err):
			writeError(w, http.StatusConflict, "sku already exists in this region")
		default:
			writeInternal(w, h.log, r, "create product", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, toProductResponse(product))
}

// Update replaces a product's fields. The region never changes.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadScopedProduct(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fields, msg := validateProduct(req)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:               existing.ID,
		Name:             fields.name,
		Sku:              optText(req.SKU),
		Description:      optText(req.Description),
		Unit:             optText(req.Unit),
		Price:            fields.price,
		PricePerQuantity: fields.perQty,
		Stock:            req.Stock,
		ImageUrl:         optText(req.ImageURL),
		IsActive:         fields.isActive,
	})
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			writeError(w, http.StatusNotFound, "product not found")
		case isUniqueViolation(err):
			writeError(w, http.StatusConflict, "sku already exists in this region")
		default:
			writeInternal(w, h.log, r, "update product", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(product))
}

// Delete removes a product. Order items keep their snapshot.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadScopedProduct(w, r)
	if !ok {
		return
	}

	if _, err := h.store.DeleteProduct(r.Context(), existing.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternal(w, h.log, r, "delete product", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
