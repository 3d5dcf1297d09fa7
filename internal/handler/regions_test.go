package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/handler"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- Mock RegionStore ---

type mockRegionStore struct {
	regions    []database.Region
	createArgs []database.CreateRegionParams
	updateArgs []database.UpdateRegionParams
	createErr  error
}

func (m *mockRegionStore) ListActiveRegions(ctx context.Context) ([]database.Region, error) {
	var out []database.Region
	for _, rg := range m.regions {
		if rg.IsActive {
			out = append(out, rg)
		}
	}
	return out, nil
}

func (m *mockRegionStore) ListRegions(ctx context.Context) ([]database.Region, error) {
	return m.regions, nil
}

func (m *mockRegionStore) CreateRegion(ctx context.Context, arg database.CreateRegionParams) (database.Region, error) {
	m.createArgs = append(m.createArgs, arg)
	if m.createErr != nil {
		return database.Region{}, m.createErr
	}
	return database.Region{ID: uuid.New(), Name: arg.Name, Code: arg.Code, SupportEmail: arg.SupportEmail, IsActive: true}, nil
}

func (m *mockRegionStore) UpdateRegion(ctx context.Context, arg database.UpdateRegionParams) (database.Region, error) {
	m.updateArgs = append(m.updateArgs, arg)
	for _, rg := range m.regions {
		if rg.ID == arg.ID {
			return database.Region{ID: arg.ID, Name: arg.Name, Code: arg.Code, IsActive: arg.IsActive}, nil
		}
	}
	return database.Region{}, pgx.ErrNoRows
}

func newRegionStore() *mockRegionStore {
	return &mockRegionStore{regions: []database.Region{
		{ID: regionA, Name: "North", Code: "NTH", IsActive: true},
		{ID: regionB, Name: "South", Code: "STH", IsActive: false},
	}}
}

func TestListRegions(t *testing.T) {
	h := handler.NewRegionHandler(newRegionStore(), quietLog())

	rr := doRequest(t, newRouter(customerActor(regionA), h.RegisterRoutes), http.MethodGet, "/base/", nil)
	assertStatus(t, rr, http.StatusOK)
	var active []map[string]interface{}
	decodeBody(t, rr, &active)
	if len(active) != 1 || active[0]["code"] != "NTH" {
		t.Errorf("active: got %v", active)
	}

	rr = doRequest(t, newRouter(superAdmin(), h.RegisterAdminRoutes), http.MethodGet, "/base/", nil)
	assertStatus(t, rr, http.StatusOK)
	var all []map[string]interface{}
	decodeBody(t, rr, &all)
	if len(all) != 2 {
		t.Errorf("all: got %d regions", len(all))
	}
}

func TestCreateRegion(t *testing.T) {
	store := newRegionStore()
	h := handler.NewRegionHandler(store, quietLog())
	router := newRouter(superAdmin(), h.RegisterAdminRoutes)

	rr := doRequest(t, router, http.MethodPost, "/base/", map[string]string{"name": " East ", "code": " est ", "support_email": "east@example.com"})
	assertStatus(t, rr, http.StatusCreated)

	arg := store.createArgs[0]
	if arg.Name != "East" || arg.Code != "EST" || arg.SupportEmail.String != "east@example.com" {
		t.Errorf("got %+v", arg)
	}

	assertStatus(t, doRequest(t, router, http.MethodPost, "/base/", map[string]string{"code": "W"}), http.StatusBadRequest)
	assertStatus(t, doRequest(t, router, http.MethodPost, "/base/", map[string]string{"name": "West"}), http.StatusBadRequest)
}

func TestCreateRegion_DuplicateCode(t *testing.T) {
	store := newRegionStore()
	store.createErr = &pgconn.PgError{Code: "23505"}
	h := handler.NewRegionHandler(store, quietLog())

	rr := doRequest(t, newRouter(superAdmin(), h.RegisterAdminRoutes), http.MethodPost, "/base/", map[string]string{"name": "North", "code": "NTH"})
	assertStatus(t, rr, http.StatusConflict)
}

func TestUpdateRegion(t *testing.T) {
	store := newRegionStore()
	h := handler.NewRegionHandler(store, quietLog())
	router := newRouter(superAdmin(), h.RegisterAdminRoutes)

	rr := doRequest(t, router, http.MethodPut, "/base/"+regionB.String(), map[string]interface{}{"name": "South", "code": "sth", "is_active": true})
	assertStatus(t, rr, http.StatusOK)
	if arg := store.updateArgs[0]; !arg.IsActive || arg.Code != "STH" {
		t.Errorf("got %+v", arg)
	}

	rr = doRequest(t, router, http.MethodPut, "/base/"+uuid.NewString(), map[string]interface{}{"name": "Gone", "code": "GON"})
	assertStatus(t, rr, http.StatusNotFound)

	rr = doRequest(t, router, http.MethodPut, "/base/nope", map[string]interface{}{"name": "Gone", "code": "GON"})
	assertStatus(t, rr, http.StatusBadRequest)
}
