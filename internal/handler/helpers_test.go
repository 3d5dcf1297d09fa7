package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bulkdrop/api/internal/auth"
	"github.com/bulkdrop/api/internal/database"
	"github.com/bulkdrop/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/sirupsen/logrus"
)

var (
	regionA = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	regionB = uuid.MustParse("22222222-2222-2222-2222-222222222222")
)

func quietLog() *logrus.Entry {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(log)
}

func pgRegion(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func testNumeric(s string) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(s)
	return n
}

func customerActor(region uuid.UUID) *auth.Actor {
	return auth.NewActor(database.Profile{
		ID:        uuid.New(),
		Email:     "buyer@example.com",
		FullName:  "Buyer",
		Role:      database.UserRoleUser,
		RegionID:  pgRegion(region),
		KycStatus: database.KycStatusApproved,
	})
}

func partnerActor(region uuid.UUID) *auth.Actor {
	return auth.NewActor(database.Profile{
		ID:       uuid.New(),
		Email:    "driver@example.com",
		FullName: "Driver",
		Role:     database.UserRoleLogistics,
		RegionID: pgRegion(region),
	})
}

func regionalAdmin(region uuid.UUID) *auth.Actor {
	return auth.NewActor(database.Profile{
		ID:        uuid.New(),
		Email:     "ops@example.com",
		FullName:  "Ops",
		Role:      database.UserRoleAdmin,
		AdminRole: database.NullAdminRole{AdminRole: database.AdminRoleRegionalAdmin, Valid: true},
		RegionID:  pgRegion(region),
	})
}

func superAdmin() *auth.Actor {
	return auth.NewActor(database.Profile{
		ID:        uuid.New(),
		Email:     "root@example.com",
		FullName:  "Root",
		Role:      database.UserRoleAdmin,
		AdminRole: database.NullAdminRole{AdminRole: database.AdminRoleSuperAdmin, Valid: true},
	})
}

// newRouter mounts register at /base with actor injected into every request.
func newRouter(actor *auth.Actor, register func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithActor(req.Context(), actor)))
		})
	})
	r.Route("/base", register)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rr.Body.String())
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	decodeBody(t, rr, &body)
	return body["error"]
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, want, rr.Body.String())
	}
}

func sampleOrder(userID, regionID uuid.UUID, status database.OrderStatus) database.Order {
	now := time.Date(2026, time.January, 15, 9, 0, 0, 0, time.UTC)
	return database.Order{
		ID:                   uuid.New(),
		OrderNumber:          "ORD2601150007",
		UserID:               userID,
		RegionID:             regionID,
		Status:               status,
		PaymentStatus:        database.PaymentStatusPending,
		PaymentMethod:        pgtype.Text{String: "cod", Valid: true},
		Subtotal:             testNumeric("100"),
		TotalAmount:          testNumeric("100"),
		DeliveryName:         "Warehouse",
		DeliveryPhone:        "555-0100",
		DeliveryAddressLine1: "1 Dock Rd",
		DeliveryCity:         "Portside",
		DeliveryState:        "PS",
		DeliveryPostalCode:   "10001",
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}
