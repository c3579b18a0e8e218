package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"food-marketplace/internal/auth"
	"food-marketplace/internal/catalog"
	"food-marketplace/internal/config"
	"food-marketplace/internal/logger"
	"food-marketplace/internal/models"
	"food-marketplace/internal/pricing"
	"food-marketplace/internal/store/lite"
)

type testAPI struct {
	t        *testing.T
	router   *gin.Engine
	st       *lite.Store
	verifier *auth.Verifier
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := lite.Open(":memory:")
	if err != nil {
		t.Fatalf("lite.Open: %v", err)
	}
	t.Cleanup(st.Close)

	verifier := auth.NewVerifier("router-secret")
	router := NewRouter(config.ServerConfig{RequestTimeout: 5 * time.Second}, Dependencies{
		Store:     st,
		Ownership: catalog.NewStoreOwnership(st),
		Verifier:  verifier,
		Logger:    logger.NewWithWriter("api-test", io.Discard),
	})
	return &testAPI{t: t, router: router, st: st, verifier: verifier}
}

func (a *testAPI) token(p models.Principal) string {
	tok, err := a.verifier.Issue(p, time.Minute)
	if err != nil {
		a.t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (a *testAPI) call(method, path, token string, body interface{}, out interface{}) int {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	if out != nil {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, w.Body.String(), err)
		}
	}
	return w.Code
}

func TestHealthAndMetrics(t *testing.T) {
	a := newTestAPI(t)

	var health map[string]string
	if code := a.call(http.MethodGet, "/health", "", nil, &health); code != http.StatusOK || health["status"] != "healthy" {
		t.Errorf("GET /health = %d %v", code, health)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "http_requests_total") {
		t.Errorf("GET /metrics = %d", w.Code)
	}
}

func TestCheckoutAndPaymentFlow(t *testing.T) {
	a := newTestAPI(t)
	ctx := context.Background()

	customerID, ownerID := uuid.New(), uuid.New()
	restaurant := models.Restaurant{ID: uuid.New(), OwnerID: &ownerID, Name: "Sushi Go"}
	if err := a.st.PutRestaurant(ctx, restaurant); err != nil {
		t.Fatalf("PutRestaurant: %v", err)
	}
	dish := models.Dish{ID: uuid.New(), RestaurantID: restaurant.ID, Name: "Maki", Price: pricing.MustParse("6.75"), IsAvailable: true}
	if err := a.st.PutDish(ctx, dish); err != nil {
		t.Fatalf("PutDish: %v", err)
	}

	customer := a.token(models.Principal{ID: customerID, Role: models.RoleCustomer})
	owner := a.token(models.Principal{ID: ownerID, Role: models.RoleRestaurantOwner})
	admin := a.token(models.Principal{ID: uuid.New(), Role: models.RoleAdmin})

	if code := a.call(http.MethodPost, "/api/v1/cart/add-item", customer, map[string]interface{}{"dish_id": dish.ID, "quantity": 2}, nil); code != http.StatusOK {
		t.Fatalf("add-item = %d", code)
	}

	var placement struct {
		Order       models.Order       `json:"order"`
		Transaction models.Transaction `json:"transaction"`
	}
	if code := a.call(http.MethodPost, "/api/v1/cart/checkout", customer, nil, &placement); code != http.StatusCreated {
		t.Fatalf("checkout = %d", code)
	}
	if placement.Order.TotalAmount.String() != "13.50" || placement.Transaction.Amount.String() != "13.50" {
		t.Errorf("placement = %+v", placement)
	}

	var conflict map[string]string
	path := "/api/v1/orders/" + placement.Order.ID.String() + "/transaction"
	if code := a.call(http.MethodPost, path, customer, nil, &conflict); code != http.StatusConflict || conflict["kind"] != "conflict" {
		t.Errorf("second transaction = %d %v", code, conflict)
	}

	statusPath := "/api/v1/transactions/" + placement.Transaction.Reference + "/status"
	if code := a.call(http.MethodPost, statusPath, customer, map[string]string{"status": "success"}, nil); code != http.StatusForbidden {
		t.Errorf("customer callback = %d, want 403", code)
	}
	if code := a.call(http.MethodPost, statusPath, admin, map[string]string{"status": "pending"}, nil); code != http.StatusBadRequest {
		t.Errorf("bad callback status = %d, want 400", code)
	}

	var settled models.Transaction
	if code := a.call(http.MethodPost, statusPath, admin, map[string]string{"status": "success"}, &settled); code != http.StatusOK {
		t.Fatalf("callback = %d", code)
	}
	if settled.Status != models.TransactionSuccess {
		t.Errorf("transaction status = %s", settled.Status)
	}
	if code := a.call(http.MethodPost, statusPath, admin, map[string]string{"status": "failed"}, nil); code != http.StatusConflict {
		t.Errorf("repeated callback = %d, want 409", code)
	}

	var order models.Order
	orderPath := "/api/v1/orders/" + placement.Order.ID.String()
	if code := a.call(http.MethodGet, orderPath, owner, nil, &order); code != http.StatusOK || order.Status != models.StatusPaid {
		t.Fatalf("GET order = %d status %s", code, order.Status)
	}

	if code := a.call(http.MethodPost, orderPath+"/cancel", customer, nil, nil); code != http.StatusConflict {
		t.Errorf("cancel paid order = %d, want 409", code)
	}
	if code := a.call(http.MethodPatch, orderPath+"/status", owner, map[string]string{"status": "preparing"}, &order); code != http.StatusOK || order.Status != models.StatusPreparing {
		t.Errorf("PATCH status = %d %s", code, order.Status)
	}

	var history []models.OrderStatusHistory
	a.call(http.MethodGet, orderPath+"/history", customer, nil, &history)
	if len(history) != 3 {
		t.Errorf("history = %+v", history)
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	a := newTestAPI(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/cart"},
		{http.MethodPost, "/api/v1/cart/checkout"},
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/orders/mine"},
		{http.MethodGet, "/api/v1/orders/" + uuid.NewString()},
		{http.MethodPost, "/api/v1/transactions/TXN-1/status"},
	}

	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			var body map[string]string
			if code := a.call(r.method, r.path, "", nil, &body); code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", code)
			}
			if body["kind"] != "unauthenticated" {
				t.Errorf("kind = %q", body["kind"])
			}
		})
	}
}
