package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"honeyhive/internal/docstore"
	"honeyhive/internal/localstorage"
	catalogsvc "honeyhive/internal/service/catalog"
	checkoutsvc "honeyhive/internal/service/checkout"
	customersvc "honeyhive/internal/service/customer"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	docs := docstore.NewMemory()
	local := localstorage.NewMemory()
	customerService := customersvc.New(docs)
	deps := Deps{
		CatalogSvc:  catalogsvc.New(docs),
		CustomerSvc: customerService,
		CheckoutSvc: checkoutsvc.New(docs),
		Docs:        docs,
		Local:       local,
		AdminToken:  "admin-secret",
	}
	sess := newSessions(docs, local, logger)
	customerService.Subscribe(sess.onAuthChange)
	return buildRouter(logger, nil, nil, deps, sess)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router := testRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, "/readyz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rec.Code)
	}
}

func TestCartRequiresDeviceHeader(t *testing.T) {
	router := testRouter(t)
	rec := doJSON(t, router, http.MethodGet, "/cart", nil, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without X-Device-ID, got %d", rec.Code)
	}
}

func TestAdminProductsRequireToken(t *testing.T) {
	router := testRouter(t)
	rec := doJSON(t, router, http.MethodPost, "/admin/products", map[string]interface{}{
		"name": "Wildflower Honey", "priceCents": 1299,
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without admin token, got %d", rec.Code)
	}
}

func TestStorefrontFlow(t *testing.T) {
	router := testRouter(t)
	admin := map[string]string{"Authorization": "Bearer admin-secret"}

	// Admin creates a product.
	rec := doJSON(t, router, http.MethodPost, "/admin/products", map[string]interface{}{
		"name": "Wildflower Honey", "priceCents": 1299,
	}, admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create product: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var product struct {
		ID string `json:"id"`
	}
	decode(t, rec, &product)

	// Guest browses and fills the cart.
	rec = doJSON(t, router, http.MethodPost, "/auth/guest", nil, nil)
	var guest struct {
		DeviceID string `json:"deviceId"`
	}
	decode(t, rec, &guest)
	device := map[string]string{"X-Device-ID": guest.DeviceID}

	rec = doJSON(t, router, http.MethodPost, "/cart/items", map[string]interface{}{
		"productId": product.ID, "productName": "Wildflower Honey", "unitPriceCents": 1299, "quantity": 2,
	}, device)
	if rec.Code != http.StatusOK {
		t.Fatalf("add item: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var cart cartResponse
	decode(t, rec, &cart)
	if len(cart.LineItems) != 1 || cart.TotalItems != 2 || cart.TotalCents != 2598 {
		t.Fatalf("unexpected guest cart: %+v", cart)
	}

	// Guest signs up and logs in; the cart follows into the account.
	rec = doJSON(t, router, http.MethodPost, "/auth/signup", map[string]interface{}{
		"email": "bee@example.com", "password": "password123",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPost, "/auth/login", map[string]interface{}{
		"email": "bee@example.com", "password": "password123",
	}, device)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, rec, &login)

	authed := map[string]string{
		"X-Device-ID":   guest.DeviceID,
		"Authorization": "Bearer " + login.AccessToken,
	}
	rec = doJSON(t, router, http.MethodGet, "/cart", nil, authed)
	if rec.Code != http.StatusOK {
		t.Fatalf("get cart: expected 200, got %d", rec.Code)
	}
	decode(t, rec, &cart)
	if cart.TotalItems != 2 || cart.TotalCents != 2598 {
		t.Fatalf("cart lost during login: %+v", cart)
	}

	// Checkout empties the cart and records the order.
	rec = doJSON(t, router, http.MethodPost, "/checkout", nil, authed)
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/cart", nil, authed)
	decode(t, rec, &cart)
	if cart.TotalItems != 0 {
		t.Fatalf("expected empty cart after checkout, got %+v", cart)
	}

	rec = doJSON(t, router, http.MethodGet, "/orders", nil, authed)
	if rec.Code != http.StatusOK {
		t.Fatalf("orders: expected 200, got %d", rec.Code)
	}
	var orders struct {
		Orders []struct {
			TotalCents int64 `json:"totalCents"`
		} `json:"orders"`
	}
	decode(t, rec, &orders)
	if len(orders.Orders) != 1 || orders.Orders[0].TotalCents != 2598 {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestAddItemRequiresProductID(t *testing.T) {
	router := testRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/guest", nil, nil)
	var guest struct {
		DeviceID string `json:"deviceId"`
	}
	decode(t, rec, &guest)

	rec = doJSON(t, router, http.MethodPost, "/cart/items", map[string]interface{}{
		"quantity": 2,
	}, map[string]string{"X-Device-ID": guest.DeviceID})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without productId, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	router := testRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/guest", nil, nil)
	var guest struct {
		DeviceID string `json:"deviceId"`
	}
	decode(t, rec, &guest)

	rec = doJSON(t, router, http.MethodPost, "/auth/signup", map[string]interface{}{
		"email": "empty@example.com", "password": "password123",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, router, http.MethodPost, "/auth/login", map[string]interface{}{
		"email": "empty@example.com", "password": "password123",
	}, map[string]string{"X-Device-ID": guest.DeviceID})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, rec, &login)

	rec = doJSON(t, router, http.MethodPost, "/checkout", nil, map[string]string{
		"X-Device-ID":   guest.DeviceID,
		"Authorization": "Bearer " + login.AccessToken,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty cart, got %d (%s)", rec.Code, rec.Body.String())
	}
}
