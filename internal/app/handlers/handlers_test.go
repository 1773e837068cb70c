package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/inventory-api/internal/app/handlers"
	"github.com/linemk/inventory-api/internal/auth"
	"github.com/linemk/inventory-api/internal/auth/authmiddleware"
	"github.com/linemk/inventory-api/internal/domain/models"
	"github.com/linemk/inventory-api/internal/service"
	"github.com/stretchr/testify/assert"
)

// fakeAuthService — фиктивная реализация для тестирования.
type fakeAuthService struct {
	user  *models.User
	token string
	err   error
}

func (f *fakeAuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return f.token, f.err
}

type fakeProductService struct {
	products []*models.Product
	err      error
}

func (f *fakeProductService) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	product.ID = 1
	return product, nil
}

func (f *fakeProductService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return f.products, f.err
}

type fakeOrderService struct {
	summary *service.OrderSummary
	order   *models.Order
	orders  []*models.Order
	err     error
}

func (f *fakeOrderService) CreateOrder(ctx context.Context, userID int64, items []service.OrderItemInput) (*service.OrderSummary, error) {
	return f.summary, f.err
}

func (f *fakeOrderService) GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) ListOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	return f.orders, f.err
}

func (f *fakeOrderService) CancelOrder(ctx context.Context, orderID, userID int64) error {
	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// withIdentity эмулирует JWT middleware, устанавливая identity в контекст запроса
func withIdentity(req *http.Request, userID int64) *http.Request {
	ctx := context.WithValue(req.Context(), authmiddleware.IdentityKey, auth.Identity{
		UserID: userID,
		Email:  "test@example.com",
		Role:   "user",
	})
	return req.WithContext(ctx)
}

func withOrderID(req *http.Request, orderID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderID", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestRegisterHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{user: &models.User{ID: 1, Name: "Test", Email: "test@example.com", Role: "user"}}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"name": "Test", "email": "test@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/register", bytes.NewBufferString(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.RegisterResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "user", resp.Role)
}

func TestRegisterHandler_ValidationError(t *testing.T) {
	handler := handlers.RegisterHandler(testLogger(), &fakeAuthService{})

	// пароль короче 8 символов
	reqBody := `{"name": "Test", "email": "test@example.com", "password": "short"}`
	req := httptest.NewRequest("POST", "/api/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegisterHandler_EmailTaken(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrEmailTaken}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"name": "Test", "email": "dup@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{token: "test-token"}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "test@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.LoginResponse
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "test-token", resp.Token)
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrInvalidCredentials}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "test@example.com", "password": "wrongpassword"}`
	req := httptest.NewRequest("POST", "/api/auth", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLoginHandler_InvalidJSON(t *testing.T) {
	handler := handlers.LoginHandler(testLogger(), &fakeAuthService{})

	req := httptest.NewRequest("POST", "/api/auth", bytes.NewBufferString(`{"email":`))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateProductHandler_Success(t *testing.T) {
	handler := handlers.CreateProductHandler(testLogger(), &fakeProductService{})

	reqBody := `{"name": "widget", "category": "tools", "price": 10.0, "stock": 5}`
	req := withIdentity(httptest.NewRequest("POST", "/api/products", bytes.NewBufferString(reqBody)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code, "Expected 201 Created for a new product")

	var resp models.Product
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(1), resp.ID)
}

func TestCreateProductHandler_NegativePrice(t *testing.T) {
	handler := handlers.CreateProductHandler(testLogger(), &fakeProductService{})

	reqBody := `{"name": "widget", "category": "tools", "price": -1.0, "stock": 5}`
	req := withIdentity(httptest.NewRequest("POST", "/api/products", bytes.NewBufferString(reqBody)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListProductsHandler_Empty(t *testing.T) {
	handler := handlers.ListProductsHandler(testLogger(), &fakeProductService{})

	req := withIdentity(httptest.NewRequest("GET", "/api/products", nil), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	// пустой каталог отдается как [], а не null
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestCreateOrderHandler_Success(t *testing.T) {
	fakeSvc := &fakeOrderService{summary: &service.OrderSummary{
		OrderID:     7,
		TotalAmount: 20.0,
		Status:      models.OrderStatusPending,
	}}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	reqBody := `{"items": [{"product_id": 1, "quantity": 2}]}`
	req := withIdentity(httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code, "Expected 201 Created for a successful order")

	var resp service.OrderSummary
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(7), resp.OrderID)
	assert.Equal(t, 20.0, resp.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, resp.Status)
}

func TestCreateOrderHandler_ProductNotFound(t *testing.T) {
	fakeSvc := &fakeOrderService{err: &service.ProductNotFoundError{ProductID: 999}}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	reqBody := `{"items": [{"product_id": 999, "quantity": 1}]}`
	req := withIdentity(httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code, "Unknown product should map to 404")
}

func TestCreateOrderHandler_InsufficientStock(t *testing.T) {
	fakeSvc := &fakeOrderService{err: &service.InsufficientStockError{ProductID: 2, Requested: 2, Available: 1}}
	handler := handlers.CreateOrderHandler(testLogger(), fakeSvc)

	reqBody := `{"items": [{"product_id": 2, "quantity": 2}]}`
	req := withIdentity(httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Insufficient stock should map to 400")
}

func TestCreateOrderHandler_EmptyItems(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{})

	reqBody := `{"items": []}`
	req := withIdentity(httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody)), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Empty order should fail validation")
}

func TestCreateOrderHandler_MissingIdentity(t *testing.T) {
	handler := handlers.CreateOrderHandler(testLogger(), &fakeOrderService{})

	reqBody := `{"items": [{"product_id": 1, "quantity": 2}]}`
	req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetOrderHandler_Success(t *testing.T) {
	fakeSvc := &fakeOrderService{order: &models.Order{
		ID:          7,
		UserID:      1,
		TotalAmount: 20.0,
		Status:      models.OrderStatusPending,
		Items: []*models.OrderItem{
			{ID: 1, OrderID: 7, ProductID: 1, Quantity: 2, LineTotal: 20.0},
		},
	}}
	handler := handlers.GetOrderHandler(testLogger(), fakeSvc)

	req := withOrderID(withIdentity(httptest.NewRequest("GET", "/api/orders/7", nil), 1), "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.Order
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, int64(7), resp.ID)
	assert.Len(t, resp.Items, 1)
}

func TestGetOrderHandler_NotFound(t *testing.T) {
	fakeSvc := &fakeOrderService{err: service.ErrOrderNotFound}
	handler := handlers.GetOrderHandler(testLogger(), fakeSvc)

	req := withOrderID(withIdentity(httptest.NewRequest("GET", "/api/orders/9999", nil), 1), "9999")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetOrderHandler_BadID(t *testing.T) {
	handler := handlers.GetOrderHandler(testLogger(), &fakeOrderService{})

	req := withOrderID(withIdentity(httptest.NewRequest("GET", "/api/orders/abc", nil), 1), "abc")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCancelOrderHandler_Success(t *testing.T) {
	handler := handlers.CancelOrderHandler(testLogger(), &fakeOrderService{})

	req := withOrderID(withIdentity(httptest.NewRequest("DELETE", "/api/orders/7", nil), 1), "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code, "Expected 204 No Content on cancel")
	assert.Empty(t, rr.Body.String())
}

func TestCancelOrderHandler_NotFound(t *testing.T) {
	fakeSvc := &fakeOrderService{err: service.ErrOrderNotFound}
	handler := handlers.CancelOrderHandler(testLogger(), fakeSvc)

	req := withOrderID(withIdentity(httptest.NewRequest("DELETE", "/api/orders/7", nil), 1), "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCancelOrderHandler_NotPending(t *testing.T) {
	fakeSvc := &fakeOrderService{err: service.ErrOrderNotPending}
	handler := handlers.CancelOrderHandler(testLogger(), fakeSvc)

	req := withOrderID(withIdentity(httptest.NewRequest("DELETE", "/api/orders/7", nil), 1), "7")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "Cancelled order should map to 400")
}

func TestListOrdersHandler_Success(t *testing.T) {
	fakeSvc := &fakeOrderService{orders: []*models.Order{
		{ID: 2, UserID: 1, TotalAmount: 20.0, Status: models.OrderStatusPending},
		{ID: 1, UserID: 1, TotalAmount: 35.5, Status: models.OrderStatusCancelled},
	}}
	handler := handlers.ListOrdersHandler(testLogger(), fakeSvc)

	req := withIdentity(httptest.NewRequest("GET", "/api/orders", nil), 1)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp []*models.Order
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Len(t, resp, 2)
}
