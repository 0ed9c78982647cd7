package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/farm2go/internal/app/handlers"
	"github.com/linemk/farm2go/internal/domain/models"
	"github.com/linemk/farm2go/internal/domain/order"
	"github.com/linemk/farm2go/internal/filter"
	"github.com/linemk/farm2go/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/farm2go/internal/service"
	"github.com/linemk/farm2go/internal/storage"
	"github.com/stretchr/testify/assert"
)

// fakeAuthService — фиктивная реализация для тестирования.
type fakeAuthService struct {
	token string
	err   error
}

func (f *fakeAuthService) Register(ctx context.Context, email, password, name, role string) (string, error) {
	return f.token, f.err
}

func (f *fakeAuthService) Login(ctx context.Context, email, password string) (string, error) {
	return f.token, f.err
}

// fakeProductService — фиктивная реализация интерфейса ProductService.
type fakeProductService struct {
	products []*models.Product
	created  *models.Product
	err      error
}

func (f *fakeProductService) CreateProduct(ctx context.Context, farmerID int64, product *models.Product) (*models.Product, error) {
	return f.created, f.err
}

func (f *fakeProductService) Marketplace(ctx context.Context, state filter.State) ([]*models.Product, error) {
	return f.products, f.err
}

func (f *fakeProductService) FarmerProducts(ctx context.Context, farmerID int64, state filter.State) ([]*models.Product, error) {
	return f.products, f.err
}

// fakeOrderService — фиктивная реализация интерфейса OrderService
type fakeOrderService struct {
	created   *models.Order
	orders    []*models.Order
	updated   *models.Order
	err       error
	lastState filter.State
}

func (f *fakeOrderService) Checkout(ctx context.Context, buyerID int64, in service.CheckoutInput) (*models.Order, error) {
	return f.created, f.err
}

func (f *fakeOrderService) Orders(ctx context.Context, userID int64, role string, state filter.State) ([]*models.Order, error) {
	f.lastState = state
	return f.orders, f.err
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, actorID int64, actorRole string, orderID int64, target order.Status) (*models.Order, error) {
	return f.updated, f.err
}

type fakeSalesService struct {
	resp *service.SalesResponse
	err  error
}

func (f *fakeSalesService) GetSales(ctx context.Context, farmerID int64, state filter.State) (*service.SalesResponse, error) {
	return f.resp, f.err
}

type fakeNotificationService struct {
	notifications []*models.Notification
	err           error
}

func (f *fakeNotificationService) GetNotifications(ctx context.Context, userID int64) ([]*models.Notification, error) {
	return f.notifications, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// authedRequest добавляет userID и роль в контекст, как это делает JWT middleware.
func authedRequest(req *http.Request, userID int64, role string) *http.Request {
	ctx := context.WithValue(req.Context(), jwtmiddleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, jwtmiddleware.RoleKey, role)
	return req.WithContext(ctx)
}

func TestRegisterHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{token: "test-token"}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "farmer@example.com", "password": "password123", "name": "Ivan", "role": "farmer"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code, "Expected status 201 Created")

	var resp handlers.AuthResponse
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, "test-token", resp.Token)
}

func TestRegisterHandler_EmailTaken(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrEmailTaken}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "taken@example.com", "password": "password123", "name": "Ivan", "role": "farmer"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code, "Expected status 409 Conflict")
}

func TestRegisterHandler_InvalidRole(t *testing.T) {
	fakeSvc := &fakeAuthService{token: "test-token"}
	handler := handlers.RegisterHandler(testLogger(), fakeSvc)

	// Роль admin отсекается валидацией до вызова сервиса.
	reqBody := `{"email": "user@example.com", "password": "password123", "name": "Ivan", "role": "admin"}`
	req := httptest.NewRequest("POST", "/api/auth/register", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLoginHandler_Success(t *testing.T) {
	fakeSvc := &fakeAuthService{token: "test-token"}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "farmer@example.com", "password": "password123"}`
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp handlers.AuthResponse
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, "test-token", resp.Token)
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	fakeSvc := &fakeAuthService{err: service.ErrInvalidCredentials}
	handler := handlers.LoginHandler(testLogger(), fakeSvc)

	reqBody := `{"email": "farmer@example.com", "password": "wrongpassword"}`
	req := httptest.NewRequest("POST", "/api/auth/login", bytes.NewBufferString(reqBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMarketplaceHandler_EmptyList(t *testing.T) {
	fakeSvc := &fakeProductService{}
	handler := handlers.MarketplaceHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/products", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	// Пустая витрина отдается как [], а не null.
	assert.Equal(t, "[]\n", rr.Body.String())
}

func TestCreateProductHandler_Success(t *testing.T) {
	created := &models.Product{ID: 1, FarmerID: 2, Name: "tomatoes", Category: "vegetables", Price: 50, Quantity: 10, Unit: "kg"}
	fakeSvc := &fakeProductService{created: created}
	handler := handlers.CreateProductHandler(testLogger(), fakeSvc)

	reqBody := `{"name": "tomatoes", "category": "vegetables", "price": 50, "quantity": 10, "unit": "kg"}`
	req := httptest.NewRequest("POST", "/api/products", bytes.NewBufferString(reqBody))
	req = authedRequest(req, 2, models.RoleFarmer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp models.Product
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, int64(1), resp.ID)
}

func TestCreateProductHandler_BuyerForbidden(t *testing.T) {
	fakeSvc := &fakeProductService{}
	handler := handlers.CreateProductHandler(testLogger(), fakeSvc)

	reqBody := `{"name": "tomatoes", "category": "vegetables", "price": 50, "quantity": 10, "unit": "kg"}`
	req := httptest.NewRequest("POST", "/api/products", bytes.NewBufferString(reqBody))
	req = authedRequest(req, 1, models.RoleBuyer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCheckoutHandler_Success(t *testing.T) {
	created := &models.Order{ID: 11, BuyerID: 1, Status: "pending", TotalPrice: 150}
	fakeSvc := &fakeOrderService{created: created}
	handler := handlers.CheckoutHandler(testLogger(), fakeSvc)

	reqBody := `{"product_id": 1, "quantity": 3, "delivery_address": "Some street 1"}`
	req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody))
	req = authedRequest(req, 1, models.RoleBuyer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp models.Order
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, "pending", resp.Status)
}

func TestCheckoutHandler_FarmerForbidden(t *testing.T) {
	fakeSvc := &fakeOrderService{}
	handler := handlers.CheckoutHandler(testLogger(), fakeSvc)

	reqBody := `{"product_id": 1, "quantity": 3}`
	req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody))
	req = authedRequest(req, 2, models.RoleFarmer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCheckoutHandler_InsufficientStock(t *testing.T) {
	fakeSvc := &fakeOrderService{err: service.ErrInsufficientStock}
	handler := handlers.CheckoutHandler(testLogger(), fakeSvc)

	reqBody := `{"product_id": 1, "quantity": 300}`
	req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody))
	req = authedRequest(req, 1, models.RoleBuyer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCheckoutHandler_ProductNotFound(t *testing.T) {
	fakeSvc := &fakeOrderService{err: storage.ErrProductNotFound}
	handler := handlers.CheckoutHandler(testLogger(), fakeSvc)

	reqBody := `{"product_id": 99, "quantity": 1}`
	req := httptest.NewRequest("POST", "/api/orders", bytes.NewBufferString(reqBody))
	req = authedRequest(req, 1, models.RoleBuyer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestOrdersHandler_PassesQueryAsFilterState(t *testing.T) {
	fakeSvc := &fakeOrderService{orders: []*models.Order{{ID: 1, Status: "pending"}}}
	handler := handlers.OrdersHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/orders?status=pending&sortBy=newest", nil)
	req = authedRequest(req, 1, models.RoleBuyer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	// Query-параметры доходят до сервиса как FilterState.
	assert.Equal(t, "pending", fakeSvc.lastState["status"])
	assert.Equal(t, "newest", fakeSvc.lastState["sortBy"])
}

func TestOrdersHandler_Unauthorized(t *testing.T) {
	fakeSvc := &fakeOrderService{}
	handler := handlers.OrdersHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/orders", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

// newStatusRequest собирает PATCH-запрос с id заказа в chi route-контексте.
func newStatusRequest(t *testing.T, orderID, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest("PATCH", "/api/orders/"+orderID+"/status", bytes.NewBufferString(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestUpdateOrderStatusHandler_Success(t *testing.T) {
	updated := &models.Order{ID: 11, Status: "confirmed"}
	fakeSvc := &fakeOrderService{updated: updated}
	handler := handlers.UpdateOrderStatusHandler(testLogger(), fakeSvc)

	req := newStatusRequest(t, "11", `{"status": "confirmed"}`)
	req = authedRequest(req, 2, models.RoleFarmer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp models.Order
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
}

func TestUpdateOrderStatusHandler_UnknownStatus(t *testing.T) {
	fakeSvc := &fakeOrderService{}
	handler := handlers.UpdateOrderStatusHandler(testLogger(), fakeSvc)

	// Несуществующий статус отклоняется валидацией до вызова сервиса.
	req := newStatusRequest(t, "11", `{"status": "shipped"}`)
	req = authedRequest(req, 2, models.RoleFarmer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateOrderStatusHandler_InvalidTransition(t *testing.T) {
	fakeSvc := &fakeOrderService{err: &order.InvalidTransitionError{From: order.StatusDelivered, To: order.StatusPending}}
	handler := handlers.UpdateOrderStatusHandler(testLogger(), fakeSvc)

	req := newStatusRequest(t, "11", `{"status": "pending"}`)
	req = authedRequest(req, 2, models.RoleFarmer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code, "Invalid transition maps to 409 Conflict")
}

func TestUpdateOrderStatusHandler_AccessDenied(t *testing.T) {
	fakeSvc := &fakeOrderService{err: service.ErrAccessDenied}
	handler := handlers.UpdateOrderStatusHandler(testLogger(), fakeSvc)

	req := newStatusRequest(t, "11", `{"status": "confirmed"}`)
	req = authedRequest(req, 1, models.RoleBuyer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestUpdateOrderStatusHandler_NotFound(t *testing.T) {
	fakeSvc := &fakeOrderService{err: storage.ErrOrderNotFound}
	handler := handlers.UpdateOrderStatusHandler(testLogger(), fakeSvc)

	req := newStatusRequest(t, "99", `{"status": "confirmed"}`)
	req = authedRequest(req, 2, models.RoleFarmer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSalesHandler_Success(t *testing.T) {
	fakeSvc := &fakeSalesService{resp: &service.SalesResponse{
		Sales:        []*models.Sale{{OrderID: 11, ProductName: "tomatoes", Quantity: 4, Revenue: 200}},
		TotalRevenue: 200,
		TotalItems:   4,
	}}
	handler := handlers.SalesHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/farmer/sales?period=week", nil)
	req = authedRequest(req, 2, models.RoleFarmer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp service.SalesResponse
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Equal(t, 200.0, resp.TotalRevenue)
	assert.Len(t, resp.Sales, 1)
}

func TestSalesHandler_BuyerForbidden(t *testing.T) {
	fakeSvc := &fakeSalesService{}
	handler := handlers.SalesHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/farmer/sales", nil)
	req = authedRequest(req, 1, models.RoleBuyer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestNotificationsHandler_Success(t *testing.T) {
	fakeSvc := &fakeNotificationService{notifications: []*models.Notification{
		{ID: "uuid-1", UserID: 1, OrderID: 11, NewStatus: "confirmed"},
	}}
	handler := handlers.NotificationsHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/notifications", nil)
	req = authedRequest(req, 1, models.RoleBuyer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp []*models.Notification
	err := json.NewDecoder(rr.Body).Decode(&resp)
	assert.NoError(t, err)
	assert.Len(t, resp, 1)
}

func TestNotificationsHandler_ServiceError(t *testing.T) {
	fakeSvc := &fakeNotificationService{err: errors.New("db is down")}
	handler := handlers.NotificationsHandler(testLogger(), fakeSvc)

	req := httptest.NewRequest("GET", "/api/notifications", nil)
	req = authedRequest(req, 1, models.RoleBuyer)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
