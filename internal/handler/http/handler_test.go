package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/laundry-service/internal/auth"
	"github.com/vasiliy-maslov/laundry-service/internal/customer"
	"github.com/vasiliy-maslov/laundry-service/internal/finance"
	handlerhttp "github.com/vasiliy-maslov/laundry-service/internal/handler/http"
	"github.com/vasiliy-maslov/laundry-service/internal/order"
	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
	"github.com/vasiliy-maslov/laundry-service/internal/receipt"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

var testSession = session.Session{
	OwnerID:     uuid.Must(uuid.FromString("7b0e3c1a-5d5e-4a53-9a55-0c1d2e3f4a5b")),
	DisplayName: "Ifa",
	Email:       "ifa@example.com",
}

type registrar interface {
	RegisterRoutes(router chi.Router)
}

// serve routes req through h with testSession attached, as the auth
// middleware would.
func serve(h registrar, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), testSession)))
		})
	})
	h.RegisterRoutes(router)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body), "Failed to decode error response body")
	return body
}

func TestAuthHandler_SignIn_InvalidCredential(t *testing.T) {
	mockService := new(MockAuthService)
	handler := handlerhttp.NewAuthHandler(mockService)
	mockService.On("SignIn", mock.Anything, "ifa@example.com", "wrong").Return(nil, auth.ErrInvalidCredential).Once()

	router := chi.NewRouter()
	handler.RegisterPublicRoutes(router)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/signin", handlerhttp.SignInRequest{Email: "ifa@example.com", Password: "wrong"}))

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	var body handlerhttp.AuthErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "auth/invalid-credential", body.Code)
	assert.Equal(t, "Email atau password salah.", body.Error)
	mockService.AssertExpectations(t)
}

func TestAuthHandler_SignUp_Success(t *testing.T) {
	mockService := new(MockAuthService)
	handler := handlerhttp.NewAuthHandler(mockService)

	input := auth.SignUpInput{Name: "Ifa", Email: "ifa@example.com", Phone: "0821", Password: "rahasia"}
	result := &auth.SignInResult{Token: "signed", ExpiresAt: 1700000000, User: &auth.User{ID: testSession.OwnerID, Name: "Ifa"}}
	mockService.On("SignUp", mock.Anything, input).Return(result, nil).Once()

	router := chi.NewRouter()
	handler.RegisterPublicRoutes(router)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, jsonRequest(t, http.MethodPost, "/auth/signup", handlerhttp.SignUpRequest{
		Name: input.Name, Email: input.Email, Phone: input.Phone, Password: input.Password,
	}))

	require.Equal(t, http.StatusCreated, rr.Code)
	var got auth.SignInResult
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "signed", got.Token)
	assert.Equal(t, testSession.OwnerID, got.User.ID)
	mockService.AssertExpectations(t)
}

func TestRequireSession(t *testing.T) {
	mockService := new(MockAuthService)
	mockService.On("Verify", mock.Anything, "good").Return(testSession, nil)
	mockService.On("Verify", mock.Anything, "stale").Return(session.Session{}, auth.ErrInvalidToken)

	var seen session.Session
	protected := handlerhttp.RequireSession(mockService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = session.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name     string
		header   string
		target   string
		wantCode int
	}{
		{"missing_token", "", "/customers", http.StatusUnauthorized},
		{"wrong_scheme", "Basic abc", "/customers", http.StatusUnauthorized},
		{"invalid_token", "Bearer stale", "/customers", http.StatusUnauthorized},
		{"bearer_token", "Bearer good", "/customers", http.StatusNoContent},
		{"query_token", "", "/live/dashboard?access_token=good", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = session.Session{}
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			if tt.wantCode == http.StatusNoContent {
				assert.Equal(t, testSession, seen)
			}
		})
	}
}

func TestCustomerHandler_Create_ValidationError(t *testing.T) {
	mockService := new(MockCustomerService)
	handler := handlerhttp.NewCustomerHandler(mockService, new(MockOrderService))

	rr := serve(handler, jsonRequest(t, http.MethodPost, "/customers", handlerhttp.CreateCustomerRequest{Phone: "0812"}))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body handlerhttp.ValidationErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "Validation failed", body.Error)
	assert.Equal(t, "Field 'Name' is required", body.Details["Name"])
	mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCustomerHandler_Create_Success(t *testing.T) {
	mockService := new(MockCustomerService)
	handler := handlerhttp.NewCustomerHandler(mockService, new(MockOrderService))

	created := &customer.Customer{ID: uuid.Must(uuid.NewV4()), OwnerID: testSession.OwnerID, Name: "Budi", Phone: "0812"}
	mockService.On("Create", mock.Anything, testSession, "Budi", "0812").Return(created, nil).Once()

	rr := serve(handler, jsonRequest(t, http.MethodPost, "/customers", handlerhttp.CreateCustomerRequest{Name: "Budi", Phone: "0812"}))

	require.Equal(t, http.StatusCreated, rr.Code)
	var got customer.Customer
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)
	mockService.AssertExpectations(t)
}

func TestCustomerHandler_TopUp_NotFound(t *testing.T) {
	mockService := new(MockCustomerService)
	handler := handlerhttp.NewCustomerHandler(mockService, new(MockOrderService))
	id := uuid.Must(uuid.NewV4())
	mockService.On("TopUp", mock.Anything, testSession, id, int64(50000)).Return(nil, customer.ErrCustomerNotFound).Once()

	rr := serve(handler, jsonRequest(t, http.MethodPost, "/customers/"+id.String()+"/topup", handlerhttp.TopUpRequest{Amount: 50000}))

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, decodeError(t, rr)["error"], "customer not found")
	mockService.AssertExpectations(t)
}

func TestCustomerHandler_History(t *testing.T) {
	orders := new(MockOrderService)
	handler := handlerhttp.NewCustomerHandler(new(MockCustomerService), orders)
	id := uuid.Must(uuid.NewV4())
	orders.On("ListByCustomer", mock.Anything, testSession, id).Return([]order.Order{{OrderNumber: 2}, {OrderNumber: 1}}, nil).Once()

	rr := serve(handler, httptest.NewRequest(http.MethodGet, "/customers/"+id.String()+"/history", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var got []order.Order
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, int64(2), got[0].OrderNumber)
	orders.AssertExpectations(t)
}

func TestCustomerHandler_InvalidID(t *testing.T) {
	handler := handlerhttp.NewCustomerHandler(new(MockCustomerService), new(MockOrderService))

	rr := serve(handler, httptest.NewRequest(http.MethodGet, "/customers/not-a-uuid", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid id parameter", decodeError(t, rr)["error"])
}

func sampleOrder(id uuid.UUID) *order.Order {
	in := time.Date(2024, 5, 6, 2, 0, 0, 0, time.UTC)
	lines := []pricing.ServiceLine{{Service: "Cuci Kering", Quantity: decimal.NewFromInt(3), UnitPrice: 7000, Unit: pricing.UnitKg}}
	return &order.Order{
		ID:           id,
		OrderNumber:  1714961000000,
		CustomerName: "Budi",
		Phone:        "0812",
		InDate:       &in,
		ServiceLines: lines,
		Totals:       pricing.Compute(lines, nil, pricing.Discount{}, pricing.PaymentCash),
		Payment:      pricing.PaymentCash,
		Status:       order.StatusInProgress,
	}
}

func newOrderHandler(svc order.Service) *handlerhttp.OrderHandler {
	return handlerhttp.NewOrderHandler(svc, receipt.Shop{Name: "IFA CELL & LAUNDRY", Address: "Makassar"}, time.UTC)
}

func TestOrderHandler_Receipt(t *testing.T) {
	mockService := new(MockOrderService)
	handler := newOrderHandler(mockService)
	id := uuid.Must(uuid.NewV4())
	mockService.On("Get", mock.Anything, testSession, id).Return(sampleOrder(id), nil)

	text := serve(handler, httptest.NewRequest(http.MethodGet, "/orders/"+id.String()+"/receipt", nil))
	require.Equal(t, http.StatusOK, text.Code)
	assert.Equal(t, "text/plain; charset=utf-8", text.Header().Get("Content-Type"))
	assert.Contains(t, text.Body.String(), "Order ID:   1714961000000")
	assert.Contains(t, text.Body.String(), "Rp21.000")

	html := serve(handler, httptest.NewRequest(http.MethodGet, "/orders/"+id.String()+"/receipt?format=html", nil))
	require.Equal(t, http.StatusOK, html.Code)
	assert.True(t, strings.HasPrefix(html.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, html.Body.String(), "Laundry Order #1714961000000")

	bad := serve(handler, httptest.NewRequest(http.MethodGet, "/orders/"+id.String()+"/receipt?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestOrderHandler_Create_InsufficientDeposit(t *testing.T) {
	mockService := new(MockOrderService)
	handler := newOrderHandler(mockService)
	customerID := uuid.Must(uuid.NewV4())

	mockService.On("Create", mock.Anything, testSession, mock.MatchedBy(func(in order.CreateInput) bool {
		return in.CustomerID == customerID &&
			in.Payment == pricing.PaymentDeposit &&
			len(in.Lines) == 1 &&
			in.Lines[0].Quantity.Equal(decimal.RequireFromString("2.5")) &&
			in.Lines[0].UnitChoice == pricing.ChargeAsPieces
	})).Return(nil, order.ErrInsufficientDeposit).Once()

	body := `{"customer_id":"` + customerID.String() + `","payment":"deposit",
		"lines":[{"service":"Cuci Kering","quantity":"2.5","unit_price":8000,"unit":"kg","unit_choice":"pcs"}]}`
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	rr := serve(handler, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "deposit balance is insufficient", decodeError(t, rr)["error"])
	mockService.AssertExpectations(t)
}

func TestOrderHandler_ChangeStatus_Validation(t *testing.T) {
	mockService := new(MockOrderService)
	handler := newOrderHandler(mockService)
	id := uuid.Must(uuid.NewV4())

	rr := serve(handler, jsonRequest(t, http.MethodPut, "/orders/"+id.String()+"/status", handlerhttp.ChangeStatusRequest{Status: "lost"}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "ChangeStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	mockService.On("ChangeStatus", mock.Anything, testSession, id, order.StatusPickedUp).Return(nil).Once()
	rr = serve(handler, jsonRequest(t, http.MethodPut, "/orders/"+id.String()+"/status", handlerhttp.ChangeStatusRequest{Status: "picked-up"}))
	require.Equal(t, http.StatusNoContent, rr.Code)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_History_DateRange(t *testing.T) {
	mockService := new(MockOrderService)
	handler := newOrderHandler(mockService)

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 8, 0, 0, 0, 0, time.UTC)
	mockService.On("ListHistory", mock.Anything, testSession, from, to).Return([]order.Order{}, nil).Once()

	rr := serve(handler, httptest.NewRequest(http.MethodGet, "/orders?from=2024-05-01&to=2024-05-07", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	bad := serve(handler, httptest.NewRequest(http.MethodGet, "/orders?from=yesterday", nil))
	assert.Equal(t, http.StatusBadRequest, bad.Code)
	mockService.AssertExpectations(t)
}

func TestFinanceHandler_CreateExpense(t *testing.T) {
	mockService := new(MockFinanceService)
	handler := handlerhttp.NewFinanceHandler(mockService, finance.ShopHeader{Name: "IFA"})

	in := finance.ExpenseInput{Amount: 15000, Note: "Deterjen", Category: "Bahan"}
	mockService.On("CreateExpense", mock.Anything, testSession, in).
		Return(&finance.Expense{ID: uuid.Must(uuid.NewV4()), Amount: 15000, Note: "Deterjen"}, nil).Once()

	rr := serve(handler, jsonRequest(t, http.MethodPost, "/expenses", in))
	require.Equal(t, http.StatusCreated, rr.Code)

	invalid := serve(handler, jsonRequest(t, http.MethodPost, "/expenses", finance.ExpenseInput{Note: "x"}))
	require.Equal(t, http.StatusBadRequest, invalid.Code)
	mockService.AssertExpectations(t)
}

func TestFinanceHandler_Export(t *testing.T) {
	mockService := new(MockFinanceService)
	handler := handlerhttp.NewFinanceHandler(mockService, finance.ShopHeader{Name: "IFA CELL & LAUNDRY"})

	mockService.On("Period", mock.Anything, testSession, 2024, 5).
		Return(&finance.Report{Year: 2024, Month: 5, Period: "Mei 2024", Income: 25000, Profit: 25000}, nil).Once()

	rr := serve(handler, httptest.NewRequest(http.MethodGet, "/reports/period/export?year=2024&month=5", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Mei 2024")
	assert.Contains(t, rr.Body.String(), "Rp 25.000")
	mockService.AssertExpectations(t)
}

func TestFinanceHandler_Period_BadMonth(t *testing.T) {
	mockService := new(MockFinanceService)
	handler := handlerhttp.NewFinanceHandler(mockService, finance.ShopHeader{})

	rr := serve(handler, httptest.NewRequest(http.MethodGet, "/reports/period?year=2024&month=may", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	mockService.AssertNotCalled(t, "Period", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
