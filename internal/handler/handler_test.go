package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmeshcher/guitarshop/internal/credentials"
	"github.com/mmeshcher/guitarshop/internal/middleware"
	"github.com/mmeshcher/guitarshop/internal/model"
	"github.com/mmeshcher/guitarshop/internal/pricing"
	"github.com/mmeshcher/guitarshop/internal/repository"
	"github.com/mmeshcher/guitarshop/internal/service"
)

type stubService struct {
	registerUser *model.User
	registerErr  error

	signInToken string
	signInErr   error

	product     *model.Product
	productErr  error
	products    []model.Product
	lastQuery   string
	deleteErr   error
	createCalls int

	order       *model.Order
	orderErr    error
	orders      []model.Order
	ordersErr   error
	cancelErr   error
	lastLines   []model.LineRequest
	lastPrinc   model.Principal
	listAll     int
	listOwner   int
	ownerFilter string
}

func (s *stubService) RegisterUser(ctx context.Context, email, name, password string) (*model.User, error) {
	return s.registerUser, s.registerErr
}

func (s *stubService) SignIn(ctx context.Context, email, password string) (string, error) {
	return s.signInToken, s.signInErr
}

func (s *stubService) CreateProduct(ctx context.Context, p *model.Product) error {
	s.createCalls++
	p.ID = 7
	return s.productErr
}

func (s *stubService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.product, s.productErr
}

func (s *stubService) ListProducts(ctx context.Context, query string) ([]model.Product, error) {
	s.lastQuery = query
	return s.products, nil
}

func (s *stubService) UpdateProduct(ctx context.Context, p *model.Product) error {
	return s.productErr
}

func (s *stubService) DeleteProduct(ctx context.Context, id int64) error {
	return s.deleteErr
}

func (s *stubService) CreateOrder(ctx context.Context, p model.Principal, lines []model.LineRequest) (*model.Order, error) {
	s.lastPrinc = p
	s.lastLines = lines
	return s.order, s.orderErr
}

func (s *stubService) ListAllOrders(ctx context.Context) ([]model.Order, error) {
	s.listAll++
	return s.orders, s.ordersErr
}

func (s *stubService) ListOrdersForOwner(ctx context.Context, userID string) ([]model.Order, error) {
	s.listOwner++
	s.ownerFilter = userID
	return s.orders, s.ordersErr
}

func (s *stubService) GetOrder(ctx context.Context, id string, p model.Principal) (*model.Order, error) {
	s.lastPrinc = p
	return s.order, s.orderErr
}

func (s *stubService) CancelOrder(ctx context.Context, id string, p model.Principal) error {
	s.lastPrinc = p
	return s.cancelErr
}

type testServer struct {
	handler http.Handler
	tokens  *credentials.TokenIssuer
}

func newTestServer(t *testing.T, svc Service) *testServer {
	t.Helper()

	tokens := credentials.NewTokenIssuer("test-secret", time.Hour)
	h := NewHandler(svc, zap.NewNop(), middleware.NewAuthMiddleware(tokens), middleware.NewMetrics(prometheus.NewRegistry()))

	return &testServer{handler: h.SetupRouter(), tokens: tokens}
}

func (ts *testServer) token(t *testing.T, id string, admin bool) string {
	t.Helper()

	token, err := ts.tokens.Issue(&model.User{ID: id, Email: id + "@example.com", IsAdmin: admin})
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func sampleOrder() *model.Order {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &model.Order{
		ID:     "o-1",
		UserID: "U1",
		Status: model.OrderStatusActive,
		Total:  decimal.RequireFromString("43221.78"),
		Lines: []model.OrderLine{
			{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("12345.67")},
			{ProductID: 2, Quantity: 3, UnitPrice: decimal.RequireFromString("6176.81"), Product: &model.Product{
				ID:    2,
				Title: "Fender Stratocaster",
				Price: decimal.RequireFromString("6176.81"),
			}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSignUp_Created(t *testing.T) {
	svc := &stubService{registerUser: &model.User{ID: "U1", Email: "a@b.io", Name: "Ann"}}
	ts := newTestServer(t, svc)

	rec := ts.do(t, http.MethodPost, "/auth/signup", "", signupRequest{
		Email: "a@b.io", Name: "Ann", Password: "secret12", PasswordConfirmation: "secret12",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp userResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "U1", resp.ID)
}

func TestSignUp_Errors(t *testing.T) {
	tests := []struct {
		name string
		req  signupRequest
		err  error
		want int
	}{
		{
			name: "password mismatch",
			req:  signupRequest{Email: "a@b.io", Name: "Ann", Password: "secret12", PasswordConfirmation: "other123"},
			want: http.StatusBadRequest,
		},
		{
			name: "duplicate email",
			req:  signupRequest{Email: "a@b.io", Name: "Ann", Password: "secret12", PasswordConfirmation: "secret12"},
			err:  repository.ErrUserExists,
			want: http.StatusConflict,
		},
		{
			name: "store failure",
			req:  signupRequest{Email: "a@b.io", Name: "Ann", Password: "secret12", PasswordConfirmation: "secret12"},
			err:  context.DeadlineExceeded,
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &stubService{registerErr: tt.err})
			rec := ts.do(t, http.MethodPost, "/auth/signup", "", tt.req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSignIn(t *testing.T) {
	ts := newTestServer(t, &stubService{signInToken: "tok"})
	rec := ts.do(t, http.MethodPost, "/auth/signin", "", signinRequest{Email: "a@b.io", Password: "secret12"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"access_token":"tok"}`, rec.Body.String())

	ts = newTestServer(t, &stubService{signInErr: service.ErrInvalidCredentials})
	rec = ts.do(t, http.MethodPost, "/auth/signin", "", signinRequest{Email: "a@b.io", Password: "wrong123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListProducts_PassesQueryAndReturnsEmptyArray(t *testing.T) {
	svc := &stubService{}
	ts := newTestServer(t, svc)

	rec := ts.do(t, http.MethodGet, "/product?query=strat", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "strat", svc.lastQuery)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetProduct(t *testing.T) {
	svc := &stubService{product: &model.Product{ID: 3, Title: "Gibson", Price: decimal.RequireFromString("1999.9")}}
	ts := newTestServer(t, svc)

	rec := ts.do(t, http.MethodGet, "/product/3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "1999.90", resp.Price)

	svc.productErr = repository.ErrProductNotFound
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/product/3", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/product/abc", "", nil).Code)
}

func TestCreateProduct_RequiresAdmin(t *testing.T) {
	svc := &stubService{}
	ts := newTestServer(t, svc)
	body := map[string]any{
		"title":       "Ibanez RG",
		"price":       "899.99",
		"description": "Super Wizard neck",
		"imageURL":    "https://cdn.example.com/rg.jpg",
	}

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/product", "", body).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPost, "/product", ts.token(t, "U1", false), body).Code)
	assert.Equal(t, 0, svc.createCalls)

	rec := ts.do(t, http.MethodPost, "/product", ts.token(t, "A1", true), body)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, svc.createCalls)

	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "899.99", resp.Price)
}

func TestCreateProduct_PriceAboveColumnRange(t *testing.T) {
	svc := &stubService{}
	ts := newTestServer(t, svc)
	body := map[string]any{
		"title":       "Ibanez RG",
		"price":       "100000000000.00",
		"description": "Super Wizard neck",
		"imageURL":    "https://cdn.example.com/rg.jpg",
	}

	rec := ts.do(t, http.MethodPost, "/product", ts.token(t, "A1", true), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, svc.createCalls)
}

func TestCreateProduct_InvalidPrice(t *testing.T) {
	ts := newTestServer(t, &stubService{})
	body := map[string]any{
		"title":       "Ibanez RG",
		"price":       "-1",
		"description": "Super Wizard neck",
		"imageURL":    "https://cdn.example.com/rg.jpg",
	}

	rec := ts.do(t, http.MethodPost, "/product", ts.token(t, "A1", true), body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "deleted", want: http.StatusNoContent},
		{name: "missing", err: repository.ErrProductNotFound, want: http.StatusNotFound},
		{name: "in use", err: repository.ErrProductInUse, want: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &stubService{deleteErr: tt.err})
			rec := ts.do(t, http.MethodDelete, "/product/5", ts.token(t, "A1", true), nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCreateOrder_Success(t *testing.T) {
	svc := &stubService{order: sampleOrder()}
	ts := newTestServer(t, svc)

	rec := ts.do(t, http.MethodPost, "/order", ts.token(t, "U1", false), createOrderRequest{
		Products: []orderLineRequest{{ID: 1, Quantity: 2}, {ID: 2, Quantity: 3}},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "U1", svc.lastPrinc.SubjectID)
	assert.Equal(t, []model.LineRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 3}}, svc.lastLines)

	var resp orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "43221.78", resp.Total)
	assert.Equal(t, model.OrderStatusActive, resp.Status)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "12345.67", resp.Products[0].Price)
	assert.Nil(t, resp.Products[0].Product)
	require.NotNil(t, resp.Products[1].Product)
	assert.Equal(t, "Fender Stratocaster", resp.Products[1].Product.Title)
}

func TestCreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name string
		body any
		err  error
		want int
	}{
		{
			name: "unknown product",
			body: createOrderRequest{Products: []orderLineRequest{{ID: 99, Quantity: 1}}},
			err:  &pricing.ProductNotFoundError{ProductID: 99},
			want: http.StatusBadRequest,
		},
		{
			name: "no lines",
			body: createOrderRequest{},
			want: http.StatusBadRequest,
		},
		{
			name: "zero quantity",
			body: createOrderRequest{Products: []orderLineRequest{{ID: 1, Quantity: 0}}},
			want: http.StatusBadRequest,
		},
		{
			name: "quantity above limit",
			body: map[string]any{"products": []map[string]any{{"id": 1, "quantity": 3_000_000_000}}},
			want: http.StatusBadRequest,
		},
		{
			name: "malformed body",
			body: "not an object",
			want: http.StatusBadRequest,
		},
		{
			name: "store failure",
			body: createOrderRequest{Products: []orderLineRequest{{ID: 1, Quantity: 1}}},
			err:  fmt.Errorf("insert order: %w", context.DeadlineExceeded),
			want: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &stubService{orderErr: tt.err})
			rec := ts.do(t, http.MethodPost, "/order", ts.token(t, "U1", false), tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestCreateOrder_Unauthenticated(t *testing.T) {
	ts := newTestServer(t, &stubService{})

	rec := ts.do(t, http.MethodPost, "/order", "", createOrderRequest{Products: []orderLineRequest{{ID: 1, Quantity: 1}}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(t, http.MethodPost, "/order", "garbage", createOrderRequest{Products: []orderLineRequest{{ID: 1, Quantity: 1}}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListOrders_BranchesOnRole(t *testing.T) {
	svc := &stubService{orders: []model.Order{*sampleOrder()}}
	ts := newTestServer(t, svc)

	rec := ts.do(t, http.MethodGet, "/order", ts.token(t, "U1", false), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.listOwner)
	assert.Equal(t, "U1", svc.ownerFilter)
	assert.Equal(t, 0, svc.listAll)

	rec = ts.do(t, http.MethodGet, "/order", ts.token(t, "A1", true), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.listAll)

	var resp []orderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "o-1", resp[0].ID)
}

func TestListOrders_EmptyArray(t *testing.T) {
	ts := newTestServer(t, &stubService{})

	rec := ts.do(t, http.MethodGet, "/order", ts.token(t, "U1", false), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetOrder(t *testing.T) {
	svc := &stubService{order: sampleOrder()}
	ts := newTestServer(t, svc)

	rec := ts.do(t, http.MethodGet, "/order/o-1", ts.token(t, "U1", false), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "U1", svc.lastPrinc.SubjectID)

	svc.orderErr = service.ErrOrderNotFound
	rec = ts.do(t, http.MethodGet, "/order/o-1", ts.token(t, "U2", false), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelOrder(t *testing.T) {
	svc := &stubService{}
	ts := newTestServer(t, svc)

	rec := ts.do(t, http.MethodDelete, "/order/o-1", ts.token(t, "A1", true), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, svc.lastPrinc.IsAdmin())

	svc.cancelErr = service.ErrOrderNotFound
	rec = ts.do(t, http.MethodDelete, "/order/o-1", ts.token(t, "U2", false), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := newTestServer(t, &stubService{})

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/nope", "", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, ts.do(t, http.MethodPatch, "/auth/signin", "", nil).Code)
}
