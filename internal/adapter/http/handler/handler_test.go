package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"balance-ledger/internal/adapter/http/dto"
	"balance-ledger/internal/adapter/http/middleware"
	"balance-ledger/internal/core/domain"
	"balance-ledger/internal/core/ports"
	"balance-ledger/internal/core/ports/mocks"
	"balance-ledger/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testContext builds a gin context with an authenticated caller already
// resolved, the way JWTAuth leaves it.
func testContext(w *httptest.ResponseRecorder, caps domain.Capabilities) (*gin.Context, *gin.Engine) {
	c, r := gin.CreateTestContext(w)
	c.Set(middleware.CtxUsername, "op1")
	c.Set(middleware.CtxAgentName, "Alice")
	c.Set(middleware.CtxBranch, "Main")
	c.Set(middleware.CtxCapabilities, caps)
	return c, r
}

func jsonRequest(method, target string, payload any) *http.Request {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// --- Auth Handler Tests ---

func TestRegister_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), ports.RegisterOperatorRequest{
		Username:  "testuser",
		Password:  "password123",
		AgentName: "Alice",
		Branch:    "Main",
	}).Return(&domain.Operator{
		Username:  "testuser",
		AgentName: "Alice",
		Branch:    "Main",
	}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/auth/register", dto.RegisterRequest{
		Username:  "testuser",
		Password:  "password123",
		AgentName: "Alice",
		Branch:    "Main",
	})

	h.Register(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "testuser", data["username"])
	assert.Equal(t, "Alice", data["agent_name"])
}

func TestRegister_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/auth/register", map[string]string{})

	h.Register(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegister_UsernameTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, apperror.ErrUsernameExists())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/", dto.RegisterRequest{
		Username:  "taken",
		Password:  "password123",
		AgentName: "Alice",
		Branch:    "Main",
	})

	h.Register(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AUTH_002", resp["error_code"])
}

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	expiry := time.Now().Add(time.Hour)
	mockAuth.EXPECT().Login(gomock.Any(), "op1", "password123").Return("tok123", expiry, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Username: "op1",
		Password: "password123",
	})

	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "tok123", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().Login(gomock.Any(), "op1", "wrong").Return("", time.Time{}, apperror.ErrInvalidCredentials())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/", dto.LoginRequest{Username: "op1", Password: "wrong"})

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Account Handler Tests ---

func TestCreateAccount_CallerProvenance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockLedgerEngine(ctrl)
	h := NewAccountHandler(mockEngine, mocks.NewMockBalanceResolver(ctrl))

	mockEngine.EXPECT().CreateAccount(gomock.Any(), ports.CreateAccountRequest{
		ID:           "12345678901234",
		Name:         "Acme Corp",
		Company:      "Acme",
		Branch:       "North",
		CreatorAgent: "Alice",
		RegisteredBy: "op1",
	}).Return(&domain.Account{ID: "12345678901234", Name: "Acme Corp"}, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{CanEdit: true})
	c.Request = jsonRequest(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		ID:      "12345678901234",
		Name:    "Acme Corp",
		Company: "Acme",
		Branch:  "North",
	})

	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateAccount_BadID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAccountHandler(mocks.NewMockLedgerEngine(ctrl), mocks.NewMockBalanceResolver(ctrl))

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = jsonRequest(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{
		ID:   "not-numeric",
		Name: "Acme Corp",
	})

	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "LED_001", resp["error_code"])
}

func TestGetAccount_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockLedgerEngine(ctrl)
	h := NewAccountHandler(mockEngine, mocks.NewMockBalanceResolver(ctrl))

	mockEngine.EXPECT().GetAccount(gomock.Any(), "12345678901234").Return(&ports.AccountView{
		Account: domain.Account{ID: "12345678901234"},
		Balance: decimal.NewFromInt(40),
	}, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/accounts/12345678901234", nil)
	c.Params = gin.Params{{Key: "id", Value: "12345678901234"}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "40", data["balance"])
}

func TestGetAccount_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockLedgerEngine(ctrl)
	h := NewAccountHandler(mockEngine, mocks.NewMockBalanceResolver(ctrl))

	mockEngine.EXPECT().GetAccount(gomock.Any(), "99999999999999").
		Return(nil, apperror.ErrAccountNotFound("99999999999999"))

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/accounts/99999999999999", nil)
	c.Params = gin.Params{{Key: "id", Value: "99999999999999"}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAccount_PassesCallerCapabilities(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockLedgerEngine(ctrl)
	h := NewAccountHandler(mockEngine, mocks.NewMockBalanceResolver(ctrl))

	newName := "Renamed"
	mockEngine.EXPECT().UpdateAccount(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.UpdateAccountRequest) (*domain.Account, error) {
			assert.Equal(t, "12345678901234", req.ID)
			require.NotNil(t, req.Fields.Name)
			assert.Equal(t, "Renamed", *req.Fields.Name)
			assert.True(t, req.Caller.CanEdit)
			assert.False(t, req.Caller.CanAllowNegative)
			return &domain.Account{ID: req.ID, Name: *req.Fields.Name}, nil
		})

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{CanEdit: true})
	c.Request = jsonRequest(http.MethodPut, "/api/v1/accounts/12345678901234", dto.UpdateAccountRequest{Name: &newName})
	c.Params = gin.Params{{Key: "id", Value: "12345678901234"}}

	h.Update(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateAccount_EditNotPermitted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockLedgerEngine(ctrl)
	h := NewAccountHandler(mockEngine, mocks.NewMockBalanceResolver(ctrl))

	mockEngine.EXPECT().UpdateAccount(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrEditNotPermitted())

	newName := "Renamed"
	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = jsonRequest(http.MethodPut, "/api/v1/accounts/12345678901234", dto.UpdateAccountRequest{Name: &newName})
	c.Params = gin.Params{{Key: "id", Value: "12345678901234"}}

	h.Update(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "LED_006", resp["error_code"])
}

func TestReconcileAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockResolver := mocks.NewMockBalanceResolver(ctrl)
	h := NewAccountHandler(mocks.NewMockLedgerEngine(ctrl), mockResolver)

	mockResolver.EXPECT().Reconcile(gomock.Any(), "12345678901234").Return(&domain.ReconcileReport{
		AccountID:    "12345678901234",
		Materialized: decimal.NewFromInt(100),
		Replayed:     decimal.NewFromInt(90),
		Divergent:    true,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/accounts/12345678901234/reconcile", nil)
	c.Params = gin.Params{{Key: "id", Value: "12345678901234"}}

	h.Reconcile(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, true, data["divergent"])
}

// --- Transaction Handler Tests ---

func TestPostTransaction_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockLedgerEngine(ctrl)
	h := NewTransactionHandler(mockEngine)

	mockEngine.EXPECT().PostTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, req ports.PostRequest) (*ports.PostResult, error) {
			assert.Equal(t, "12345678901234", req.AccountID)
			assert.Equal(t, domain.PostingTypeDeduct, req.Type)
			assert.True(t, req.Amount.Equal(decimal.NewFromInt(60)))
			assert.Equal(t, "Main", req.Branch)
			assert.Equal(t, "Alice", req.AgentName)
			assert.Equal(t, "retry-1", req.IdempotencyKey)
			return &ports.PostResult{
				Posting:    domain.Posting{AccountID: req.AccountID, Type: req.Type, Amount: req.Amount},
				NewBalance: decimal.NewFromInt(40),
			}, nil
		})

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = jsonRequest(http.MethodPost, "/api/v1/transactions", dto.PostTransactionRequest{
		AccountID: "12345678901234",
		Type:      "DEDUCT",
		Amount:    "60",
	})
	c.Request.Header.Set(IdempotencyKeyHeader, "retry-1")

	h.Post(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "40", data["new_balance"])
	assert.Equal(t, false, data["replayed"])
}

func TestPostTransaction_ReplayedReturns200(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockLedgerEngine(ctrl)
	h := NewTransactionHandler(mockEngine)

	mockEngine.EXPECT().PostTransaction(gomock.Any(), gomock.Any()).Return(&ports.PostResult{
		NewBalance: decimal.NewFromInt(40),
		Replayed:   true,
	}, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = jsonRequest(http.MethodPost, "/api/v1/transactions", dto.PostTransactionRequest{
		AccountID: "12345678901234",
		Type:      "ADD",
		Amount:    "60",
	})

	h.Post(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPostTransaction_BadAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewTransactionHandler(mocks.NewMockLedgerEngine(ctrl))

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = jsonRequest(http.MethodPost, "/api/v1/transactions", dto.PostTransactionRequest{
		AccountID: "12345678901234",
		Type:      "ADD",
		Amount:    "sixty",
	})

	h.Post(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostTransaction_UnknownType(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewTransactionHandler(mocks.NewMockLedgerEngine(ctrl))

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = jsonRequest(http.MethodPost, "/api/v1/transactions", dto.PostTransactionRequest{
		AccountID: "12345678901234",
		Type:      "TRANSFER",
		Amount:    "60",
	})

	h.Post(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostTransaction_IndeterminateMapsTo504(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockEngine := mocks.NewMockLedgerEngine(ctrl)
	h := NewTransactionHandler(mockEngine)

	mockEngine.EXPECT().PostTransaction(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrIndeterminate(context.DeadlineExceeded))

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = jsonRequest(http.MethodPost, "/api/v1/transactions", dto.PostTransactionRequest{
		AccountID: "12345678901234",
		Type:      "DEDUCT",
		Amount:    "60",
	})

	h.Post(c)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SYS_002", resp["error_code"])
}

// --- Audit Handler Tests ---

func TestAuditTransactions_Filters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditQuery(ctrl)
	h := NewAuditHandler(mockAudit, mocks.NewMockBalanceResolver(ctrl))

	mockAudit.EXPECT().Transactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, filter ports.TransactionFilter) ([]domain.Posting, error) {
			assert.Equal(t, "North", filter.Branch)
			assert.Equal(t, "Acme", filter.Company)
			assert.Equal(t, 2025, filter.From.Year())
			assert.True(t, filter.To.IsZero())
			return []domain.Posting{{AccountID: "12345678901234", Type: domain.PostingTypeAdd, Amount: decimal.NewFromInt(10)}}, nil
		})

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/audit/transactions?from=2025-01-01&branch=North&company=Acme", nil)

	h.Transactions(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditTransactions_BadTime(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuditHandler(mocks.NewMockAuditQuery(ctrl), mocks.NewMockBalanceResolver(ctrl))

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/audit/transactions?from=yesterday", nil)

	h.Transactions(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuditAccounts_SignFilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAudit := mocks.NewMockAuditQuery(ctrl)
	h := NewAuditHandler(mockAudit, mocks.NewMockBalanceResolver(ctrl))

	mockAudit.EXPECT().Accounts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, filter ports.AccountFilter) ([]ports.AccountSummary, error) {
			assert.Equal(t, ports.BalanceSignNegative, filter.Sign)
			return []ports.AccountSummary{}, nil
		})

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/audit/accounts?sign=negative", nil)

	h.Accounts(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuditAccounts_InvalidSign(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuditHandler(mocks.NewMockAuditQuery(ctrl), mocks.NewMockBalanceResolver(ctrl))

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/audit/accounts?sign=red", nil)

	h.Accounts(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcileAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockResolver := mocks.NewMockBalanceResolver(ctrl)
	h := NewAuditHandler(mocks.NewMockAuditQuery(ctrl), mockResolver)

	mockResolver.EXPECT().ReconcileAll(gomock.Any()).Return([]domain.ReconcileReport{
		{AccountID: "12345678901234", Divergent: false},
		{AccountID: "22222222222222", Divergent: true},
	}, nil)

	w := httptest.NewRecorder()
	c, _ := testContext(w, domain.Capabilities{})
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/audit/reconcile", nil)

	h.ReconcileAll(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].([]interface{})
	assert.Len(t, data, 2)
}

// --- Health Check Tests ---

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Ping(context.Context) error { return f.err }
func (f fakeChecker) Name() string               { return f.name }

func TestHealthCheck_AllHealthy(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(fakeChecker{name: "postgresql"}, fakeChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(fakeChecker{name: "postgresql"}, fakeChecker{name: "redis", err: errors.New("connection refused")})(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
	deps := resp["dependencies"].(map[string]interface{})
	redisDep := deps["redis"].(map[string]interface{})
	assert.Equal(t, "unhealthy", redisDep["status"])
}

// --- Router Tests ---

func TestRouter_ProtectedRouteRejectsMissingToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := SetupRouter(RouterDeps{
		AuthSvc:  mocks.NewMockAuthService(ctrl),
		Engine:   mocks.NewMockLedgerEngine(ctrl),
		Resolver: mocks.NewMockBalanceResolver(ctrl),
		Audit:    mocks.NewMockAuditQuery(ctrl),
		TokenSvc: mocks.NewMockTokenService(ctrl),
		Logger:   zerolog.Nop(),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/12345678901234", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_ValidTokenReachesHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockToken := mocks.NewMockTokenService(ctrl)
	mockToken.EXPECT().Validate("tok123").Return(&ports.TokenClaims{
		Username:  "op1",
		AgentName: "Alice",
		Branch:    "Main",
	}, nil)

	mockEngine := mocks.NewMockLedgerEngine(ctrl)
	mockEngine.EXPECT().GetAccount(gomock.Any(), "12345678901234").Return(&ports.AccountView{
		Account: domain.Account{ID: "12345678901234"},
	}, nil)

	r := SetupRouter(RouterDeps{
		AuthSvc:  mocks.NewMockAuthService(ctrl),
		Engine:   mockEngine,
		Resolver: mocks.NewMockBalanceResolver(ctrl),
		Audit:    mocks.NewMockAuditQuery(ctrl),
		TokenSvc: mockToken,
		Logger:   zerolog.Nop(),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/12345678901234", nil)
	req.Header.Set("Authorization", "Bearer tok123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_HealthEndpointIsPublic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	r := SetupRouter(RouterDeps{
		AuthSvc:        mocks.NewMockAuthService(ctrl),
		Engine:         mocks.NewMockLedgerEngine(ctrl),
		Resolver:       mocks.NewMockBalanceResolver(ctrl),
		Audit:          mocks.NewMockAuditQuery(ctrl),
		TokenSvc:       mocks.NewMockTokenService(ctrl),
		HealthCheckers: []ports.HealthChecker{fakeChecker{name: "memory"}},
		Logger:         zerolog.Nop(),
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
