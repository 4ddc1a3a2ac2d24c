package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	"github.com/expenseflow/expense_mgmt_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/core/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/expenseflow/expense_mgmt_app/internal/handlers"
	"github.com/expenseflow/expense_mgmt_app/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExpenseService ---
type MockExpenseService struct {
	mock.Mock
}

func (m *MockExpenseService) CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseService) UpdateExpense(ctx context.Context, expenseID string, req dto.UpdateExpenseRequest, requestingUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, req, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseService) SubmitDraft(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseService) CancelExpense(ctx context.Context, expenseID string, requestingUserID string) error {
	args := m.Called(ctx, expenseID, requestingUserID)
	return args.Error(0)
}

func (m *MockExpenseService) MarkPaid(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseService) SubmitDecision(ctx context.Context, expenseID string, approverID string, req dto.DecisionRequest) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, approverID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseService) GetExpenseByID(ctx context.Context, expenseID string, requestingUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseService) ListExpenses(ctx context.Context, requestingUserID string, params dto.ListExpensesParams) ([]domain.Expense, error) {
	args := m.Called(ctx, requestingUserID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}

func (m *MockExpenseService) ListPendingApprovals(ctx context.Context, approverID string, limit, offset int) ([]domain.Expense, error) {
	args := m.Called(ctx, approverID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}

func (m *MockExpenseService) CountPendingApprovals(ctx context.Context, approverID string) (int, error) {
	args := m.Called(ctx, approverID)
	return args.Int(0), args.Error(1)
}

func (m *MockExpenseService) GetApprovalProgress(ctx context.Context, expenseID string, requestingUserID string) (*dto.ApprovalProgressResponse, error) {
	args := m.Called(ctx, expenseID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ApprovalProgressResponse), args.Error(1)
}

// Ensure mock implements the interface
var _ portssvc.ExpenseSvcFacade = (*MockExpenseService)(nil)

// --- Test Suite ---
type ExpenseHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockExpenseService *MockExpenseService
	jwtSecret          string
}

// generateTestToken creates a dummy JWT for testing.
func (suite *ExpenseHandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    "ema-test",
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(1 * time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedString, err := token.SignedString([]byte(suite.jwtSecret))
	if err != nil {
		suite.FailNow("Failed to sign test token", err.Error())
	}
	return signedString
}

func (suite *ExpenseHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.router = gin.New()
	suite.jwtSecret = "test-secret-key-that-is-long-enough"

	suite.router.Use(middleware.AuthMiddleware(suite.jwtSecret))
	suite.mockExpenseService = new(MockExpenseService)

	v1 := suite.router.Group("/api/v1")
	handlers.RegisterExpenseRoutes(v1, suite.mockExpenseService)
}

func (suite *ExpenseHandlerTestSuite) doRequest(method, url, userID string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, _ := http.NewRequest(method, url, reader)
	req.Header.Set("Authorization", "Bearer "+suite.generateTestToken(userID))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func pendingTestExpense(userID string) *domain.Expense {
	return &domain.Expense{
		ExpenseID:       uuid.NewString(),
		CompanyID:       uuid.NewString(),
		UserID:          userID,
		Title:           "Client dinner",
		Amount:          decimal.NewFromInt(120),
		Currency:        "USD",
		ConvertedAmount: decimal.NewFromInt(120),
		ExchangeRate:    decimal.NewFromInt(1),
		Category:        domain.CategoryMeals,
		ExpenseDate:     time.Now().AddDate(0, 0, -1),
		Status:          domain.ExpensePending,
		ApprovalFlow: []domain.ApprovalStageEntry{
			{ApproverID: "mgr-1", Role: domain.RoleManager, State: domain.DecisionPending},
		},
	}
}

// --- Test Cases ---

func (suite *ExpenseHandlerTestSuite) TestCreateExpense_Success() {
	userID := uuid.NewString()
	expense := pendingTestExpense(userID)

	suite.mockExpenseService.On("CreateExpense",
		mock.AnythingOfType("*context.valueCtx"),
		mock.MatchedBy(func(req dto.CreateExpenseRequest) bool {
			return req.Title == "Client dinner" && req.Currency == "USD"
		}),
		userID,
	).Return(expense, nil).Once()

	body := map[string]any{
		"title":       "Client dinner",
		"amount":      "120",
		"currency":    "USD",
		"category":    "MEALS",
		"expenseDate": time.Now().AddDate(0, 0, -1).Format(time.RFC3339),
	}
	w := suite.doRequest(http.MethodPost, "/api/v1/expenses", userID, body)

	suite.Equal(http.StatusCreated, w.Code)
	var resp dto.ExpenseResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(expense.ExpenseID, resp.ExpenseID)
	suite.Equal(string(domain.ExpensePending), resp.Status)
	suite.Len(resp.ApprovalFlow, 1)
	suite.mockExpenseService.AssertExpectations(suite.T())
}

func (suite *ExpenseHandlerTestSuite) TestCreateExpense_InvalidBody() {
	userID := uuid.NewString()

	// missing amount and currency
	body := map[string]any{"title": "Client dinner"}
	w := suite.doRequest(http.MethodPost, "/api/v1/expenses", userID, body)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockExpenseService.AssertNotCalled(suite.T(), "CreateExpense", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseHandlerTestSuite) TestCreateExpense_NoApproversConfigured() {
	userID := uuid.NewString()

	suite.mockExpenseService.On("CreateExpense",
		mock.AnythingOfType("*context.valueCtx"), mock.AnythingOfType("dto.CreateExpenseRequest"), userID,
	).Return(nil, services.ErrNoApproversConfigured).Once()

	body := map[string]any{
		"title":       "Client dinner",
		"amount":      "120",
		"currency":    "USD",
		"category":    "MEALS",
		"expenseDate": time.Now().AddDate(0, 0, -1).Format(time.RFC3339),
	}
	w := suite.doRequest(http.MethodPost, "/api/v1/expenses", userID, body)

	suite.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (suite *ExpenseHandlerTestSuite) TestSubmitDecision_Approve() {
	approverID := uuid.NewString()
	expense := pendingTestExpense(uuid.NewString())
	expense.ApprovalFlow[0].State = domain.DecisionApproved
	expense.Status = domain.ExpenseApproved

	suite.mockExpenseService.On("SubmitDecision",
		mock.AnythingOfType("*context.valueCtx"),
		expense.ExpenseID,
		approverID,
		mock.MatchedBy(func(req dto.DecisionRequest) bool {
			return req.Decision == "approve" && req.Comment == "LGTM"
		}),
	).Return(expense, nil).Once()

	url := fmt.Sprintf("/api/v1/expenses/%s/decision", expense.ExpenseID)
	w := suite.doRequest(http.MethodPost, url, approverID, map[string]any{"decision": "approve", "comment": "LGTM"})

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ExpenseResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(string(domain.ExpenseApproved), resp.Status)
	suite.mockExpenseService.AssertExpectations(suite.T())
}

func (suite *ExpenseHandlerTestSuite) TestSubmitDecision_InvalidDecisionValue() {
	approverID := uuid.NewString()
	url := fmt.Sprintf("/api/v1/expenses/%s/decision", uuid.NewString())

	w := suite.doRequest(http.MethodPost, url, approverID, map[string]any{"decision": "maybe"})

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockExpenseService.AssertNotCalled(suite.T(), "SubmitDecision", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ExpenseHandlerTestSuite) TestSubmitDecision_NotAnActiveApprover() {
	approverID := uuid.NewString()
	expenseID := uuid.NewString()

	suite.mockExpenseService.On("SubmitDecision",
		mock.AnythingOfType("*context.valueCtx"), expenseID, approverID, mock.AnythingOfType("dto.DecisionRequest"),
	).Return(nil, services.ErrNotAnActiveApprover).Once()

	url := fmt.Sprintf("/api/v1/expenses/%s/decision", expenseID)
	w := suite.doRequest(http.MethodPost, url, approverID, map[string]any{"decision": "reject", "comment": "No receipt"})

	suite.Equal(http.StatusForbidden, w.Code)
}

func (suite *ExpenseHandlerTestSuite) TestSubmitDecision_AlreadyFinalized() {
	approverID := uuid.NewString()
	expenseID := uuid.NewString()

	suite.mockExpenseService.On("SubmitDecision",
		mock.AnythingOfType("*context.valueCtx"), expenseID, approverID, mock.AnythingOfType("dto.DecisionRequest"),
	).Return(nil, services.ErrAlreadyFinalized).Once()

	url := fmt.Sprintf("/api/v1/expenses/%s/decision", expenseID)
	w := suite.doRequest(http.MethodPost, url, approverID, map[string]any{"decision": "approve"})

	suite.Equal(http.StatusConflict, w.Code)
}

func (suite *ExpenseHandlerTestSuite) TestGetExpense_NotFound() {
	userID := uuid.NewString()
	expenseID := uuid.NewString()

	suite.mockExpenseService.On("GetExpenseByID",
		mock.AnythingOfType("*context.valueCtx"), expenseID, userID,
	).Return(nil, apperrors.ErrNotFound).Once()

	w := suite.doRequest(http.MethodGet, "/api/v1/expenses/"+expenseID, userID, nil)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *ExpenseHandlerTestSuite) TestListPendingApprovals_Success() {
	approverID := uuid.NewString()
	expense := pendingTestExpense(uuid.NewString())

	suite.mockExpenseService.On("ListPendingApprovals",
		mock.AnythingOfType("*context.valueCtx"), approverID, 10, 0,
	).Return([]domain.Expense{*expense}, nil).Once()

	w := suite.doRequest(http.MethodGet, "/api/v1/expenses/pending-approvals?limit=10", approverID, nil)

	suite.Equal(http.StatusOK, w.Code)
	var resp dto.ListExpensesResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp.Expenses, 1)
	suite.mockExpenseService.AssertExpectations(suite.T())
}

func (suite *ExpenseHandlerTestSuite) TestCancelExpense_NoContent() {
	userID := uuid.NewString()
	expenseID := uuid.NewString()

	suite.mockExpenseService.On("CancelExpense",
		mock.AnythingOfType("*context.valueCtx"), expenseID, userID,
	).Return(nil).Once()

	w := suite.doRequest(http.MethodPost, fmt.Sprintf("/api/v1/expenses/%s/cancel", expenseID), userID, nil)

	suite.Equal(http.StatusNoContent, w.Code)
}

func (suite *ExpenseHandlerTestSuite) TestRequestWithoutToken_Unauthorized() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/expenses", nil)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	suite.Equal(http.StatusUnauthorized, w.Code)
}

func TestExpenseHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(ExpenseHandlerTestSuite))
}
