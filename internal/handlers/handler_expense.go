package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/expenseflow/expense_mgmt_app/internal/apperrors"
	portssvc "github.com/expenseflow/expense_mgmt_app/internal/core/ports/services"
	"github.com/expenseflow/expense_mgmt_app/internal/core/services"
	"github.com/expenseflow/expense_mgmt_app/internal/dto"
	"github.com/expenseflow/expense_mgmt_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// expenseHandler handles HTTP requests related to expenses and approvals.
type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
}

func newExpenseHandler(es portssvc.ExpenseSvcFacade) *expenseHandler {
	return &expenseHandler{expenseService: es}
}

// RegisterExpenseRoutes registers all expense-related routes.
func RegisterExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade) {
	h := newExpenseHandler(expenseService)

	expenses := rg.Group("/expenses")
	{
		expenses.POST("", h.createExpense)
		expenses.GET("", h.listExpenses)
		expenses.GET("/pending-approvals", h.listPendingApprovals)
		expenses.GET("/:id", h.getExpense)
		expenses.PUT("/:id", h.updateExpense)
		expenses.POST("/:id/submit", h.submitDraft)
		expenses.POST("/:id/decision", h.submitDecision)
		expenses.POST("/:id/cancel", h.cancelExpense)
		expenses.POST("/:id/paid", h.markPaid)
		expenses.GET("/:id/progress", h.getApprovalProgress)
	}
}

// createExpense godoc
// @Summary Submit an expense
// @Description Creates an expense. Unless asDraft is set, the approval flow starts immediately: the expense either auto-approves below the company threshold or enters its first approval stage.
// @Tags expenses
// @Accept json
// @Produce json
// @Param expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "No approvers configured"
// @Security BearerAuth
// @Router /expenses [post]
func (h *expenseHandler) createExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), req, userID)
	if err != nil {
		h.writeExpenseError(c, logger, err, "Failed to create expense")
		return
	}

	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// listExpenses godoc
// @Summary List expenses
// @Description Lists expenses visible to the caller. Employees see their own; approver roles see the whole company. Filterable by status and category.
// @Tags expenses
// @Produce json
// @Param status query string false "Filter by status"
// @Param category query string false "Filter by category"
// @Param mine query bool false "Only the caller's own expenses"
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses [get]
func (h *expenseHandler) listExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListExpensesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expenses, err := h.expenseService.ListExpenses(c.Request.Context(), userID, params)
	if err != nil {
		logger.Error("Failed to list expenses", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list expenses"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListExpensesResponse(expenses, params.Limit, params.Offset))
}

// listPendingApprovals godoc
// @Summary List pending approvals
// @Description Lists expenses with an open approval entry assigned to the caller, plus the total count.
// @Tags approvals
// @Produce json
// @Param limit query int false "Limit" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/pending-approvals [get]
func (h *expenseHandler) listPendingApprovals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListExpensesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expenses, err := h.expenseService.ListPendingApprovals(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		logger.Error("Failed to list pending approvals", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to list pending approvals"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListExpensesResponse(expenses, params.Limit, params.Offset))
}

// getExpense godoc
// @Summary Get an expense
// @Description Retrieves an expense with its approval flow and audit log.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expense, err := h.expenseService.GetExpenseByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeExpenseError(c, logger, err, "Failed to retrieve expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// updateExpense godoc
// @Summary Update a draft expense
// @Description Edits a draft. Submitted expenses are immutable to their owner.
// @Tags expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param expense body dto.UpdateExpenseRequest true "Fields to update"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Not a draft"
// @Security BearerAuth
// @Router /expenses/{id} [put]
func (h *expenseHandler) updateExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expense, err := h.expenseService.UpdateExpense(c.Request.Context(), c.Param("id"), req, userID)
	if err != nil {
		h.writeExpenseError(c, logger, err, "Failed to update expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// submitDraft godoc
// @Summary Submit a draft
// @Description Moves a draft into the approval flow.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Not a draft"
// @Failure 422 {object} ErrorResponse "No approvers configured"
// @Security BearerAuth
// @Router /expenses/{id}/submit [post]
func (h *expenseHandler) submitDraft(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expense, err := h.expenseService.SubmitDraft(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeExpenseError(c, logger, err, "Failed to submit expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// submitDecision godoc
// @Summary Approve or reject an expense
// @Description Records the caller's decision on their open approval entry and transitions the flow.
// @Tags approvals
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param decision body dto.DecisionRequest true "approve or reject, with optional comment"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse "No open entry for caller"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Flow already finalized"
// @Security BearerAuth
// @Router /expenses/{id}/decision [post]
func (h *expenseHandler) submitDecision(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body: " + err.Error()})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expense, err := h.expenseService.SubmitDecision(c.Request.Context(), c.Param("id"), userID, req)
	if err != nil {
		h.writeExpenseError(c, logger, err, "Failed to record decision")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// cancelExpense godoc
// @Summary Cancel an expense
// @Description Cancels one of the caller's own expenses before it reaches a terminal approval state.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Already finalized"
// @Security BearerAuth
// @Router /expenses/{id}/cancel [post]
func (h *expenseHandler) cancelExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.expenseService.CancelExpense(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.writeExpenseError(c, logger, err, "Failed to cancel expense")
		return
	}

	c.Status(http.StatusNoContent)
}

// markPaid godoc
// @Summary Mark an expense paid
// @Description Transitions an approved expense to paid. Admin only.
// @Tags expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Not approved"
// @Security BearerAuth
// @Router /expenses/{id}/paid [post]
func (h *expenseHandler) markPaid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	expense, err := h.expenseService.MarkPaid(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeExpenseError(c, logger, err, "Failed to mark expense paid")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// getApprovalProgress godoc
// @Summary Get approval progress
// @Description Summarises how far an expense has moved through its approval flow.
// @Tags approvals
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} dto.ApprovalProgressResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /expenses/{id}/progress [get]
func (h *expenseHandler) getApprovalProgress(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized"})
		return
	}

	progress, err := h.expenseService.GetApprovalProgress(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeExpenseError(c, logger, err, "Failed to retrieve approval progress")
		return
	}

	c.JSON(http.StatusOK, progress)
}

// writeExpenseError maps service errors to HTTP responses.
func (h *expenseHandler) writeExpenseError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Expense not found"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Forbidden"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrNotAnActiveApprover):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "Approval not found or already processed"})
	case errors.Is(err, services.ErrAlreadyFinalized):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "Expense approval flow already finalized"})
	case errors.Is(err, services.ErrNoApproversConfigured):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
	case errors.Is(err, services.ErrExpenseNotDraft),
		errors.Is(err, services.ErrExpenseNotApproved),
		errors.Is(err, services.ErrExpenseFinalized):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallback})
	}
}
