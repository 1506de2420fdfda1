package handler

import (
	"context"
	"net/http"

	"github.com/iho/branchledger/internal/accounting"
	"github.com/iho/branchledger/internal/adapter/http/dto"
	"github.com/iho/branchledger/internal/adapter/http/middleware"
	"github.com/iho/branchledger/internal/domain"
)

// ReportService defines the behavior needed by ReportHandler.
type ReportService interface {
	Chart(ctx context.Context, accountID string, opts domain.EntryOptions) (*domain.ChartOfAccounts, error)
	BalanceSheet(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.BalanceSheet, error)
	ProfitAndLoss(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.ProfitAndLoss, error)
	TrialBalance(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.TrialBalance, error)
	LedgerStatement(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.LedgerStatement, error)
	ReconciliationStatement(ctx context.Context, accountID string, opts domain.EntryOptions) (*accounting.ReconciliationStatement, error)
}

// ReportHandler serves the chart of accounts and the statements derived from it.
type ReportHandler struct {
	reportUC ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportUC ReportService) *ReportHandler {
	return &ReportHandler{reportUC: reportUC}
}

// Chart returns the chart of accounts.
func (h *ReportHandler) Chart(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, func(ctx context.Context, id string, opts domain.EntryOptions) (any, error) {
		chart, err := h.reportUC.Chart(ctx, id, opts)
		if err != nil {
			return nil, err
		}
		return dto.ChartFromDomain(chart), nil
	})
}

// BalanceSheet returns the balance sheet.
func (h *ReportHandler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, func(ctx context.Context, id string, opts domain.EntryOptions) (any, error) {
		return h.reportUC.BalanceSheet(ctx, id, opts)
	})
}

// ProfitAndLoss returns the profit and loss statement.
func (h *ReportHandler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, func(ctx context.Context, id string, opts domain.EntryOptions) (any, error) {
		return h.reportUC.ProfitAndLoss(ctx, id, opts)
	})
}

// TrialBalance returns the trial balance.
func (h *ReportHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, func(ctx context.Context, id string, opts domain.EntryOptions) (any, error) {
		return h.reportUC.TrialBalance(ctx, id, opts)
	})
}

// LedgerStatement returns one ledger's statement; ledgerId is required.
func (h *ReportHandler) LedgerStatement(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, func(ctx context.Context, id string, opts domain.EntryOptions) (any, error) {
		return h.reportUC.LedgerStatement(ctx, id, opts)
	})
}

// ReconciliationStatement returns one bank or cash ledger's reconciliation statement.
func (h *ReportHandler) ReconciliationStatement(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, func(ctx context.Context, id string, opts domain.EntryOptions) (any, error) {
		return h.reportUC.ReconciliationStatement(ctx, id, opts)
	})
}

type reportFunc func(ctx context.Context, accountID string, opts domain.EntryOptions) (any, error)

func serveReport(w http.ResponseWriter, r *http.Request, build reportFunc) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	opts, err := dto.EntryOptionsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if opts.AllBranches {
		if p, ok := middleware.PrincipalFromContext(r.Context()); ok && p.Branch != "" {
			writeError(w, http.StatusForbidden, "all-branch reports are not available to branch users", "")
			return
		}
	}

	report, err := build(r.Context(), id, opts)
	if err != nil {
		writeDomainError(w, err, "failed to build report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
