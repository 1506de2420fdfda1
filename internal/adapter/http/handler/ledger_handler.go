package handler

import (
	"context"
	"net/http"

	"github.com/iho/branchledger/internal/adapter/http/dto"
	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
)

// LedgerService defines the chart administration needed by LedgerHandler.
type LedgerService interface {
	ListLedgers(ctx context.Context, accountID string) ([]domain.Ledger, error)
	SaveLedger(ctx context.Context, input usecase.SaveLedgerInput) (*domain.Ledger, error)
	DeleteLedger(ctx context.Context, accountID string, id int64) error
	ListGroups(ctx context.Context, accountID string) ([]domain.Group, error)
	SaveGroup(ctx context.Context, input usecase.SaveGroupInput) (*domain.Group, error)
	DeleteGroup(ctx context.Context, accountID string, id int64) error
	ListEntryTypes(ctx context.Context, accountID string) ([]domain.EntryType, error)
	ListTags(ctx context.Context, accountID string) ([]domain.Tag, error)
	CreateTag(ctx context.Context, accountID, title string) (*domain.Tag, error)
}

// LedgerHandler handles ledgers, groups, entry types and tags of one account.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// ListLedgers lists the ledgers of an account.
func (h *LedgerHandler) ListLedgers(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	ledgers, err := h.ledgerUC.ListLedgers(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to list ledgers")
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgersFromDomain(ledgers))
}

// CreateLedger adds a ledger.
func (h *LedgerHandler) CreateLedger(w http.ResponseWriter, r *http.Request) {
	h.saveLedger(w, r, 0, http.StatusCreated)
}

// UpdateLedger edits the ledger named by {ledgerId}.
func (h *LedgerHandler) UpdateLedger(w http.ResponseWriter, r *http.Request) {
	ledgerID, ok := pathID(w, r, "ledgerId")
	if !ok {
		return
	}
	h.saveLedger(w, r, ledgerID, http.StatusOK)
}

func (h *LedgerHandler) saveLedger(w http.ResponseWriter, r *http.Request, ledgerID int64, status int) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	var req dto.LedgerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ledger, err := req.ToDomain(ledgerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ledger", err.Error())
		return
	}

	saved, err := h.ledgerUC.SaveLedger(r.Context(), usecase.SaveLedgerInput{AccountID: id, Ledger: ledger})
	if err != nil {
		writeDomainError(w, err, "failed to save ledger")
		return
	}

	writeJSON(w, status, dto.LedgerFromDomain(*saved))
}

// DeleteLedger removes the ledger named by {ledgerId}.
func (h *LedgerHandler) DeleteLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	ledgerID, ok := pathID(w, r, "ledgerId")
	if !ok {
		return
	}

	if err := h.ledgerUC.DeleteLedger(r.Context(), id, ledgerID); err != nil {
		writeDomainError(w, err, "failed to delete ledger")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListGroups lists the groups of an account.
func (h *LedgerHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	groups, err := h.ledgerUC.ListGroups(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to list groups")
		return
	}

	writeJSON(w, http.StatusOK, dto.GroupsFromDomain(groups))
}

// CreateGroup adds a group.
func (h *LedgerHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	h.saveGroup(w, r, 0, http.StatusCreated)
}

// UpdateGroup edits the group named by {groupId}.
func (h *LedgerHandler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}
	h.saveGroup(w, r, groupID, http.StatusOK)
}

func (h *LedgerHandler) saveGroup(w http.ResponseWriter, r *http.Request, groupID int64, status int) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	var req dto.GroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	saved, err := h.ledgerUC.SaveGroup(r.Context(), usecase.SaveGroupInput{AccountID: id, Group: req.ToDomain(groupID)})
	if err != nil {
		writeDomainError(w, err, "failed to save group")
		return
	}

	writeJSON(w, status, dto.GroupFromDomain(*saved))
}

// DeleteGroup removes the group named by {groupId}.
func (h *LedgerHandler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	groupID, ok := pathID(w, r, "groupId")
	if !ok {
		return
	}

	if err := h.ledgerUC.DeleteGroup(r.Context(), id, groupID); err != nil {
		writeDomainError(w, err, "failed to delete group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListEntryTypes lists the entry types of an account.
func (h *LedgerHandler) ListEntryTypes(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	types, err := h.ledgerUC.ListEntryTypes(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to list entry types")
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryTypesFromDomain(types))
}

// ListTags lists the tags of an account.
func (h *LedgerHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}

	tags, err := h.ledgerUC.ListTags(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to list tags")
		return
	}

	writeJSON(w, http.StatusOK, dto.TagsFromDomain(tags))
}

// CreateTag adds a tag.
func (h *LedgerHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	var req dto.TagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tag, err := h.ledgerUC.CreateTag(r.Context(), id, req.Title)
	if err != nil {
		writeDomainError(w, err, "failed to create tag")
		return
	}

	writeJSON(w, http.StatusCreated, dto.TagFromDomain(*tag))
}
