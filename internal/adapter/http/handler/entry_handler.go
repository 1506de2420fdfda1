package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/iho/branchledger/internal/adapter/http/dto"
	"github.com/iho/branchledger/internal/adapter/http/middleware"
	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	ListEntries(ctx context.Context, accountID string, opts domain.EntryOptions) ([]domain.Entry, error)
	GetEntry(ctx context.Context, accountID string, id int64) (*domain.Entry, error)
	SaveEntry(ctx context.Context, input usecase.SaveEntryInput) (*domain.Entry, error)
	DeleteEntry(ctx context.Context, accountID string, id int64, force bool) error
	ImportEntries(ctx context.Context, input usecase.ImportEntriesInput) (*usecase.ImportEntriesResult, error)
	Reconcile(ctx context.Context, input usecase.ReconcileInput) ([]domain.Entry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC EntryService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC}
}

// List lists the entries of an account matching the query filters.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	opts, err := dto.EntryOptionsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	entries, err := h.entryUC.ListEntries(r.Context(), id, opts)
	if err != nil {
		writeDomainError(w, err, "failed to list entries")
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Get retrieves one entry.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	entryID, ok := pathID(w, r, "entryId")
	if !ok {
		return
	}

	entry, err := h.entryUC.GetEntry(r.Context(), id, entryID)
	if err != nil {
		writeDomainError(w, err, "failed to get entry")
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// Create posts a new entry.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, 0, http.StatusCreated)
}

// Update replaces the entry named by {entryId}.
func (h *EntryHandler) Update(w http.ResponseWriter, r *http.Request) {
	entryID, ok := pathID(w, r, "entryId")
	if !ok {
		return
	}
	h.save(w, r, entryID, http.StatusOK)
}

func (h *EntryHandler) save(w http.ResponseWriter, r *http.Request, entryID int64, status int) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	var req dto.EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	entry, err := req.ToDomain(entryID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry", err.Error())
		return
	}

	saved, err := h.entryUC.SaveEntry(r.Context(), usecase.SaveEntryInput{AccountID: id, Entry: entry})
	if err != nil {
		writeDomainError(w, err, "failed to save entry")
		return
	}

	writeJSON(w, status, dto.EntryFromDomain(saved))
}

// Delete removes an entry. ?force=true also removes system generated
// entries and needs a role that may delete.
func (h *EntryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	entryID, ok := pathID(w, r, "entryId")
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	if force {
		if p, ok := middleware.PrincipalFromContext(r.Context()); ok && !p.Role.CanDelete() {
			writeDomainError(w, domain.ErrInsufficientRole, "")
			return
		}
	}

	if err := h.entryUC.DeleteEntry(r.Context(), id, entryID, force); err != nil {
		writeDomainError(w, err, "failed to delete entry")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Import groups flat rows into entries and stores them all or none.
func (h *EntryHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	var req dto.ImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.entryUC.ImportEntries(r.Context(), req.ToUseCaseInput(id))
	if err != nil {
		writeDomainError(w, err, "failed to import entries")
		return
	}

	writeJSON(w, http.StatusCreated, dto.ImportResponse{
		Entries:          dto.EntriesFromDomain(result.Entries),
		SynthesizedItems: result.SynthesizedItems,
	})
}

// Reconcile flags items on a bank or cash ledger.
func (h *EntryHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(w, r)
	if !ok {
		return
	}
	var req dto.ReconcileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entries, err := h.entryUC.Reconcile(r.Context(), usecase.ReconcileInput{
		AccountID: id,
		LedgerID:  req.LedgerID,
		Items:     req.Items,
	})
	if err != nil {
		writeDomainError(w, err, "failed to reconcile entries")
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}
