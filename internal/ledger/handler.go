package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler manages ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/partners/{accountID}/ledger", h.getLedger)
	r.Post("/partners/{accountID}/transactions", h.recordTransaction)
	r.Delete("/partners/{accountID}/entries/{entryID}", h.deleteEntry)
	r.Get("/transfers", h.listTransfers)
	r.Post("/transfers", h.createTransfer)
	r.Delete("/transfers/{transferID}", h.deleteTransfer)
}

func (h *Handler) getLedger(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Account", "account id is not a valid uuid")
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
		return
	}

	view, err := h.service.GetLedgerView(r.Context(), tenant, accountID, filter)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "partner account not found")
			return
		}
		h.logger.Error("get ledger view", slog.Any("error", err))
		httpx.ProblemRetryable(w, http.StatusBadGateway, "Ledger Unavailable", "could not load the ledger, try again")
		return
	}

	httpx.JSON(w, http.StatusOK, toLedgerViewResponse(view))
}

func (h *Handler) recordTransaction(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Account", "account id is not a valid uuid")
		return
	}

	var req RecordTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount is not a valid decimal")
		return
	}

	input := RecordTransactionInput{
		AccountID:   accountID,
		Type:        EntryType(req.Type),
		Amount:      amount,
		Description: req.Description,
		Category:    req.Category,
	}
	if req.TransactionDate != "" {
		input.TransactionDate, _ = time.Parse("2006-01-02", req.TransactionDate)
	}

	tx, err := h.service.RecordTransaction(r.Context(), tenant, input)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "partner account not found")
			return
		}
		h.logger.Error("record transaction", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]string{"id": tx.ID.String()})
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteEntry(r.Context(), tenant, chi.URLParam(r, "entryID")); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "ledger entry not found")
			return
		}
		h.logger.Error("delete entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listTransfers(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	transfers, err := h.service.ListTransferHistory(r.Context(), tenant, limit)
	if err != nil {
		h.logger.Error("list transfers", slog.Any("error", err))
		httpx.ProblemRetryable(w, http.StatusBadGateway, "Transfers Unavailable", "could not load transfers, try again")
		return
	}
	httpx.JSON(w, http.StatusOK, toTransferResponses(transfers))
}

func (h *Handler) createTransfer(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req CreateTransferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount is not a valid decimal")
		return
	}

	fromID, _ := uuid.Parse(req.FromAccountID)
	toID, _ := uuid.Parse(req.ToAccountID)
	input := CreateTransferInput{FromAccountID: fromID, ToAccountID: toID, Amount: amount}
	if req.TransferDate != "" {
		input.TransferDate, _ = time.Parse("2006-01-02", req.TransferDate)
	}

	record, err := h.service.CreateTransfer(r.Context(), tenant, input)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "transfer account not found")
		case errors.Is(err, ErrSameAccount), errors.Is(err, ErrAccountInactive):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("create transfer", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}

	httpx.JSON(w, http.StatusCreated, map[string]string{"id": record.ID.String()})
}

func (h *Handler) deleteTransfer(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	transferID, err := uuid.Parse(chi.URLParam(r, "transferID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Transfer", "transfer id is not a valid uuid")
		return
	}

	if err := h.service.DeleteTransfer(r.Context(), tenant, transferID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "transfer not found")
			return
		}
		h.logger.Error("delete transfer", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (shared.TenantContext, bool) {
	tenant := shared.TenantFromContext(r.Context())
	if !tenant.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Missing Tenant", "X-Company-ID header is required")
		return shared.TenantContext{}, false
	}
	return tenant, true
}

func filterFromQuery(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	filter := Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}

	switch q.Get("type") {
	case "":
	case "income":
		filter.Type = EntryIncome
	case "expense":
		filter.Type = EntryExpense
	default:
		return Filter{}, errors.New("type must be income or expense")
	}

	if raw := q.Get("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Filter{}, errors.New("start_date must be YYYY-MM-DD")
		}
		filter.StartDate = &parsed
	}
	if raw := q.Get("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return Filter{}, errors.New("end_date must be YYYY-MM-DD")
		}
		filter.EndDate = &parsed
	}

	switch preset := DatePreset(q.Get("preset")); preset {
	case "", PresetToday, PresetWeek, PresetMonth:
		filter.Preset = preset
	default:
		return Filter{}, errors.New("preset must be today, week or month")
	}

	return filter, nil
}
