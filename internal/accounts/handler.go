package accounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler manages partner account endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers partner account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/partners", h.list)
	r.Post("/partners", h.create)
	r.Get("/partners/{accountID}", h.get)
	r.Patch("/partners/{accountID}", h.update)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	req := ListAccountsRequest{Search: q.Get("search")}
	if raw := q.Get("is_active"); raw != "" {
		val := raw == "true"
		req.IsActive = &val
	}
	if raw := q.Get("page"); raw != "" {
		req.Page, _ = strconv.Atoi(raw)
	}
	if raw := q.Get("per_page"); raw != "" {
		req.PerPage, _ = strconv.Atoi(raw)
	}

	accounts, pagination, err := h.service.List(r.Context(), tenant, req)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"pagination": map[string]int{
			"page":        pagination.Page,
			"per_page":    pagination.PerPage,
			"total":       pagination.Total,
			"total_pages": pagination.TotalPages,
		},
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	account, err := h.service.Create(r.Context(), tenant, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			httpx.Problem(w, http.StatusConflict, "Duplicate", "a partner with that name already exists")
			return
		}
		h.logger.Error("create account", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	httpx.JSON(w, http.StatusCreated, account)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Account", "account id is not a valid uuid")
		return
	}

	account, err := h.service.Get(r.Context(), tenant, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "partner account not found")
			return
		}
		h.logger.Error("get account", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	tenant, ok := h.tenant(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Account", "account id is not a valid uuid")
		return
	}

	var req UpdateAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	account, err := h.service.Update(r.Context(), tenant, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", "partner account not found")
		case errors.Is(err, ErrCapitalLocked):
			httpx.Problem(w, http.StatusConflict, "Capital Locked", err.Error())
		case errors.Is(err, ErrAlreadyExists):
			httpx.Problem(w, http.StatusConflict, "Duplicate", "a partner with that name already exists")
		default:
			h.logger.Error("update account", slog.Any("error", err))
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		}
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (h *Handler) tenant(w http.ResponseWriter, r *http.Request) (shared.TenantContext, bool) {
	tenant := shared.TenantFromContext(r.Context())
	if !tenant.Valid() {
		httpx.Problem(w, http.StatusBadRequest, "Missing Tenant", "X-Company-ID header is required")
		return shared.TenantContext{}, false
	}
	return tenant, true
}
