package account

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/YujeongSon/AccountSystem/internal/platform/httpx"
	"github.com/YujeongSon/AccountSystem/internal/shared"
)

// Handler manages account endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes registers account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/account", h.create)
	r.Delete("/account", h.close)
	r.Get("/account", h.list)
}

type createAccountRequest struct {
	UserID         int64 `json:"userId" validate:"required,min=1"`
	InitialBalance int64 `json:"initialBalance" validate:"min=0"`
}

type createAccountResponse struct {
	UserID        int64     `json:"userId"`
	AccountNumber string    `json:"accountNumber"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}

	acct, err := h.service.Create(r.Context(), req.UserID, req.InitialBalance)
	if err != nil {
		h.logger.Warn("create account failed", slog.Int64("user_id", req.UserID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, createAccountResponse{
		UserID:        acct.UserID,
		AccountNumber: acct.Number,
		RegisteredAt:  acct.RegisteredAt,
	})
}

type closeAccountRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10"`
}

type closeAccountResponse struct {
	UserID         int64      `json:"userId"`
	AccountNumber  string     `json:"accountNumber"`
	UnregisteredAt *time.Time `json:"unregisteredAt"`
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	var req closeAccountRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}

	acct, err := h.service.Close(r.Context(), req.UserID, req.AccountNumber)
	if err != nil {
		h.logger.Warn("close account failed",
			slog.Int64("user_id", req.UserID),
			slog.String("account_number", req.AccountNumber),
			slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, closeAccountResponse{
		UserID:         acct.UserID,
		AccountNumber:  acct.Number,
		UnregisteredAt: acct.UnregisteredAt,
	})
}

type accountInfo struct {
	AccountNumber string `json:"accountNumber"`
	Balance       int64  `json:"balance"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID < 1 {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}

	accounts, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	infos := make([]accountInfo, 0, len(accounts))
	for _, acct := range accounts {
		infos = append(infos, accountInfo{AccountNumber: acct.Number, Balance: acct.Balance})
	}
	httpx.JSON(w, http.StatusOK, infos)
}
