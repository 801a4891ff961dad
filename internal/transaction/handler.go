package transaction

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/YujeongSon/AccountSystem/internal/observability"
	"github.com/YujeongSon/AccountSystem/internal/platform/httpx"
	"github.com/YujeongSon/AccountSystem/internal/shared"
)

// Handler manages transaction endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
	metrics  *observability.Metrics
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, validate: validate, metrics: metrics}
}

// MountRoutes registers transaction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/transaction/use", h.use)
	r.Post("/transaction/cancel", h.cancel)
	r.Get("/transaction/{transactionId}", h.query)
}

type useBalanceRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10"`
	Amount        int64  `json:"amount" validate:"required,min=1"`
}

type cancelBalanceRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10"`
	Amount        int64  `json:"amount" validate:"required,min=1"`
}

type transactionResponse struct {
	AccountNumber     string    `json:"accountNumber"`
	TransactionType   string    `json:"transactionType"`
	TransactionResult string    `json:"transactionResult"`
	TransactionID     string    `json:"transactionId"`
	Amount            int64     `json:"amount"`
	BalanceSnapshot   int64     `json:"balanceSnapshot"`
	TransactedAt      time.Time `json:"transactedAt"`
}

func toResponse(res Result) transactionResponse {
	return transactionResponse{
		AccountNumber:     res.AccountNumber,
		TransactionType:   string(res.Type),
		TransactionResult: string(res.Result),
		TransactionID:     res.TransactionID,
		Amount:            res.Amount,
		BalanceSnapshot:   res.BalanceSnapshot,
		TransactedAt:      res.TransactedAt,
	}
}

func (h *Handler) use(w http.ResponseWriter, r *http.Request) {
	var req useBalanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}

	res, err := h.service.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)
	if err != nil {
		h.recordFailure(r, err, TypeUse, req.AccountNumber, req.Amount)
		h.observe(TypeUse, ResultFailure)
		httpx.RespondError(w, err)
		return
	}

	h.observe(TypeUse, ResultSuccess)
	httpx.JSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelBalanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}

	res, err := h.service.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		h.recordFailure(r, err, TypeCancel, req.AccountNumber, req.Amount)
		h.observe(TypeCancel, ResultFailure)
		httpx.RespondError(w, err)
		return
	}

	h.observe(TypeCancel, ResultSuccess)
	httpx.JSON(w, http.StatusOK, toResponse(res))
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")
	if transactionID == "" {
		httpx.RespondError(w, shared.ErrInvalidRequest)
		return
	}

	res, err := h.service.QueryTransaction(r.Context(), transactionID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(res))
}

// recordFailure appends the audit entry for rejected attempts that reached
// account resolution. Recording happens here, outside the engine's lock.
func (h *Handler) recordFailure(r *http.Request, err error, txType Type, accountNumber string, amount int64) {
	record := false
	switch txType {
	case TypeUse:
		record = ShouldRecordUseFailure(err)
	case TypeCancel:
		record = ShouldRecordCancelFailure(err)
	}
	if !record {
		return
	}

	// The audit row must land even when the client has already gone away.
	ctx := context.WithoutCancel(r.Context())

	var recordErr error
	if txType == TypeUse {
		recordErr = h.service.RecordFailedUse(ctx, accountNumber, amount)
	} else {
		recordErr = h.service.RecordFailedCancel(ctx, accountNumber, amount)
	}
	if recordErr != nil {
		h.logger.Error("record failed attempt",
			slog.String("account_number", accountNumber),
			slog.String("type", string(txType)),
			slog.Any("error", recordErr))
	}
}

func (h *Handler) observe(txType Type, result ResultType) {
	if h.metrics != nil {
		h.metrics.ObserveTransaction(string(txType), string(result))
	}
}
