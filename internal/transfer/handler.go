package transfer

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dtv/mobank/internal/identity"
	"github.com/dtv/mobank/internal/ledger"
)

// Handler exposes the transfer and transaction-history endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the transfer handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type transferRequest struct {
	ReceiverAccountNumber string `json:"receiver_account_number"`
	ReceiverBankName      string `json:"receiver_bank_name"`
	SenderAccountNumber   string `json:"sender_account_number"`
	Amount                int64  `json:"amount"`
	PIN                   string `json:"pin"`
}

type transactionResponse struct {
	ID                string    `json:"id"`
	Amount            int64     `json:"amount"`
	SenderAccountID   string    `json:"sender_account_id"`
	ReceiverAccountID string    `json:"receiver_account_id"`
	CreatedAt         time.Time `json:"created_at"`
}

func toTransactionResponse(tx ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:                tx.ID,
		Amount:            tx.Amount,
		SenderAccountID:   tx.SenderID,
		ReceiverAccountID: tx.ReceiverID,
		CreatedAt:         tx.CreatedAt,
	}
}

// Transfer executes a P2P transfer on behalf of the authenticated user.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(identity.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.svc.Transfer(c.UserContext(), user, Input{
		ReceiverNumber: req.ReceiverAccountNumber,
		ReceiverBank:   req.ReceiverBankName,
		SenderNumber:   req.SenderAccountNumber,
		Amount:         req.Amount,
		PIN:            req.PIN,
	})
	if err != nil {
		return mapTransferError(err)
	}

	return c.Status(http.StatusCreated).JSON(toTransactionResponse(tx))
}

// History lists the authenticated user's transactions, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(identity.User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}

	txs, err := h.svc.History(c.UserContext(), user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(out)
}

func mapTransferError(err error) error {
	var insufficient ledger.InsufficientFundsError
	switch {
	case errors.Is(err, ErrInvalidPIN):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrReceiverNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrPINNotSet),
		errors.Is(err, ErrNoAccount),
		errors.Is(err, ErrSelfTransfer),
		errors.As(err, &insufficient):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
