package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/dtv/mobank/internal/token"
)

// Handler exposes registration, login, profile and PIN-setup endpoints.
type Handler struct {
	svc    *Service
	tokens *token.Service
}

// NewHandler builds the identity handler.
func NewHandler(svc *Service, tokens *token.Service) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// userResponse is the outward shape of a user. It never carries hashes.
type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	HasPIN   bool   `json:"has_pin"`
}

func toUserResponse(user User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		Email:    user.Email,
		Role:     user.Role,
		HasPIN:   user.HasPIN(),
	}
}

// Register creates a new user and their default account.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if req.Username == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "username and password are required")
	}

	user, err := h.svc.Register(c.UserContext(), Registration{
		Username: req.Username,
		Password: req.Password,
		FullName: req.FullName,
		Email:    req.Email,
	})
	if errors.Is(err, ErrUsernameTaken) {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	return c.Status(http.StatusCreated).JSON(toUserResponse(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates credentials and returns a session token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Authenticate(c.UserContext(), req.Username, req.Password)
	if errors.Is(err, ErrBadCredentials) {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}

	tok, err := h.tokens.Issue(user.Username)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"token": tok})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}
	return c.Status(http.StatusOK).JSON(toUserResponse(user))
}

// RequestPinOTP issues a one-time code and emails it to the user.
func (h *Handler) RequestPinOTP(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}
	if err := h.svc.RequestPinOTP(c.UserContext(), user); err != nil {
		return fiber.NewError(http.StatusInternalServerError, "could not deliver OTP")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "OTP sent to your email"})
}

type setPinRequest struct {
	Password string `json:"password"`
	OTP      string `json:"otp"`
	NewPIN   string `json:"new_pin"`
}

// SetPin stores a new transaction PIN after password and OTP checks.
func (h *Handler) SetPin(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(User)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "not authenticated")
	}

	var req setPinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	err := h.svc.SetPIN(c.UserContext(), user, req.Password, req.OTP, req.NewPIN)
	switch {
	case errors.Is(err, ErrBadCredentials):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrBadOTP), errors.Is(err, ErrWeakPIN):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case err != nil:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "PIN updated"})
}
