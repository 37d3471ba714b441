package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/hwmarket/backend/internal/http/dto"
	"github.com/hwmarket/backend/internal/middleware"
	"github.com/hwmarket/backend/internal/services"
	"go.uber.org/zap"
)

type AuthHandler struct {
	accounts *services.AccountService
	log      *zap.Logger
}

func NewAuthHandler(accounts *services.AccountService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, log: log}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	profile, err := h.accounts.Register(c.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		return respondErr(c, err)
	}

	token, _, err := h.accounts.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Error("login after register failed", zap.Error(err))
		return respondErr(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{Token: token, User: profile})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	token, profile, err := h.accounts.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid credentials"})
	}

	return c.JSON(dto.AuthResponse{Token: token, User: profile})
}

func (h *AuthHandler) GetMe(c *fiber.Ctx) error {
	profile, err := h.accounts.GetProfile(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: profile})
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	profile, err := h.accounts.UpdateProfile(c.Context(), middleware.GetUserID(c), services.UpdateProfileInput{
		Username:  req.Username,
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: profile})
}
