package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-social/auth"
	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/logging"
	"github.com/krishkalaria12/snap-social/middleware"
	"github.com/krishkalaria12/snap-social/services"
)

type AuthHandler struct {
	accounts *services.AccountService
	tokens   *auth.Service
	log      logging.Logger
}

func NewAuthHandler(accounts *services.AccountService, tokens *auth.Service, log logging.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, log: log}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	type SignupData struct {
		Email     string `json:"email" form:"email"`
		Password  string `json:"password" form:"password"`
		Nickname  string `json:"nickname" form:"nickname"`
		Firstname string `json:"firstname" form:"firstname"`
		Lastname  string `json:"lastname" form:"lastname"`
	}

	input := new(SignupData)
	if err := c.BodyParser(input); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgBadRequest)
	}

	user, err := h.accounts.Register(c.UserContext(), services.RegisterInput{
		Email:     input.Email,
		Password:  input.Password,
		Nickname:  input.Nickname,
		Firstname: input.Firstname,
		Lastname:  input.Lastname,
	}, origin(c))
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return errorJSON(c, fiber.StatusBadRequest, validationMessage(err, msgBadRequest))
		}
		h.log.Error(c.UserContext(), "signup failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, msgInternal)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Utilisateur créé !",
		"userId":  user.ID,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	type LoginData struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}

	input := new(LoginData)
	if err := c.BodyParser(input); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgBadRequest)
	}

	user, err := h.accounts.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return errorJSON(c, fiber.StatusUnauthorized, msgUnauthorized)
		}
		h.log.Error(c.UserContext(), "login failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, msgInternal)
	}

	tokenStr, err := h.tokens.Issue(c.UserContext(), user)
	if err != nil {
		h.log.Error(c.UserContext(), "failed to generate token", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, msgInternal)
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    tokenStr,
		Expires:  time.Now().Add(h.tokens.CookieDuration()),
		HTTPOnly: true,
		Secure:   c.Protocol() == "https",
		SameSite: "Lax",
	})

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Connexion réussie",
		"userId":  strconv.FormatUint(uint64(user.ID), 10),
		"isAdmin": user.IsAdmin,
		"token":   tokenStr,
	})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if id, err := middleware.CurrentUserID(c); err == nil {
		if err := h.tokens.End(c.UserContext(), id); err != nil {
			h.log.Error(c.UserContext(), "failed to end session", "user_id", id, "error", err)
		}
	}

	clearSessionCookie(c)

	return messageJSON(c, fiber.StatusOK, "Déconnexion réussie")
}
