package handler

import (
	"errors"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/middleware"
	"github.com/krishkalaria12/snap-social/services"
)

const (
	msgUserNotFound   = "Utilisateur introuvable"
	msgBadRequest     = "Requête invalide"
	msgForbidden      = "Action non autorisée"
	msgInvalidImage   = "Image invalide"
	msgInternal       = "Erreur interne"
	msgInvalidID      = "Identifiant invalide"
	msgUnauthorized   = "Identifiants incorrects"
	msgNotLoggedIn    = "Requête non authentifiée !"
	msgPostNotFound   = "Publication introuvable"
	msgStorageFailure = "Impossible d'enregistrer l'image"
	msgEmailTaken     = "Adresse email déjà utilisée"
)

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func messageJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

// mutationError maps errors of update/delete operations on a user: the
// target cannot be loaded -> 500, the change itself fails -> 400.
func mutationError(c *fiber.Ctx, err error, failedMsg string) error {
	switch {
	case errors.Is(err, common.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, msgForbidden)
	case errors.Is(err, common.ErrLookup):
		return errorJSON(c, fiber.StatusInternalServerError, msgUserNotFound)
	case errors.Is(err, common.ErrValidation):
		return errorJSON(c, fiber.StatusBadRequest, validationMessage(err, failedMsg))
	default:
		return errorJSON(c, fiber.StatusBadRequest, failedMsg)
	}
}

func validationMessage(err error, fallback string) string {
	if errors.Is(err, common.ErrDuplicate) {
		return msgEmailTaken
	}
	return fallback
}

func caller(c *fiber.Ctx) (services.Caller, error) {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		return services.Caller{}, err
	}
	return services.Caller{UserID: identity.UserID, IsAdmin: identity.IsAdmin}, nil
}

func origin(c *fiber.Ctx) services.Origin {
	return services.Origin{Protocol: c.Protocol(), Host: c.Hostname()}
}

func pathID(c *fiber.Ctx) (uint, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func isJSON(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
}

// formValue returns a form field, or nil when the request does not carry it.
func formValue(c *fiber.Ctx, key string) *string {
	if form, err := c.MultipartForm(); err == nil {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	args := c.Request().PostArgs()
	if args.Has(key) {
		v := string(args.Peek(key))
		return &v
	}
	return nil
}

// uploadedFile returns the multipart file under key, or nil.
func uploadedFile(c *fiber.Ctx, key string) *multipart.FileHeader {
	fh, err := c.FormFile(key)
	if err != nil {
		return nil
	}
	return fh
}
