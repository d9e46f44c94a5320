package handler

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-social/auth"
	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/logging"
	"github.com/krishkalaria12/snap-social/media"
	"github.com/krishkalaria12/snap-social/repository"
	"github.com/krishkalaria12/snap-social/services"
)

// Uploader stores an uploaded picture and returns its generated filename.
type Uploader interface {
	StoreFile(ctx context.Context, fh *multipart.FileHeader) (string, error)
}

type ProfileHandler struct {
	accounts *services.AccountService
	uploader Uploader
	log      logging.Logger
}

func NewProfileHandler(accounts *services.AccountService, uploader Uploader, log logging.Logger) *ProfileHandler {
	return &ProfileHandler{accounts: accounts, uploader: uploader, log: log}
}

func (h *ProfileHandler) GetUser(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, msgNotLoggedIn)
	}

	user, err := h.accounts.GetSelf(c.UserContext(), me.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgUserNotFound)
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

func (h *ProfileHandler) GetUserByID(c *fiber.Ctx) error {
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidID)
	}

	user, err := h.accounts.GetOther(c.UserContext(), id)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgUserNotFound)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": user, "otherUser": true})
}

func (h *ProfileHandler) GetUserLikes(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, msgNotLoggedIn)
	}

	likes, err := h.accounts.GetLikesOfSelf(c.UserContext(), me.UserID)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgInternal)
	}

	return c.Status(fiber.StatusCreated).JSON(likes)
}

func (h *ProfileHandler) ModifyPassword(c *fiber.Ctx) error {
	type PasswordInput struct {
		Password string `json:"password" form:"password"`
	}

	me, err := caller(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, msgNotLoggedIn)
	}
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidID)
	}

	var input PasswordInput
	if err := c.BodyParser(&input); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgBadRequest)
	}

	if err := h.accounts.ChangePassword(c.UserContext(), me, id, input.Password); err != nil {
		return mutationError(c, err, "Impossible de modifier le mot de passe")
	}

	return messageJSON(c, fiber.StatusOK, "Mots de passe modifié !")
}

type profileInput struct {
	Nickname   *string `json:"nickname"`
	Firstname  *string `json:"firstname"`
	Lastname   *string `json:"lastname"`
	Email      *string `json:"email"`
	PictureURL *string `json:"pictureUrl"`
}

func (p profileInput) fields() repository.UserFields {
	return repository.UserFields{
		Nickname:   p.Nickname,
		Firstname:  p.Firstname,
		Lastname:   p.Lastname,
		Email:      p.Email,
		PictureURL: p.PictureURL,
	}
}

func readProfileInput(c *fiber.Ctx) (profileInput, error) {
	var in profileInput
	if isJSON(c) {
		err := c.BodyParser(&in)
		return in, err
	}
	in.Nickname = formValue(c, "nickname")
	in.Firstname = formValue(c, "firstname")
	in.Lastname = formValue(c, "lastname")
	in.Email = formValue(c, "email")
	in.PictureURL = formValue(c, "pictureUrl")
	return in, nil
}

// ModifyUserInformation updates the caller's profile; an uploaded "image"
// file replaces the current picture.
func (h *ProfileHandler) ModifyUserInformation(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, msgNotLoggedIn)
	}
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidID)
	}

	input, err := readProfileInput(c)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, msgBadRequest)
	}

	upd := services.ProfileUpdate{Fields: input.fields(), Origin: origin(c)}

	if fh := uploadedFile(c, "image"); fh != nil {
		name, err := h.uploader.StoreFile(c.UserContext(), fh)
		if err != nil {
			if errors.Is(err, media.ErrUnsupportedImage) {
				return errorJSON(c, fiber.StatusBadRequest, msgInvalidImage)
			}
			h.log.Error(c.UserContext(), "failed to store upload", "error", err)
			return errorJSON(c, fiber.StatusInternalServerError, msgStorageFailure)
		}
		upd.NewPicture = name
	}

	if err := h.accounts.UpdateProfile(c.UserContext(), me.UserID, id, upd); err != nil {
		return mutationError(c, err, "Impossible de modifier le profil")
	}

	return messageJSON(c, fiber.StatusOK, "Profil modifié !")
}

func (h *ProfileHandler) DeleteImageUser(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, msgNotLoggedIn)
	}
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidID)
	}

	if err := h.accounts.RemoveProfileImage(c.UserContext(), me, id, origin(c)); err != nil {
		return mutationError(c, err, "Impossible de supprimer l'image")
	}

	return messageJSON(c, fiber.StatusOK, "Image supprimé")
}

func (h *ProfileHandler) DeleteUser(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, msgNotLoggedIn)
	}
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidID)
	}

	report, err := h.accounts.DeleteAccount(c.UserContext(), me, id)
	if report.UserDeleted {
		clearSessionCookie(c)
	}

	switch {
	case err == nil:
		return messageJSON(c, fiber.StatusCreated, "Utilisateur Supprimé")
	case errors.Is(err, common.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, msgForbidden)
	case errors.Is(err, common.ErrLookup):
		return errorJSON(c, fiber.StatusBadGateway, msgUserNotFound)
	case errors.Is(err, common.ErrBadGateway):
		h.log.Warn(c.UserContext(), "post enumeration failed during account deletion",
			"user_id", id, "user_deleted", report.UserDeleted, "error", err)
		return errorJSON(c, fiber.StatusBadGateway, "Impossible de récupérer les publications")
	default:
		h.log.Error(c.UserContext(), "account deletion failed", "user_id", id, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Impossible de supprimer l'utilisateur")
	}
}

func clearSessionCookie(c *fiber.Ctx) {
	c.ClearCookie(auth.CookieName)
}
