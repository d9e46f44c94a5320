package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-social/common"
	"github.com/krishkalaria12/snap-social/logging"
	"github.com/krishkalaria12/snap-social/media"
	"github.com/krishkalaria12/snap-social/services"
)

type PostHandler struct {
	posts    *services.PostService
	uploader Uploader
	log      logging.Logger
}

func NewPostHandler(posts *services.PostService, uploader Uploader, log logging.Logger) *PostHandler {
	return &PostHandler{posts: posts, uploader: uploader, log: log}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, msgNotLoggedIn)
	}

	in := services.NewPost{Origin: origin(c)}
	if v := formValue(c, "content"); v != nil {
		in.Content = *v
	}

	if fh := uploadedFile(c, "image"); fh != nil {
		name, err := h.uploader.StoreFile(c.UserContext(), fh)
		if err != nil {
			if errors.Is(err, media.ErrUnsupportedImage) {
				return errorJSON(c, fiber.StatusBadRequest, msgInvalidImage)
			}
			h.log.Error(c.UserContext(), "failed to store upload", "error", err)
			return errorJSON(c, fiber.StatusInternalServerError, msgStorageFailure)
		}
		in.Image = name
	}

	post, err := h.posts.Create(c.UserContext(), me, in)
	if err != nil {
		if errors.Is(err, common.ErrValidation) {
			return errorJSON(c, fiber.StatusBadRequest, "Publication vide")
		}
		h.log.Error(c.UserContext(), "failed to create post", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, msgInternal)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return errorJSON(c, fiber.StatusUnauthorized, msgNotLoggedIn)
	}
	id, ok := pathID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidID)
	}

	err = h.posts.Delete(c.UserContext(), me, id)
	switch {
	case err == nil:
		return messageJSON(c, fiber.StatusOK, "Publication supprimée")
	case errors.Is(err, common.ErrForbidden):
		return errorJSON(c, fiber.StatusForbidden, msgForbidden)
	case errors.Is(err, common.ErrNotFound):
		return errorJSON(c, fiber.StatusNotFound, msgPostNotFound)
	default:
		h.log.Error(c.UserContext(), "failed to delete post", "post_id", id, "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, msgInternal)
	}
}
