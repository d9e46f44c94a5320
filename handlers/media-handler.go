package handler

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snap-social/logging"
	"github.com/krishkalaria12/snap-social/media"
)

// MediaHandler serves stored images whatever the backend.
type MediaHandler struct {
	store media.Store
	log   logging.Logger
}

func NewMediaHandler(store media.Store, log logging.Logger) *MediaHandler {
	return &MediaHandler{store: store, log: log}
}

func (h *MediaHandler) ServeImage(c *fiber.Ctx) error {
	name := c.Params("filename")

	rc, err := h.store.Open(c.UserContext(), name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, media.ErrInvalidName) {
			return c.SendStatus(fiber.StatusNotFound)
		}
		h.log.Error(c.UserContext(), "failed to open image", "file", name, "error", err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}

	c.Type(filepath.Ext(name))
	return c.SendStream(rc)
}
