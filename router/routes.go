package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	handler "github.com/krishkalaria12/snap-social/handlers"
	"github.com/krishkalaria12/snap-social/media"
	"github.com/krishkalaria12/snap-social/middleware"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Profile *handler.ProfileHandler
	Posts   *handler.PostHandler
	Media   *handler.MediaHandler
}

func SetupRoutes(app *fiber.App, h Handlers, authn middleware.Authenticator) {
	requireAuth := middleware.AuthMiddleware(authn)

	api := app.Group("/api", logger.New())

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", h.Auth.Signup)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", requireAuth, h.Auth.Logout)

	// Profile
	profile := api.Group("/profile", requireAuth)
	profile.Get("/user", h.Profile.GetUser)
	profile.Get("/likes", h.Profile.GetUserLikes)
	profile.Get("/user/:id", h.Profile.GetUserByID)
	profile.Put("/user/:id", h.Profile.ModifyUserInformation)
	profile.Put("/user/:id/password", h.Profile.ModifyPassword)
	profile.Delete("/user/:id/image", h.Profile.DeleteImageUser)
	profile.Delete("/user/:id", h.Profile.DeleteUser)

	// Posts
	posts := api.Group("/posts", requireAuth)
	posts.Post("/", h.Posts.CreatePost)
	posts.Delete("/:id", h.Posts.DeletePost)

	// Images
	app.Get(media.PublicPrefix+"/images/:filename", h.Media.ServeImage)
}

// ServeDefault exposes the directory holding the default picture.
func ServeDefault(app *fiber.App, dir string) {
	app.Static(media.PublicPrefix, dir)
}
