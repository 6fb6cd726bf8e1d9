package api

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *fiber.App, h *Handler) {
	app.Use(MetricsMiddleware())

	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	api.Post("/users/sync", h.SyncUser)

	projects := api.Group("/projects")
	projects.Get("/", h.ListProjects)
	projects.Post("/", h.CreateProject)
	projects.Get("/:id", h.GetProject)
	projects.Delete("/:id", h.DeleteProject)

	projects.Post("/:id/sync", h.SyncProject)
	projects.Get("/:id/commits", h.ListCommits)
	projects.Post("/:id/index", h.BuildIndex)

	projects.Post("/:id/questions", h.AskQuestion)
	projects.Get("/:id/questions", h.ListQuestions)

	projects.Post("/:id/meetings", h.CreateMeeting)
	projects.Post("/:id/meetings/upload", h.UploadMeeting)
	projects.Get("/:id/meetings", h.ListMeetings)
	projects.Get("/:id/meetings/:meetingId", h.GetMeeting)
}
