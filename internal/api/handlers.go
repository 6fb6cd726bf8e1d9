package api

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/pkorolev/reposage/internal/db"
	"github.com/pkorolev/reposage/internal/indexer"
	"github.com/pkorolev/reposage/internal/jobs"
	"github.com/pkorolev/reposage/internal/meetings"
	"github.com/pkorolev/reposage/internal/models"
	"github.com/pkorolev/reposage/internal/qa"
	"github.com/pkorolev/reposage/internal/storage"
	"github.com/pkorolev/reposage/internal/syncer"
)

type Handler struct {
	dbClient *db.Client
	users    *db.UserStore
	syncer   *syncer.Engine
	qa       *qa.Orchestrator
	meetings *meetings.Processor
	pipeline *indexer.Pipeline
	uploader storage.Uploader
	log      *slog.Logger
}

func NewHandler(dbClient *db.Client, users *db.UserStore, sync *syncer.Engine, orchestrator *qa.Orchestrator, processor *meetings.Processor, pipeline *indexer.Pipeline, uploader storage.Uploader, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		dbClient: dbClient,
		users:    users,
		syncer:   sync,
		qa:       orchestrator,
		meetings: processor,
		pipeline: pipeline,
		uploader: uploader,
		log:      log,
	}
}

func (h *Handler) Close() {
	h.pipeline.Close()
}

func (h *Handler) Health(c fiber.Ctx) error {
	if err := h.dbClient.Ping(c.Context()); err != nil {
		return c.Status(503).JSON(fiber.Map{"status": "degraded", "error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "ok", "service": "reposage-backend"})
}

// CreateProject registers a project and, when a repository URL is given,
// kicks off the initial commit sync and index build in the background.
func (h *Handler) CreateProject(c fiber.Ctx) error {
	var input models.CreateProjectInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if input.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	project := &models.Project{
		Name:       input.Name,
		RepoURL:    input.RepoURL,
		Credential: input.Credential,
	}
	created, err := db.CreateProject(c.Context(), h.dbClient, project)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}

	if created.RepoURL != "" {
		go h.syncProject(created)
		go h.buildIndex(created)
	}

	return c.Status(201).JSON(created)
}

func (h *Handler) ListProjects(c fiber.Ctx) error {
	projects, err := db.ListProjects(c.Context(), h.dbClient)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	return c.JSON(projects)
}

func (h *Handler) GetProject(c fiber.Ctx) error {
	project, err := db.GetProject(c.Context(), h.dbClient, c.Params("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(project)
}

func (h *Handler) DeleteProject(c fiber.Ctx) error {
	if err := db.DeleteProject(c.Context(), h.dbClient, c.Params("id")); err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(204)
}

// SyncProject re-syncs commit history on demand.
func (h *Handler) SyncProject(c fiber.Ctx) error {
	project, err := db.GetProject(c.Context(), h.dbClient, c.Params("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if project.RepoURL == "" {
		return c.Status(400).JSON(fiber.Map{"error": "project has no repository URL"})
	}

	go h.syncProject(project)

	return c.JSON(fiber.Map{"status": "sync started"})
}

// syncProject runs a sync job to a terminal state. Sync jobs start
// directly in PROCESSING.
func (h *Handler) syncProject(project *models.Project) {
	ctx := context.Background()

	h.setSyncStatus(ctx, project.ID, jobs.StatusProcessing)

	if _, err := h.syncer.Sync(ctx, project.ID, project.RepoURL, project.Credential); err != nil {
		h.log.Error("commit sync failed", "project", project.ID, "error", err)
		h.setSyncStatus(ctx, project.ID, jobs.StatusFailed)
		return
	}
	h.setSyncStatus(ctx, project.ID, jobs.StatusCompleted)
}

func (h *Handler) setSyncStatus(ctx context.Context, projectID string, status jobs.Status) {
	if err := db.SetSyncStatus(ctx, h.dbClient, projectID, status); err != nil {
		h.log.Warn("sync status not updated", "project", projectID, "status", status, "error", err)
	}
}

func (h *Handler) buildIndex(project *models.Project) {
	ctx := context.Background()
	if _, err := h.pipeline.Build(ctx, project.ID, project.RepoURL, ""); err != nil {
		h.log.Error("index build failed", "project", project.ID, "error", err)
	}
}

// BuildIndex rebuilds the retrieval index for a project on demand.
func (h *Handler) BuildIndex(c fiber.Ctx) error {
	project, err := db.GetProject(c.Context(), h.dbClient, c.Params("id"))
	if errors.Is(err, db.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "project not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if project.RepoURL == "" {
		return c.Status(400).JSON(fiber.Map{"error": "project has no repository URL"})
	}

	go h.buildIndex(project)

	return c.JSON(fiber.Map{"status": "index build started"})
}

func (h *Handler) ListCommits(c fiber.Ctx) error {
	commits, err := h.syncer.ListCommits(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if commits == nil {
		commits = []models.Commit{}
	}
	return c.JSON(commits)
}

type askRequest struct {
	Question string `json:"question"`
	UserID   string `json:"userId"`
}

// AskQuestion answers a question grounded in the project's indexed
// files. Generation failures surface as errors; a low-confidence answer
// is worse than an explicit failure.
func (h *Handler) AskQuestion(c fiber.Ctx) error {
	var req askRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Question == "" {
		return c.Status(400).JSON(fiber.Map{"error": "question is required"})
	}

	question, err := h.qa.Answer(c.Context(), c.Params("id"), req.Question, req.UserID)
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(201).JSON(question)
}

func (h *Handler) ListQuestions(c fiber.Ctx) error {
	questions, err := h.qa.List(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if questions == nil {
		questions = []models.Question{}
	}
	return c.JSON(questions)
}

// CreateMeeting records an uploaded meeting and starts transcription in
// the background. The caller polls the meeting's status.
func (h *Handler) CreateMeeting(c fiber.Ctx) error {
	var input models.CreateMeetingInput
	if err := c.Bind().Body(&input); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	meeting, err := h.meetings.Create(c.Context(), c.Params("id"), input)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	go func() {
		if err := h.meetings.Process(context.Background(), meeting.ID, meeting.AudioURL); err != nil {
			h.log.Error("meeting processing failed", "meeting", meeting.ID, "error", err)
		}
	}()

	return c.Status(201).JSON(meeting)
}

// UploadMeeting accepts raw audio in the request body, stores it
// durably, then records the meeting and starts processing. The meeting
// name comes from the "name" query parameter.
func (h *Handler) UploadMeeting(c fiber.Ctx) error {
	name := c.Query("name")
	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "query parameter 'name' is required"})
	}

	body := c.Body()
	if len(body) == 0 {
		return c.Status(400).JSON(fiber.Map{"error": "request body is empty"})
	}

	objectName := uuid.New().String()
	audioURL, err := h.uploader.Upload(c.Context(), objectName, bytes.NewReader(body), int64(len(body)),
		func(sent, total int64) {
			h.log.Debug("upload progress", "object", objectName, "sent", sent, "total", total)
		})
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": "upload failed: " + err.Error()})
	}

	meeting, err := h.meetings.Create(c.Context(), c.Params("id"), models.CreateMeetingInput{
		Name:     name,
		AudioURL: audioURL,
	})
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	go func() {
		if err := h.meetings.Process(context.Background(), meeting.ID, meeting.AudioURL); err != nil {
			h.log.Error("meeting processing failed", "meeting", meeting.ID, "error", err)
		}
	}()

	return c.Status(201).JSON(meeting)
}

func (h *Handler) GetMeeting(c fiber.Ctx) error {
	meeting, err := h.meetings.Get(c.Context(), c.Params("meetingId"))
	if errors.Is(err, db.ErrNotFound) {
		return c.Status(404).JSON(fiber.Map{"error": "meeting not found"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(meeting)
}

func (h *Handler) ListMeetings(c fiber.Ctx) error {
	list, err := h.meetings.ListByProject(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if list == nil {
		list = []models.Meeting{}
	}
	return c.JSON(list)
}

// SyncUser mirrors the identity provider's payload into the local user
// record, keyed on email.
func (h *Handler) SyncUser(c fiber.Ctx) error {
	var identity models.IdentityPayload
	if err := c.Bind().Body(&identity); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}
	if identity.Email == "" {
		return c.Status(400).JSON(fiber.Map{"error": "email is required"})
	}

	user, err := h.users.Upsert(c.Context(), identity)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(user)
}
