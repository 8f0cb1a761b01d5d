package content

import (
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"log/slog"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/tester22000/simpleshare/internal/models"
	contentService "github.com/tester22000/simpleshare/internal/service/content"
	"github.com/tester22000/simpleshare/internal/view"
	"golang.org/x/net/idna"
)

type Controller interface {
	Index(ctx *fiber.Ctx) error
	UploadForm(ctx *fiber.Ctx) error
	NewForm(ctx *fiber.Ctx) error

	List(ctx *fiber.Ctx) error
	Types(ctx *fiber.Ctx) error

	Upload(ctx *fiber.Ctx) error
	CreateText(ctx *fiber.Ctx) error

	View(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error

	Delete(ctx *fiber.Ctx) error
}

type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// Recorder is notified about successful operations.
type Recorder interface {
	Created(contentType string)
	Deleted()
	Downloaded()
}

type concreteController struct {
	contentService contentService.Service
	renderer       Renderer
	recorder       Recorder
}

func New(contentService contentService.Service, renderer Renderer, recorder Recorder) Controller {
	return &concreteController{contentService, renderer, recorder}
}

type listItem struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Preview  string `json:"preview"`
	Modified int64  `json:"modified"`
}

type createTextRequest struct {
	Contents string `json:"contents"`
}

type createdResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Link    string `json:"link"`
}

func (c *concreteController) Index(ctx *fiber.Ctx) error {
	page := max(ctx.QueryInt("page", 0), 0)
	search := ctx.Query("q")
	contentType := ctx.Query("type")

	types, err := c.contentService.Types(ctx.UserContext())
	if err != nil {
		return internalError(ctx, err)
	}

	contents, err := c.contentService.ListPage(ctx.UserContext(), page, search, contentType)
	if err != nil {
		return internalError(ctx, err)
	}

	total, err := c.contentService.Count(ctx.UserContext(), search, contentType)
	if err != nil {
		return internalError(ctx, err)
	}

	next := page
	if int64((page+1)*c.contentService.PageSize()) < total {
		next = page + 1
	}

	return c.render(ctx, "index", view.IndexPage{
		Types:    types,
		Contents: contents,
		Search:   search,
		Type:     contentType,
		Page:     page,
		NextPage: next,
		Total:    total,
	})
}

func (c *concreteController) UploadForm(ctx *fiber.Ctx) error {
	return c.render(ctx, "upload", c.formPage())
}

func (c *concreteController) NewForm(ctx *fiber.Ctx) error {
	return c.render(ctx, "new", c.formPage())
}

func (c *concreteController) formPage() view.FormPage {
	return view.FormPage{Limit: humanize.IBytes(uint64(c.contentService.Limit()))}
}

func (c *concreteController) List(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 0)
	search := ctx.Query("q")
	contentType := ctx.Query("type")

	contents, err := c.contentService.ListPage(ctx.UserContext(), page, search, contentType)
	if err != nil {
		return internalError(ctx, err)
	}

	total, err := c.contentService.Count(ctx.UserContext(), search, contentType)
	if err != nil {
		return internalError(ctx, err)
	}

	ctx.Set("X-Total-Count", strconv.FormatInt(total, 10))

	return ctx.JSON(escapeList(contents))
}

func escapeList(contents []models.ShareContent) []listItem {
	items := make([]listItem, 0, len(contents))

	for _, content := range contents {
		items = append(items, listItem{
			ID:       content.ID,
			Type:     content.Type,
			Preview:  html.EscapeString(content.Preview),
			Modified: content.Modified,
		})
	}

	return items
}

func (c *concreteController) Types(ctx *fiber.Ctx) error {
	types, err := c.contentService.Types(ctx.UserContext())
	if err != nil {
		return internalError(ctx, err)
	}

	return ctx.JSON(types)
}

func (c *concreteController) Upload(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile("file")
	if err != nil || header.Filename == "" {
		return errorJSON(ctx, fiber.StatusBadRequest, "no file selected")
	}

	file, err := header.Open()
	if err != nil {
		return internalError(ctx, err)
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return internalError(ctx, err)
	}

	content, err := c.contentService.CreateFromUpload(
		ctx.UserContext(),
		header.Filename,
		header.Header.Get(fiber.HeaderContentType),
		contents,
	)
	if err != nil {
		return createError(ctx, err)
	}

	return c.created(ctx, content, "file uploaded")
}

func (c *concreteController) CreateText(ctx *fiber.Ctx) error {
	var request createTextRequest

	if err := ctx.BodyParser(&request); err != nil {
		return errorJSON(ctx, fiber.StatusBadRequest, "invalid request body")
	}

	content, err := c.contentService.CreateFromText(ctx.UserContext(), request.Contents)
	if err != nil {
		return createError(ctx, err)
	}

	return c.created(ctx, content, "content created")
}

func (c *concreteController) created(ctx *fiber.Ctx, content models.ShareContent, message string) error {
	c.recorder.Created(content.Type)

	return ctx.JSON(createdResponse{
		Message: message,
		ID:      content.ID,
		Link:    shareLink(ctx, content.ID),
	})
}

func shareLink(ctx *fiber.Ctx, id string) string {
	scheme := "http"
	if ctx.Protocol() == "https" {
		scheme = "https"
	}

	url := fmt.Sprintf("%v://%v/content/%v", scheme, ctx.Hostname(), id)

	unicodeURL, err := idna.ToUnicode(url)
	if err != nil {
		slog.Error("shouldn't happen", "err", err)
		return url
	}

	return unicodeURL
}

func (c *concreteController) View(ctx *fiber.Ctx) error {
	id, ok := pathID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusNotFound).SendString("Content not found")
	}

	display, err := c.contentService.FetchForDisplay(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, contentService.ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).SendString("Content not found")
		}

		return internalError(ctx, err)
	}

	return c.render(ctx, "content", view.ContentPage{
		ID:       display.ID,
		Type:     display.Type,
		Preview:  display.Preview,
		Contents: template.HTML(display.Contents),
		Binary:   display.Binary,
		Modified: display.Modified,
	})
}

func (c *concreteController) Download(ctx *fiber.Ctx) error {
	id, ok := pathID(ctx)
	if !ok {
		return ctx.Status(fiber.StatusNotFound).SendString("File not found")
	}

	download, err := c.contentService.FetchForDownload(ctx.UserContext(), id)
	if err != nil {
		if errors.Is(err, contentService.ErrNotFound) {
			return ctx.Status(fiber.StatusNotFound).SendString("File not found")
		}

		return internalError(ctx, err)
	}

	c.recorder.Downloaded()

	// Attachment guesses a Content-Type from the extension, so set ours after it.
	ctx.Attachment(download.Filename)
	ctx.Set(fiber.HeaderContentType, download.MimeType)

	return ctx.Send(download.Contents)
}

func (c *concreteController) Delete(ctx *fiber.Ctx) error {
	id, ok := pathID(ctx)
	if !ok {
		return ctx.SendStatus(fiber.StatusNotFound)
	}

	if err := c.contentService.Remove(ctx.UserContext(), id); err != nil {
		return internalError(ctx, err)
	}

	c.recorder.Deleted()

	return ctx.JSON(fiber.Map{"message": "content deleted"})
}

func (c *concreteController) render(ctx *fiber.Ctx, name string, data any) error {
	ctx.Type("html", "utf-8")

	if err := c.renderer.Render(ctx, name, data); err != nil {
		return internalError(ctx, err)
	}

	return nil
}

func pathID(ctx *fiber.Ctx) (string, bool) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return "", false
	}

	return id.String(), true
}

func createError(ctx *fiber.Ctx, err error) error {
	if errors.Is(err, contentService.ErrInvalidRequest) {
		return errorJSON(ctx, fiber.StatusBadRequest, err.Error())
	}

	if errors.Is(err, contentService.ErrTooBig) {
		return errorJSON(ctx, fiber.StatusRequestEntityTooLarge, err.Error())
	}

	return internalError(ctx, err)
}

func internalError(ctx *fiber.Ctx, err error) error {
	slog.Error("internal error", "err", err, "path", ctx.Path())
	return errorJSON(ctx, fiber.StatusInternalServerError, err.Error())
}

func errorJSON(ctx *fiber.Ctx, status int, message string) error {
	return ctx.Status(status).JSON(fiber.Map{"error": message})
}
