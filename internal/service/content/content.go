package content

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/tester22000/simpleshare/internal/models"
	"github.com/tester22000/simpleshare/internal/repository/content"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrTooBig         = errors.New("too big")
	ErrInvalidRequest = errors.New("invalid request")
	ErrStorage        = errors.New("storage failure")
)

const (
	TextType   = "text"
	BinaryType = "binary"

	DefaultLimit    = 5 * 1024 * 1024
	DefaultPageSize = 10

	previewLength   = 100
	previewEllipsis = "..."
	fallbackName    = "file"
)

type Service interface {
	CreateFromUpload(ctx context.Context, filename, mimeType string, contents []byte) (models.ShareContent, error)
	CreateFromText(ctx context.Context, text string) (models.ShareContent, error)

	ListPage(ctx context.Context, page int, search, contentType string) ([]models.ShareContent, error)
	Count(ctx context.Context, search, contentType string) (int64, error)
	Types(ctx context.Context) ([]string, error)

	FetchForDisplay(ctx context.Context, id string) (Display, error)
	FetchForDownload(ctx context.Context, id string) (Download, error)

	Remove(ctx context.Context, id string) error

	Limit() uint
	PageSize() int
}

// Display is a record prepared for HTML output. Contents is already escaped.
type Display struct {
	ID       string
	Type     string
	Preview  string
	Contents string
	Binary   bool
	Modified int64
}

type Download struct {
	Filename string
	MimeType string
	Contents []byte
}

type Options struct {
	Limit    uint
	PageSize int

	// Now defaults to time.Now.
	Now func() time.Time
}

type concreteService struct {
	contentRepository content.Repository

	options Options
}

func New(contentRepository content.Repository, options Options) Service {
	if options.Limit == 0 {
		options.Limit = DefaultLimit
	}

	if options.PageSize <= 0 {
		options.PageSize = DefaultPageSize
	}

	if options.Now == nil {
		options.Now = time.Now
	}

	return &concreteService{contentRepository, options}
}

func (c *concreteService) Limit() uint {
	return c.options.Limit
}

func (c *concreteService) PageSize() int {
	return c.options.PageSize
}

func (c *concreteService) CreateFromUpload(ctx context.Context, filename, mimeType string, contents []byte) (models.ShareContent, error) {
	if filename == "" {
		return models.ShareContent{}, fmt.Errorf("%w: no file selected", ErrInvalidRequest)
	}

	if err := c.checkSize(len(contents)); err != nil {
		return models.ShareContent{}, err
	}

	// nil would be stored as NULL
	if contents == nil {
		contents = []byte{}
	}

	preview := SanitizeFilename(filename)
	if preview == "" {
		preview = fallbackName
	}

	return c.create(ctx, models.ShareContent{
		Type:     SubtypeOf(mimeType),
		Preview:  preview,
		Contents: contents,
	})
}

func (c *concreteService) CreateFromText(ctx context.Context, text string) (models.ShareContent, error) {
	if strings.TrimSpace(text) == "" {
		return models.ShareContent{}, fmt.Errorf("%w: contents are empty", ErrInvalidRequest)
	}

	if err := c.checkSize(len(text)); err != nil {
		return models.ShareContent{}, err
	}

	return c.create(ctx, models.ShareContent{
		Type:     TextType,
		Preview:  TextPreview(text),
		Contents: []byte(text),
	})
}

func (c *concreteService) checkSize(size int) error {
	if uint64(size) > uint64(c.options.Limit) {
		return fmt.Errorf("%w: contents exceed %s", ErrTooBig, humanize.IBytes(uint64(c.options.Limit)))
	}

	return nil
}

func (c *concreteService) create(ctx context.Context, record models.ShareContent) (models.ShareContent, error) {
	record.ID = uuid.NewString()
	record.Modified = c.options.Now().Unix()

	record, err := c.contentRepository.Create(ctx, record)
	if err != nil {
		return models.ShareContent{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return record, nil
}

func (c *concreteService) ListPage(ctx context.Context, page int, search, contentType string) ([]models.ShareContent, error) {
	if page < 0 {
		page = 0
	}

	contents, err := c.contentRepository.List(ctx, content.Filter{
		Search:   search,
		Type:     contentType,
		Page:     page,
		PageSize: c.options.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	if contents == nil {
		contents = []models.ShareContent{}
	}

	return contents, nil
}

func (c *concreteService) Count(ctx context.Context, search, contentType string) (int64, error) {
	count, err := c.contentRepository.Count(ctx, content.Filter{Search: search, Type: contentType})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return count, nil
}

func (c *concreteService) Types(ctx context.Context) ([]string, error) {
	types, err := c.contentRepository.Types(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return types, nil
}

func (c *concreteService) FetchForDisplay(ctx context.Context, id string) (Display, error) {
	record, err := c.get(ctx, id)
	if err != nil {
		return Display{}, err
	}

	display := Display{
		ID:       record.ID,
		Type:     record.Type,
		Preview:  record.Preview,
		Modified: record.Modified,
	}

	if utf8.Valid(record.Contents) {
		display.Contents = html.EscapeString(string(record.Contents))
	} else {
		display.Binary = true
	}

	return display, nil
}

func (c *concreteService) FetchForDownload(ctx context.Context, id string) (Download, error) {
	record, err := c.get(ctx, id)
	if err != nil {
		return Download{}, err
	}

	return Download{
		Filename: record.Preview,
		MimeType: "application/" + record.Type,
		Contents: record.Contents,
	}, nil
}

func (c *concreteService) get(ctx context.Context, id string) (models.ShareContent, error) {
	record, err := c.contentRepository.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.ShareContent{}, ErrNotFound
		}

		return models.ShareContent{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return record, nil
}

func (c *concreteService) Remove(ctx context.Context, id string) error {
	if err := c.contentRepository.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}

	return nil
}

// TextPreview cuts text to its first 100 code points.
func TextPreview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}

	return string([]rune(text)[:previewLength]) + previewEllipsis
}

// SubtypeOf turns "image/png; q=1" into "png".
func SubtypeOf(mimeType string) string {
	mediaType, _, _ := strings.Cut(mimeType, ";")

	_, subtype, found := strings.Cut(strings.TrimSpace(mediaType), "/")
	subtype = strings.ToLower(strings.TrimSpace(subtype))

	if !found || subtype == "" {
		return BinaryType
	}

	return subtype
}
