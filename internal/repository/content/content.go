package content

import (
	"context"
	"strings"

	"github.com/tester22000/simpleshare/internal/models"
	"gorm.io/gorm"
)

type Repository interface {
	// Reset creates the table when missing and drops every stored row.
	Reset(ctx context.Context) error

	Create(ctx context.Context, content models.ShareContent) (models.ShareContent, error)

	Types(ctx context.Context) ([]string, error)
	List(ctx context.Context, filter Filter) ([]models.ShareContent, error)
	Count(ctx context.Context, filter Filter) (int64, error)
	GetByID(ctx context.Context, id string) (models.ShareContent, error)

	Delete(ctx context.Context, id string) error
}

// Filter selects a page of contents. Zero values disable the matching predicate.
type Filter struct {
	Search   string
	Type     string
	Page     int
	PageSize int
}

type scope = func(*gorm.DB) *gorm.DB

func (f Filter) predicates() []scope {
	var scopes []scope

	if f.Search != "" {
		scopes = append(scopes, previewContains(f.Search))
	}

	if f.Type != "" {
		scopes = append(scopes, typeEquals(f.Type))
	}

	return scopes
}

func previewContains(search string) scope {
	pattern := "%" + likeEscaper.Replace(search) + "%"

	return func(db *gorm.DB) *gorm.DB {
		return db.Where(`LOWER(preview) LIKE LOWER(?) ESCAPE '\'`, pattern)
	}
}

func typeEquals(contentType string) scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("type = ?", contentType)
	}
}

func paginate(page, size int) scope {
	return func(db *gorm.DB) *gorm.DB {
		if size <= 0 {
			return db
		}

		if page < 0 {
			page = 0
		}

		return db.Offset(page * size).Limit(size)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type concreteRepository struct {
	db *gorm.DB
}

func New(db *gorm.DB) (Repository, error) {
	if err := db.AutoMigrate(&models.ShareContent{}); err != nil {
		return nil, err
	}

	return &concreteRepository{db}, nil
}

func (c *concreteRepository) Reset(ctx context.Context) error {
	db := c.db.WithContext(ctx)

	if err := db.AutoMigrate(&models.ShareContent{}); err != nil {
		return err
	}

	return db.Where("1 = 1").Delete(&models.ShareContent{}).Error
}

func (c *concreteRepository) Create(ctx context.Context, content models.ShareContent) (models.ShareContent, error) {
	result := c.db.WithContext(ctx).Create(&content)

	return content, result.Error
}

func (c *concreteRepository) Types(ctx context.Context) ([]string, error) {
	types := []string{}

	result := c.db.WithContext(ctx).
		Model(&models.ShareContent{}).
		Distinct().
		Order("type ASC").
		Pluck("type", &types)

	return types, result.Error
}

func (c *concreteRepository) List(ctx context.Context, filter Filter) ([]models.ShareContent, error) {
	contents := []models.ShareContent{}

	result := c.db.WithContext(ctx).
		Model(&models.ShareContent{}).
		Select("id", "type", "preview", "modified").
		Scopes(filter.predicates()...).
		Scopes(paginate(filter.Page, filter.PageSize)).
		Order("modified DESC").
		Order("id DESC").
		Find(&contents)

	return contents, result.Error
}

func (c *concreteRepository) Count(ctx context.Context, filter Filter) (int64, error) {
	var count int64

	result := c.db.WithContext(ctx).
		Model(&models.ShareContent{}).
		Scopes(filter.predicates()...).
		Count(&count)

	return count, result.Error
}

func (c *concreteRepository) GetByID(ctx context.Context, id string) (models.ShareContent, error) {
	var content models.ShareContent

	result := c.db.WithContext(ctx).Where("id = ?", id).First(&content)

	return content, result.Error
}

func (c *concreteRepository) Delete(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ShareContent{})

	return result.Error
}
