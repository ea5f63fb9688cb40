package repository

import (
	"context"
	"errors"
	"strings"

	"anime-character-catalog/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("record not found")

type CharacterRepository interface {
	Create(ctx context.Context, character *models.Character) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error)
	List(ctx context.Context, query models.ListQuery) ([]models.Character, error)
	Save(ctx context.Context, character *models.Character) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GormCharacterRepository struct {
	db *gorm.DB
}

func NewGormCharacterRepository(db *gorm.DB) *GormCharacterRepository {
	return &GormCharacterRepository{db: db}
}

func (r *GormCharacterRepository) Create(ctx context.Context, character *models.Character) error {
	return r.db.WithContext(ctx).Create(character).Error
}

func (r *GormCharacterRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	var character models.Character
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&character).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &character, nil
}

// List returns every record matching query, ordered by query.Sort.
func (r *GormCharacterRepository) List(ctx context.Context, query models.ListQuery) ([]models.Character, error) {
	tx := r.db.WithContext(ctx).Model(&models.Character{})

	if search := strings.TrimSpace(query.Search); search != "" {
		tx = tx.Where(r.searchCondition(search))
	}
	if query.Role.Valid() {
		tx = tx.Where("role = ?", query.Role)
	}

	for _, order := range orderClauses(query.Sort) {
		tx = tx.Order(order)
	}

	characters := []models.Character{}
	if err := tx.Find(&characters).Error; err != nil {
		return nil, err
	}
	return characters, nil
}

// Save writes every column of an existing character and refreshes UpdatedAt.
// It never inserts: a record deleted since it was loaded yields ErrNotFound.
func (r *GormCharacterRepository) Save(ctx context.Context, character *models.Character) error {
	result := r.db.WithContext(ctx).
		Model(character).
		Select("*").
		Omit("id", "created_at").
		Updates(character)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormCharacterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Character{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// searchCondition matches records where any whitespace-separated token occurs
// in name, anime or description, ignoring case. On PostgreSQL the full-text
// index is consulted as well.
func (r *GormCharacterRepository) searchCondition(search string) *gorm.DB {
	cond := r.db.Session(&gorm.Session{NewDB: true})
	first := true
	for _, token := range strings.Fields(search) {
		pattern := "%" + escapeLike(strings.ToLower(token)) + "%"
		clause := "LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(anime) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'"
		if first {
			cond = cond.Where(clause, pattern, pattern, pattern)
			first = false
		} else {
			cond = cond.Or(clause, pattern, pattern, pattern)
		}
	}
	if r.db.Dialector.Name() == "postgres" {
		cond = cond.Or(fullTextExpr+" @@ plainto_tsquery('simple', ?)", search)
	}
	return cond
}

const fullTextExpr = "to_tsvector('simple', name || ' ' || anime || ' ' || description)"

// Migrate creates or updates the characters table and its indexes.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Character{}); err != nil {
		return err
	}
	return EnsureIndexes(db)
}

// EnsureIndexes creates the indexes AutoMigrate cannot express.
func EnsureIndexes(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.Exec("CREATE INDEX IF NOT EXISTS idx_characters_fulltext ON characters USING GIN (" + fullTextExpr + ")").Error
}

func orderClauses(sort models.SortOrder) []string {
	switch sort {
	case models.SortNameAsc:
		return []string{"name ASC"}
	case models.SortNameDesc:
		return []string{"name DESC"}
	case models.SortAnime:
		return []string{"anime ASC", "name ASC"}
	default:
		return []string{"created_at DESC"}
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
