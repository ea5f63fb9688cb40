package api

import (
	"context"
	"errors"
	"net/http"

	"anime-character-catalog/backend/internal/models"
	"anime-character-catalog/backend/internal/service"
	apperrors "anime-character-catalog/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidID        = "Invalid ID format"
	msgNotFound         = "Character not found"
	msgInvalidBody      = "Request body must be a JSON object"
	msgCharacterRemoved = "Character removed"
)

// CharacterService is the part of the service layer the handlers use.
type CharacterService interface {
	List(ctx context.Context, query models.ListQuery) ([]models.Character, error)
	Get(ctx context.Context, rawID string) (*models.Character, error)
	Create(ctx context.Context, req *models.CreateCharacterRequest) (*models.Character, error)
	Update(ctx context.Context, rawID string, req *models.UpdateCharacterRequest) (*models.Character, error)
	Delete(ctx context.Context, rawID string) error
}

type CharacterHandler struct {
	service CharacterService
}

func NewCharacterHandler(service CharacterService) *CharacterHandler {
	return &CharacterHandler{service: service}
}

// RegisterRoutes mounts the character routes on group.
func (h *CharacterHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.ListCharacters)
	group.POST("", h.CreateCharacter)
	group.GET("/:id", h.GetCharacter)
	group.PUT("/:id", h.UpdateCharacter)
	group.DELETE("/:id", h.DeleteCharacter)
}

// ListCharacters handles GET /characters?search=&role=&sort=
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	query := models.ListQuery{
		Search: c.Query("search"),
		Role:   models.Role(c.Query("role")),
		Sort:   models.ParseSortOrder(c.Query("sort")),
	}

	characters, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, characters)
}

func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	character, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, msgInvalidBody))
		return
	}

	character, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusCreated, character)
}

func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	var req models.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.NewBadRequestError(apperrors.CodeInvalidRequest, msgInvalidBody))
		return
	}

	character, err := h.service.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, character)
}

func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(toAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgCharacterRemoved})
}

// toAppError maps service errors onto the response envelope.
func toAppError(err error) *apperrors.AppError {
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrMalformedID):
		return apperrors.NewBadRequestError(apperrors.CodeInvalidID, msgInvalidID)
	case errors.Is(err, service.ErrCharacterNotFound):
		return apperrors.NewNotFoundError(apperrors.CodeNotFound, msgNotFound)
	case errors.As(err, &validationErr):
		return apperrors.BadRequestWithDetails(apperrors.CodeValidationFailed, apperrors.MessageValidationFail, validationErr.Messages)
	default:
		return apperrors.NewInternalServerError(err)
	}
}
