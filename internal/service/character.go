package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"anime-character-catalog/backend/internal/models"
	"anime-character-catalog/backend/internal/repository"
	"anime-character-catalog/backend/pkg/cache"
	"anime-character-catalog/backend/pkg/logger"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "anime-character-catalog/backend/internal/service"

var (
	// ErrCharacterNotFound means the id is well formed but no record has it.
	ErrCharacterNotFound = errors.New("character not found")
	// ErrMalformedID means the id is not a UUID and was never sent to the store.
	ErrMalformedID = errors.New("invalid character id")
)

// ValidationError carries one message per violated field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// CharacterServiceConfig tunes the optional read-through cache.
type CharacterServiceConfig struct {
	// Cache is consulted by Get; nil disables caching.
	Cache    cache.Store
	CacheTTL time.Duration
}

type CharacterService struct {
	repo     repository.CharacterRepository
	cache    cache.Store
	cacheTTL time.Duration
	log      *logger.Logger
	tracer   trace.Tracer
	ops      metric.Int64Counter
}

func NewCharacterService(repo repository.CharacterRepository, log *logger.Logger, cfg CharacterServiceConfig) *CharacterService {
	if log == nil {
		log = logger.GetGlobal()
	}

	ops, err := otel.Meter(instrumentationName).Int64Counter("catalog.character.operations",
		metric.WithDescription("Character operations by kind and outcome."),
	)
	if err != nil {
		log.Warn("Falling back to no-op operation counter", "error", err.Error())
		ops = noop.Int64Counter{}
	}

	return &CharacterService{
		repo:     repo,
		cache:    cfg.Cache,
		cacheTTL: cfg.CacheTTL,
		log:      log,
		tracer:   otel.Tracer(instrumentationName),
		ops:      ops,
	}
}

// List returns every character matching query.
func (s *CharacterService) List(ctx context.Context, query models.ListQuery) ([]models.Character, error) {
	ctx, span := s.tracer.Start(ctx, "CharacterService.List", trace.WithAttributes(
		attribute.String("catalog.search", query.Search),
		attribute.String("catalog.role", string(query.Role)),
		attribute.String("catalog.sort", string(query.Sort)),
	))
	defer span.End()

	characters, err := s.repo.List(ctx, query)
	if err != nil {
		err = fmt.Errorf("list characters: %w", err)
	} else {
		span.SetAttributes(attribute.Int("catalog.results", len(characters)))
	}
	s.finish(ctx, span, "list", err)
	return characters, err
}

// Get returns the character with the given id.
func (s *CharacterService) Get(ctx context.Context, rawID string) (*models.Character, error) {
	ctx, span := s.tracer.Start(ctx, "CharacterService.Get", trace.WithAttributes(attribute.String("catalog.id", rawID)))
	defer span.End()

	character, err := s.get(ctx, rawID)
	s.finish(ctx, span, "get", err)
	return character, err
}

func (s *CharacterService) get(ctx context.Context, rawID string) (*models.Character, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.fromCache(ctx, id); ok {
		return cached, nil
	}

	character, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, character)
	return character, nil
}

// Create validates and stores a new character.
func (s *CharacterService) Create(ctx context.Context, req *models.CreateCharacterRequest) (*models.Character, error) {
	ctx, span := s.tracer.Start(ctx, "CharacterService.Create")
	defer span.End()

	character, err := s.create(ctx, req)
	s.finish(ctx, span, "create", err)
	return character, err
}

func (s *CharacterService) create(ctx context.Context, req *models.CreateCharacterRequest) (*models.Character, error) {
	character := req.ToCharacter()
	if msgs := models.Validate(character); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	if err := s.repo.Create(ctx, character); err != nil {
		return nil, fmt.Errorf("create character: %w", err)
	}

	s.log.Info("Character created", "id", character.ID.String(), "name", character.Name)
	return character, nil
}

// Update applies req over the stored character. The record must exist before
// the merged result is validated.
func (s *CharacterService) Update(ctx context.Context, rawID string, req *models.UpdateCharacterRequest) (*models.Character, error) {
	ctx, span := s.tracer.Start(ctx, "CharacterService.Update", trace.WithAttributes(attribute.String("catalog.id", rawID)))
	defer span.End()

	character, err := s.update(ctx, rawID, req)
	s.finish(ctx, span, "update", err)
	return character, err
}

func (s *CharacterService) update(ctx context.Context, rawID string, req *models.UpdateCharacterRequest) (*models.Character, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}

	character, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(character)
	if msgs := models.Validate(character); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	err = s.repo.Save(ctx, character)
	if errors.Is(err, repository.ErrNotFound) {
		// Removed by a concurrent request between lookup and save.
		return nil, ErrCharacterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update character %s: %w", id, err)
	}
	s.refresh(ctx, character)

	s.log.Info("Character updated", "id", id.String())
	return character, nil
}

// Delete removes the character with the given id.
func (s *CharacterService) Delete(ctx context.Context, rawID string) error {
	ctx, span := s.tracer.Start(ctx, "CharacterService.Delete", trace.WithAttributes(attribute.String("catalog.id", rawID)))
	defer span.End()

	err := s.delete(ctx, rawID)
	s.finish(ctx, span, "delete", err)
	return err
}

func (s *CharacterService) delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	if _, err := s.lookup(ctx, id); err != nil {
		return err
	}

	err = s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		// Removed by a concurrent request between lookup and delete.
		return ErrCharacterNotFound
	}
	if err != nil {
		return fmt.Errorf("delete character %s: %w", id, err)
	}
	s.evict(ctx, id)

	s.log.Info("Character deleted", "id", id.String())
	return nil
}

func parseID(rawID string) (uuid.UUID, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, ErrMalformedID
	}
	return id, nil
}

func (s *CharacterService) lookup(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	character, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCharacterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get character %s: %w", id, err)
	}
	return character, nil
}

func cacheKey(id uuid.UUID) string {
	return "character:" + id.String()
}

// Cache failures only cost a store round trip, so they are logged and dropped.
func (s *CharacterService) fromCache(ctx context.Context, id uuid.UUID) (*models.Character, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, cacheKey(id))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("Character cache read failed", "id", id.String(), "error", err.Error())
		}
		return nil, false
	}

	var character models.Character
	if err := json.Unmarshal(data, &character); err != nil {
		s.log.Warn("Discarding undecodable cache entry", "id", id.String(), "error", err.Error())
		s.evict(ctx, id)
		return nil, false
	}
	return &character, true
}

func (s *CharacterService) toCache(ctx context.Context, character *models.Character) bool {
	if s.cache == nil {
		return false
	}
	data, err := json.Marshal(character)
	if err != nil {
		return false
	}
	if err := s.cache.Set(ctx, cacheKey(character.ID), data, s.cacheTTL); err != nil {
		s.log.Warn("Character cache write failed", "id", character.ID.String(), "error", err.Error())
		return false
	}
	return true
}

// refresh replaces the cached copy with character, evicting it when the write
// fails. A Get that read the row before the save can still cache the older
// copy after this; that entry lives at most one CacheTTL.
func (s *CharacterService) refresh(ctx context.Context, character *models.Character) {
	if s.cache == nil {
		return
	}
	if !s.toCache(ctx, character) {
		s.evict(ctx, character.ID)
	}
}

func (s *CharacterService) evict(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.log.Warn("Character cache eviction failed", "id", id.String(), "error", err.Error())
	}
}

// finish records the outcome of an operation on its span and counter.
func (s *CharacterService) finish(ctx context.Context, span trace.Span, op string, err error) {
	outcome := outcomeOf(err)
	s.ops.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("outcome", outcome),
	))

	if err == nil {
		return
	}
	span.SetAttributes(attribute.String("catalog.outcome", outcome))
	if outcome == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func outcomeOf(err error) string {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCharacterNotFound):
		return "not_found"
	case errors.Is(err, ErrMalformedID):
		return "malformed_id"
	case errors.As(err, &validationErr):
		return "invalid"
	default:
		return "error"
	}
}
