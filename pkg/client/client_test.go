package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"anime-character-catalog/backend/internal/models"
	"anime-character-catalog/backend/internal/repository"
	"anime-character-catalog/backend/pkg/config"
	"anime-character-catalog/backend/pkg/di"
	"anime-character-catalog/backend/pkg/logger"
	"anime-character-catalog/backend/pkg/router"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, repository.Migrate(db))

	cfg := config.Load()
	cfg.Server.Env = "test"
	cfg.Redis.URL = ""

	container, err := di.New(db, cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	r := router.New(container)
	r.SetupRoutes()

	srv := httptest.NewServer(r.Engine)
	t.Cleanup(srv.Close)
	return srv
}

func naruto() *models.CreateCharacterRequest {
	return &models.CreateCharacterRequest{
		Name:        "Naruto Uzumaki",
		Anime:       "Naruto",
		Description: "A young ninja who seeks recognition from his peers.",
		ImageURL:    "https://x/n.jpg",
		Role:        models.RoleProtagonist,
		Abilities:   models.AbilityList{"Rasengan", "Shadow Clone Jutsu"},
	}
}

func light() *models.CreateCharacterRequest {
	return &models.CreateCharacterRequest{
		Name:        "Light Yagami",
		Anime:       "Death Note",
		Description: "A student who finds a notebook.",
		ImageURL:    "https://example.com/light.png",
		Role:        models.RoleAntiHero,
		Abilities:   models.AbilityList{"Genius intellect"},
	}
}

func TestClient_CRUD(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	created, err := c.Create(ctx, naruto())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	got, err := c.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)

	name := "Naruto"
	updated, err := c.Update(ctx, created.ID.String(), &models.UpdateCharacterRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Naruto", updated.Name)

	list, err := c.List(ctx, models.ListQuery{Search: "ninja"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, c.Delete(ctx, created.ID.String()))

	list, err = c.List(ctx, models.ListQuery{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestClient_APIErrors(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	_, err := c.Get(ctx, "invalid-id")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "INVALID_ID", apiErr.Code)

	_, err = c.Get(ctx, uuid.NewString())
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	_, err = c.Create(ctx, &models.CreateCharacterRequest{Name: "Naruto"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.Code)
	assert.Contains(t, apiErr.Details, models.MsgAnimeRequired)
	assert.Contains(t, apiErr.Error(), models.MsgAnimeRequired)
}

func TestClient_NonEnvelopeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).List(context.Background(), models.ListQuery{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "upstream unavailable", apiErr.Message)
}

func TestState_Lifecycle(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL)
	ctx := context.Background()

	// Seed one record before the state is created.
	seeded, err := c.Create(ctx, naruto())
	require.NoError(t, err)

	s := NewState(c)
	assert.True(t, s.Loading())
	assert.Empty(t, s.Records())

	require.NoError(t, s.FetchAll(ctx))
	assert.False(t, s.Loading())
	require.Len(t, s.Records(), 1)

	created, err := s.Create(ctx, light())
	require.NoError(t, err)
	records := s.Records()
	require.Len(t, records, 2)
	assert.Equal(t, created.ID, records[0].ID, "new records are prepended")

	anime := "Naruto Shippuden"
	_, err = s.Update(ctx, seeded.ID.String(), &models.UpdateCharacterRequest{Anime: &anime})
	require.NoError(t, err)
	records = s.Records()
	assert.Equal(t, seeded.ID, records[1].ID, "updates keep their position")
	assert.Equal(t, "Naruto Shippuden", records[1].Anime)

	current, err := s.FetchOne(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, current.ID)
	assert.Equal(t, created.ID, s.Current().ID)

	require.NoError(t, s.Remove(ctx, created.ID.String()))
	records = s.Records()
	require.Len(t, records, 1)
	assert.Equal(t, seeded.ID, records[0].ID)
	assert.Nil(t, s.Current(), "removing the current record clears it")
}

func TestState_FailuresAreRecordedAndReturned(t *testing.T) {
	srv := newTestServer(t)
	s := NewState(New(srv.URL))
	ctx := context.Background()

	_, err := s.Create(ctx, &models.CreateCharacterRequest{})
	require.Error(t, err)
	assert.Equal(t, err, s.Err())

	_, err = s.Update(ctx, uuid.NewString(), &models.UpdateCharacterRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	err = s.Remove(ctx, "invalid-id")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = s.FetchOne(ctx, uuid.NewString())
	require.Error(t, err)
	assert.False(t, s.Loading())

	require.NoError(t, s.FetchAll(ctx))
	assert.NoError(t, s.Err(), "a successful fetch clears the error")
}

func TestState_FetchAllFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"SERVER_ERROR","message":"Server error"}}`))
	}))
	defer srv.Close()

	s := NewState(New(srv.URL))
	err := s.FetchAll(context.Background())
	require.Error(t, err)
	assert.False(t, s.Loading())
	assert.Equal(t, err, s.Err())
	assert.Equal(t, "Server error (500)", err.Error())
}

type staticAPI struct {
	API
	records []models.Character
}

func (a staticAPI) List(context.Context, models.ListQuery) ([]models.Character, error) {
	return a.records, nil
}

func TestState_TextFilter(t *testing.T) {
	s := NewState(staticAPI{records: []models.Character{
		{ID: uuid.New(), Name: "Naruto Uzumaki", Anime: "Naruto", Abilities: []string{"Rasengan"}},
		{ID: uuid.New(), Name: "Light Yagami", Anime: "Death Note", Abilities: []string{"Genius intellect"}},
		{ID: uuid.New(), Name: "Ryuk", Anime: "Death Note", Abilities: []string{}},
	}})
	require.NoError(t, s.FetchAll(context.Background()))

	assert.Nil(t, s.Filtered())

	names := func(cs []models.Character) []string {
		out := []string{}
		for _, c := range cs {
			out = append(out, c.Name)
		}
		return out
	}

	assert.Equal(t, []string{"Light Yagami", "Ryuk"}, names(s.ApplyTextFilter("DEATH")))
	assert.Equal(t, []string{"Naruto Uzumaki"}, names(s.ApplyTextFilter("rasen")))
	assert.Equal(t, []string{"Light Yagami"}, names(s.Filtered()))
	assert.Equal(t, []string{}, names(s.ApplyTextFilter("zzz")))
	assert.NotNil(t, s.Filtered(), "no match is an empty filter, not a cleared one")

	assert.Nil(t, s.ApplyTextFilter("  "))
	assert.Nil(t, s.Filtered())

	s.ApplyTextFilter("ryuk")
	s.ClearFilter()
	assert.Nil(t, s.Filtered())
}

func TestState_LocalTransitions(t *testing.T) {
	s := NewState(staticAPI{records: []models.Character{{ID: uuid.New(), Name: "Ryuk"}}})
	require.NoError(t, s.FetchAll(context.Background()))

	record := s.Records()[0]
	s.SetCurrent(&record)
	record.Name = "changed"
	assert.Equal(t, "Ryuk", s.Current().Name, "current is a copy")

	s.ClearCurrent()
	assert.Nil(t, s.Current())

	s.ApplyTextFilter("ryuk")
	s.Clear()
	snap := s.Snapshot()
	assert.Empty(t, snap.Records)
	assert.Nil(t, snap.Filtered)
	assert.Nil(t, snap.Current)
	assert.NoError(t, snap.Error)
}
