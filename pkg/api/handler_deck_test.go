package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	echo "github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextslide/deckengine/pkg/models"
	"github.com/nextslide/deckengine/pkg/persistence"
)

type fakeDeckStore struct {
	deck *models.Deck
	err  error
}

func (f *fakeDeckStore) SaveDeck(context.Context, *models.Deck) error { return nil }
func (f *fakeDeckStore) UpdateSlide(context.Context, string, int, models.Slide) error {
	return nil
}
func (f *fakeDeckStore) GetDeck(context.Context, string) (*models.Deck, error) {
	return f.deck, f.err
}

// We only exercise parameter validation and the store-backed lookup path
// here: orchestr and
// pauseResume are concrete collaborators with their own heavy dependency
// graphs, so the paths that call into them are left to integration tests.

func TestCreateDeckHandler_InvalidBody(t *testing.T) {
	s := &Server{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.createDeckHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad_request")
}

func TestGetDeckHandler_MissingID(t *testing.T) {
	s := &Server{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.getDeckHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDeckHandler_Found(t *testing.T) {
	deck := &models.Deck{UUID: "deck-1", Name: "Q3 Roadmap"}
	s := &Server{store: &fakeDeckStore{deck: deck}}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/deck-1", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("deck-1")

	require.NoError(t, s.getDeckHandler(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Q3 Roadmap")
}

func TestGetDeckHandler_NotFound(t *testing.T) {
	s := &Server{store: &fakeDeckStore{err: persistence.ErrDeckNotFound}}
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/decks/missing", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	require.NoError(t, s.getDeckHandler(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "deck_not_found")
}

func TestPauseDeckHandler_MissingID(t *testing.T) {
	s := &Server{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks//pause", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.pauseDeckHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResumeDeckHandler_MissingID(t *testing.T) {
	s := &Server{}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/decks//resume", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, s.resumeDeckHandler(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
