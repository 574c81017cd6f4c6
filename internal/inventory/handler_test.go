package inventory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/maltroom/cellarman/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHandlerTest(t *testing.T) (*mockRepository, *chi.Mux) {
	t.Helper()

	repo := newMockRepository()
	handler := NewHandler(NewService(repo))

	router := chi.NewRouter()
	handler.RegisterReadRoutes(router)
	handler.RegisterWriteRoutes(router)
	return repo, router
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Error.Message
}

func TestHandlerCreate_PlaceholdersForAbsentFields(t *testing.T) {
	// Arrange
	_, router := setupHandlerTest(t)

	// Act
	rec := doRequest(t, router, http.MethodPost, "/bottles",
		`{"name":"Lagavulin 16","price":95.5}`)

	// Assert
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp BottleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Lagavulin 16", resp.Name)
	assert.Equal(t, placeholderAge, resp.Age)
	assert.Equal(t, placeholderGeneric, resp.Strength)
	assert.Equal(t, placeholderGeneric, resp.BottleSize)
	assert.Equal(t, placeholderGeneric, resp.YearBottled)
	assert.Equal(t, 95.5, resp.Price)
	assert.NotEmpty(t, resp.ID)
}

func TestHandlerCreate_PriceAsNumericString(t *testing.T) {
	_, router := setupHandlerTest(t)

	rec := doRequest(t, router, http.MethodPost, "/bottles",
		`{"name":"Oban 14","price":"72.30"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp BottleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 72.30, resp.Price)
}

func TestHandlerCreate_MissingPrice(t *testing.T) {
	repo, router := setupHandlerTest(t)

	rec := doRequest(t, router, http.MethodPost, "/bottles", `{"name":"Oban 14"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price is required", errorMessage(t, rec))
	assert.Empty(t, repo.bottles)
}

func TestHandlerCreate_NonNumericPrice(t *testing.T) {
	_, router := setupHandlerTest(t)

	rec := doRequest(t, router, http.MethodPost, "/bottles",
		`{"name":"Oban 14","price":"cheap"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price must be a number", errorMessage(t, rec))
}

func TestHandlerCreate_MissingName(t *testing.T) {
	_, router := setupHandlerTest(t)

	rec := doRequest(t, router, http.MethodPost, "/bottles", `{"price":10}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerCreate_InvalidJSON(t *testing.T) {
	_, router := setupHandlerTest(t)

	rec := doRequest(t, router, http.MethodPost, "/bottles", `{`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid json", errorMessage(t, rec))
}

func TestHandlerList(t *testing.T) {
	repo, router := setupHandlerTest(t)
	id := uuid.New()
	repo.bottles[id] = &domain.Bottle{ID: id, Name: "Springbank 10", Price: 60}

	rec := doRequest(t, router, http.MethodGet, "/bottles", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []BottleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Springbank 10", resp[0].Name)
	assert.Equal(t, placeholderAge, resp[0].Age)
}

func TestHandlerUpdate_PartialBody(t *testing.T) {
	// Arrange
	repo, router := setupHandlerTest(t)
	id := uuid.New()
	repo.bottles[id] = &domain.Bottle{
		ID:       id,
		Name:     "Springbank 10",
		Strength: strptr("46 % Vol."),
		Price:    60,
	}

	// Act
	rec := doRequest(t, router, http.MethodPut, "/bottles/"+id.String(),
		`{"age":"10 years"}`)

	// Assert — unsupplied fields survive
	require.Equal(t, http.StatusOK, rec.Code)
	var resp BottleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "10 years", resp.Age)
	assert.Equal(t, "Springbank 10", resp.Name)
	assert.Equal(t, "46 % Vol.", resp.Strength)
	assert.Equal(t, float64(60), resp.Price)
}

func TestHandlerUpdate_EmptyName(t *testing.T) {
	repo, router := setupHandlerTest(t)
	id := uuid.New()
	repo.bottles[id] = &domain.Bottle{ID: id, Name: "Springbank 10", Price: 60}

	rec := doRequest(t, router, http.MethodPut, "/bottles/"+id.String(), `{"name":" "}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name cannot be empty", errorMessage(t, rec))
}

func TestHandlerUpdate_NoFields(t *testing.T) {
	repo, router := setupHandlerTest(t)
	id := uuid.New()
	repo.bottles[id] = &domain.Bottle{ID: id, Name: "Springbank 10", Price: 60}

	rec := doRequest(t, router, http.MethodPut, "/bottles/"+id.String(), `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdate_MalformedID(t *testing.T) {
	_, router := setupHandlerTest(t)

	rec := doRequest(t, router, http.MethodPut, "/bottles/not-a-uuid", `{"age":"12"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerUpdate_NotFound(t *testing.T) {
	_, router := setupHandlerTest(t)

	rec := doRequest(t, router, http.MethodPut, "/bottles/"+uuid.NewString(), `{"age":"12"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "bottle not found", errorMessage(t, rec))
}

func TestHandlerDelete(t *testing.T) {
	repo, router := setupHandlerTest(t)
	id := uuid.New()
	repo.bottles[id] = &domain.Bottle{ID: id, Name: "Springbank 10", Price: 60}

	rec := doRequest(t, router, http.MethodDelete, "/bottles/"+id.String(), "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bottle deleted", resp["message"])
	assert.Empty(t, repo.bottles)
}

func TestHandlerDelete_NotFound(t *testing.T) {
	_, router := setupHandlerTest(t)

	rec := doRequest(t, router, http.MethodDelete, "/bottles/"+uuid.NewString(), "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
