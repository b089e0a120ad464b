package indices

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, *Repository) {
	t.Helper()
	repo := NewRepository(setupTestDB(t), zerolog.Nop())
	query := NewQueryService(repo, queryTestConfig(), zerolog.Nop())
	return NewHandler(query, nil, zerolog.Nop()), repo
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandleListTypes_Empty(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/indices/types", nil)
	rec := httptest.NewRecorder()
	handler.HandleListTypes(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestHandleListNames_UnknownTypeIsEmptySuccess(t *testing.T) {
	handler, repo := newTestHandler(t)
	require.NoError(t, repo.ReplaceSeries(sampleSeries("SECTOR-Technology", 1000)))

	req := httptest.NewRequest(http.MethodGet, "/api/indices/names?type=bogus", nil)
	rec := httptest.NewRecorder()
	handler.HandleListNames(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, "[]", string(env.Data))
	assert.Empty(t, env.Error)
}

func TestHandleListNames_ByType(t *testing.T) {
	handler, repo := newTestHandler(t)
	require.NoError(t, repo.ReplaceSeries(sampleSeries("SECTOR-Technology", 1000)))

	req := httptest.NewRequest(http.MethodGet, "/api/indices/names?type=sector", nil)
	rec := httptest.NewRecorder()
	handler.HandleListNames(rec, req)

	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)

	var names []NameEntry
	require.NoError(t, json.Unmarshal(env.Data, &names))
	require.Len(t, names, 1)
	assert.Equal(t, "SECTOR-Technology", names[0].IndexName)
	assert.Equal(t, 3, names[0].ConstituentCount)
}

func TestHandleGetSeries_RequiresName(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/indices/series", nil)
	rec := httptest.NewRecorder()
	handler.HandleGetSeries(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestHandleGetSeries_RejectsBadDates(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/indices/series?name=SECTOR-Technology&start=01-02-2024", nil)
	rec := httptest.NewRecorder()
	handler.HandleGetSeries(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}

func TestHandleGetSeries_UnknownNameIsEmptySuccess(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/indices/series?name=SECTOR-Nothing", nil)
	rec := httptest.NewRecorder()
	handler.HandleGetSeries(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.JSONEq(t, "[]", string(env.Data))
}

func TestHandleGetSeries_WithAnnotations(t *testing.T) {
	handler, repo := newTestHandler(t)
	require.NoError(t, repo.ReplaceSeries(
		sampleSeries("SECTOR-Technology", 1000, 1010, 1005, 1020, 1030, 1025)))

	req := httptest.NewRequest(http.MethodGet,
		"/api/indices/series?name=SECTOR-Technology&include=ma,stage", nil)
	rec := httptest.NewRecorder()
	handler.HandleGetSeries(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.True(t, env.Success)

	var series []SeriesPoint
	require.NoError(t, json.Unmarshal(env.Data, &series))
	require.Len(t, series, 6)
	assert.Nil(t, series[0].MovingAverage)
	require.NotNil(t, series[5].MovingAverage)
	require.NotNil(t, series[5].Stage)
}
