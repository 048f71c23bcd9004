package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfair/clinicsync/internal/common"
	"github.com/healthfair/clinicsync/internal/logging"
	"github.com/healthfair/clinicsync/internal/server/models"
)

// fakeRepo keeps records in memory, keyed by (entity_type, id).
type fakeRepo struct {
	records map[string]*models.Record
	failAll bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*models.Record{}}
}

func (f *fakeRepo) key(entityType, id string) string { return entityType + "/" + id }

func (f *fakeRepo) Create(ctx context.Context, record *models.Record) error {
	if f.failAll {
		return common.ErrorInternal
	}
	cp := *record
	f.records[f.key(record.EntityType, record.ID)] = &cp
	return nil
}

func (f *fakeRepo) Get(ctx context.Context, entityType, id string) (*models.Record, error) {
	r, ok := f.records[f.key(entityType, id)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakeRepo) Update(ctx context.Context, record *models.Record) error {
	if f.failAll {
		return common.ErrorInternal
	}
	existing, ok := f.records[f.key(record.EntityType, record.ID)]
	if !ok {
		return common.ErrorNotFound
	}
	existing.Payload = record.Payload
	existing.LastModified = record.LastModified
	existing.Version++
	record.Version = existing.Version
	return nil
}

func (f *fakeRepo) List(ctx context.Context, entityType string) ([]*models.Record, error) {
	if f.failAll {
		return nil, common.ErrorInternal
	}
	var out []*models.Record
	for _, r := range f.records {
		if r.EntityType == entityType {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordedNotify struct {
	patients []string
}

func (n *recordedNotify) PatientRegistered(ctx context.Context, record *models.Record) {
	n.patients = append(n.patients, record.ID)
}

func setupServer(t *testing.T) (*Server, *fakeRepo, *recordedNotify) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeRepo()
	notifier := &recordedNotify{}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return NewServer(":0", repo, nil, notifier, logger), repo, notifier
}

func doRequest(t *testing.T, s *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	s, _, _ := setupServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestCreateRecord(t *testing.T) {
	s, repo, notifier := setupServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/patient", `{"name":"Ana","age":34}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var rec models.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.NotEmpty(t, rec.ID)
	assert.False(t, strings.HasPrefix(rec.ID, "local_"))
	assert.Equal(t, int64(1), rec.Version)
	assert.Positive(t, rec.LastModified)
	assert.JSONEq(t, `{"name":"Ana","age":34}`, string(rec.Payload))

	stored, err := repo.Get(context.Background(), "patient", rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)

	assert.Equal(t, []string{rec.ID}, notifier.patients)
}

func TestCreateRecord_NonPatientDoesNotNotify(t *testing.T) {
	s, _, notifier := setupServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/vitals", `{"patient_id":"p1","heart_rate":70}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, notifier.patients)
}

func TestCreateRecord_UnknownEntity(t *testing.T) {
	s, _, _ := setupServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/widget", `{"a":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRecord_InvalidJSON(t *testing.T) {
	s, _, _ := setupServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/patient", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRecord_StorageError(t *testing.T) {
	s, repo, _ := setupServer(t)
	repo.failAll = true

	w := doRequest(t, s, http.MethodPost, "/api/patient", `{"name":"Ana"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListRecords(t *testing.T) {
	s, repo, _ := setupServer(t)

	require.NoError(t, repo.Create(context.Background(), &models.Record{
		ID: "r1", EntityType: "patient", Payload: json.RawMessage(`{"name":"Ana"}`), LastModified: 1, Version: 1,
	}))

	w := doRequest(t, s, http.MethodGet, "/api/patient", "")
	require.Equal(t, http.StatusOK, w.Code)

	var recs []models.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0].ID)
}

func TestListRecords_EmptyIsArray(t *testing.T) {
	s, _, _ := setupServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/doctor", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestUpdateRecord(t *testing.T) {
	s, repo, _ := setupServer(t)

	require.NoError(t, repo.Create(context.Background(), &models.Record{
		ID: "r1", EntityType: "patient", Payload: json.RawMessage(`{"name":"Ana","age":34}`), LastModified: 1, Version: 1,
	}))

	w := doRequest(t, s, http.MethodPut, "/api/patient/r1", `{"name":"Ana","age":35}`)
	require.Equal(t, http.StatusOK, w.Code)

	var rec models.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, int64(2), rec.Version)

	stored, err := repo.Get(context.Background(), "patient", "r1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Ana","age":35}`, string(stored.Payload))
}

func TestUpdateRecord_NotFound(t *testing.T) {
	s, _, _ := setupServer(t)

	w := doRequest(t, s, http.MethodPut, "/api/patient/ghost", `{"name":"Ana"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
