package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/healthfair/clinicsync/internal/client/models"
	"github.com/healthfair/clinicsync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, srv
}

func TestParseBaseURL(t *testing.T) {
	u, err := parseBaseURL("127.0.0.1:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080", u.String())

	u, err = parseBaseURL("https://api.example.org")
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)

	_, err = parseBaseURL("")
	require.Error(t, err)
}

func TestPing(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ping", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.Ping(context.Background()))
}

func TestCreate_SendsPayloadAndDecodesRecord(t *testing.T) {
	var gotPath string
	var gotBody []byte

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		_ = json.NewEncoder(w).Encode(AuthoritativeRecord{
			ID:           "srv_1",
			EntityType:   "patient",
			Payload:      json.RawMessage(`{"name":"Jane Doe"}`),
			LastModified: 100,
			Version:      1,
		})
	}))

	payload := json.RawMessage(`{"name":"Jane Doe"}`)
	rec, err := c.Create(context.Background(), models.EntityPatient, payload)
	require.NoError(t, err)

	assert.Equal(t, "/api/patient", gotPath)
	assert.JSONEq(t, `{"name":"Jane Doe"}`, string(gotBody))
	assert.Equal(t, "srv_1", rec.ID)
	assert.False(t, models.IsTentativeID(rec.ID))
}

func TestList(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/vitals", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]AuthoritativeRecord{
			{ID: "srv_1", EntityType: "vitals"},
			{ID: "srv_2", EntityType: "vitals"},
		})
	}))

	recs, err := c.List(context.Background(), models.EntityVitals)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "srv_1", recs[0].ID)
}

func TestUpdate_NotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.Update(context.Background(), models.EntityPatient, "srv_404", json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

func TestDo_ServerErrorIsUnavailableAndRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	err := c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnavailable))
	// one initial attempt plus one transient retry
	assert.Equal(t, int32(2), calls.Load())
}

func TestDo_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))

	_, err := c.Create(context.Background(), models.EntityPatient, json.RawMessage(`{}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemote))
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_ConnectionRefusedIsUnavailable(t *testing.T) {
	c, err := NewHTTPClient("127.0.0.1:1")
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrUnavailable))
}

func TestPresignDocument(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/documents/presign", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "srv_1", req["patient_id"])

		_ = json.NewEncoder(w).Encode(PresignedUpload{Key: "documents/srv_1/consent.pdf", URL: "http://minio/put"})
	}))

	presigned, err := c.PresignDocument(context.Background(), "srv_1", "consent.pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://minio/put", presigned.URL)
	assert.Contains(t, presigned.Key, "consent.pdf")
}
