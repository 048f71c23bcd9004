package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthfair/clinicsync/internal/common"
	"github.com/healthfair/clinicsync/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO records`).
		WithArgs("patient", "r1", []byte(`{"name":"Ana"}`), int64(100), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.Record{
		ID:           "r1",
		EntityType:   "patient",
		Payload:      json.RawMessage(`{"name":"Ana"}`),
		LastModified: 100,
		Version:      1,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO records`).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &models.Record{ID: "r1", EntityType: "patient"})
	assert.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT entity_type, id, payload, last_modified, version FROM records`).
		WithArgs("patient", "ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "patient", "ghost")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"entity_type", "id", "payload", "last_modified", "version"}).
		AddRow("patient", "r1", []byte(`{"name":"Ana"}`), int64(100), int64(2))
	mock.ExpectQuery(`SELECT entity_type, id, payload, last_modified, version FROM records`).
		WithArgs("patient", "r1").
		WillReturnRows(rows)

	rec, err := repo.Get(context.Background(), "patient", "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", rec.ID)
	assert.Equal(t, int64(2), rec.Version)
	assert.JSONEq(t, `{"name":"Ana"}`, string(rec.Payload))
}

func TestUpdate_BumpsVersion(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"version"}).AddRow(int64(3))
	mock.ExpectQuery(`UPDATE records`).
		WithArgs("patient", "r1", []byte(`{"name":"Ana","age":35}`), int64(200)).
		WillReturnRows(rows)

	rec := &models.Record{
		ID:           "r1",
		EntityType:   "patient",
		Payload:      json.RawMessage(`{"name":"Ana","age":35}`),
		LastModified: 200,
	}
	require.NoError(t, repo.Update(context.Background(), rec))
	assert.Equal(t, int64(3), rec.Version)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE records`).
		WithArgs("patient", "ghost", []byte(`{}`), int64(200)).
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &models.Record{
		ID: "ghost", EntityType: "patient", Payload: json.RawMessage(`{}`), LastModified: 200,
	})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"entity_type", "id", "payload", "last_modified", "version"}).
		AddRow("vitals", "v1", []byte(`{"heart_rate":70}`), int64(10), int64(1)).
		AddRow("vitals", "v2", []byte(`{"heart_rate":82}`), int64(20), int64(1))
	mock.ExpectQuery(`SELECT entity_type, id, payload, last_modified, version FROM records`).
		WithArgs("vitals").
		WillReturnRows(rows)

	recs, err := repo.List(context.Background(), "vitals")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "v1", recs[0].ID)
	assert.Equal(t, "v2", recs[1].ID)
}
