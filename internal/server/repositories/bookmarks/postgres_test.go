package bookmarks

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/deltacheats/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestPostgres_DeleteByGame(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+bookmarks\s+WHERE\s+gameid\s*=\s*\$1\s*$`
	mock.ExpectExec(q).WithArgs("IPKE 1A2B3C4D").WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteByGame(context.Background(), "IPKE 1A2B3C4D"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Insert(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+bookmarks\s*\(gameid,\s*cheat_name,\s*cheat_code\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
	mock.ExpectExec(q).WithArgs("IPKE 1A2B3C4D", "Infinite HP", "").WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Insert(context.Background(), models.Bookmark{GameID: "IPKE 1A2B3C4D", CheatName: "Infinite HP"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+bookmarks`).WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), models.Bookmark{GameID: "g", CheatName: "c"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPostgres_ListByGame(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+gameid,\s*cheat_name,\s*cheat_code\s+FROM\s+bookmarks\s+WHERE\s+gameid\s*=\s*\$1\s+ORDER\s+BY\s+id\s*$`
	rows := sqlmock.NewRows([]string{"gameid", "cheat_name", "cheat_code"}).
		AddRow("g", "a", "").
		AddRow("g", "b", "0000")
	mock.ExpectQuery(q).WithArgs("g").WillReturnRows(rows)

	got, err := repo.ListByGame(context.Background(), "g")
	require.NoError(t, err)
	assert.Equal(t, []models.Bookmark{
		{GameID: "g", CheatName: "a"},
		{GameID: "g", CheatName: "b", CheatCode: "0000"},
	}, got)
}

func TestPostgres_ListAll(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+gameid,\s*cheat_name,\s*cheat_code\s+FROM\s+bookmarks\s+ORDER\s+BY\s+gameid,\s*id\s*$`
	rows := sqlmock.NewRows([]string{"gameid", "cheat_name", "cheat_code"}).AddRow("g", "a", "")
	mock.ExpectQuery(q).WillReturnRows(rows)

	got, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestPostgres_ListScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"gameid", "cheat_name", "cheat_code"}).
		AddRow("g", "a", "").
		RowError(0, errors.New("broken row"))
	mock.ExpectQuery(`SELECT`).WillReturnRows(rows)

	_, err := repo.ListAll(context.Background())
	require.ErrorContains(t, err, "broken row")
}
