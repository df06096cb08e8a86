package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) (*TvShowRepository, *gorm.DB) {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return NewTvShowRepository(db), db
}

// newMockDb creates a GORM DB instance with go-sqlmock behind the postgres dialector.
func newMockDb(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db, mock
}

func seed(t *testing.T, repo *TvShowRepository, names ...string) []database.TvShow {
	t.Helper()
	shows := make([]database.TvShow, 0, len(names))
	for _, name := range names {
		show := &database.TvShow{Name: name}
		require.NoError(t, repo.Create(context.Background(), show))
		shows = append(shows, *show)
	}
	return shows
}

func names(shows []database.TvShow) []string {
	out := make([]string, 0, len(shows))
	for _, s := range shows {
		out = append(out, s.Name)
	}
	return out
}

func TestCreateAssignsID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	show := &database.TvShow{ID: 42, Name: "Breaking Bad", Seasons: 5}
	require.NoError(t, repo.Create(ctx, show))
	assert.NotZero(t, show.ID)
	assert.NotEqual(t, uint32(42), show.ID, "caller-supplied id is discarded")

	got, err := repo.Get(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad", got.Name)
	assert.Equal(t, 5, got.Seasons)
}

func TestGetMissing(t *testing.T) {
	repo, _ := newTestRepo(t)
	_, err := repo.Get(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTvShowNotFound)
}

func TestSearch(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	seed(t, repo, "Breaking Bad", "Better Call Saul", "The Wire", "50% Off", "snake_case", `back\slash`)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty returns all in id order", "", []string{"Breaking Bad", "Better Call Saul", "The Wire", "50% Off", "snake_case", `back\slash`}},
		{"blank returns all", "   ", []string{"Breaking Bad", "Better Call Saul", "The Wire", "50% Off", "snake_case", `back\slash`}},
		{"case insensitive", "BREAK", []string{"Breaking Bad"}},
		{"substring", "al", []string{"Better Call Saul"}},
		{"percent is literal", "%", []string{"50% Off"}},
		{"underscore is literal", "_", []string{"snake_case"}},
		{"backslash is literal", `\`, []string{`back\slash`}},
		{"no match", "sopranos", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shows, err := repo.Search(ctx, TvShowQuery{NameContains: tt.query})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(shows))
		})
	}
}

func TestUpdateKeepsIdentity(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	show := seed(t, repo, "Old Name")[0]

	updated, err := repo.Update(ctx, show.ID, func(s *database.TvShow) error {
		s.ID = 999
		s.Name = "New Name"
		s.Seasons = 3
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, show.ID, updated.ID)

	got, err := repo.Get(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, 3, got.Seasons)

	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrTvShowNotFound)
}

func TestUpdateMissingAndCallbackError(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	called := false
	_, err := repo.Update(ctx, 5, func(*database.TvShow) error { called = true; return nil })
	assert.ErrorIs(t, err, ErrTvShowNotFound)
	assert.False(t, called)

	show := seed(t, repo, "Keep")[0]
	boom := errors.New("boom")
	_, err = repo.Update(ctx, show.ID, func(s *database.TvShow) error {
		s.Name = "Changed"
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, show.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep", got.Name)
}

func TestDeleteRemovesWatchListEntries(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	shows := seed(t, repo, "Gone", "Stays")

	require.NoError(t, db.Create(&database.WatchListEntry{MemberID: 1, TvShowID: shows[0].ID}).Error)
	require.NoError(t, db.Create(&database.WatchListEntry{MemberID: 1, TvShowID: shows[1].ID}).Error)

	require.NoError(t, repo.Delete(ctx, shows[0].ID))

	_, err := repo.Get(ctx, shows[0].ID)
	assert.ErrorIs(t, err, ErrTvShowNotFound)

	var remaining []database.WatchListEntry
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, shows[1].ID, remaining[0].TvShowID)

	assert.ErrorIs(t, repo.Delete(ctx, shows[0].ID), ErrTvShowNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSearchSQLEscapesPattern(t *testing.T) {
	db, mock := newMockDb(t)
	repo := NewTvShowRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow(3, "50% Off")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tv_shows" WHERE LOWER(name) LIKE LOWER($1) ESCAPE '\' ORDER BY id ASC`)).
		WithArgs(`%50\% o\_f%`).
		WillReturnRows(rows)

	shows, err := repo.Search(context.Background(), TvShowQuery{NameContains: "50% o_f"})
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Equal(t, uint32(3), shows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchSQLWithoutFilter(t *testing.T) {
	db, mock := newMockDb(t)
	repo := NewTvShowRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "tv_shows" ORDER BY id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	shows, err := repo.Search(context.Background(), TvShowQuery{})
	require.NoError(t, err)
	assert.Empty(t, shows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingRollsBack(t *testing.T) {
	db, mock := newMockDb(t)
	repo := NewTvShowRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "watch_list_entries" WHERE tv_show_id = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "tv_shows" WHERE "tv_shows"."id" = $1`)).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.Delete(context.Background(), 7), ErrTvShowNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchSQLFailureIsWrapped(t *testing.T) {
	db, mock := newMockDb(t)
	repo := NewTvShowRepository(db)

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("connection reset"))

	_, err := repo.Search(context.Background(), TvShowQuery{})
	assert.ErrorContains(t, err, "failed to search tv shows")
	assert.ErrorContains(t, err, "connection reset")
}
