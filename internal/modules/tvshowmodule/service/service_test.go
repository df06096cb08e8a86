package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule/models"
	"github.com/mantonx/seasontracker/internal/modules/tvshowmodule/repository"
	"github.com/mantonx/seasontracker/internal/types"
	"github.com/mantonx/seasontracker/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Authorize(ctx context.Context, role string) error {
	return m.Called(ctx, role).Error(0)
}

func allowAll() *mockAuthorizer {
	a := new(mockAuthorizer)
	a.On("Authorize", mock.Anything, auth.RoleCanManageTvShows).Return(nil)
	return a
}

func denyAll(err error) *mockAuthorizer {
	a := new(mockAuthorizer)
	a.On("Authorize", mock.Anything, auth.RoleCanManageTvShows).Return(err)
	return a
}

type fixture struct {
	svc  *TvShowService
	repo *repository.TvShowRepository
}

func newFixture(t *testing.T, a auth.Authorizer) fixture {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	repo := repository.NewTvShowRepository(db)
	return fixture{svc: NewTvShowService(repo, a, validation.New()), repo: repo}
}

func (f fixture) count(t *testing.T) int64 {
	t.Helper()
	n, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestCreateAssignsIdentity(t *testing.T) {
	f := newFixture(t, allowAll())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &models.TvShowDto{ID: 99, Name: "Breaking Bad", Seasons: 5, Network: "AMC"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, "AMC", got.Network)
}

func TestCreateRejectsInvalidName(t *testing.T) {
	f := newFixture(t, allowAll())

	for name, dto := range map[string]*models.TvShowDto{
		"missing body": nil,
		"empty name":   {Name: ""},
		"blank name":   {Name: "   \t"},
		"bad seasons":  {Name: "Ok", Seasons: -1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), dto)
			assert.True(t, types.IsCode(err, types.ErrorCodeValidation), "got %v", err)
			assert.Zero(t, f.count(t))
		})
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, allowAll())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &models.TvShowDto{Name: "The Wire", Seasons: 1, Genre: "Crime"})
	require.NoError(t, err)

	err = f.svc.Update(ctx, created.ID, &models.TvShowDto{ID: created.ID + 100, Name: "The Wire", Seasons: 5})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, 5, got.Seasons)
	assert.Empty(t, got.Genre, "every mutable field is overwritten")
}

func TestUpdateMissing(t *testing.T) {
	f := newFixture(t, allowAll())
	ctx := context.Background()

	err := f.svc.Update(ctx, 12345, &models.TvShowDto{Name: "Valid"})
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound), "got %v", err)

	// Validation runs before the lookup.
	err = f.svc.Update(ctx, 12345, &models.TvShowDto{Name: ""})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation), "got %v", err)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, allowAll())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &models.TvShowDto{Name: "Lost"})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	_, err = f.svc.Get(ctx, created.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))

	err = f.svc.Delete(ctx, created.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
}

func TestListMatchesCaseInsensitiveSubstring(t *testing.T) {
	f := newFixture(t, allowAll())
	ctx := context.Background()

	for _, name := range []string{"Breaking Bad", "Better Call Saul", "Prison Break", "Dark"} {
		_, err := f.svc.Create(ctx, &models.TvShowDto{Name: name})
		require.NoError(t, err)
	}

	all, err := f.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	matched, err := f.svc.List(ctx, "bReAk")
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, "Breaking Bad", matched[0].Name)
	assert.Equal(t, "Prison Break", matched[1].Name)

	none, err := f.svc.List(ctx, "sopranos")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestMutationsRequireRole(t *testing.T) {
	seeded := newFixture(t, allowAll())
	ctx := context.Background()
	show, err := seeded.svc.Create(ctx, &models.TvShowDto{Name: "Fargo", Seasons: 4})
	require.NoError(t, err)

	for name, denial := range map[string]error{
		"anonymous": types.NewUnauthorizedError("authentication required"),
		"forbidden": types.NewForbiddenError(auth.RoleCanManageTvShows),
	} {
		t.Run(name, func(t *testing.T) {
			authz := denyAll(denial)
			svc := NewTvShowService(seeded.repo, authz, validation.New())

			_, err := svc.Create(ctx, &models.TvShowDto{Name: "New"})
			assert.True(t, types.IsAuthorizationError(err))

			err = svc.Update(ctx, show.ID, &models.TvShowDto{Name: "Changed"})
			assert.True(t, types.IsAuthorizationError(err))

			// Authorization is decided before validation.
			err = svc.Update(ctx, show.ID, nil)
			assert.True(t, types.IsAuthorizationError(err))

			err = svc.Delete(ctx, show.ID)
			assert.True(t, types.IsAuthorizationError(err))

			got, err := svc.Get(ctx, show.ID)
			require.NoError(t, err)
			assert.Equal(t, show, got)
			assert.Equal(t, int64(1), seeded.count(t))
			authz.AssertNumberOfCalls(t, "Authorize", 4)
		})
	}
}

func TestScenario(t *testing.T) {
	f := newFixture(t, allowAll())
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &models.TvShowDto{Name: "Breaking Bad"})
	require.NoError(t, err)

	listed, err := f.svc.List(ctx, "break")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	require.NoError(t, f.svc.Delete(ctx, created.ID))

	listed, err = f.svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, listed)

	err = f.svc.Delete(ctx, created.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))
}

type failingStore struct {
	err error
}

func (s failingStore) Search(context.Context, repository.TvShowQuery) ([]database.TvShow, error) {
	return nil, s.err
}
func (s failingStore) Get(context.Context, uint32) (*database.TvShow, error) { return nil, s.err }
func (s failingStore) Create(context.Context, *database.TvShow) error      { return s.err }
func (s failingStore) Update(context.Context, uint32, func(*database.TvShow) error) (*database.TvShow, error) {
	return nil, s.err
}
func (s failingStore) Delete(context.Context, uint32) error { return s.err }

func TestStorageFaultsAreInternal(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewTvShowService(failingStore{err: boom}, allowAll(), validation.New())
	ctx := context.Background()

	_, err := svc.List(ctx, "")
	assert.True(t, types.IsCode(err, types.ErrorCodeInternal))
	assert.ErrorIs(t, err, boom)

	_, err = svc.Create(ctx, &models.TvShowDto{Name: "x"})
	assert.True(t, types.IsCode(err, types.ErrorCodeInternal))

	err = svc.Update(ctx, 1, &models.TvShowDto{Name: "x"})
	assert.True(t, types.IsCode(err, types.ErrorCodeInternal))

	err = svc.Delete(ctx, 1)
	assert.True(t, types.IsCode(err, types.ErrorCodeInternal))
	assert.ErrorIs(t, err, boom)
}
