// Package storetest checks a store.Store backend against the contracts
// both backends share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/ussm/internal/domain"
	"github.com/MrSnakeDoc/ussm/internal/store"
)

// Run exercises a fresh, empty store returned by open for every subtest.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("catalog", func(t *testing.T) { testCatalog(t, open(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("favourites", func(t *testing.T) { testFavourites(t, open(t)) })
	t.Run("layouts", func(t *testing.T) { testLayouts(t, open(t)) })
	t.Run("shares", func(t *testing.T) { testShares(t, open(t)) })
}

func names(services []domain.Service) []string {
	out := make([]string, len(services))
	for i, s := range services {
		out[i] = s.Name
	}
	return out
}

func testCatalog(t *testing.T, st store.Store) {
	ctx := context.Background()
	require.NoError(t, st.Ping(ctx))

	list, err := st.ListServices(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	aws := domain.Service{Name: "AWS", Type: domain.TypeExternal, Status: domain.StatusOperational}
	crm := domain.Service{Name: "Internal CRM", Type: domain.TypeInternal, Status: domain.StatusDown}
	require.NoError(t, st.UpsertServices(ctx, []domain.Service{aws, crm}))
	require.NoError(t, st.UpsertServices(ctx, []domain.Service{aws}))

	list, err = st.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AWS", "Internal CRM"}, names(list))

	aws.Status = domain.StatusPartialOutage
	require.NoError(t, st.UpsertServices(ctx, []domain.Service{aws}))
	list, err = st.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AWS", "Internal CRM"}, names(list))
	assert.Equal(t, domain.StatusPartialOutage, list[0].Status)

	got, err := st.GetService(ctx, "Internal CRM")
	require.NoError(t, err)
	assert.Equal(t, crm, got)

	_, err = st.GetService(ctx, "aws")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, st.DeleteService(ctx, "AWS"))
	require.NoError(t, st.DeleteService(ctx, "AWS"))
	list, err = st.ListServices(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Internal CRM"}, names(list))
}

func testUsers(t *testing.T, st store.Store) {
	ctx := context.Background()
	alice := domain.User{ID: "id-1", Username: "alice", Role: domain.RoleAdmin, PasswordHash: "h1"}
	bob := domain.User{ID: "id-2", Username: "bob", Role: domain.RoleUser, PasswordHash: "h2"}

	require.NoError(t, st.CreateUser(ctx, alice))
	require.NoError(t, st.CreateUser(ctx, bob))
	err := st.CreateUser(ctx, domain.User{ID: "id-3", Username: "alice", Role: domain.RoleUser})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := st.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = st.GetUser(ctx, "id-3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = st.GetUserByName(ctx, "carol")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, st.UpdateRole(ctx, "id-2", domain.RoleDeveloper))
	got, err = st.GetUser(ctx, "id-2")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDeveloper, got.Role)
	assert.Equal(t, "h2", got.PasswordHash)
	assert.ErrorIs(t, st.UpdateRole(ctx, "nobody", domain.RoleAdmin), domain.ErrNotFound)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func testFavourites(t *testing.T, st store.Store) {
	ctx := context.Background()
	fav := func(name string) domain.Favourite { return domain.Favourite{UserID: "u1", ServiceName: name} }

	require.NoError(t, st.AddFavourite(ctx, fav("GitHub")))
	require.NoError(t, st.AddFavourite(ctx, fav("AWS")))
	assert.ErrorIs(t, st.AddFavourite(ctx, fav("AWS")), domain.ErrConflict)
	require.NoError(t, st.AddFavourite(ctx, domain.Favourite{UserID: "u2", ServiceName: "AWS"}))

	favs, err := st.ListFavourites(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Favourite{fav("GitHub"), fav("AWS")}, favs)

	require.NoError(t, st.RemoveFavourite(ctx, fav("GitHub")))
	require.NoError(t, st.RemoveFavourite(ctx, fav("GitHub")))
	favs, err = st.ListFavourites(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Favourite{fav("AWS")}, favs)

	favs, err = st.ListFavourites(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, favs)
	assert.Empty(t, favs)
}

func testLayouts(t *testing.T, st store.Store) {
	ctx := context.Background()

	layout, err := st.GetLayout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, layout)

	require.NoError(t, st.SaveLayout(ctx, "u1", []string{"GitHub", "AWS"}))
	layout, err = st.GetLayout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"GitHub", "AWS"}, layout)

	require.NoError(t, st.SaveLayout(ctx, "u1", nil))
	layout, err = st.GetLayout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, layout)

	require.NoError(t, st.SaveLayout(ctx, "u1", []string{"AWS"}))
	require.NoError(t, st.ResetLayout(ctx, "u1"))
	require.NoError(t, st.ResetLayout(ctx, "u1"))
	layout, err = st.GetLayout(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{}, layout)
}

func testShares(t *testing.T, st store.Store) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	board := func(owner string, at time.Time, layout ...string) domain.SharedBoard {
		return domain.SharedBoard{OwnerUserID: owner, SharedWithUserID: "B", Layout: layout, CreatedAt: at}
	}

	require.NoError(t, st.CreateShare(ctx, board("C", t0.Add(time.Minute), "GitHub")))
	require.NoError(t, st.CreateShare(ctx, board("A", t0, "AWS", "GitHub")))
	assert.ErrorIs(t, st.CreateShare(ctx, board("A", t0, "AWS")), domain.ErrConflict)
	require.NoError(t, st.CreateShare(ctx, domain.SharedBoard{OwnerUserID: "B", SharedWithUserID: "A", Layout: []string{}, CreatedAt: t0}))

	boards, err := st.ListSharedWith(ctx, "B")
	require.NoError(t, err)
	require.Len(t, boards, 2)
	assert.Equal(t, "A", boards[0].OwnerUserID)
	assert.Equal(t, []string{"AWS", "GitHub"}, boards[0].Layout)
	assert.True(t, t0.Equal(boards[0].CreatedAt))
	assert.Equal(t, "C", boards[1].OwnerUserID)

	require.NoError(t, st.DeleteShare(ctx, "A", "B"))
	require.NoError(t, st.DeleteShare(ctx, "A", "B"))
	boards, err = st.ListSharedWith(ctx, "B")
	require.NoError(t, err)
	require.Len(t, boards, 1)

	boards, err = st.ListSharedWith(ctx, "nobody")
	require.NoError(t, err)
	assert.NotNil(t, boards)
	assert.Empty(t, boards)
}
