package session

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterURLParams_KeepsWhitelistOnly(t *testing.T) {
	query := url.Values{
		"name":             {"Asha"},
		"email":            {" asha@example.com "},
		"jobApplicationId": {"ja-7"},
		"salary":           {"100"},
		"designation":      {""},
	}

	got := FilterURLParams(query)
	require.Equal(t, map[string]string{
		"name":             "Asha",
		"email":            "asha@example.com",
		"jobApplicationId": "ja-7",
	}, got)
	require.Nil(t, FilterURLParams(url.Values{"salary": {"1"}}))
}

func TestContext_Helpers(t *testing.T) {
	ctx := Context{OrganizationID: "T1", Role: "studycenter"}
	require.True(t, ctx.HasTenant())
	require.False(t, ctx.HasDepartment())
	require.True(t, ctx.IsStudyCenter())

	withURL := ctx.WithURL(url.Values{"email": {"x@y.z"}})
	require.False(t, ctx.Equal(withURL))
	require.Equal(t, "x@y.z", withURL.URLParams["email"])
}

func runStoreContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	values, err := store.Values(ctx, "missing")
	require.NoError(t, err)
	require.Empty(t, values)

	require.NoError(t, store.Put(ctx, "s1", Context{
		OrganizationID: "T1",
		DepartmentID:   "D1",
		DepartmentName: "Sales",
		Role:           "Manager",
	}.Values()))
	require.NoError(t, store.Put(ctx, "s1", map[string]string{KeyRole: "", KeyUserID: "u1"}))

	loaded, err := FromStore(ctx, store, "s1")
	require.NoError(t, err)
	require.Equal(t, Context{OrganizationID: "T1", DepartmentID: "D1", DepartmentName: "Sales", UserID: "u1"}, loaded)

	require.NoError(t, store.Delete(ctx, "s1"))
	loaded, err = FromStore(ctx, store, "s1")
	require.NoError(t, err)
	require.False(t, loaded.HasTenant())
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	runStoreContract(t, store)
}

func TestFromStore_RequiresStore(t *testing.T) {
	_, err := FromStore(context.Background(), nil, "s1")
	require.Error(t, err)
}
