//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/maltroom/cellarman/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstLoginCreatedSuperadmin(t *testing.T) {
	// The very first login of the suite happened in TestMain.
	assert.Equal(t, superadminEmail, bootstrapLogin.Email)
	assert.Equal(t, "superadmin", bootstrapLogin.Role)
	assert.Equal(t, "first user - superadmin created", bootstrapLogin.Message)
}

func TestLaterLoginsCreatePlainMembers(t *testing.T) {
	client := newTestClient(t)

	result := loginAs(t, client, uniqueEmail("member"), "Second Member")

	assert.Equal(t, "user", result.Role)
	assert.Equal(t, "user created", result.Message)
}

func TestRepeatLoginIsIdempotent(t *testing.T) {
	client := newTestClient(t)
	email := uniqueEmail("repeat")

	first := loginAs(t, client, email, "Repeat Member")
	second := loginAs(t, client, email, "Repeat Member")

	assert.Equal(t, first.Email, second.Email)
	assert.Equal(t, first.Role, second.Role)
	assert.Empty(t, second.Message, "repeat login must not report creation")
}

func TestListUsersRequiresAdmin(t *testing.T) {
	client, _ := userClient(t)

	resp, err := client.GET("/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSuperadminListsUsers(t *testing.T) {
	_, email := userClient(t)

	resp, err := superadminClient(t).GET("/users")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var users []struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	testutil.DecodeJSON(t, resp, &users)

	emails := make(map[string]string, len(users))
	for _, u := range users {
		emails[u.Email] = u.Role
	}
	assert.Equal(t, "superadmin", emails[superadminEmail])
	assert.Equal(t, "user", emails[email])
}

func TestPromoteAndDemoteMember(t *testing.T) {
	// Arrange
	_, email := userClient(t)
	superadmin := superadminClient(t)

	// Act — promote
	resp, err := superadmin.PUT("/users/"+email+"/role", map[string]string{"role": "admin"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, "admin", updated.Role)

	// Act — demote back
	resp, err = superadmin.PUT("/users/"+email+"/role", map[string]string{"role": "user"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, "user", updated.Role)
}

func TestAdminCanManageRoles(t *testing.T) {
	admin, _ := adminClient(t)
	_, target := userClient(t)

	resp, err := admin.PUT("/users/"+target+"/role", map[string]string{"role": "admin"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCannotChangeOwnRole(t *testing.T) {
	admin, email := adminClient(t)

	resp, err := admin.PUT("/users/"+email+"/role", map[string]string{"role": "user"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := testutil.ReadBody(t, resp)
	assert.Contains(t, body, "cannot change own role")
}

func TestCannotChangeSuperadminRole(t *testing.T) {
	admin, _ := adminClient(t)

	resp, err := admin.PUT("/users/"+superadminEmail+"/role", map[string]string{"role": "user"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body := testutil.ReadBody(t, resp)
	assert.Contains(t, body, "cannot change a superadmin's role")
}

func TestCannotAssignSuperadminRole(t *testing.T) {
	_, target := userClient(t)

	resp, err := superadminClient(t).PUT("/users/"+target+"/role",
		map[string]string{"role": "superadmin"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := testutil.ReadBody(t, resp)
	assert.Contains(t, body, "role must be user or admin")
}

func TestUpdateRoleUnknownMember(t *testing.T) {
	resp, err := superadminClient(t).PUT("/users/"+uniqueEmail("nobody")+"/role",
		map[string]string{"role": "admin"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
