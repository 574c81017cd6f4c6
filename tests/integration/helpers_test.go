//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/maltroom/cellarman/internal/testutil"
	"github.com/stretchr/testify/require"
)

// jsonDecode decodes and closes a response body without *testing.T, for use
// in TestMain.
func jsonDecode(resp *http.Response, v interface{}) error {
	defer func() { _ = resp.Body.Close() }()
	return json.NewDecoder(resp.Body).Decode(v)
}

// uniqueEmail returns an email address no other test has used.
func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@club.example", prefix, uuid.NewString()[:8])
}

type loginResult struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Message string `json:"message"`
	IDToken string `json:"id_token"`
}

// loginAs signs the given account in (registering it on first use) and
// returns the login response.
func loginAs(t *testing.T, client *testutil.Client, email, name string) loginResult {
	t.Helper()

	resp, err := client.POST("/login", map[string]string{
		"token": testToken(email, name),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result loginResult
	testutil.DecodeJSON(t, resp, &result)
	return result
}

// superadminClient returns a client authenticated as the suite superadmin.
func superadminClient(t *testing.T) *testutil.Client {
	t.Helper()
	return newTestClient(t).As(testToken(superadminEmail, superadminName))
}

// adminClient registers a fresh account, promotes it to admin, and returns
// an authenticated client for it.
func adminClient(t *testing.T) (*testutil.Client, string) {
	t.Helper()

	email := uniqueEmail("admin")
	client := newTestClient(t)
	loginAs(t, client, email, "Test Admin")

	resp, err := superadminClient(t).PUT("/users/"+email+"/role", map[string]string{"role": "admin"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	return client.As(testToken(email, "Test Admin")), email
}

// userClient registers a fresh plain-member account and returns an
// authenticated client for it.
func userClient(t *testing.T) (*testutil.Client, string) {
	t.Helper()

	email := uniqueEmail("user")
	client := newTestClient(t)
	loginAs(t, client, email, "Test Member")
	return client.As(testToken(email, "Test Member")), email
}

type bottleResult struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Age         string  `json:"age"`
	Strength    string  `json:"strength"`
	BottleSize  string  `json:"bottle_size"`
	YearBottled string  `json:"year_bottled"`
	Price       float64 `json:"price"`
}

// createBottle adds a bottle via the API and returns it. Cleanup removes it.
func createBottle(t *testing.T, client *testutil.Client, payload map[string]interface{}) bottleResult {
	t.Helper()

	resp, err := client.POST("/bottles", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var bottle bottleResult
	testutil.DecodeJSON(t, resp, &bottle)

	t.Cleanup(func() {
		resp, err := client.DELETE("/bottles/" + bottle.ID)
		if err != nil {
			t.Logf("cleanup warning (bottle %s): %v", bottle.ID, err)
			return
		}
		resp.Body.Close()
	})

	return bottle
}

// seedCatalogEntry inserts a master catalog row directly; the catalog has no
// write API. Cleanup removes it.
func seedCatalogEntry(t *testing.T, name string, age, strength *string) {
	t.Helper()

	ctx := context.Background()
	_, err := testDB.Exec(ctx,
		`INSERT INTO master_whiskies (name, age, strength) VALUES ($1, $2, $3)`,
		name, age, strength,
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if _, err := testDB.Exec(context.Background(),
			`DELETE FROM master_whiskies WHERE name = $1`, name); err != nil {
			t.Logf("cleanup warning (catalog %s): %v", name, err)
		}
	})
}

func ptr(s string) *string { return &s }
