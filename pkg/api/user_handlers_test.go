package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/vetrina/pkg/auth"
)

func TestUserList_AdminOnly(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/users", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	userCookie := app.login(t, "user", "user123")
	rec = app.do(t, http.MethodGet, "/api/users", nil, userCookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminCookie := app.login(t, "admin", "admin123")
	rec = app.do(t, http.MethodGet, "/api/users", nil, adminCookie)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []*auth.SafeUser
	decodeBody(t, rec, &users)
	require.Len(t, users, 2)
	assert.NotContains(t, rec.Body.String(), "password")
}
