package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pixido-dev/pixido/internal/cli/api"
)

func TestDecide(t *testing.T) {
	guest := Session{}
	loading := Session{Loading: true}
	member := Session{User: &api.User{Username: "alice", Role: "user"}}
	admin := Session{User: &api.User{Username: "root", Role: "admin"}}
	superuser := Session{User: &api.User{Username: "sys", Role: "user", IsSuperuser: true}}

	tests := []struct {
		name    string
		session Session
		req     Requirement
		want    Decision
	}{
		{"loading defers public routes", loading, Public(), ShowLoading},
		{"loading defers authenticated routes", loading, AuthenticatedOnly(), ShowLoading},
		{"loading defers admin routes", loading, AdminOnly(), ShowLoading},

		{"guest may enter public routes", guest, Public(), Render},
		{"guest redirected to login", guest, AuthenticatedOnly(), RedirectToLogin},
		{"guest redirected to login before admin check", guest, AdminOnly(), RedirectToLogin},
		{"guest redirected to login on role routes", guest, RoleIn("editor"), RedirectToLogin},

		{"member may enter public routes", member, Public(), Render},
		{"member may enter authenticated routes", member, AuthenticatedOnly(), Render},
		{"member sent home from admin routes", member, AdminOnly(), RedirectToHome},

		{"admin role passes admin routes", admin, AdminOnly(), Render},
		{"superuser flag passes admin routes", superuser, AdminOnly(), Render},

		{"matching role passes role routes", member, RoleIn("user", "editor"), Render},
		{"non-matching role sent home", member, RoleIn("editor"), RedirectToHome},
		{"empty role set behaves like authenticated-only", member, RoleIn(), Render},
		{"admin role does not bypass role routes", admin, RoleIn("editor"), RedirectToHome},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.session, tt.req))
		})
	}
}

func TestDecideNeverMutatesSession(t *testing.T) {
	user := &api.User{Username: "alice", Role: "user"}
	session := Session{User: user}

	Decide(session, AdminOnly())
	Decide(session, RoleIn("editor"))

	assert.Same(t, user, session.User)
	assert.False(t, session.Loading)
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, Session{}.IsAdmin())
	assert.False(t, Session{User: &api.User{Role: "user"}}.IsAdmin())
	assert.True(t, Session{User: &api.User{Role: "admin"}}.IsAdmin())
	assert.True(t, Session{User: &api.User{Role: "user", IsSuperuser: true}}.IsAdmin())
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "render", Render.String())
	assert.Equal(t, "show-loading", ShowLoading.String())
	assert.Equal(t, "redirect-to-login", RedirectToLogin.String())
	assert.Equal(t, "redirect-to-home", RedirectToHome.String())
}
