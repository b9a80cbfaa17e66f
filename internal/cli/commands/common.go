package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/pixido-dev/pixido/internal/cli/access"
	"github.com/pixido-dev/pixido/internal/cli/api"
	"github.com/pixido-dev/pixido/internal/cli/credstore"
	"github.com/pixido-dev/pixido/internal/cli/session"
	"github.com/pixido-dev/pixido/internal/cli/transport"
	"github.com/pixido-dev/pixido/internal/cli/userconfig"
)

// cliLogger returns the logger for client-side internals. Quiet by default;
// PIXIDO_DEBUG=1 enables debug output on stderr.
func cliLogger() zerolog.Logger {
	if os.Getenv("PIXIDO_DEBUG") != "" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	}
	return zerolog.New(io.Discard)
}

// newAPIClient builds the API client against the configured server using
// the shared authenticated transport
func newAPIClient() (*api.Client, error) {
	serverURL, err := userconfig.GetServerURL()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if serverURL == "" {
		return nil, fmt.Errorf("no server configured. Run 'pixido init --server <url>' first")
	}

	return api.New(serverURL, transport.Shared(cliLogger())), nil
}

// newSession builds a session manager wired to the default credential store
// and the terminal notifier
func newSession(apiClient *api.Client) *session.Manager {
	return session.New(apiClient, credstore.Default, newNotifier(os.Stdout), cliLogger())
}

// requireAccess settles the session and enforces the command's access
// requirement, translating gate decisions into actionable errors
func requireAccess(ctx context.Context, sess *session.Manager, req access.Requirement) error {
	sess.Start(ctx)

	switch decision := access.Decide(sess.Snapshot(), req); decision {
	case access.Render:
		return nil
	case access.RedirectToLogin:
		return fmt.Errorf("not authenticated. Please run 'pixido login' first")
	case access.RedirectToHome:
		return fmt.Errorf("admin access required")
	case access.ShowLoading:
		return fmt.Errorf("session is still loading, try again")
	default:
		return fmt.Errorf("access denied (%s)", decision)
	}
}
