package handlers

import (
	"testing"

	"github.com/dimitrije/unity-admin/internal/session"
	"github.com/dimitrije/unity-admin/tests/testutil"
	"github.com/stretchr/testify/mock"
)

// authenticate returns a session source that resolves state and a matching access token.
func authenticate(t *testing.T, state *session.State) (*testutil.MockSessionContext, string) {
	t.Helper()
	sessions := new(testutil.MockSessionContext)
	sessions.On("Current", mock.Anything, state.User.SessionID).Return(state, nil)
	token := testutil.GenerateTestToken(t, state.User.ID, state.User.SessionID, state.User.Email)
	return sessions, token
}
