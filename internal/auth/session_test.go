package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_StartsLoggedOut(t *testing.T) {
	s := NewSession()

	assert.False(t, s.LoggedIn())
	assert.Nil(t, s.Identity())

	_, err := s.Token()
	require.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSession_SetAndClear(t *testing.T) {
	s := NewSession()
	s.set("tok", &Identity{Username: "alice"})

	tok, err := s.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	assert.True(t, s.LoggedIn())

	id := s.Identity()
	require.NotNil(t, id)
	id.Username = "changed"
	assert.Equal(t, "alice", s.Identity().Username, "Identity returns a copy")

	s.clear()
	assert.False(t, s.LoggedIn())
	assert.Nil(t, s.Identity())
}
