package privacy

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/tracky/internal/user"
)

func TestProject(t *testing.T) {
	now := time.Now().UTC()
	u := &user.User{
		ID:                7,
		Username:          "bob",
		Email:             "bob@example.com",
		PasswordHash:      "$argon2id$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		ProfilePictureURL: "https://example.com/bob.png",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	tests := []struct {
		name      string
		callerID  int64
		wantEmail string
	}{
		{name: "owner sees email", callerID: 7, wantEmail: "bob@example.com"},
		{name: "other user", callerID: 8, wantEmail: ""},
		{name: "anonymous", callerID: Anonymous, wantEmail: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Project(u, tt.callerID)
			require.NotNil(t, view)
			assert.Equal(t, tt.wantEmail, view.Email)
			assert.Equal(t, "bob", view.Username)

			raw, err := json.Marshal(view)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "argon2id")
		})
	}
}

func TestProjectNil(t *testing.T) {
	assert.Nil(t, Project(nil, 1))
}

func TestUserHasNoEmailInJSON(t *testing.T) {
	raw, err := json.Marshal(&user.User{ID: 1, Email: "a@b.c", PasswordHash: "h"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "a@b.c")
	assert.NotContains(t, string(raw), `"h"`)
}
