// Package privacy turns stored records into response views, hiding the fields
// that only their owner may see.
package privacy

import (
	"github.com/patric-chuzhbe/tracky/internal/models"
	"github.com/patric-chuzhbe/tracky/internal/user"
)

// Anonymous is the caller id used for requests without a session.
const Anonymous int64 = 0

// Project builds the view of u as seen by callerID. Email is kept only when
// the caller is the user itself.
func Project(u *user.User, callerID int64) *models.UserView {
	if u == nil {
		return nil
	}

	view := &models.UserView{
		ID:                u.ID,
		Username:          u.Username,
		ProfilePictureURL: u.ProfilePictureURL,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
	if callerID != Anonymous && callerID == u.ID {
		view.Email = u.Email
	}

	return view
}
