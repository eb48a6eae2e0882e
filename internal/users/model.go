package users

import "time"

// User is an account identity. Guests (X-Guest-Id) are not persisted here;
// a row appears on first OAuth login.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	PictureURL string    `json:"pictureUrl"`
	Tier       string    `json:"tier"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
