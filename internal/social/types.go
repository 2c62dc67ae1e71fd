package social

import (
	"errors"
	"time"
)

// User is the account record. PasswordHash is only ever set to an already
// hashed value; plaintext never reaches the store.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar"`
	Joined       time.Time `json:"joined"`
}

// Like records a single user's like on a post. One like per user.
type Like struct {
	UserID string `json:"user"`
}

// Comment carries denormalized name/avatar so it still renders after the
// author deletes their account.
type Comment struct {
	ID     string    `json:"id"`
	UserID string    `json:"user"`
	Text   string    `json:"text"`
	Name   string    `json:"name,omitempty"`
	Avatar string    `json:"avatar,omitempty"`
	Date   time.Time `json:"date"`
}

// Post is the post document. UserID is the creator and is immutable; it is
// the sole input to ownership checks on delete.
type Post struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user"`
	Text     string    `json:"text"`
	Name     string    `json:"name,omitempty"`
	Avatar   string    `json:"avatar,omitempty"`
	Date     time.Time `json:"date"`
	Likes    []Like    `json:"likes"`
	Comments []Comment `json:"comments"`
}

// Experience is a work-history entry on a profile. Dates arrive as opaque
// strings from clients and are stored verbatim.
type Experience struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	From        string `json:"from"`
	To          string `json:"to,omitempty"`
	Current     bool   `json:"current"`
	Description string `json:"description,omitempty"`
}

// Education is a study-history entry on a profile.
type Education struct {
	ID           string `json:"id"`
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	From         string `json:"from"`
	To           string `json:"to,omitempty"`
	Current      bool   `json:"current"`
	Description  string `json:"description,omitempty"`
}

// SocialLinks groups the optional outbound profile URLs.
type SocialLinks struct {
	Youtube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Profile is the public developer profile linked one-to-one with a user.
type Profile struct {
	UserID     string       `json:"user"`
	Handle     string       `json:"handle"`
	Company    string       `json:"company,omitempty"`
	Website    string       `json:"website,omitempty"`
	Location   string       `json:"location,omitempty"`
	Status     string       `json:"status"`
	Skills     []string     `json:"skills"`
	Bio        string       `json:"bio,omitempty"`
	Github     string       `json:"github,omitempty"`
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Social     SocialLinks  `json:"social"`
	CreatedOn  time.Time    `json:"createdOn"`
}

var (
	ErrNotFound        = errors.New("social: not found")
	ErrDuplicateEmail  = errors.New("social: email already registered")
	ErrDuplicateHandle = errors.New("social: handle already in use")
	ErrAlreadyLiked    = errors.New("social: post already liked by user")
	ErrNotLiked        = errors.New("social: post not liked by user")
)
