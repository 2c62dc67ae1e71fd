package social

import "context"

// Store describes persistence operations required by the API. Nested-array
// mutations (likes, comments, experience, education) are store operations so
// each implementation can make them atomic: the in-memory store serializes
// under a lock, the postgres store runs them inside row-locked transactions.
type Store interface {
	Users() UserStore
	Profiles() ProfileStore
	Posts() PostStore
}

// UserStore manages account records.
type UserStore interface {
	// Create persists a new user. Returns ErrDuplicateEmail when the email
	// is already registered.
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	// UpdatePassword replaces the stored hash. The value must already be
	// hashed; this store never hashes.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// ProfileStore manages profile documents keyed by user.
type ProfileStore interface {
	// Upsert creates or replaces the profile for profile.UserID. Returns
	// ErrDuplicateHandle when another user holds the handle.
	Upsert(ctx context.Context, p *Profile) (*Profile, error)
	FindByUser(ctx context.Context, userID string) (*Profile, error)
	FindByHandle(ctx context.Context, handle string) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
	AddExperience(ctx context.Context, userID string, exp Experience) (*Profile, error)
	RemoveExperience(ctx context.Context, userID, expID string) (*Profile, error)
	AddEducation(ctx context.Context, userID string, edu Education) (*Profile, error)
	RemoveEducation(ctx context.Context, userID, eduID string) (*Profile, error)
	DeleteByUser(ctx context.Context, userID string) error
}

// PostStore manages posts and their nested likes/comments.
type PostStore interface {
	Create(ctx context.Context, p *Post) error
	Find(ctx context.Context, id string) (*Post, error)
	// List returns posts ordered newest first.
	List(ctx context.Context) ([]*Post, error)
	Delete(ctx context.Context, id string) error
	AddLike(ctx context.Context, postID, userID string) (*Post, error)
	RemoveLike(ctx context.Context, postID, userID string) (*Post, error)
	AddComment(ctx context.Context, postID string, c Comment) (*Post, error)
	RemoveComment(ctx context.Context, postID, commentID string) (*Post, error)
}
