package social

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"devlink.org/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests and by the API when no database DSN is configured.
type InMemory struct {
	mu       sync.RWMutex
	users    map[string]*User    // id -> user
	profiles map[string]*Profile // userID -> profile
	posts    map[string]*Post    // id -> post
}

var _ Store = (*InMemory)(nil)

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		users:    make(map[string]*User),
		profiles: make(map[string]*Profile),
		posts:    make(map[string]*Post),
	}
}

func (s *InMemory) Users() UserStore       { return (*memUsers)(s) }
func (s *InMemory) Profiles() ProfileStore { return (*memProfiles)(s) }
func (s *InMemory) Posts() PostStore       { return (*memPosts)(s) }

// Users -------------------------------------------------------------------

type memUsers InMemory

func (s *memUsers) Create(ctx context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range s.users {
		if strings.ToLower(existing.Email) == email {
			return ErrDuplicateEmail
		}
	}
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Joined.IsZero() {
		u.Joined = time.Now().UTC()
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *memUsers) Find(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if strings.ToLower(u.Email) == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *memUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *memUsers) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// Profiles ----------------------------------------------------------------

type memProfiles InMemory

func (s *memProfiles) Upsert(ctx context.Context, p *Profile) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := strings.TrimSpace(p.Handle)
	for owner, existing := range s.profiles {
		if existing.Handle == handle && owner != p.UserID {
			return nil, ErrDuplicateHandle
		}
	}
	existing, ok := s.profiles[p.UserID]
	cp := *p
	cp.Handle = handle
	if ok {
		// Nested arrays survive a profile edit untouched.
		cp.Experience = existing.Experience
		cp.Education = existing.Education
		cp.CreatedOn = existing.CreatedOn
	} else {
		cp.Experience = []Experience{}
		cp.Education = []Education{}
		cp.CreatedOn = time.Now().UTC()
	}
	s.profiles[p.UserID] = &cp
	return copyProfile(&cp), nil
}

func (s *memProfiles) FindByUser(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyProfile(p), nil
}

func (s *memProfiles) FindByHandle(ctx context.Context, handle string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if p.Handle == handle {
			return copyProfile(p), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memProfiles) List(ctx context.Context) ([]*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		res = append(res, copyProfile(p))
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedOn.Before(res[j].CreatedOn) })
	return res, nil
}

func (s *memProfiles) AddExperience(ctx context.Context, userID string, exp Experience) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if exp.ID == "" {
		exp.ID = ids.New()
	}
	// Newest entry first, matching the feed order clients expect.
	p.Experience = append([]Experience{exp}, p.Experience...)
	return copyProfile(p), nil
}

func (s *memProfiles) RemoveExperience(ctx context.Context, userID, expID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	kept := p.Experience[:0]
	found := false
	for _, e := range p.Experience {
		if e.ID == expID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return nil, ErrNotFound
	}
	p.Experience = kept
	return copyProfile(p), nil
}

func (s *memProfiles) AddEducation(ctx context.Context, userID string, edu Education) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if edu.ID == "" {
		edu.ID = ids.New()
	}
	p.Education = append([]Education{edu}, p.Education...)
	return copyProfile(p), nil
}

func (s *memProfiles) RemoveEducation(ctx context.Context, userID, eduID string) (*Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	kept := p.Education[:0]
	found := false
	for _, e := range p.Education {
		if e.ID == eduID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return nil, ErrNotFound
	}
	p.Education = kept
	return copyProfile(p), nil
}

func (s *memProfiles) DeleteByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	return nil
}

// Posts -------------------------------------------------------------------

type memPosts InMemory

func (s *memPosts) Create(ctx context.Context, p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = ids.New()
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	cp := *p
	if cp.Likes == nil {
		cp.Likes = []Like{}
	}
	if cp.Comments == nil {
		cp.Comments = []Comment{}
	}
	s.posts[p.ID] = &cp
	*p = *copyPost(&cp)
	return nil
}

func (s *memPosts) Find(ctx context.Context, id string) (*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyPost(p), nil
}

func (s *memPosts) List(ctx context.Context) ([]*Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]*Post, 0, len(s.posts))
	for _, p := range s.posts {
		res = append(res, copyPost(p))
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Date.Equal(res[j].Date) {
			return res[i].ID > res[j].ID
		}
		return res[i].Date.After(res[j].Date)
	})
	return res, nil
}

func (s *memPosts) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *memPosts) AddLike(ctx context.Context, postID, userID string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	for _, like := range p.Likes {
		if like.UserID == userID {
			return nil, ErrAlreadyLiked
		}
	}
	p.Likes = append(p.Likes, Like{UserID: userID})
	return copyPost(p), nil
}

func (s *memPosts) RemoveLike(ctx context.Context, postID, userID string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	kept := p.Likes[:0]
	found := false
	for _, like := range p.Likes {
		if like.UserID == userID {
			found = true
			continue
		}
		kept = append(kept, like)
	}
	if !found {
		return nil, ErrNotLiked
	}
	p.Likes = kept
	return copyPost(p), nil
}

func (s *memPosts) AddComment(ctx context.Context, postID string, c Comment) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	if c.ID == "" {
		c.ID = ids.New()
	}
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	p.Comments = append([]Comment{c}, p.Comments...)
	return copyPost(p), nil
}

func (s *memPosts) RemoveComment(ctx context.Context, postID, commentID string) (*Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil, ErrNotFound
	}
	kept := p.Comments[:0]
	found := false
	for _, c := range p.Comments {
		if c.ID == commentID {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return nil, ErrNotFound
	}
	p.Comments = kept
	return copyPost(p), nil
}

// copy helpers keep callers isolated from store-internal slices.

func copyProfile(p *Profile) *Profile {
	cp := *p
	cp.Skills = append([]string(nil), p.Skills...)
	cp.Experience = append([]Experience(nil), p.Experience...)
	cp.Education = append([]Education(nil), p.Education...)
	if cp.Experience == nil {
		cp.Experience = []Experience{}
	}
	if cp.Education == nil {
		cp.Education = []Education{}
	}
	return &cp
}

func copyPost(p *Post) *Post {
	cp := *p
	cp.Likes = append([]Like(nil), p.Likes...)
	cp.Comments = append([]Comment(nil), p.Comments...)
	if cp.Likes == nil {
		cp.Likes = []Like{}
	}
	if cp.Comments == nil {
		cp.Comments = []Comment{}
	}
	return &cp
}
