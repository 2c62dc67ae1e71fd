// Package pg implements the social store on postgres. Users and profiles and
// posts are rows; the nested collections (skills, experience, education,
// likes, comments) live in jsonb columns and are mutated inside row-locked
// transactions so concurrent edits cannot drop each other's entries.
package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"devlink.org/internal/ids"
	"devlink.org/internal/social"
)

type Store struct {
	db *sql.DB
}

var _ social.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing pool; tests pass a mock here.
func NewWithDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Users() social.UserStore       { return (*pgUsers)(s) }
func (s *Store) Profiles() social.ProfileStore { return (*pgProfiles)(s) }
func (s *Store) Posts() social.PostStore       { return (*pgPosts)(s) }

// isUniqueViolation reports whether err is a postgres duplicate-key error on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
}

// --- users ---

type pgUsers Store

func (s *pgUsers) Create(ctx context.Context, u *social.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	if u.Joined.IsZero() {
		u.Joined = time.Now().UTC()
	}
	u.Email = strings.ToLower(u.Email)
	_, err := s.db.ExecContext(ctx, `
		insert into users(id, name, email, password_hash, avatar, joined)
		values ($1,$2,$3,$4,$5,$6)
	`, u.ID, u.Name, u.Email, u.PasswordHash, u.Avatar, u.Joined)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return social.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *pgUsers) Find(ctx context.Context, id string) (*social.User, error) {
	return s.findBy(ctx, `where id=$1`, id)
}

func (s *pgUsers) FindByEmail(ctx context.Context, email string) (*social.User, error) {
	return s.findBy(ctx, `where email=$1`, strings.ToLower(email))
}

func (s *pgUsers) findBy(ctx context.Context, where string, arg any) (*social.User, error) {
	var u social.User
	err := s.db.QueryRowContext(ctx, `
		select id, name, email, password_hash, avatar, joined from users `+where,
		arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.Joined)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *pgUsers) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash=$2 where id=$1`, id, passwordHash)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *pgUsers) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// --- profiles ---

type pgProfiles Store

// profileDoc is the jsonb payload holding everything beyond the indexed
// columns.
type profileDoc struct {
	Company    string              `json:"company,omitempty"`
	Website    string              `json:"website,omitempty"`
	Location   string              `json:"location,omitempty"`
	Status     string              `json:"status"`
	Skills     []string            `json:"skills"`
	Bio        string              `json:"bio,omitempty"`
	Github     string              `json:"github,omitempty"`
	Experience []social.Experience `json:"experience"`
	Education  []social.Education  `json:"education"`
	Social     social.SocialLinks  `json:"social"`
}

func docFromProfile(p *social.Profile) profileDoc {
	d := profileDoc{
		Company:    p.Company,
		Website:    p.Website,
		Location:   p.Location,
		Status:     p.Status,
		Skills:     p.Skills,
		Bio:        p.Bio,
		Github:     p.Github,
		Experience: p.Experience,
		Education:  p.Education,
		Social:     p.Social,
	}
	if d.Skills == nil {
		d.Skills = []string{}
	}
	if d.Experience == nil {
		d.Experience = []social.Experience{}
	}
	if d.Education == nil {
		d.Education = []social.Education{}
	}
	return d
}

func (d profileDoc) toProfile(userID, handle string, created time.Time) *social.Profile {
	p := &social.Profile{
		UserID:     userID,
		Handle:     handle,
		Company:    d.Company,
		Website:    d.Website,
		Location:   d.Location,
		Status:     d.Status,
		Skills:     d.Skills,
		Bio:        d.Bio,
		Github:     d.Github,
		Experience: d.Experience,
		Education:  d.Education,
		Social:     d.Social,
		CreatedOn:  created,
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []social.Experience{}
	}
	if p.Education == nil {
		p.Education = []social.Education{}
	}
	return p
}

func (s *pgProfiles) Upsert(ctx context.Context, p *social.Profile) (*social.Profile, error) {
	doc, err := json.Marshal(docFromProfile(p))
	if err != nil {
		return nil, err
	}
	// On edit, the incoming doc carries everything except the nested
	// histories: experience and education are stripped before the merge so
	// only AddExperience/AddEducation and their removals touch them.
	var created time.Time
	err = s.db.QueryRowContext(ctx, `
		insert into profiles(user_id, handle, doc, created_on)
		values ($1,$2,$3,now())
		on conflict (user_id) do update
		set handle = excluded.handle,
		    doc = profiles.doc || (excluded.doc - 'experience' - 'education')
		returning created_on
	`, p.UserID, p.Handle, doc).Scan(&created)
	if err != nil {
		if isUniqueViolation(err, "profiles_handle_key") {
			return nil, social.ErrDuplicateHandle
		}
		return nil, err
	}
	return s.FindByUser(ctx, p.UserID)
}

func (s *pgProfiles) FindByUser(ctx context.Context, userID string) (*social.Profile, error) {
	return s.findBy(ctx, `where user_id=$1`, userID)
}

func (s *pgProfiles) FindByHandle(ctx context.Context, handle string) (*social.Profile, error) {
	return s.findBy(ctx, `where handle=$1`, handle)
}

func (s *pgProfiles) findBy(ctx context.Context, where string, arg any) (*social.Profile, error) {
	var (
		userID, handle string
		raw            []byte
		created        time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		select user_id, handle, doc, created_on from profiles `+where,
		arg).Scan(&userID, &handle, &raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc profileDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc.toProfile(userID, handle, created), nil
}

func (s *pgProfiles) List(ctx context.Context) ([]*social.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		select user_id, handle, doc, created_on from profiles order by created_on desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*social.Profile
	for rows.Next() {
		var (
			userID, handle string
			raw            []byte
			created        time.Time
		)
		if err := rows.Scan(&userID, &handle, &raw, &created); err != nil {
			return nil, err
		}
		var doc profileDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		res = append(res, doc.toProfile(userID, handle, created))
	}
	return res, rows.Err()
}

// mutateDoc loads the profile row under a lock, applies fn and writes the
// document back inside the same transaction.
func (s *pgProfiles) mutateDoc(ctx context.Context, userID string, fn func(*profileDoc) error) (*social.Profile, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		handle  string
		raw     []byte
		created time.Time
	)
	err = tx.QueryRowContext(ctx, `
		select handle, doc, created_on from profiles where user_id=$1 for update
	`, userID).Scan(&handle, &raw, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var doc profileDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if err := fn(&doc); err != nil {
		return nil, err
	}
	updated, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`update profiles set doc=$2 where user_id=$1`, userID, updated); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return doc.toProfile(userID, handle, created), nil
}

func (s *pgProfiles) AddExperience(ctx context.Context, userID string, exp social.Experience) (*social.Profile, error) {
	if exp.ID == "" {
		exp.ID = ids.New()
	}
	return s.mutateDoc(ctx, userID, func(d *profileDoc) error {
		d.Experience = append([]social.Experience{exp}, d.Experience...)
		return nil
	})
}

func (s *pgProfiles) RemoveExperience(ctx context.Context, userID, expID string) (*social.Profile, error) {
	return s.mutateDoc(ctx, userID, func(d *profileDoc) error {
		for i, e := range d.Experience {
			if e.ID == expID {
				d.Experience = append(d.Experience[:i], d.Experience[i+1:]...)
				return nil
			}
		}
		return social.ErrNotFound
	})
}

func (s *pgProfiles) AddEducation(ctx context.Context, userID string, edu social.Education) (*social.Profile, error) {
	if edu.ID == "" {
		edu.ID = ids.New()
	}
	return s.mutateDoc(ctx, userID, func(d *profileDoc) error {
		d.Education = append([]social.Education{edu}, d.Education...)
		return nil
	})
}

func (s *pgProfiles) RemoveEducation(ctx context.Context, userID, eduID string) (*social.Profile, error) {
	return s.mutateDoc(ctx, userID, func(d *profileDoc) error {
		for i, e := range d.Education {
			if e.ID == eduID {
				d.Education = append(d.Education[:i], d.Education[i+1:]...)
				return nil
			}
		}
		return social.ErrNotFound
	})
}

func (s *pgProfiles) DeleteByUser(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `delete from profiles where user_id=$1`, userID)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// --- posts ---

type pgPosts Store

func (s *pgPosts) Create(ctx context.Context, p *social.Post) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	if p.Date.IsZero() {
		p.Date = time.Now().UTC()
	}
	if p.Likes == nil {
		p.Likes = []social.Like{}
	}
	if p.Comments == nil {
		p.Comments = []social.Comment{}
	}
	likes, err := json.Marshal(p.Likes)
	if err != nil {
		return err
	}
	comments, err := json.Marshal(p.Comments)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into posts(id, user_id, body, name, avatar, date, likes, comments)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, p.ID, p.UserID, p.Text, p.Name, p.Avatar, p.Date, likes, comments)
	return err
}

func scanPost(scan func(...any) error) (*social.Post, error) {
	var (
		p               social.Post
		likes, comments []byte
	)
	if err := scan(&p.ID, &p.UserID, &p.Text, &p.Name, &p.Avatar, &p.Date, &likes, &comments); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(likes, &p.Likes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(comments, &p.Comments); err != nil {
		return nil, err
	}
	if p.Likes == nil {
		p.Likes = []social.Like{}
	}
	if p.Comments == nil {
		p.Comments = []social.Comment{}
	}
	return &p, nil
}

const postColumns = `id, user_id, body, name, avatar, date, likes, comments`

func (s *pgPosts) Find(ctx context.Context, id string) (*social.Post, error) {
	row := s.db.QueryRowContext(ctx, `select `+postColumns+` from posts where id=$1`, id)
	p, err := scanPost(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *pgPosts) List(ctx context.Context) ([]*social.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+postColumns+` from posts order by date desc, id desc
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*social.Post
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (s *pgPosts) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from posts where id=$1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

// mutatePost loads the post row under a lock, applies fn and writes likes
// and comments back inside the same transaction.
func (s *pgPosts) mutatePost(ctx context.Context, postID string, fn func(*social.Post) error) (*social.Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `select `+postColumns+` from posts where id=$1 for update`, postID)
	p, err := scanPost(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, social.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := fn(p); err != nil {
		return nil, err
	}

	likes, err := json.Marshal(p.Likes)
	if err != nil {
		return nil, err
	}
	comments, err := json.Marshal(p.Comments)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`update posts set likes=$2, comments=$3 where id=$1`, postID, likes, comments); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *pgPosts) AddLike(ctx context.Context, postID, userID string) (*social.Post, error) {
	return s.mutatePost(ctx, postID, func(p *social.Post) error {
		for _, l := range p.Likes {
			if l.UserID == userID {
				return social.ErrAlreadyLiked
			}
		}
		p.Likes = append([]social.Like{{UserID: userID}}, p.Likes...)
		return nil
	})
}

func (s *pgPosts) RemoveLike(ctx context.Context, postID, userID string) (*social.Post, error) {
	return s.mutatePost(ctx, postID, func(p *social.Post) error {
		for i, l := range p.Likes {
			if l.UserID == userID {
				p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
				return nil
			}
		}
		return social.ErrNotLiked
	})
}

func (s *pgPosts) AddComment(ctx context.Context, postID string, c social.Comment) (*social.Post, error) {
	if c.ID == "" {
		c.ID = ids.New()
	}
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	return s.mutatePost(ctx, postID, func(p *social.Post) error {
		p.Comments = append([]social.Comment{c}, p.Comments...)
		return nil
	})
}

func (s *pgPosts) RemoveComment(ctx context.Context, postID, commentID string) (*social.Post, error) {
	return s.mutatePost(ctx, postID, func(p *social.Post) error {
		for i, c := range p.Comments {
			if c.ID == commentID {
				p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
				return nil
			}
		}
		return social.ErrNotFound
	})
}

// --- helpers ---

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return social.ErrNotFound
	}
	return nil
}
