package social

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestUserCreateAndDuplicateEmail(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	alice := &User{Name: "Alice", Email: "a@x.com", PasswordHash: "hash"}
	if err := store.Users().Create(ctx, alice); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if alice.ID == "" {
		t.Fatal("expected generated id")
	}
	if alice.Joined.IsZero() {
		t.Fatal("expected joined timestamp")
	}

	dup := &User{Name: "Mallory", Email: "A@X.com", PasswordHash: "hash2"}
	if err := store.Users().Create(ctx, dup); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	found, err := store.Users().FindByEmail(ctx, "A@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if found.ID != alice.ID {
		t.Fatalf("unexpected user: %+v", found)
	}

	if err := store.Users().Delete(ctx, alice.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Users().Find(ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.Users().Delete(ctx, alice.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestProfileUpsertAndHandleUniqueness(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	p, err := store.Profiles().Upsert(ctx, &Profile{UserID: "u1", Handle: "alice", Status: "Dev", Skills: []string{"Go"}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.CreatedOn.IsZero() {
		t.Fatal("expected createdOn timestamp")
	}

	// Same handle for another user is rejected.
	if _, err := store.Profiles().Upsert(ctx, &Profile{UserID: "u2", Handle: "alice", Status: "Dev", Skills: []string{"Go"}}); !errors.Is(err, ErrDuplicateHandle) {
		t.Fatalf("expected ErrDuplicateHandle, got %v", err)
	}

	// Re-upserting your own handle is an edit, not a conflict, and keeps
	// nested arrays.
	if _, err := store.Profiles().AddExperience(ctx, "u1", Experience{Title: "Engineer", Company: "Acme", From: "2020"}); err != nil {
		t.Fatalf("AddExperience: %v", err)
	}
	updated, err := store.Profiles().Upsert(ctx, &Profile{UserID: "u1", Handle: "alice", Status: "Staff Dev", Skills: []string{"Go", "SQL"}})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	if updated.Status != "Staff Dev" {
		t.Fatalf("status not updated: %s", updated.Status)
	}
	if len(updated.Experience) != 1 {
		t.Fatalf("experience lost on edit: %v", updated.Experience)
	}

	byHandle, err := store.Profiles().FindByHandle(ctx, "alice")
	if err != nil {
		t.Fatalf("FindByHandle: %v", err)
	}
	if byHandle.UserID != "u1" {
		t.Fatalf("unexpected profile: %+v", byHandle)
	}
}

func TestProfileExperienceEducationLifecycle(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	if _, err := store.Profiles().Upsert(ctx, &Profile{UserID: "u1", Handle: "alice", Status: "Dev", Skills: []string{"Go"}}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	first, err := store.Profiles().AddExperience(ctx, "u1", Experience{Title: "Junior", Company: "Acme", From: "2018"})
	if err != nil {
		t.Fatalf("AddExperience: %v", err)
	}
	second, err := store.Profiles().AddExperience(ctx, "u1", Experience{Title: "Senior", Company: "Acme", From: "2021"})
	if err != nil {
		t.Fatalf("AddExperience: %v", err)
	}
	if len(second.Experience) != 2 || second.Experience[0].Title != "Senior" {
		t.Fatalf("newest entry not first: %v", second.Experience)
	}

	removed, err := store.Profiles().RemoveExperience(ctx, "u1", first.Experience[0].ID)
	if err != nil {
		t.Fatalf("RemoveExperience: %v", err)
	}
	if len(removed.Experience) != 1 {
		t.Fatalf("expected one entry left, got %v", removed.Experience)
	}
	if _, err := store.Profiles().RemoveExperience(ctx, "u1", "missing-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown entry, got %v", err)
	}

	edu, err := store.Profiles().AddEducation(ctx, "u1", Education{School: "MIT", Degree: "BSc", FieldOfStudy: "CS", From: "2014"})
	if err != nil {
		t.Fatalf("AddEducation: %v", err)
	}
	if _, err := store.Profiles().RemoveEducation(ctx, "u1", edu.Education[0].ID); err != nil {
		t.Fatalf("RemoveEducation: %v", err)
	}
}

func TestPostLikeSemantics(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	post := &Post{UserID: "u1", Text: "a post with enough text"}
	if err := store.Posts().Create(ctx, post); err != nil {
		t.Fatalf("Create: %v", err)
	}

	liked, err := store.Posts().AddLike(ctx, post.ID, "u2")
	if err != nil {
		t.Fatalf("AddLike: %v", err)
	}
	if len(liked.Likes) != 1 || liked.Likes[0].UserID != "u2" {
		t.Fatalf("unexpected likes: %v", liked.Likes)
	}

	// One like per user.
	if _, err := store.Posts().AddLike(ctx, post.ID, "u2"); !errors.Is(err, ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}

	if _, err := store.Posts().RemoveLike(ctx, post.ID, "u3"); !errors.Is(err, ErrNotLiked) {
		t.Fatalf("expected ErrNotLiked, got %v", err)
	}
	unliked, err := store.Posts().RemoveLike(ctx, post.ID, "u2")
	if err != nil {
		t.Fatalf("RemoveLike: %v", err)
	}
	if len(unliked.Likes) != 0 {
		t.Fatalf("like not removed: %v", unliked.Likes)
	}
}

func TestPostCommentsAndDelete(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	post := &Post{UserID: "u1", Text: "a post with enough text"}
	if err := store.Posts().Create(ctx, post); err != nil {
		t.Fatalf("Create: %v", err)
	}

	withComment, err := store.Posts().AddComment(ctx, post.ID, Comment{UserID: "u2", Text: "a comment with enough text"})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	if len(withComment.Comments) != 1 || withComment.Comments[0].ID == "" {
		t.Fatalf("unexpected comments: %v", withComment.Comments)
	}
	commentID := withComment.Comments[0].ID

	if _, err := store.Posts().RemoveComment(ctx, post.ID, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown comment, got %v", err)
	}
	cleared, err := store.Posts().RemoveComment(ctx, post.ID, commentID)
	if err != nil {
		t.Fatalf("RemoveComment: %v", err)
	}
	if len(cleared.Comments) != 0 {
		t.Fatalf("comment not removed: %v", cleared.Comments)
	}

	if err := store.Posts().Delete(ctx, post.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Posts().Delete(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}

func TestPostListNewestFirst(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	older := &Post{UserID: "u1", Text: "first post body text", Date: time.Now().UTC().Add(-time.Hour)}
	newer := &Post{UserID: "u1", Text: "second post body text", Date: time.Now().UTC()}
	if err := store.Posts().Create(ctx, older); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Posts().Create(ctx, newer); err != nil {
		t.Fatalf("Create: %v", err)
	}

	posts, err := store.Posts().List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(posts) != 2 || posts[0].ID != newer.ID {
		t.Fatalf("unexpected order: %v", posts)
	}
}
