package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"devlink.org/internal/audit"
	"devlink.org/internal/auth"
	"devlink.org/internal/social"
	"devlink.org/internal/stream"
	"devlink.org/internal/validate"
)

// handlePostsCollection serves /api/posts: list and create.
func (a *API) handlePostsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listPosts(w, r)
	case http.MethodPost:
		a.createPost(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handlePostsSubtree routes everything under /api/posts/.
func (a *API) handlePostsSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	switch {
	case rest == "stream":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.streamPosts(w, r)
	case strings.HasPrefix(rest, "like/"):
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.likePost(w, r, strings.TrimPrefix(rest, "like/"))
	case strings.HasPrefix(rest, "unlike/"):
		if r.Method != http.MethodPut {
			methodNotAllowed(w, r, http.MethodPut)
			return
		}
		a.unlikePost(w, r, strings.TrimPrefix(rest, "unlike/"))
	case strings.HasPrefix(rest, "comment/"):
		a.routeComment(w, r, strings.TrimPrefix(rest, "comment/"))
	case rest != "" && !strings.Contains(rest, "/"):
		a.routePost(w, r, rest)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) routePost(w http.ResponseWriter, r *http.Request, postID string) {
	switch r.Method {
	case http.MethodGet:
		a.getPost(w, r, postID)
	case http.MethodDelete:
		a.deletePost(w, r, postID)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

// routeComment handles POST /comment/{post_id} and
// DELETE /comment/{post_id}/{comment_id}.
func (a *API) routeComment(w http.ResponseWriter, r *http.Request, rest string) {
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.addComment(w, r, parts[0])
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r, http.MethodDelete)
			return
		}
		a.removeComment(w, r, parts[0], parts[1])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := a.store.Posts().List(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not list posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (a *API) getPost(w http.ResponseWriter, r *http.Request, postID string) {
	post, err := a.store.Posts().Find(r.Context(), postID)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "no post found with that id")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not load post")
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *API) createPost(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var form validate.PostForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if res := validate.Post(form); !res.IsValid {
		writeFieldErrors(w, res.Errors)
		return
	}
	post := &social.Post{
		UserID: ident.ID,
		Text:   form.Text,
		Name:   firstNonEmpty(form.Name, ident.Name),
		Avatar: firstNonEmpty(form.Avatar, ident.Avatar),
	}
	if err := a.store.Posts().Create(r.Context(), post); err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not create post")
		return
	}
	audit.LogEvent(r.Context(), "post.create", map[string]any{"post_id": post.ID})
	a.feed.Publish(stream.PostEvent{
		PostID:    post.ID,
		UserID:    post.UserID,
		Name:      post.Name,
		Avatar:    post.Avatar,
		Excerpt:   stream.Excerpt(post.Text),
		Timestamp: post.Date,
	})
	writeJSON(w, http.StatusCreated, post)
}

func (a *API) deletePost(w http.ResponseWriter, r *http.Request, postID string) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	post, err := a.store.Posts().Find(r.Context(), postID)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "no post found with that id")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not load post")
		return
	}
	if !auth.CanMutate(ident.ID, post.UserID) {
		writeError(w, r, http.StatusForbidden, "only the post owner can delete it")
		return
	}
	if err := a.store.Posts().Delete(r.Context(), postID); err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not delete post")
		return
	}
	audit.LogEvent(r.Context(), "post.delete", map[string]any{"post_id": postID})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Post deleted."})
}

func (a *API) likePost(w http.ResponseWriter, r *http.Request, postID string) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	post, err := a.store.Posts().AddLike(r.Context(), postID, ident.ID)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "no post found with that id")
		case errors.Is(err, social.ErrAlreadyLiked):
			writeError(w, r, http.StatusBadRequest, "user already liked this post")
		default:
			writeError(w, r, http.StatusInternalServerError, "could not like post")
		}
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *API) unlikePost(w http.ResponseWriter, r *http.Request, postID string) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	post, err := a.store.Posts().RemoveLike(r.Context(), postID, ident.ID)
	if err != nil {
		switch {
		case errors.Is(err, social.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "no post found with that id")
		case errors.Is(err, social.ErrNotLiked):
			writeError(w, r, http.StatusBadRequest, "user has not liked this post")
		default:
			writeError(w, r, http.StatusInternalServerError, "could not unlike post")
		}
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (a *API) addComment(w http.ResponseWriter, r *http.Request, postID string) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	var form validate.PostForm
	if err := decodeJSON(r, &form); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if res := validate.Post(form); !res.IsValid {
		writeFieldErrors(w, res.Errors)
		return
	}
	comment := social.Comment{
		UserID: ident.ID,
		Text:   form.Text,
		Name:   firstNonEmpty(form.Name, ident.Name),
		Avatar: firstNonEmpty(form.Avatar, ident.Avatar),
	}
	post, err := a.store.Posts().AddComment(r.Context(), postID, comment)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "no post found with that id")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not add comment")
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (a *API) removeComment(w http.ResponseWriter, r *http.Request, postID, commentID string) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
		return
	}
	post, err := a.store.Posts().Find(r.Context(), postID)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "no post found with that id")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not load post")
		return
	}
	var owner string
	for _, c := range post.Comments {
		if c.ID == commentID {
			owner = c.UserID
			break
		}
	}
	if owner == "" {
		writeError(w, r, http.StatusNotFound, "no comment found with that id")
		return
	}
	if !auth.CanMutate(ident.ID, owner) {
		writeError(w, r, http.StatusForbidden, "only the comment owner can delete it")
		return
	}
	updated, err := a.store.Posts().RemoveComment(r.Context(), postID, commentID)
	if err != nil {
		if errors.Is(err, social.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "no comment found with that id")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "could not remove comment")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// streamPosts serves the live feed over server-sent events.
func (a *API) streamPosts(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "streaming not supported")
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := a.feed.Subscribe(r.Context())
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case evt, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: post\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
