package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/colefleming/inkwell/internal/middleware"
	"github.com/colefleming/inkwell/internal/models"
	"github.com/colefleming/inkwell/internal/repo"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type PostHandler struct {
	Posts    *repo.PostRepo
	Validate *validator.Validate
}

func NewPostHandler(posts *repo.PostRepo) *PostHandler {
	return &PostHandler{
		Posts:    posts,
		Validate: validator.New(),
	}
}

//
// ==========================
// Create Post
// ==========================
//

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserFrom(r.Context())
	if caller == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var input struct {
		Title   string   `json:"title" validate:"required,min=1"`
		Content string   `json:"content" validate:"required,min=1"`
		Tags    []string `json:"tags"`
		Status  string   `json:"status" validate:"omitempty,oneof=draft published"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}

	post, err := h.Posts.Create(r.Context(), caller.ID, input.Title, input.Content, input.Tags, input.Status)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateSlug) {
			JSONError(w, "a post with this title already exists", http.StatusConflict)
			return
		}
		slog.Error("create post", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]interface{}{
		"message": "Post created successfully",
		"post":    post,
	}, http.StatusCreated)
}

//
// ==========================
// List Posts
// ==========================
//

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repo.ListFilter{
		Authenticated: middleware.UserFrom(r.Context()) != nil,
		Page:          1,
		Limit:         10,
		Search:        q.Get("search"),
		Tag:           q.Get("tag"),
		Status:        q.Get("status"),
	}

	if p := q.Get("page"); p != "" {
		val, err := strconv.Atoi(p)
		if err != nil || val < 1 {
			JSONError(w, "page must be a positive number", http.StatusBadRequest)
			return
		}
		filter.Page = val
	}

	if l := q.Get("limit"); l != "" {
		val, err := strconv.Atoi(l)
		if err != nil || val < 1 {
			JSONError(w, "limit must be a positive number", http.StatusBadRequest)
			return
		}
		filter.Limit = val
	}

	if a := q.Get("author"); a != "" {
		val, err := strconv.Atoi(a)
		if err != nil {
			JSONError(w, "author must be a user id", http.StatusBadRequest)
			return
		}
		filter.Author = val
	}

	if s := filter.Status; s != "" && s != models.StatusDraft && s != models.StatusPublished {
		JSONError(w, "status must be draft or published", http.StatusBadRequest)
		return
	}

	posts, pagination, err := h.Posts.List(r.Context(), filter)
	if err != nil {
		slog.Error("list posts", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, map[string]interface{}{
		"data":       posts,
		"pagination": pagination,
	}, http.StatusOK)
}

//
// ==========================
// Get Post By Slug (public read)
// ==========================
//

func (h *PostHandler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	post, err := h.Posts.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "post not found", http.StatusNotFound)
			return
		}
		slog.Error("get post by slug", "err", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, post, http.StatusOK)
}

//
// ==========================
// Update Post (author only)
// ==========================
//

func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserFrom(r.Context())
	if caller == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	var input struct {
		Title   *string   `json:"title"`
		Content *string   `json:"content"`
		Tags    *[]string `json:"tags"`
		Status  *string   `json:"status" validate:"omitempty,oneof=draft published"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if err := h.Validate.Struct(input); err != nil {
		JSONValidationError(w, "validation failed", validationFields(err), http.StatusBadRequest)
		return
	}

	// An empty title or content leaves the stored value unchanged, same as
	// omitting the field.
	if input.Title != nil && *input.Title == "" {
		input.Title = nil
	}
	if input.Content != nil && *input.Content == "" {
		input.Content = nil
	}

	post, err := h.Posts.Update(r.Context(), postID, caller.ID, repo.UpdateFields{
		Title:   input.Title,
		Content: input.Content,
		Tags:    input.Tags,
		Status:  input.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			JSONError(w, "post not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrNotAuthor):
			JSONError(w, "only accessible by the author", http.StatusForbidden)
		case errors.Is(err, repo.ErrDuplicateSlug):
			JSONError(w, "a post with this title already exists", http.StatusConflict)
		default:
			slog.Error("update post", "post_id", postID, "err", err)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		}
		return
	}

	JSON(w, map[string]interface{}{
		"message": "Post updated successfully",
		"post":    post,
	}, http.StatusOK)
}

//
// ==========================
// Delete Post (author only, soft delete)
// ==========================
//

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	caller := middleware.UserFrom(r.Context())
	if caller == nil {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	postID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	if err := h.Posts.SoftDelete(r.Context(), postID, caller.ID); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			JSONError(w, "post not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrNotAuthor):
			JSONError(w, "only accessible by the author", http.StatusForbidden)
		case errors.Is(err, repo.ErrAlreadyDeleted):
			JSONError(w, "post already deleted", http.StatusBadRequest)
		default:
			slog.Error("delete post", "post_id", postID, "err", err)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		}
		return
	}

	JSON(w, map[string]string{"message": "Post deleted successfully"}, http.StatusOK)
}
