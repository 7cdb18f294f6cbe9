package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/colefleming/inkwell/internal/middleware"
	"github.com/colefleming/inkwell/internal/models"
	"github.com/colefleming/inkwell/internal/repo"
	"github.com/go-chi/chi/v5"
)

func newPostHandler(t *testing.T) (*PostHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewPostHandler(repo.NewPostRepo(db)), mock, func() { db.Close() }
}

// postRouter mounts the handler on the real route patterns so URL params and
// the caller identity resolve like they do in the server.
func postRouter(h *PostHandler, caller *models.User) http.Handler {
	r := chi.NewRouter()
	if caller != nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), caller)))
			})
		})
	}
	r.Get("/api/posts", h.ListPosts)
	r.Get("/api/posts/{slug:[a-z0-9-]+}", h.GetPostBySlug)
	r.Post("/api/posts", h.CreatePost)
	r.Put("/api/posts/{id:[0-9]+}", h.UpdatePost)
	r.Delete("/api/posts/{id:[0-9]+}", h.DeletePost)
	return r
}

func TestPostHandler_CreatePost(t *testing.T) {
	h, mock, done := newPostHandler(t)
	defer done()

	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs("Hello, World!! 2024", "hello-world-2024", "body", 1, "draft", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "content", "author_id", "status", "tags", "created_at", "updated_at", "deleted_at"}).
			AddRow(10, "Hello, World!! 2024", "hello-world-2024", "body", 1, "draft", "{}", time.Now(), nil, nil))

	caller := &models.User{ID: 1, Name: "Alice"}
	body, _ := json.Marshal(map[string]string{"title": "Hello, World!! 2024", "content": "body"})
	req := httptest.NewRequest("POST", "/api/posts", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	postRouter(h, caller).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("CreatePost status: got %d, want 201: %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Post struct {
			Slug   string `json:"slug"`
			Status string `json:"status"`
		} `json:"post"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Post.Slug != "hello-world-2024" || out.Post.Status != "draft" {
		t.Errorf("unexpected post: %+v", out.Post)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostHandler_CreatePost_Anonymous(t *testing.T) {
	h, mock, done := newPostHandler(t)
	defer done()

	body, _ := json.Marshal(map[string]string{"title": "t", "content": "c"})
	req := httptest.NewRequest("POST", "/api/posts", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	postRouter(h, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("CreatePost status: got %d, want 401", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostHandler_CreatePost_Validation(t *testing.T) {
	h, mock, done := newPostHandler(t)
	defer done()

	caller := &models.User{ID: 1}
	cases := []map[string]interface{}{
		{"content": "c"},                                        // title missing
		{"title": "t"},                                          // content missing
		{"title": "t", "content": "c", "status": "unpublished"}, // bad status
	}
	for _, c := range cases {
		body, _ := json.Marshal(c)
		req := httptest.NewRequest("POST", "/api/posts", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		postRouter(h, caller).ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("CreatePost %v: got %d, want 400", c, rr.Code)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostHandler_ListPosts_BadQuery(t *testing.T) {
	h, mock, done := newPostHandler(t)
	defer done()

	for _, target := range []string{
		"/api/posts?page=abc",
		"/api/posts?page=0",
		"/api/posts?limit=-1",
		"/api/posts?author=bob",
		"/api/posts?status=archived",
	} {
		req := httptest.NewRequest("GET", target, nil)
		rr := httptest.NewRecorder()
		postRouter(h, nil).ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("ListPosts %s: got %d, want 400", target, rr.Code)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostHandler_GetPostBySlug_NotFound(t *testing.T) {
	h, mock, done := newPostHandler(t)
	defer done()

	mock.ExpectQuery(`WHERE p\.slug = \$1`).
		WithArgs("missing-post").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "content", "status", "tags", "created_at", "updated_at", "name", "email"}))

	req := httptest.NewRequest("GET", "/api/posts/missing-post", nil)
	rr := httptest.NewRecorder()
	postRouter(h, nil).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("GetPostBySlug status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostHandler_UpdatePost_Forbidden(t *testing.T) {
	h, mock, done := newPostHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "content", "author_id", "status", "tags", "created_at", "updated_at", "deleted_at"}).
			AddRow(10, "Title", "title", "body", 99, "draft", "{}", time.Now(), nil, nil))
	mock.ExpectRollback()

	caller := &models.User{ID: 1}
	body, _ := json.Marshal(map[string]string{"title": "Hijacked"})
	req := httptest.NewRequest("PUT", "/api/posts/10", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	postRouter(h, caller).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("UpdatePost status: got %d, want 403: %s", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostHandler_UpdatePost_NotFound(t *testing.T) {
	h, mock, done := newPostHandler(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WithArgs(404).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "content", "author_id", "status", "tags", "created_at", "updated_at", "deleted_at"}))
	mock.ExpectRollback()

	caller := &models.User{ID: 1}
	body, _ := json.Marshal(map[string]string{"content": "new"})
	req := httptest.NewRequest("PUT", "/api/posts/404", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	postRouter(h, caller).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("UpdatePost status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostHandler_DeletePost_AlreadyDeleted(t *testing.T) {
	h, mock, done := newPostHandler(t)
	defer done()

	mock.ExpectQuery(`SELECT author_id, deleted_at FROM posts`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"author_id", "deleted_at"}).AddRow(1, time.Now()))

	caller := &models.User{ID: 1}
	req := httptest.NewRequest("DELETE", "/api/posts/10", nil)
	rr := httptest.NewRecorder()
	postRouter(h, caller).ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("DeletePost status: got %d, want 400: %s", rr.Code, rr.Body.String())
	}
	var out map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out["error"] != "post already deleted" {
		t.Errorf("unexpected error: %q", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestPostHandler_DeletePost(t *testing.T) {
	h, mock, done := newPostHandler(t)
	defer done()

	mock.ExpectQuery(`SELECT author_id, deleted_at FROM posts`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"author_id", "deleted_at"}).AddRow(1, nil))
	mock.ExpectExec(`UPDATE posts SET deleted_at = now\(\)`).
		WithArgs(10).
		WillReturnResult(sqlmock.NewResult(0, 1))

	caller := &models.User{ID: 1}
	req := httptest.NewRequest("DELETE", "/api/posts/10", nil)
	rr := httptest.NewRecorder()
	postRouter(h, caller).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("DeletePost status: got %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
