package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/colefleming/inkwell/internal/config"
)

// TestAPI_RegisterCreateList is an integration test: it builds the full router
// with a sqlmock-backed DB, registers a user to get a token, creates a post
// with it, then lists posts anonymously.
func TestAPI_RegisterCreateList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	created := time.Now()

	// Register: INSERT INTO users (hash is computed in the handler)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Integration", "it@example.com", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow(1, "Integration", "it@example.com", "hashed", created))

	// POST /api/posts: auth middleware loads the user, then the insert runs
	mock.ExpectQuery(`SELECT id, name, email, password_hash, created_at`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "created_at"}).
			AddRow(1, "Integration", "it@example.com", "hashed", created))
	mock.ExpectQuery(`INSERT INTO posts`).
		WithArgs("First Post", "first-post", "hello", 1, "published", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "content", "author_id", "status", "tags", "created_at", "updated_at", "deleted_at"}).
			AddRow(10, "First Post", "first-post", "hello", 1, "published", "{}", created, nil, nil))

	// GET /api/posts (anonymous): count then page query
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM posts p`).
		WithArgs("published").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY p\.created_at DESC`).
		WithArgs("published", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "slug", "content", "status", "tags", "created_at", "updated_at", "name", "email"}).
			AddRow(10, "First Post", "first-post", "hello", "published", "{}", created, nil, "Integration", "it@example.com"))

	cfg := config.Config{
		JWTSecret:      "test-secret-for-integration",
		JWTExpireHours: 24,
	}
	r := newRouter(db, cfg)
	srv := httptest.NewServer(r)
	defer srv.Close()

	// 1) Register
	regBody, _ := json.Marshal(map[string]string{
		"name":     "Integration",
		"email":    "it@example.com",
		"password": "password123",
	})
	regResp, err := http.Post(srv.URL+"/api/auth/register", "application/json", bytes.NewReader(regBody))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer regResp.Body.Close()
	if regResp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: got %d, want 201", regResp.StatusCode)
	}
	var regOut struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.NewDecoder(regResp.Body).Decode(&regOut); err != nil || regOut.AccessToken == "" {
		t.Fatalf("register response: %v", err)
	}

	// 2) Create a post with the token
	postBody, _ := json.Marshal(map[string]interface{}{
		"title":   "First Post",
		"content": "hello",
		"status":  "published",
	})
	req, _ := http.NewRequest("POST", srv.URL+"/api/posts", bytes.NewReader(postBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+regOut.AccessToken)
	createResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	defer createResp.Body.Close()
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("create status: got %d, want 201", createResp.StatusCode)
	}

	// 3) List posts anonymously
	listResp, err := http.Get(srv.URL + "/api/posts")
	if err != nil {
		t.Fatalf("list request: %v", err)
	}
	defer listResp.Body.Close()
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("list status: got %d, want 200", listResp.StatusCode)
	}
	var listOut struct {
		Data []struct {
			Slug   string `json:"slug"`
			Author *struct {
				Name  string `json:"name"`
				Email string `json:"email"`
			} `json:"author"`
		} `json:"data"`
		Pagination struct {
			TotalItems int `json:"totalItems"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&listOut); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listOut.Data) != 1 || listOut.Data[0].Slug != "first-post" {
		t.Fatalf("unexpected list: %+v", listOut)
	}
	if listOut.Data[0].Author == nil || listOut.Data[0].Author.Name != "Integration" {
		t.Errorf("author not expanded: %+v", listOut.Data[0].Author)
	}
	if listOut.Pagination.TotalItems != 1 {
		t.Errorf("totalItems: got %d, want 1", listOut.Pagination.TotalItems)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// Requests without a token must not reach the mutation handlers.
func TestAPI_CreatePostRequiresAuth(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cfg := config.Config{JWTSecret: "test-secret", JWTExpireHours: 24}
	srv := httptest.NewServer(newRouter(db, cfg))
	defer srv.Close()

	body, _ := json.Marshal(map[string]string{"title": "t", "content": "c"})
	resp, err := http.Post(srv.URL+"/api/posts", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", resp.StatusCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
