package main

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates
var templatesFS embed.FS

const (
	cookieName  = "inkwell_token"
	defaultPort = "3000"
	defaultAPI  = "http://localhost:8080"
	envWebPort  = "INKWELL_WEB_PORT"
	envAPIURL   = "INKWELL_API_URL"
)

func main() {
	port := getEnv(envWebPort, defaultPort)
	apiBase := getEnv(envAPIURL, defaultAPI)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// Public
	r.Get("/login", loginForm)
	r.Post("/login", loginSubmit(apiBase))
	r.Get("/logout", logout)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/posts", http.StatusFound)
	})
	r.Get("/posts", postsList(apiBase))
	r.Get("/posts/{slug:[a-z0-9-]+}", postDetail(apiBase))

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/posts/new", postCreateForm)
		r.Post("/posts", postCreate(apiBase))
	})

	log.Printf("Web UI running on http://localhost:%s (API: %s)", port, apiBase)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}).ParseFS(templatesFS, "templates/*.html"))

func renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("render %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

// requireAuth redirects to /login when the token cookie is missing. Expired
// tokens surface as API errors on the page that follows.
func requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(cookieName)
		if err != nil || c.Value == "" {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func cookieToken(r *http.Request) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func loginForm(w http.ResponseWriter, r *http.Request) {
	if cookieToken(r) != "" {
		http.Redirect(w, r, "/posts", http.StatusFound)
		return
	}
	renderTemplate(w, "login.html", nil)
}

func loginSubmit(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		if email == "" || password == "" {
			renderTemplate(w, "login.html", map[string]string{"Error": "Email and password are required"})
			return
		}

		body, _ := json.Marshal(map[string]string{"email": email, "password": password})
		data, status, err := apiPost(apiBase, "/api/auth/login", "", body)
		if err != nil {
			renderTemplate(w, "login.html", map[string]string{"Error": "Cannot reach API: " + err.Error()})
			return
		}
		if status != http.StatusOK {
			var errResp struct{ Error string }
			_ = json.Unmarshal(data, &errResp)
			msg := errResp.Error
			if msg == "" {
				msg = string(data)
			}
			renderTemplate(w, "login.html", map[string]string{"Error": msg})
			return
		}

		var out struct {
			AccessToken string `json:"accessToken"`
		}
		if err := json.Unmarshal(data, &out); err != nil || out.AccessToken == "" {
			renderTemplate(w, "login.html", map[string]string{"Error": "Invalid login response"})
			return
		}

		next := r.URL.Query().Get("next")
		if next == "" {
			next = "/posts"
		}

		http.SetCookie(w, &http.Cookie{
			Name:     cookieName,
			Value:    out.AccessToken,
			Path:     "/",
			MaxAge:   24 * 3600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, next, http.StatusFound)
	}
}

func logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/posts", http.StatusFound)
}

type webPost struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	Status  string `json:"status"`
	Author  *struct {
		Name string `json:"name"`
	} `json:"author"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

type webPagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

func postsList(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := url.Values{}
		for _, key := range []string{"page", "search", "tag", "status"} {
			if v := r.URL.Query().Get(key); v != "" {
				q.Set(key, v)
			}
		}

		data, status, err := apiGet(apiBase, "/api/posts?"+q.Encode(), cookieToken(r))
		if err != nil {
			renderTemplate(w, "posts.html", map[string]interface{}{"Error": err.Error()})
			return
		}
		if status != http.StatusOK {
			renderTemplate(w, "posts.html", map[string]interface{}{"Error": "API error: " + string(data)})
			return
		}

		var out struct {
			Data       []webPost     `json:"data"`
			Pagination webPagination `json:"pagination"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			renderTemplate(w, "posts.html", map[string]interface{}{"Error": "Invalid posts response"})
			return
		}

		renderTemplate(w, "posts.html", map[string]interface{}{
			"Posts":      out.Data,
			"Pagination": out.Pagination,
			"Search":     r.URL.Query().Get("search"),
			"LoggedIn":   cookieToken(r) != "",
		})
	}
}

func postDetail(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		data, status, err := apiGet(apiBase, "/api/posts/"+url.PathEscape(slug), "")
		if err != nil {
			renderTemplate(w, "post.html", map[string]interface{}{"Error": err.Error()})
			return
		}
		if status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			renderTemplate(w, "post.html", map[string]interface{}{"Error": "API error: " + string(data)})
			return
		}

		var post webPost
		if err := json.Unmarshal(data, &post); err != nil {
			renderTemplate(w, "post.html", map[string]interface{}{"Error": "Invalid post response"})
			return
		}
		renderTemplate(w, "post.html", map[string]interface{}{"Post": post})
	}
}

func postCreateForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, "new.html", nil)
}

func postCreate(apiBase string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		payload := map[string]interface{}{
			"title":   r.FormValue("title"),
			"content": r.FormValue("content"),
		}
		if s := r.FormValue("status"); s != "" {
			payload["status"] = s
		}
		if tags := strings.TrimSpace(r.FormValue("tags")); tags != "" {
			parts := strings.Split(tags, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			payload["tags"] = parts
		}

		body, _ := json.Marshal(payload)
		data, status, err := apiPost(apiBase, "/api/posts", cookieToken(r), body)
		if err != nil {
			renderTemplate(w, "new.html", map[string]interface{}{"Error": err.Error()})
			return
		}
		if status != http.StatusCreated {
			renderTemplate(w, "new.html", map[string]interface{}{"Error": "API error: " + string(data)})
			return
		}

		var out struct {
			Post webPost `json:"post"`
		}
		if err := json.Unmarshal(data, &out); err != nil {
			http.Redirect(w, r, "/posts", http.StatusFound)
			return
		}
		if out.Post.Status == "published" {
			http.Redirect(w, r, "/posts/"+out.Post.Slug, http.StatusFound)
			return
		}
		http.Redirect(w, r, "/posts?status=draft", http.StatusFound)
	}
}

// apiGet performs GET to the API with an optional bearer token.
func apiGet(apiBase, path, token string) ([]byte, int, error) {
	req, _ := http.NewRequest("GET", apiBase+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data, resp.StatusCode, nil
}

// apiPost performs POST to the API with an optional bearer token and JSON body.
func apiPost(apiBase, path, token string, body []byte) ([]byte, int, error) {
	req, _ := http.NewRequest("POST", apiBase+path, strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return data, resp.StatusCode, nil
}
