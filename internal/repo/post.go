package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/colefleming/inkwell/internal/models"
	"github.com/colefleming/inkwell/internal/slug"
	"github.com/lib/pq"
)

// ========================
// REPOSITORY STRUCT
// ========================

type PostRepo struct {
	DB *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db}
}

// ListFilter carries the listing query parameters. Zero values mean "not
// supplied". Authenticated toggles the draft-visibility rule: only an
// authenticated caller may request a status other than published.
type ListFilter struct {
	Authenticated bool
	Page          int
	Limit         int
	Search        string
	Tag           string
	Author        int
	Status        string
}

// UpdateFields holds the optional fields of an update. A nil pointer leaves
// the stored value unchanged.
type UpdateFields struct {
	Title   *string
	Content *string
	Tags    *[]string
	Status  *string
}

// ========================
// CREATE POST
// ========================

// Create inserts a post authored by authorID. The slug is derived from the
// title; a colliding slug returns ErrDuplicateSlug.
func (r *PostRepo) Create(ctx context.Context, authorID int, title, content string, tags []string, status string) (*models.Post, error) {
	if tags == nil {
		tags = []string{}
	}
	if status == "" {
		status = models.StatusDraft
	}

	post := &models.Post{}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO posts (title, slug, content, author_id, status, tags)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, title, slug, content, author_id, status, tags, created_at, updated_at, deleted_at`,
		title, slug.Make(title), content, authorID, status, pq.Array(tags),
	).Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&post.Content,
		&post.AuthorID,
		&post.Status,
		pq.Array(&post.Tags),
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.DeletedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return post, nil
}

// ========================
// LIST POSTS
// ========================

// List runs the filtered, paginated listing. Conditions are conjunctive:
// soft-deleted posts are always excluded, anonymous callers only ever see
// published posts, and search/tag/author narrow the result further.
// Results are sorted newest first and authors are expanded to name+email.
func (r *PostRepo) List(ctx context.Context, f ListFilter) ([]models.Post, models.Pagination, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	where := []string{"p.deleted_at IS NULL"}
	args := []interface{}{}

	// Authenticated callers may ask for drafts; everyone else gets published only.
	status := models.StatusPublished
	if f.Authenticated && f.Status != "" {
		status = f.Status
	}
	args = append(args, status)
	where = append(where, fmt.Sprintf("p.status = $%d", len(args)))

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", len(args), len(args)))
	}

	if f.Tag != "" {
		args = append(args, f.Tag)
		where = append(where, fmt.Sprintf("$%d = ANY(p.tags)", len(args)))
	}

	if f.Author != 0 {
		args = append(args, f.Author)
		where = append(where, fmt.Sprintf("p.author_id = $%d", len(args)))
	}

	cond := strings.Join(where, " AND ")

	var totalItems int
	countQuery := "SELECT COUNT(*) FROM posts p WHERE " + cond
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&totalItems); err != nil {
		return nil, models.Pagination{}, err
	}

	offset := (f.Page - 1) * f.Limit
	pageArgs := append(args, f.Limit, offset)
	listQuery := fmt.Sprintf(`
        SELECT p.id, p.title, p.slug, p.content, p.status, p.tags,
               p.created_at, p.updated_at, u.name, u.email
        FROM posts p
        LEFT JOIN users u ON u.id = p.author_id
        WHERE %s
        ORDER BY p.created_at DESC
        LIMIT $%d OFFSET $%d
    `, cond, len(args)+1, len(args)+2)

	rows, err := r.DB.QueryContext(ctx, listQuery, pageArgs...)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		var authorName, authorEmail sql.NullString
		if err := rows.Scan(
			&p.ID, &p.Title, &p.Slug, &p.Content, &p.Status, pq.Array(&p.Tags),
			&p.CreatedAt, &p.UpdatedAt, &authorName, &authorEmail,
		); err != nil {
			return nil, models.Pagination{}, err
		}
		if authorName.Valid {
			p.Author = &models.PublicUser{Name: authorName.String, Email: authorEmail.String}
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, models.Pagination{}, err
	}

	totalPages := (totalItems + f.Limit - 1) / f.Limit
	pagination := models.Pagination{
		CurrentPage: f.Page,
		TotalPages:  totalPages,
		TotalItems:  totalItems,
		HasNext:     f.Page < totalPages,
		HasPrev:     f.Page > 1,
	}
	return posts, pagination, nil
}

// ========================
// GET POST BY SLUG
// ========================

// GetBySlug is the public detail lookup: published and not soft-deleted,
// with no authenticated bypass.
func (r *PostRepo) GetBySlug(ctx context.Context, slugStr string) (*models.Post, error) {
	post := &models.Post{}
	var authorName, authorEmail sql.NullString
	err := r.DB.QueryRowContext(ctx, `
        SELECT p.id, p.title, p.slug, p.content, p.status, p.tags,
               p.created_at, p.updated_at, u.name, u.email
        FROM posts p
        LEFT JOIN users u ON u.id = p.author_id
        WHERE p.slug = $1 AND p.status = 'published' AND p.deleted_at IS NULL
    `, slugStr).Scan(
		&post.ID, &post.Title, &post.Slug, &post.Content, &post.Status, pq.Array(&post.Tags),
		&post.CreatedAt, &post.UpdatedAt, &authorName, &authorEmail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if authorName.Valid {
		post.Author = &models.PublicUser{Name: authorName.String, Email: authorEmail.String}
	}
	return post, nil
}

// ========================
// UPDATE POST (author only)
// ========================

// Update applies the provided fields to a post inside a single transaction.
// The row is locked for the read-check-write sequence so a concurrent writer
// cannot interleave. Only the author may update; a changed title recomputes
// the slug. Returns ErrNotFound, ErrNotAuthor, or ErrDuplicateSlug.
func (r *PostRepo) Update(ctx context.Context, postID, callerID int, fields UpdateFields) (*models.Post, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	post := &models.Post{}
	err = tx.QueryRowContext(ctx, `
        SELECT id, title, slug, content, author_id, status, tags, created_at, updated_at, deleted_at
        FROM posts
        WHERE id = $1
        FOR UPDATE
    `, postID).Scan(
		&post.ID, &post.Title, &post.Slug, &post.Content, &post.AuthorID, &post.Status,
		pq.Array(&post.Tags), &post.CreatedAt, &post.UpdatedAt, &post.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if post.AuthorID == nil || *post.AuthorID != callerID {
		return nil, ErrNotAuthor
	}

	if fields.Title != nil {
		post.Title = *fields.Title
		post.Slug = slug.Make(*fields.Title)
	}
	if fields.Content != nil {
		post.Content = *fields.Content
	}
	if fields.Tags != nil {
		post.Tags = *fields.Tags
	}
	if fields.Status != nil {
		post.Status = *fields.Status
	}
	now := time.Now()
	post.UpdatedAt = &now

	_, err = tx.ExecContext(ctx, `
        UPDATE posts
        SET title = $1, slug = $2, content = $3, status = $4, tags = $5, updated_at = $6
        WHERE id = $7
    `, post.Title, post.Slug, post.Content, post.Status, pq.Array(post.Tags), now, postID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return post, nil
}

// ========================
// SOFT DELETE POST (author only)
// ========================

// SoftDelete stamps deleted_at; the row is retained. Returns ErrNotFound,
// ErrNotAuthor, or ErrAlreadyDeleted.
func (r *PostRepo) SoftDelete(ctx context.Context, postID, callerID int) error {
	var authorID *int
	var deletedAt *time.Time
	err := r.DB.QueryRowContext(ctx,
		`SELECT author_id, deleted_at FROM posts WHERE id = $1`,
		postID,
	).Scan(&authorID, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if authorID == nil || *authorID != callerID {
		return ErrNotAuthor
	}
	if deletedAt != nil {
		return ErrAlreadyDeleted
	}

	_, err = r.DB.ExecContext(ctx,
		`UPDATE posts SET deleted_at = now() WHERE id = $1`,
		postID,
	)
	return err
}

// ========================
// COUNT POSTS BY STATUS
// ========================

// CountByStatus reports live (not soft-deleted) post counts keyed by status.
func (r *PostRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM posts WHERE deleted_at IS NULL GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
