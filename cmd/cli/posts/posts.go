package posts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/colefleming/inkwell/cmd/cli/config"
	"github.com/colefleming/inkwell/cmd/cli/output"
	"github.com/spf13/cobra"
)

// InitPosts registers the posts command group on the root command.
func InitPosts(rootCmd *cobra.Command) {
	postsCmd := &cobra.Command{
		Use:   "posts",
		Short: "Browse and manage blog posts",
		Long:  "List, create, and delete blog posts through the Inkwell API.",
	}
	postsCmd.AddCommand(listCmd(), createCmd(), deleteCmd())
	rootCmd.AddCommand(postsCmd)
}

type post struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Status string `json:"status"`
	Author *struct {
		Name string `json:"name"`
	} `json:"author"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

func listCmd() *cobra.Command {
	var page, limit int
	var search, tag, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Long:  "List posts as a table. With a stored token, drafts can be requested via --status draft.",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("page", strconv.Itoa(page))
			q.Set("limit", strconv.Itoa(limit))
			if search != "" {
				q.Set("search", search)
			}
			if tag != "" {
				q.Set("tag", tag)
			}
			if status != "" {
				q.Set("status", status)
			}

			var out struct {
				Data       []post `json:"data"`
				Pagination struct {
					CurrentPage int `json:"currentPage"`
					TotalPages  int `json:"totalPages"`
					TotalItems  int `json:"totalItems"`
				} `json:"pagination"`
			}
			if err := apiRequest("GET", "/api/posts?"+q.Encode(), nil, &out); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(out.Data))
			for _, p := range out.Data {
				author := ""
				if p.Author != nil {
					author = p.Author.Name
				}
				rows = append(rows, []interface{}{
					p.ID, p.Title, p.Slug, p.Status, author,
					strings.Join(p.Tags, ","), p.CreatedAt.Format("2006-01-02"),
				})
			}
			output.RenderTable([]string{"ID", "Title", "Slug", "Status", "Author", "Tags", "Created"}, rows)
			fmt.Printf("Page %d of %d (%d posts)\n",
				out.Pagination.CurrentPage, out.Pagination.TotalPages, out.Pagination.TotalItems)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Posts per page")
	cmd.Flags().StringVar(&search, "search", "", "Search in title and content")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (draft or published; requires login)")

	return cmd
}

func createCmd() *cobra.Command {
	var title, content, status string
	var tags []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Long:  "Create a post authored by the logged-in user. Defaults to a draft.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" || content == "" {
				return fmt.Errorf("title and content are required")
			}

			payload := map[string]interface{}{"title": title, "content": content}
			if len(tags) > 0 {
				payload["tags"] = tags
			}
			if status != "" {
				payload["status"] = status
			}

			var out struct {
				Post post `json:"post"`
			}
			if err := apiRequest("POST", "/api/posts", payload, &out); err != nil {
				return err
			}
			fmt.Printf("Created post %d (%s)\n", out.Post.ID, out.Post.Slug)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Post title")
	cmd.Flags().StringVar(&content, "content", "", "Post body")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&status, "status", "", "draft or published (default draft)")

	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Long:  "Soft-delete a post you authored.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("post id must be a number")
			}
			if err := apiRequest("DELETE", fmt.Sprintf("/api/posts/%d", id), nil, nil); err != nil {
				return err
			}
			fmt.Printf("Deleted post %d\n", id)
			return nil
		},
	}
}

// apiRequest performs an API call, attaching the stored token when present.
func apiRequest(method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := config.LoadToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return err
		}
	}
	return nil
}
