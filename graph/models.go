package graph

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/database"
)

// =============================================================================
// INPUT TYPES
// =============================================================================

type UserCreateInput struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type LoginInput struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type UserUpdateInput struct {
	Name     *string `mapstructure:"name"`
	Email    *string `mapstructure:"email"`
	Password *string `mapstructure:"password"`
}

type TankCreateInput struct {
	Title     string `mapstructure:"title"`
	ProfileID string `mapstructure:"profileId"`
}

type TankPostCreateInput struct {
	Body   string `mapstructure:"body"`
	TankID string `mapstructure:"tankId"`
}

type TankReplyCreateInput struct {
	Body   string `mapstructure:"body"`
	PostID string `mapstructure:"postId"`
}

type TankImageCreateInput struct {
	URL    string `mapstructure:"url"`
	TankID string `mapstructure:"tankId"`
}

type FeedCreateInput struct {
	Message string   `mapstructure:"message"`
	Images  []string `mapstructure:"images"`
}

type FeedCommentCreateInput struct {
	Body   string `mapstructure:"body"`
	FeedID string `mapstructure:"feedId"`
}

type FeedCommentReplyCreateInput struct {
	Body      string `mapstructure:"body"`
	CommentID string `mapstructure:"commentId"`
}

// BodyUpdateInput updates the text of a post, reply or comment.
type BodyUpdateInput struct {
	Body string `mapstructure:"body"`
}

// ListArgs are the forwarded listing arguments.
type ListArgs struct {
	Query   *string `mapstructure:"query"`
	First   *int    `mapstructure:"first"`
	Skip    *int    `mapstructure:"skip"`
	After   *string `mapstructure:"after"`
	OrderBy *string `mapstructure:"orderBy"`
}

func (a ListArgs) params(filter string) database.ListParams {
	p := database.ListParams{Filter: filter}
	if a.Query != nil {
		p.Query = *a.Query
	}
	if a.First != nil {
		p.First = *a.First
	}
	if a.Skip != nil {
		p.Skip = *a.Skip
	}
	if a.After != nil {
		p.After = *a.After
	}
	if a.OrderBy != nil {
		p.OrderBy = *a.OrderBy
	}
	return p
}

// =============================================================================
// OUTPUT TYPES
// =============================================================================

// AuthPayload is returned by createUser and login.
type AuthPayload struct {
	Token string         `json:"token"`
	User  *database.User `json:"user"`
}

type Edge[T any] struct {
	Cursor string `json:"cursor"`
	Node   *T     `json:"node"`
}

type PageInfo struct {
	HasNextPage     bool    `json:"hasNextPage"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
	StartCursor     *string `json:"startCursor"`
	EndCursor       *string `json:"endCursor"`
}

type Aggregate struct {
	Count int `json:"count"`
}

// Connection is a relay-style page of T.
type Connection[T any] struct {
	Edges     []*Edge[T] `json:"edges"`
	PageInfo  *PageInfo  `json:"pageInfo"`
	Aggregate *Aggregate `json:"aggregate"`
}

func newConnection[T any](page *database.Page[T]) *Connection[T] {
	conn := &Connection[T]{
		Edges: make([]*Edge[T], len(page.Items)),
		PageInfo: &PageInfo{
			HasNextPage:     page.HasNextPage(),
			HasPreviousPage: page.HasPreviousPage(),
		},
		Aggregate: &Aggregate{Count: page.Total},
	}
	for i, item := range page.Items {
		conn.Edges[i] = &Edge[T]{Cursor: page.Cursor(i), Node: item}
	}
	if n := len(conn.Edges); n > 0 {
		start, end := conn.Edges[0].Cursor, conn.Edges[n-1].Cursor
		conn.PageInfo.StartCursor = &start
		conn.PageInfo.EndCursor = &end
	}
	return conn
}

// =============================================================================
// VALIDATION
// =============================================================================

func requireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apierror.Validation(fmt.Sprintf("%s must not be empty", field))
	}
	return trimmed, nil
}

func requireID(field, value string) (string, error) {
	id := strings.TrimSpace(value)
	if id == "" {
		return "", apierror.Validation(fmt.Sprintf("%s is required", field))
	}
	return id, nil
}

// normalizeEmail lower-cases and trims an address.
func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if at := strings.Index(normalized, "@"); at <= 0 || at == len(normalized)-1 {
		return "", apierror.Validation("Email address is invalid")
	}
	return normalized, nil
}

func validateImageURL(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	u, err := url.ParseRequestURI(trimmed)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", apierror.Validation(fmt.Sprintf("%q is not a valid image url", raw))
	}
	return trimmed, nil
}
