package database

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/ownership"
)

// Store is the data client consumed by resolvers and workflow activities.
// Get*, Update* and Delete* return a not-found error when no row matched;
// Delete* return the deleted record.
type Store interface {
	// Users
	CreateUserWithProfile(ctx context.Context, user *User) (*User, *Profile, error)
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error)
	DeleteUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context, params ListParams) (*Page[User], error)
	ListUsersWithoutProfile(ctx context.Context, limit int) ([]*User, error)

	// Profiles
	CreateProfile(ctx context.Context, authorID string) (*Profile, error)
	GetProfile(ctx context.Context, id string) (*Profile, error)
	GetProfileByAuthor(ctx context.Context, authorID string) (*Profile, error)

	// Tanks
	CreateTank(ctx context.Context, tank *Tank) (*Tank, error)
	GetTank(ctx context.Context, id string) (*Tank, error)
	DeleteTank(ctx context.Context, id string) (*Tank, error)
	ListTanks(ctx context.Context, params ListParams) (*Page[Tank], error)

	CreateTankPost(ctx context.Context, post *TankPost) (*TankPost, error)
	GetTankPost(ctx context.Context, id string) (*TankPost, error)
	UpdateTankPost(ctx context.Context, id, body string) (*TankPost, error)
	DeleteTankPost(ctx context.Context, id string) (*TankPost, error)
	ListTankPosts(ctx context.Context, params ListParams) (*Page[TankPost], error)

	CreateTankReply(ctx context.Context, reply *TankReply) (*TankReply, error)
	GetTankReply(ctx context.Context, id string) (*TankReply, error)
	UpdateTankReply(ctx context.Context, id, body string) (*TankReply, error)
	DeleteTankReply(ctx context.Context, id string) (*TankReply, error)
	ListTankReplies(ctx context.Context, params ListParams) (*Page[TankReply], error)

	CreateTankImage(ctx context.Context, image *TankImage) (*TankImage, error)
	DeleteTankImage(ctx context.Context, id string) (*TankImage, error)
	ListTankImages(ctx context.Context, params ListParams) (*Page[TankImage], error)

	// Feed
	CreateFeed(ctx context.Context, feed *Feed, imageURLs []string) (*Feed, error)
	GetFeed(ctx context.Context, id string) (*Feed, error)
	DeleteFeed(ctx context.Context, id string) (*Feed, error)
	ListFeeds(ctx context.Context, params ListParams) (*Page[Feed], error)
	ListFeedImages(ctx context.Context, params ListParams) (*Page[FeedImage], error)

	CreateFeedComment(ctx context.Context, comment *FeedComment) (*FeedComment, error)
	GetFeedComment(ctx context.Context, id string) (*FeedComment, error)
	UpdateFeedComment(ctx context.Context, id, body string) (*FeedComment, error)
	DeleteFeedComment(ctx context.Context, id string) (*FeedComment, error)
	ListFeedComments(ctx context.Context, params ListParams) (*Page[FeedComment], error)

	CreateFeedCommentReply(ctx context.Context, reply *FeedCommentReply) (*FeedCommentReply, error)
	GetFeedCommentReply(ctx context.Context, id string) (*FeedCommentReply, error)
	UpdateFeedCommentReply(ctx context.Context, id, body string) (*FeedCommentReply, error)
	DeleteFeedCommentReply(ctx context.Context, id string) (*FeedCommentReply, error)
	ListFeedCommentReplies(ctx context.Context, params ListParams) (*Page[FeedCommentReply], error)

	// Projection returns the ownership chain of the entity, or nil when it
	// does not exist. Inside WithTx the entity row stays locked until the
	// transaction ends.
	Projection(ctx context.Context, kind ownership.Kind, id string) (*ownership.Projection, error)

	// WithTx runs fn against a Store bound to a single transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// PAGINATION
// =============================================================================

const (
	// MaxPageSize caps ListParams.First.
	MaxPageSize = 100
	// MaxOffset bounds the resolved offset so offset+limit stays in range
	// for both stores.
	MaxOffset = math.MaxInt32 - MaxPageSize
)

// ListParams are the forwarded listing arguments. Query is a case-insensitive
// substring match on the entity's text column and Filter an equality match on
// its parent column.
type ListParams struct {
	First   int
	Skip    int
	After   string
	OrderBy string
	Query   string
	Filter  string
}

// Window resolves the offset and limit of the requested page.
func (p ListParams) Window() (offset, limit int, err error) {
	if p.First < 0 {
		return 0, 0, apierror.Validation("first must not be negative")
	}
	if p.Skip < 0 {
		return 0, 0, apierror.Validation("skip must not be negative")
	}
	limit = p.First
	if limit == 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	if p.Skip > MaxOffset {
		return 0, 0, apierror.Validation(fmt.Sprintf("skip must not exceed %d", MaxOffset))
	}
	offset = p.Skip
	if p.After != "" {
		after, err := DecodeCursor(p.After)
		if err != nil {
			return 0, 0, err
		}
		if after > MaxOffset-1-offset {
			return 0, 0, apierror.Validation(fmt.Sprintf("invalid cursor %q: offset out of range", p.After))
		}
		offset += after + 1
	}
	return offset, limit, nil
}

// Page is one window of a listing.
type Page[T any] struct {
	Items  []*T
	Total  int
	Offset int
}

// HasNextPage reports whether rows follow this page.
func (p *Page[T]) HasNextPage() bool { return p.Offset+len(p.Items) < p.Total }

// HasPreviousPage reports whether rows precede this page.
func (p *Page[T]) HasPreviousPage() bool { return p.Offset > 0 }

// Cursor returns the cursor of the i-th item of the page.
func (p *Page[T]) Cursor(i int) string { return EncodeCursor(p.Offset + i) }

const cursorPrefix = "offset:"

// EncodeCursor returns the opaque cursor for an absolute row offset.
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// DecodeCursor parses a cursor produced by EncodeCursor.
func DecodeCursor(cursor string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil || !strings.HasPrefix(string(raw), cursorPrefix) {
		return 0, apierror.Validation(fmt.Sprintf("invalid cursor %q", cursor))
	}
	offset, err := strconv.Atoi(strings.TrimPrefix(string(raw), cursorPrefix))
	if err != nil || offset < 0 {
		return 0, apierror.Validation(fmt.Sprintf("invalid cursor %q", cursor))
	}
	return offset, nil
}

// Order is a parsed orderBy argument.
type Order struct {
	Field string
	Desc  bool
}

// DefaultOrder lists oldest rows first.
var DefaultOrder = Order{Field: "createdAt"}

// ParseOrder parses "<field>_ASC" or "<field>_DESC". An empty value yields
// DefaultOrder.
func ParseOrder(orderBy string, allowed ...string) (Order, error) {
	if orderBy == "" {
		return DefaultOrder, nil
	}
	idx := strings.LastIndex(orderBy, "_")
	if idx <= 0 {
		return Order{}, apierror.Validation(fmt.Sprintf("invalid orderBy %q", orderBy))
	}
	order := Order{Field: orderBy[:idx]}
	switch orderBy[idx+1:] {
	case "ASC":
	case "DESC":
		order.Desc = true
	default:
		return Order{}, apierror.Validation(fmt.Sprintf("invalid orderBy %q", orderBy))
	}
	for _, field := range allowed {
		if field == order.Field {
			return order, nil
		}
	}
	return Order{}, apierror.Validation(fmt.Sprintf("cannot order by %q", order.Field))
}
