package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kidtango/need2reefbackend/internal/apierror"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// row constrains the generic helpers to pointers of the model types.
type row[T any] interface {
	*T
	model
}

func newID() string {
	return uuid.NewString()
}

// =============================================================================
// GENERIC HELPERS
// =============================================================================

func insertRow(ctx context.Context, c *Client, t table, rec model, parent, parentID string) error {
	query, args, err := psql.Insert(t.name).Columns(columns(rec)...).Values(values(rec)...).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert into %s: %w", t.name, err)
	}
	if _, err := c.q.ExecContext(ctx, query, args...); err != nil {
		return mapError("insert "+t.entity, err, parent, parentID)
	}
	return nil
}

func getRow[T any, P row[T]](ctx context.Context, c *Client, t table, where sq.Sqlizer, key string) (*T, error) {
	rec := P(new(T))
	query, args, err := psql.Select(columns(rec)...).From(t.name).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select from %s: %w", t.name, err)
	}
	if err := c.q.QueryRowContext(ctx, query, args...).Scan(scanTargets(rec)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NotFound(t.entity, key)
		}
		return nil, mapError("get "+t.entity, err, "", "")
	}
	return (*T)(rec), nil
}

func getByID[T any, P row[T]](ctx context.Context, c *Client, t table, id string) (*T, error) {
	return getRow[T, P](ctx, c, t, sq.Eq{"id": id}, id)
}

// pageQueries builds the count and window queries of a listing.
func pageQueries(t table, cols []string, params ListParams) (count, page sq.SelectBuilder, offset int, err error) {
	offset, limit, err := params.Window()
	if err != nil {
		return count, page, 0, err
	}
	order, err := ParseOrder(params.OrderBy, t.orderFields()...)
	if err != nil {
		return count, page, 0, err
	}

	where := sq.And{}
	if params.Filter != "" {
		if t.parent == "" {
			return count, page, 0, apierror.Validation(fmt.Sprintf("%s listings cannot be filtered", t.entity))
		}
		where = append(where, sq.Eq{t.parent: params.Filter})
	}
	if search := strings.TrimSpace(params.Query); search != "" && t.text != "" {
		where = append(where, sq.ILike{t.text: "%" + escapeLike(search) + "%"})
	}

	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	count = psql.Select("COUNT(*)").From(t.name).Where(where)
	page = psql.Select(cols...).From(t.name).Where(where).
		OrderBy(t.sortable[order.Field]+" "+dir, "id "+dir).
		Limit(uint64(limit)).
		Offset(uint64(offset))
	return count, page, offset, nil
}

func listRows[T any, P row[T]](ctx context.Context, c *Client, t table, params ListParams) (*Page[T], error) {
	countQ, pageQ, offset, err := pageQueries(t, columns(P(new(T))), params)
	if err != nil {
		return nil, err
	}

	query, args, err := countQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count of %s: %w", t.name, err)
	}
	result := &Page[T]{Offset: offset, Items: []*T{}}
	if err := c.q.QueryRowContext(ctx, query, args...).Scan(&result.Total); err != nil {
		return nil, mapError("count "+t.entity, err, "", "")
	}

	query, args, err = pageQ.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build listing of %s: %w", t.name, err)
	}
	items, err := queryRows[T, P](ctx, c, query, args)
	if err != nil {
		return nil, mapError("list "+t.entity, err, "", "")
	}
	result.Items = append(result.Items, items...)
	return result, nil
}

func queryRows[T any, P row[T]](ctx context.Context, c *Client, query string, args []any) ([]*T, error) {
	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*T
	for rows.Next() {
		rec := P(new(T))
		if err := rows.Scan(scanTargets(rec)...); err != nil {
			return nil, err
		}
		items = append(items, (*T)(rec))
	}
	return items, rows.Err()
}

func updateRow[T any, P row[T]](ctx context.Context, c *Client, t table, id string, set map[string]any) (*T, error) {
	rec := P(new(T))
	query, args, err := psql.Update(t.name).SetMap(set).Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(columns(rec), ", ")).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update of %s: %w", t.name, err)
	}
	if err := c.q.QueryRowContext(ctx, query, args...).Scan(scanTargets(rec)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NotFound(t.entity, id)
		}
		return nil, mapError("update "+t.entity, err, "", "")
	}
	return (*T)(rec), nil
}

func deleteRow[T any, P row[T]](ctx context.Context, c *Client, t table, id string) (*T, error) {
	rec := P(new(T))
	query, args, err := psql.Delete(t.name).Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(columns(rec), ", ")).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build delete from %s: %w", t.name, err)
	}
	if err := c.q.QueryRowContext(ctx, query, args...).Scan(scanTargets(rec)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apierror.NotFound(t.entity, id)
		}
		return nil, mapError("delete "+t.entity, err, "", "")
	}
	return (*T)(rec), nil
}

func (c *Client) updateBody(body string) map[string]any {
	return map[string]any{"body": body, "updated_at": c.now()}
}

// escapeLike escapes the ILIKE wildcards of a user supplied substring.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// mapError translates driver failures into the API error taxonomy. parent
// names the entity a foreign key points at.
func mapError(op string, err error, parent, parentID string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			if pqErr.Constraint == "users_email_key" {
				return apierror.Conflict("Email is already in use")
			}
			return apierror.Conflict(fmt.Sprintf("%s violates %s", op, pqErr.Constraint))
		case "23503":
			if parent != "" {
				return apierror.NotFound(parent, parentID)
			}
		}
	}
	return apierror.DataAccess(op, err)
}

// =============================================================================
// USER QUERIES
// =============================================================================

// CreateUserWithProfile inserts the user and its profile in one transaction.
func (c *Client) CreateUserWithProfile(ctx context.Context, user *User) (*User, *Profile, error) {
	var (
		created *User
		profile *Profile
	)
	err := c.WithTx(ctx, func(s Store) error {
		tx := s.(*Client)
		now := tx.now()

		u := *user
		u.ID = newID()
		u.CreatedAt, u.UpdatedAt = now, now
		if u.Permission == "" {
			u.Permission = PermissionUser
		}
		if err := insertRow(ctx, tx, usersTable, &u, "", ""); err != nil {
			return err
		}

		p := &Profile{ID: newID(), AuthorID: u.ID, CreatedAt: now}
		if err := insertRow(ctx, tx, profilesTable, p, usersTable.entity, u.ID); err != nil {
			return err
		}
		created, profile = &u, p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, profile, nil
}

// GetUser retrieves a user by ID.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	return getByID[User](ctx, c, usersTable, id)
}

// GetUserByEmail retrieves a user by e-mail, ignoring case.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return getRow[User](ctx, c, usersTable, sq.Expr("lower(email) = lower(?)", email), "")
}

// UpdateUser applies the non-nil fields of patch.
func (c *Client) UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error) {
	set := map[string]any{"updated_at": c.now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Password != nil {
		set["password"] = *patch.Password
	}
	return updateRow[User](ctx, c, usersTable, id, set)
}

// DeleteUser removes the user; everything it owns cascades.
func (c *Client) DeleteUser(ctx context.Context, id string) (*User, error) {
	return deleteRow[User](ctx, c, usersTable, id)
}

// ListUsers lists users; Query matches the name.
func (c *Client) ListUsers(ctx context.Context, params ListParams) (*Page[User], error) {
	return listRows[User](ctx, c, usersTable, params)
}

// usersWithoutProfileQuery selects users lacking a profile, oldest first.
func usersWithoutProfileQuery(limit int) sq.SelectBuilder {
	cols := columns(&User{})
	for i, col := range cols {
		cols[i] = "u." + col
	}
	return psql.Select(cols...).
		From(usersTable.name + " u").
		LeftJoin(profilesTable.name + " p ON p.author_id = u.id").
		Where(sq.Eq{"p.id": nil}).
		OrderBy("u.created_at ASC", "u.id ASC").
		Limit(uint64(limit))
}

// ListUsersWithoutProfile returns up to limit users that have no profile.
func (c *Client) ListUsersWithoutProfile(ctx context.Context, limit int) ([]*User, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}
	query, args, err := usersWithoutProfileQuery(limit).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build orphan user query: %w", err)
	}
	users, err := queryRows[User](ctx, c, query, args)
	if err != nil {
		return nil, mapError("list users without profile", err, "", "")
	}
	return users, nil
}

// =============================================================================
// PROFILE QUERIES
// =============================================================================

// CreateProfile creates the profile of authorID.
func (c *Client) CreateProfile(ctx context.Context, authorID string) (*Profile, error) {
	p := &Profile{ID: newID(), AuthorID: authorID, CreatedAt: c.now()}
	if err := insertRow(ctx, c, profilesTable, p, usersTable.entity, authorID); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile retrieves a profile by ID.
func (c *Client) GetProfile(ctx context.Context, id string) (*Profile, error) {
	return getByID[Profile](ctx, c, profilesTable, id)
}

// GetProfileByAuthor retrieves the profile owned by authorID.
func (c *Client) GetProfileByAuthor(ctx context.Context, authorID string) (*Profile, error) {
	return getRow[Profile](ctx, c, profilesTable, sq.Eq{"author_id": authorID}, "")
}

// =============================================================================
// TANK QUERIES
// =============================================================================

// CreateTank creates a tank under tank.ProfileID.
func (c *Client) CreateTank(ctx context.Context, tank *Tank) (*Tank, error) {
	t := *tank
	t.ID = newID()
	t.CreatedAt = c.now()
	t.UpdatedAt = t.CreatedAt
	if err := insertRow(ctx, c, tanksTable, &t, profilesTable.entity, t.ProfileID); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTank retrieves a tank by ID.
func (c *Client) GetTank(ctx context.Context, id string) (*Tank, error) {
	return getByID[Tank](ctx, c, tanksTable, id)
}

// DeleteTank removes a tank with its posts and images.
func (c *Client) DeleteTank(ctx context.Context, id string) (*Tank, error) {
	return deleteRow[Tank](ctx, c, tanksTable, id)
}

// ListTanks lists tanks; Filter matches the profile.
func (c *Client) ListTanks(ctx context.Context, params ListParams) (*Page[Tank], error) {
	return listRows[Tank](ctx, c, tanksTable, params)
}

// CreateTankPost creates a post on post.TankID.
func (c *Client) CreateTankPost(ctx context.Context, post *TankPost) (*TankPost, error) {
	p := *post
	p.ID = newID()
	p.CreatedAt = c.now()
	p.UpdatedAt = p.CreatedAt
	if err := insertRow(ctx, c, tankPostsTable, &p, tanksTable.entity, p.TankID); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetTankPost retrieves a tank post by ID.
func (c *Client) GetTankPost(ctx context.Context, id string) (*TankPost, error) {
	return getByID[TankPost](ctx, c, tankPostsTable, id)
}

// UpdateTankPost replaces the body of a tank post.
func (c *Client) UpdateTankPost(ctx context.Context, id, body string) (*TankPost, error) {
	return updateRow[TankPost](ctx, c, tankPostsTable, id, c.updateBody(body))
}

// DeleteTankPost removes a tank post with its replies.
func (c *Client) DeleteTankPost(ctx context.Context, id string) (*TankPost, error) {
	return deleteRow[TankPost](ctx, c, tankPostsTable, id)
}

// ListTankPosts lists tank posts; Filter matches the tank.
func (c *Client) ListTankPosts(ctx context.Context, params ListParams) (*Page[TankPost], error) {
	return listRows[TankPost](ctx, c, tankPostsTable, params)
}

// CreateTankReply creates a reply to reply.PostID.
func (c *Client) CreateTankReply(ctx context.Context, reply *TankReply) (*TankReply, error) {
	r := *reply
	r.ID = newID()
	r.CreatedAt = c.now()
	r.UpdatedAt = r.CreatedAt
	if err := insertRow(ctx, c, tankRepliesTable, &r, tankPostsTable.entity, r.PostID); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetTankReply retrieves a tank reply by ID.
func (c *Client) GetTankReply(ctx context.Context, id string) (*TankReply, error) {
	return getByID[TankReply](ctx, c, tankRepliesTable, id)
}

// UpdateTankReply replaces the body of a tank reply.
func (c *Client) UpdateTankReply(ctx context.Context, id, body string) (*TankReply, error) {
	return updateRow[TankReply](ctx, c, tankRepliesTable, id, c.updateBody(body))
}

// DeleteTankReply removes a tank reply.
func (c *Client) DeleteTankReply(ctx context.Context, id string) (*TankReply, error) {
	return deleteRow[TankReply](ctx, c, tankRepliesTable, id)
}

// ListTankReplies lists tank replies; Filter matches the post.
func (c *Client) ListTankReplies(ctx context.Context, params ListParams) (*Page[TankReply], error) {
	return listRows[TankReply](ctx, c, tankRepliesTable, params)
}

// CreateTankImage attaches an image to image.TankID.
func (c *Client) CreateTankImage(ctx context.Context, image *TankImage) (*TankImage, error) {
	i := *image
	i.ID = newID()
	i.CreatedAt = c.now()
	if err := insertRow(ctx, c, tankImagesTable, &i, tanksTable.entity, i.TankID); err != nil {
		return nil, err
	}
	return &i, nil
}

// DeleteTankImage removes a tank image.
func (c *Client) DeleteTankImage(ctx context.Context, id string) (*TankImage, error) {
	return deleteRow[TankImage](ctx, c, tankImagesTable, id)
}

// ListTankImages lists tank images; Filter matches the tank.
func (c *Client) ListTankImages(ctx context.Context, params ListParams) (*Page[TankImage], error) {
	return listRows[TankImage](ctx, c, tankImagesTable, params)
}

// =============================================================================
// FEED QUERIES
// =============================================================================

// CreateFeed creates a feed entry and its images in one transaction.
func (c *Client) CreateFeed(ctx context.Context, feed *Feed, imageURLs []string) (*Feed, error) {
	var created *Feed
	err := c.WithTx(ctx, func(s Store) error {
		tx := s.(*Client)
		f := *feed
		f.ID = newID()
		f.CreatedAt = tx.now()
		f.UpdatedAt = f.CreatedAt
		if err := insertRow(ctx, tx, feedsTable, &f, usersTable.entity, f.AuthorID); err != nil {
			return err
		}
		for _, url := range imageURLs {
			image := &FeedImage{ID: newID(), URL: url, FeedID: f.ID, CreatedAt: f.CreatedAt}
			if err := insertRow(ctx, tx, feedImagesTable, image, feedsTable.entity, f.ID); err != nil {
				return err
			}
		}
		created = &f
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetFeed retrieves a feed entry by ID.
func (c *Client) GetFeed(ctx context.Context, id string) (*Feed, error) {
	return getByID[Feed](ctx, c, feedsTable, id)
}

// DeleteFeed removes a feed entry with its images and comments.
func (c *Client) DeleteFeed(ctx context.Context, id string) (*Feed, error) {
	return deleteRow[Feed](ctx, c, feedsTable, id)
}

// ListFeeds lists feed entries; Filter matches the author.
func (c *Client) ListFeeds(ctx context.Context, params ListParams) (*Page[Feed], error) {
	return listRows[Feed](ctx, c, feedsTable, params)
}

// ListFeedImages lists feed images; Filter matches the feed entry.
func (c *Client) ListFeedImages(ctx context.Context, params ListParams) (*Page[FeedImage], error) {
	return listRows[FeedImage](ctx, c, feedImagesTable, params)
}

// CreateFeedComment comments on comment.FeedID.
func (c *Client) CreateFeedComment(ctx context.Context, comment *FeedComment) (*FeedComment, error) {
	fc := *comment
	fc.ID = newID()
	fc.CreatedAt = c.now()
	fc.UpdatedAt = fc.CreatedAt
	if err := insertRow(ctx, c, feedCommentsTable, &fc, feedsTable.entity, fc.FeedID); err != nil {
		return nil, err
	}
	return &fc, nil
}

// GetFeedComment retrieves a feed comment by ID.
func (c *Client) GetFeedComment(ctx context.Context, id string) (*FeedComment, error) {
	return getByID[FeedComment](ctx, c, feedCommentsTable, id)
}

// UpdateFeedComment replaces the body of a feed comment.
func (c *Client) UpdateFeedComment(ctx context.Context, id, body string) (*FeedComment, error) {
	return updateRow[FeedComment](ctx, c, feedCommentsTable, id, c.updateBody(body))
}

// DeleteFeedComment removes a feed comment with its replies.
func (c *Client) DeleteFeedComment(ctx context.Context, id string) (*FeedComment, error) {
	return deleteRow[FeedComment](ctx, c, feedCommentsTable, id)
}

// ListFeedComments lists feed comments; Filter matches the feed entry.
func (c *Client) ListFeedComments(ctx context.Context, params ListParams) (*Page[FeedComment], error) {
	return listRows[FeedComment](ctx, c, feedCommentsTable, params)
}

// CreateFeedCommentReply replies to reply.CommentID.
func (c *Client) CreateFeedCommentReply(ctx context.Context, reply *FeedCommentReply) (*FeedCommentReply, error) {
	r := *reply
	r.ID = newID()
	r.CreatedAt = c.now()
	r.UpdatedAt = r.CreatedAt
	if err := insertRow(ctx, c, feedCommentRepliesTable, &r, feedCommentsTable.entity, r.CommentID); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetFeedCommentReply retrieves a feed comment reply by ID.
func (c *Client) GetFeedCommentReply(ctx context.Context, id string) (*FeedCommentReply, error) {
	return getByID[FeedCommentReply](ctx, c, feedCommentRepliesTable, id)
}

// UpdateFeedCommentReply replaces the body of a feed comment reply.
func (c *Client) UpdateFeedCommentReply(ctx context.Context, id, body string) (*FeedCommentReply, error) {
	return updateRow[FeedCommentReply](ctx, c, feedCommentRepliesTable, id, c.updateBody(body))
}

// DeleteFeedCommentReply removes a feed comment reply.
func (c *Client) DeleteFeedCommentReply(ctx context.Context, id string) (*FeedCommentReply, error) {
	return deleteRow[FeedCommentReply](ctx, c, feedCommentRepliesTable, id)
}

// ListFeedCommentReplies lists feed comment replies; Filter matches the comment.
func (c *Client) ListFeedCommentReplies(ctx context.Context, params ListParams) (*Page[FeedCommentReply], error) {
	return listRows[FeedCommentReply](ctx, c, feedCommentRepliesTable, params)
}
