package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/kidtango/need2reefbackend/internal/ownership"
)

// edgeRef is the foreign key that implements an ownership edge.
type edgeRef struct {
	column string
	target table
}

var authorRef = edgeRef{column: "author_id", target: usersTable}

// edgeRefs maps a table and edge name to the key that follows it.
var edgeRefs = map[string]map[string]edgeRef{
	profilesTable.name:           {ownership.EdgeAuthor: authorRef},
	tanksTable.name:              {ownership.EdgeProfile: {column: "profile_id", target: profilesTable}},
	tankImagesTable.name:         {ownership.EdgeTank: {column: "tank_id", target: tanksTable}},
	tankPostsTable.name:          {ownership.EdgeAuthor: authorRef},
	tankRepliesTable.name:        {ownership.EdgeAuthor: authorRef},
	feedsTable.name:              {ownership.EdgeAuthor: authorRef},
	feedCommentsTable.name:       {ownership.EdgeAuthor: authorRef},
	feedCommentRepliesTable.name: {ownership.EdgeAuthor: authorRef},
}

var kindTables = map[ownership.Kind]table{
	ownership.KindProfile:          profilesTable,
	ownership.KindTank:             tanksTable,
	ownership.KindTankImage:        tankImagesTable,
	ownership.KindTankPost:         tankPostsTable,
	ownership.KindTankReply:        tankRepliesTable,
	ownership.KindFeed:             feedsTable,
	ownership.KindFeedComment:      feedCommentsTable,
	ownership.KindFeedCommentReply: feedCommentRepliesTable,
}

// projectionQuery selects the entity id followed by one key per chain edge,
// joining intermediate tables. With lock the entity row is locked.
func projectionQuery(kind ownership.Kind, chain ownership.Chain, id string, lock bool) (sq.SelectBuilder, error) {
	t, ok := kindTables[kind]
	if !ok {
		return sq.SelectBuilder{}, fmt.Errorf("no table for %s", kind)
	}

	q := psql.Select("t0.id").From(t.name + " t0")
	current := t
	for i, edge := range chain {
		ref, ok := edgeRefs[current.name][edge]
		if !ok {
			return sq.SelectBuilder{}, fmt.Errorf("%s has no %q edge", current.entity, edge)
		}
		alias := fmt.Sprintf("t%d", i)
		q = q.Column(alias + "." + ref.column)
		if i < len(chain)-1 {
			next := fmt.Sprintf("t%d", i+1)
			q = q.Join(fmt.Sprintf("%s %s ON %s.id = %s.%s", ref.target.name, next, next, alias, ref.column))
		}
		current = ref.target
	}
	q = q.Where(sq.Eq{"t0.id": id})
	if lock {
		q = q.Suffix("FOR UPDATE OF t0")
	}
	return q, nil
}

// Projection fetches the ownership chain of an entity in one query. It returns
// nil when the entity does not exist.
func (c *Client) Projection(ctx context.Context, kind ownership.Kind, id string) (*ownership.Projection, error) {
	chain, err := ownership.NewGuard(nil).ChainFor(kind)
	if err != nil {
		return nil, err
	}
	q, err := projectionQuery(kind, chain, id, c.inTx)
	if err != nil {
		return nil, err
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s projection: %w", kind, err)
	}

	keys := make([]sql.NullString, len(chain)+1)
	dest := make([]any, len(keys))
	for i := range keys {
		dest[i] = &keys[i]
	}
	if err := c.q.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(fmt.Sprintf("project %s", kind), err, "", "")
	}

	p := &ownership.Projection{ID: keys[0].String}
	node := p
	for i, edge := range chain {
		if !keys[i+1].Valid {
			break
		}
		node = node.Link(edge, keys[i+1].String)
	}
	return p, nil
}
