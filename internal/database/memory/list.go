package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/database"
	"github.com/kidtango/need2reefbackend/internal/ownership"
)

type compare[T any] func(a, b *T) int

// listing describes how an entity is searched, filtered and sorted.
type listing[T any] struct {
	entity string
	id     func(*T) string
	text   func(*T) string
	parent func(*T) string
	orders map[string]compare[T]
}

func byTime[T any](f func(*T) time.Time) compare[T] {
	return func(a, b *T) int { return f(a).Compare(f(b)) }
}

func byString[T any](f func(*T) string) compare[T] {
	return func(a, b *T) int { return strings.Compare(f(a), f(b)) }
}

func newListing[T any](entity string, id func(*T) string, created func(*T) time.Time) listing[T] {
	return listing[T]{
		entity: entity,
		id:     id,
		orders: map[string]compare[T]{
			"id":        byString(id),
			"createdAt": byTime(created),
		},
	}
}

func (l listing[T]) withText(field string, text func(*T) string) listing[T] {
	l.text = text
	l.orders[field] = byString(text)
	return l
}

func (l listing[T]) withUpdated(updated func(*T) time.Time) listing[T] {
	l.orders["updatedAt"] = byTime(updated)
	return l
}

func (l listing[T]) withParent(parent func(*T) string) listing[T] {
	l.parent = parent
	return l
}

var (
	userList = newListing("User",
		func(u *database.User) string { return u.ID },
		func(u *database.User) time.Time { return u.CreatedAt }).
		withText("name", func(u *database.User) string { return u.Name }).
		withUpdated(func(u *database.User) time.Time { return u.UpdatedAt })

	tankList = newListing("Tank",
		func(t *database.Tank) string { return t.ID },
		func(t *database.Tank) time.Time { return t.CreatedAt }).
		withText("title", func(t *database.Tank) string { return t.Title }).
		withUpdated(func(t *database.Tank) time.Time { return t.UpdatedAt }).
		withParent(func(t *database.Tank) string { return t.ProfileID })

	tankPostList = newListing("TankPost",
		func(p *database.TankPost) string { return p.ID },
		func(p *database.TankPost) time.Time { return p.CreatedAt }).
		withText("body", func(p *database.TankPost) string { return p.Body }).
		withUpdated(func(p *database.TankPost) time.Time { return p.UpdatedAt }).
		withParent(func(p *database.TankPost) string { return p.TankID })

	tankReplyList = newListing("TankReply",
		func(r *database.TankReply) string { return r.ID },
		func(r *database.TankReply) time.Time { return r.CreatedAt }).
		withText("body", func(r *database.TankReply) string { return r.Body }).
		withUpdated(func(r *database.TankReply) time.Time { return r.UpdatedAt }).
		withParent(func(r *database.TankReply) string { return r.PostID })

	tankImageList = newListing("TankImage",
		func(i *database.TankImage) string { return i.ID },
		func(i *database.TankImage) time.Time { return i.CreatedAt }).
		withParent(func(i *database.TankImage) string { return i.TankID })

	feedList = newListing("Feed",
		func(f *database.Feed) string { return f.ID },
		func(f *database.Feed) time.Time { return f.CreatedAt }).
		withText("message", func(f *database.Feed) string { return f.Message }).
		withUpdated(func(f *database.Feed) time.Time { return f.UpdatedAt }).
		withParent(func(f *database.Feed) string { return f.AuthorID })

	feedImageList = newListing("FeedImage",
		func(i *database.FeedImage) string { return i.ID },
		func(i *database.FeedImage) time.Time { return i.CreatedAt }).
		withParent(func(i *database.FeedImage) string { return i.FeedID })

	feedCommentList = newListing("FeedComment",
		func(c *database.FeedComment) string { return c.ID },
		func(c *database.FeedComment) time.Time { return c.CreatedAt }).
		withText("body", func(c *database.FeedComment) string { return c.Body }).
		withUpdated(func(c *database.FeedComment) time.Time { return c.UpdatedAt }).
		withParent(func(c *database.FeedComment) string { return c.FeedID })

	feedCommentReplyList = newListing("FeedCommentReply",
		func(r *database.FeedCommentReply) string { return r.ID },
		func(r *database.FeedCommentReply) time.Time { return r.CreatedAt }).
		withText("body", func(r *database.FeedCommentReply) string { return r.Body }).
		withUpdated(func(r *database.FeedCommentReply) time.Time { return r.UpdatedAt }).
		withParent(func(r *database.FeedCommentReply) string { return r.CommentID })
)

// list applies the same filter, order and window semantics as the
// PostgreSQL listing queries.
func list[T any](rows map[string]*T, params database.ListParams, l listing[T]) (*database.Page[T], error) {
	offset, limit, err := params.Window()
	if err != nil {
		return nil, err
	}
	fields := make([]string, 0, len(l.orders))
	for field := range l.orders {
		fields = append(fields, field)
	}
	order, err := database.ParseOrder(params.OrderBy, fields...)
	if err != nil {
		return nil, err
	}
	if params.Filter != "" && l.parent == nil {
		return nil, apierror.Validation(fmt.Sprintf("%s listings cannot be filtered", l.entity))
	}
	search := strings.ToLower(strings.TrimSpace(params.Query))

	matched := make([]*T, 0, len(rows))
	for _, rec := range rows {
		if params.Filter != "" && l.parent(rec) != params.Filter {
			continue
		}
		if search != "" && l.text != nil && !strings.Contains(strings.ToLower(l.text(rec)), search) {
			continue
		}
		cp := *rec
		matched = append(matched, &cp)
	}

	cmp := l.orders[order.Field]
	byID := l.orders["id"]
	slices.SortFunc(matched, func(a, b *T) int {
		c := cmp(a, b)
		if c == 0 {
			c = byID(a, b)
		}
		if order.Desc {
			return -c
		}
		return c
	})

	page := &database.Page[T]{Total: len(matched), Offset: offset, Items: []*T{}}
	if offset < len(matched) {
		end := min(offset+limit, len(matched))
		page.Items = append(page.Items, matched[offset:end]...)
	}
	return page, nil
}

// Projection walks the stored foreign keys of the entity's ownership chain.
func (s *Store) Projection(ctx context.Context, kind ownership.Kind, id string) (*ownership.Projection, error) {
	defer s.rlock()()

	d := s.data
	p := &ownership.Projection{ID: id}
	switch kind {
	case ownership.KindProfile:
		profile, ok := d.profiles[id]
		if !ok {
			return nil, nil
		}
		p.Link(ownership.EdgeAuthor, profile.AuthorID)
	case ownership.KindTank:
		tank, ok := d.tanks[id]
		if !ok {
			return nil, nil
		}
		s.linkProfile(p.Link(ownership.EdgeProfile, tank.ProfileID))
	case ownership.KindTankImage:
		image, ok := d.tankImages[id]
		if !ok {
			return nil, nil
		}
		tankNode := p.Link(ownership.EdgeTank, image.TankID)
		if tank, ok := d.tanks[image.TankID]; ok {
			s.linkProfile(tankNode.Link(ownership.EdgeProfile, tank.ProfileID))
		}
	case ownership.KindTankPost:
		return authored(p, d.tankPosts, id, func(r *database.TankPost) string { return r.AuthorID }), nil
	case ownership.KindTankReply:
		return authored(p, d.tankReplies, id, func(r *database.TankReply) string { return r.AuthorID }), nil
	case ownership.KindFeed:
		return authored(p, d.feeds, id, func(r *database.Feed) string { return r.AuthorID }), nil
	case ownership.KindFeedComment:
		return authored(p, d.feedComments, id, func(r *database.FeedComment) string { return r.AuthorID }), nil
	case ownership.KindFeedCommentReply:
		return authored(p, d.feedCommentReplies, id, func(r *database.FeedCommentReply) string { return r.AuthorID }), nil
	default:
		return nil, fmt.Errorf("no projection for %s", kind)
	}
	return p, nil
}

func (s *Store) linkProfile(node *ownership.Projection) {
	if profile, ok := s.data.profiles[node.ID]; ok {
		node.Link(ownership.EdgeAuthor, profile.AuthorID)
	}
}

func authored[T any](p *ownership.Projection, rows map[string]*T, id string, author func(*T) string) *ownership.Projection {
	rec, ok := rows[id]
	if !ok {
		return nil
	}
	p.Link(ownership.EdgeAuthor, author(rec))
	return p
}
