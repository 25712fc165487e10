package memory

import (
	"context"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/database"
)

func (s *Store) CreateFeed(ctx context.Context, feed *database.Feed, imageURLs []string) (*database.Feed, error) {
	defer s.lock()()
	if _, ok := s.data.users[feed.AuthorID]; !ok {
		return nil, apierror.NotFound("User", feed.AuthorID)
	}
	f := *feed
	f.ID = newID()
	f.CreatedAt = s.tick()
	f.UpdatedAt = f.CreatedAt
	s.data.feeds[f.ID] = &f
	for _, url := range imageURLs {
		image := &database.FeedImage{ID: newID(), URL: url, FeedID: f.ID, CreatedAt: s.tick()}
		s.data.feedImages[image.ID] = image
	}
	cp := f
	return &cp, nil
}

func (s *Store) GetFeed(ctx context.Context, id string) (*database.Feed, error) {
	defer s.rlock()()
	return get(s.data.feeds, "Feed", id)
}

func (s *Store) DeleteFeed(ctx context.Context, id string) (*database.Feed, error) {
	defer s.lock()()
	f, err := get(s.data.feeds, "Feed", id)
	if err != nil {
		return nil, err
	}
	s.dropFeed(id)
	return f, nil
}

func (s *Store) dropFeed(id string) {
	for _, iid := range idsWhere(s.data.feedImages, func(i *database.FeedImage) bool { return i.FeedID == id }) {
		delete(s.data.feedImages, iid)
	}
	for _, cid := range idsWhere(s.data.feedComments, func(c *database.FeedComment) bool { return c.FeedID == id }) {
		s.dropFeedComment(cid)
	}
	delete(s.data.feeds, id)
}

func (s *Store) ListFeeds(ctx context.Context, params database.ListParams) (*database.Page[database.Feed], error) {
	defer s.rlock()()
	return list(s.data.feeds, params, feedList)
}

func (s *Store) ListFeedImages(ctx context.Context, params database.ListParams) (*database.Page[database.FeedImage], error) {
	defer s.rlock()()
	return list(s.data.feedImages, params, feedImageList)
}

func (s *Store) CreateFeedComment(ctx context.Context, comment *database.FeedComment) (*database.FeedComment, error) {
	defer s.lock()()
	if _, ok := s.data.feeds[comment.FeedID]; !ok {
		return nil, apierror.NotFound("Feed", comment.FeedID)
	}
	if _, ok := s.data.users[comment.AuthorID]; !ok {
		return nil, apierror.NotFound("User", comment.AuthorID)
	}
	c := *comment
	c.ID = newID()
	c.CreatedAt = s.tick()
	c.UpdatedAt = c.CreatedAt
	s.data.feedComments[c.ID] = &c
	cp := c
	return &cp, nil
}

func (s *Store) GetFeedComment(ctx context.Context, id string) (*database.FeedComment, error) {
	defer s.rlock()()
	return get(s.data.feedComments, "FeedComment", id)
}

func (s *Store) UpdateFeedComment(ctx context.Context, id, body string) (*database.FeedComment, error) {
	defer s.lock()()
	c, err := get(s.data.feedComments, "FeedComment", id)
	if err != nil {
		return nil, err
	}
	c.Body = body
	c.UpdatedAt = s.tick()
	s.data.feedComments[id] = c
	cp := *c
	return &cp, nil
}

func (s *Store) DeleteFeedComment(ctx context.Context, id string) (*database.FeedComment, error) {
	defer s.lock()()
	c, err := get(s.data.feedComments, "FeedComment", id)
	if err != nil {
		return nil, err
	}
	s.dropFeedComment(id)
	return c, nil
}

func (s *Store) dropFeedComment(id string) {
	for _, rid := range idsWhere(s.data.feedCommentReplies, func(r *database.FeedCommentReply) bool { return r.CommentID == id }) {
		delete(s.data.feedCommentReplies, rid)
	}
	delete(s.data.feedComments, id)
}

func (s *Store) ListFeedComments(ctx context.Context, params database.ListParams) (*database.Page[database.FeedComment], error) {
	defer s.rlock()()
	return list(s.data.feedComments, params, feedCommentList)
}

func (s *Store) CreateFeedCommentReply(ctx context.Context, reply *database.FeedCommentReply) (*database.FeedCommentReply, error) {
	defer s.lock()()
	if _, ok := s.data.feedComments[reply.CommentID]; !ok {
		return nil, apierror.NotFound("FeedComment", reply.CommentID)
	}
	if _, ok := s.data.users[reply.AuthorID]; !ok {
		return nil, apierror.NotFound("User", reply.AuthorID)
	}
	r := *reply
	r.ID = newID()
	r.CreatedAt = s.tick()
	r.UpdatedAt = r.CreatedAt
	s.data.feedCommentReplies[r.ID] = &r
	cp := r
	return &cp, nil
}

func (s *Store) GetFeedCommentReply(ctx context.Context, id string) (*database.FeedCommentReply, error) {
	defer s.rlock()()
	return get(s.data.feedCommentReplies, "FeedCommentReply", id)
}

func (s *Store) UpdateFeedCommentReply(ctx context.Context, id, body string) (*database.FeedCommentReply, error) {
	defer s.lock()()
	r, err := get(s.data.feedCommentReplies, "FeedCommentReply", id)
	if err != nil {
		return nil, err
	}
	r.Body = body
	r.UpdatedAt = s.tick()
	s.data.feedCommentReplies[id] = r
	cp := *r
	return &cp, nil
}

func (s *Store) DeleteFeedCommentReply(ctx context.Context, id string) (*database.FeedCommentReply, error) {
	defer s.lock()()
	r, err := get(s.data.feedCommentReplies, "FeedCommentReply", id)
	if err != nil {
		return nil, err
	}
	delete(s.data.feedCommentReplies, id)
	return r, nil
}

func (s *Store) ListFeedCommentReplies(ctx context.Context, params database.ListParams) (*database.Page[database.FeedCommentReply], error) {
	defer s.rlock()()
	return list(s.data.feedCommentReplies, params, feedCommentReplyList)
}
