package graph

import (
	"context"
	"fmt"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/auth"
	"github.com/kidtango/need2reefbackend/internal/database"
	"github.com/kidtango/need2reefbackend/internal/ownership"
)

// =============================================================================
// FEED MUTATIONS
// =============================================================================

// MaxFeedImages is the most images one feed entry may carry; Feed.images
// returns them in a single page.
const MaxFeedImages = database.MaxPageSize

// CreateFeed publishes a feed entry with its images.
func (r *mutationResolver) CreateFeed(ctx context.Context, data FeedCreateInput) (*database.Feed, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	message, err := requireText("message", data.Message)
	if err != nil {
		return nil, err
	}
	if len(data.Images) > MaxFeedImages {
		return nil, apierror.Validation(fmt.Sprintf("a feed may have at most %d images", MaxFeedImages))
	}
	images := make([]string, 0, len(data.Images))
	for _, raw := range data.Images {
		imageURL, err := validateImageURL(raw)
		if err != nil {
			return nil, err
		}
		images = append(images, imageURL)
	}
	return r.store.CreateFeed(ctx, &database.Feed{Message: message, AuthorID: userID}, images)
}

// DeleteFeed removes one of the caller's feed entries.
func (r *mutationResolver) DeleteFeed(ctx context.Context, id string) (*database.Feed, error) {
	return guarded(ctx, r.Resolver, ownership.KindFeed, id, "delete",
		func(tx database.Store) (*database.Feed, error) {
			return tx.DeleteFeed(ctx, id)
		})
}

// CreateFeedComment comments on any feed entry.
func (r *mutationResolver) CreateFeedComment(ctx context.Context, data FeedCommentCreateInput) (*database.FeedComment, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	body, err := requireText("body", data.Body)
	if err != nil {
		return nil, err
	}
	feedID, err := requireID("feedId", data.FeedID)
	if err != nil {
		return nil, err
	}
	return r.store.CreateFeedComment(ctx, &database.FeedComment{Body: body, FeedID: feedID, AuthorID: userID})
}

// UpdateFeedComment edits one of the caller's comments.
func (r *mutationResolver) UpdateFeedComment(ctx context.Context, id string, data BodyUpdateInput) (*database.FeedComment, error) {
	return guarded(ctx, r.Resolver, ownership.KindFeedComment, id, "update",
		func(tx database.Store) (*database.FeedComment, error) {
			body, err := requireText("body", data.Body)
			if err != nil {
				return nil, err
			}
			return tx.UpdateFeedComment(ctx, id, body)
		})
}

// DeleteFeedComment removes one of the caller's comments.
func (r *mutationResolver) DeleteFeedComment(ctx context.Context, id string) (*database.FeedComment, error) {
	return guarded(ctx, r.Resolver, ownership.KindFeedComment, id, "delete",
		func(tx database.Store) (*database.FeedComment, error) {
			return tx.DeleteFeedComment(ctx, id)
		})
}

// CreateFeedCommentReply answers any comment.
func (r *mutationResolver) CreateFeedCommentReply(ctx context.Context, data FeedCommentReplyCreateInput) (*database.FeedCommentReply, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	body, err := requireText("body", data.Body)
	if err != nil {
		return nil, err
	}
	commentID, err := requireID("commentId", data.CommentID)
	if err != nil {
		return nil, err
	}
	return r.store.CreateFeedCommentReply(ctx, &database.FeedCommentReply{Body: body, CommentID: commentID, AuthorID: userID})
}

// UpdateFeedCommentReply edits one of the caller's replies.
func (r *mutationResolver) UpdateFeedCommentReply(ctx context.Context, id string, data BodyUpdateInput) (*database.FeedCommentReply, error) {
	return guarded(ctx, r.Resolver, ownership.KindFeedCommentReply, id, "update",
		func(tx database.Store) (*database.FeedCommentReply, error) {
			body, err := requireText("body", data.Body)
			if err != nil {
				return nil, err
			}
			return tx.UpdateFeedCommentReply(ctx, id, body)
		})
}

// DeleteFeedCommentReply removes one of the caller's replies.
func (r *mutationResolver) DeleteFeedCommentReply(ctx context.Context, id string) (*database.FeedCommentReply, error) {
	return guarded(ctx, r.Resolver, ownership.KindFeedCommentReply, id, "delete",
		func(tx database.Store) (*database.FeedCommentReply, error) {
			return tx.DeleteFeedCommentReply(ctx, id)
		})
}
