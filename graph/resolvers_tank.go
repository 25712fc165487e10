package graph

import (
	"context"

	"github.com/kidtango/need2reefbackend/internal/auth"
	"github.com/kidtango/need2reefbackend/internal/database"
	"github.com/kidtango/need2reefbackend/internal/ownership"
)

// =============================================================================
// TANK MUTATIONS
// =============================================================================

// CreateTank adds a tank to the caller's profile.
func (r *mutationResolver) CreateTank(ctx context.Context, data TankCreateInput) (*database.Tank, error) {
	if _, err := auth.UserID(ctx); err != nil {
		return nil, err
	}
	title, err := requireText("title", data.Title)
	if err != nil {
		return nil, err
	}
	profileID, err := requireID("profileId", data.ProfileID)
	if err != nil {
		return nil, err
	}
	return guarded(ctx, r.Resolver, ownership.KindProfile, profileID, "add a tank to",
		func(tx database.Store) (*database.Tank, error) {
			return tx.CreateTank(ctx, &database.Tank{Title: title, ProfileID: profileID})
		})
}

// DeleteTank removes one of the caller's tanks.
func (r *mutationResolver) DeleteTank(ctx context.Context, id string) (*database.Tank, error) {
	return guarded(ctx, r.Resolver, ownership.KindTank, id, "delete",
		func(tx database.Store) (*database.Tank, error) {
			return tx.DeleteTank(ctx, id)
		})
}

// CreateTankPost posts on any existing tank.
func (r *mutationResolver) CreateTankPost(ctx context.Context, data TankPostCreateInput) (*database.TankPost, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	body, err := requireText("body", data.Body)
	if err != nil {
		return nil, err
	}
	tankID, err := requireID("tankId", data.TankID)
	if err != nil {
		return nil, err
	}
	return r.store.CreateTankPost(ctx, &database.TankPost{Body: body, TankID: tankID, AuthorID: userID})
}

// UpdateTankPost edits one of the caller's posts.
func (r *mutationResolver) UpdateTankPost(ctx context.Context, id string, data BodyUpdateInput) (*database.TankPost, error) {
	return guarded(ctx, r.Resolver, ownership.KindTankPost, id, "update",
		func(tx database.Store) (*database.TankPost, error) {
			body, err := requireText("body", data.Body)
			if err != nil {
				return nil, err
			}
			return tx.UpdateTankPost(ctx, id, body)
		})
}

// DeleteTankPost removes one of the caller's posts.
func (r *mutationResolver) DeleteTankPost(ctx context.Context, id string) (*database.TankPost, error) {
	return guarded(ctx, r.Resolver, ownership.KindTankPost, id, "delete",
		func(tx database.Store) (*database.TankPost, error) {
			return tx.DeleteTankPost(ctx, id)
		})
}

// CreateTankReply answers any existing post.
func (r *mutationResolver) CreateTankReply(ctx context.Context, data TankReplyCreateInput) (*database.TankReply, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	body, err := requireText("body", data.Body)
	if err != nil {
		return nil, err
	}
	postID, err := requireID("postId", data.PostID)
	if err != nil {
		return nil, err
	}
	return r.store.CreateTankReply(ctx, &database.TankReply{Body: body, PostID: postID, AuthorID: userID})
}

// UpdateTankReply edits one of the caller's replies.
func (r *mutationResolver) UpdateTankReply(ctx context.Context, id string, data BodyUpdateInput) (*database.TankReply, error) {
	return guarded(ctx, r.Resolver, ownership.KindTankReply, id, "update",
		func(tx database.Store) (*database.TankReply, error) {
			body, err := requireText("body", data.Body)
			if err != nil {
				return nil, err
			}
			return tx.UpdateTankReply(ctx, id, body)
		})
}

// DeleteTankReply removes one of the caller's replies.
func (r *mutationResolver) DeleteTankReply(ctx context.Context, id string) (*database.TankReply, error) {
	return guarded(ctx, r.Resolver, ownership.KindTankReply, id, "delete",
		func(tx database.Store) (*database.TankReply, error) {
			return tx.DeleteTankReply(ctx, id)
		})
}

// CreateTankImage attaches an image to one of the caller's tanks.
func (r *mutationResolver) CreateTankImage(ctx context.Context, data TankImageCreateInput) (*database.TankImage, error) {
	if _, err := auth.UserID(ctx); err != nil {
		return nil, err
	}
	imageURL, err := validateImageURL(data.URL)
	if err != nil {
		return nil, err
	}
	tankID, err := requireID("tankId", data.TankID)
	if err != nil {
		return nil, err
	}
	return guarded(ctx, r.Resolver, ownership.KindTank, tankID, "add an image to",
		func(tx database.Store) (*database.TankImage, error) {
			return tx.CreateTankImage(ctx, &database.TankImage{URL: imageURL, TankID: tankID})
		})
}

// DeleteTankImage removes an image from one of the caller's tanks.
func (r *mutationResolver) DeleteTankImage(ctx context.Context, id string) (*database.TankImage, error) {
	return guarded(ctx, r.Resolver, ownership.KindTankImage, id, "delete",
		func(tx database.Store) (*database.TankImage, error) {
			return tx.DeleteTankImage(ctx, id)
		})
}
