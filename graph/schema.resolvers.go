// This file contains the query resolvers and the account mutations.

package graph

import (
	"context"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/auth"
	"github.com/kidtango/need2reefbackend/internal/database"
)

// =============================================================================
// QUERY RESOLVERS
// =============================================================================

// Query returns the query resolver.
func (r *Resolver) Query() *queryResolver {
	return &queryResolver{r}
}

type queryResolver struct{ *Resolver }

// Users lists accounts; query matches the name.
func (r *queryResolver) Users(ctx context.Context, args ListArgs) ([]*database.User, error) {
	page, err := r.store.ListUsers(ctx, args.params(""))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// Me returns the caller's account.
func (r *queryResolver) Me(ctx context.Context) (*database.User, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.GetUser(ctx, userID)
}

// Profile returns a profile by ID. It requires an authenticated caller.
func (r *queryResolver) Profile(ctx context.Context, id string) (*database.Profile, error) {
	if _, err := auth.UserID(ctx); err != nil {
		return nil, err
	}
	return r.store.GetProfile(ctx, id)
}

// Tank returns a tank by ID.
func (r *queryResolver) Tank(ctx context.Context, id string) (*database.Tank, error) {
	return r.store.GetTank(ctx, id)
}

// TankPost returns a tank post by ID.
func (r *queryResolver) TankPost(ctx context.Context, id string) (*database.TankPost, error) {
	return r.store.GetTankPost(ctx, id)
}

// Feed returns a feed entry by ID.
func (r *queryResolver) Feed(ctx context.Context, id string) (*database.Feed, error) {
	return r.store.GetFeed(ctx, id)
}

// TankPosts lists the posts, optionally of one tank.
func (r *queryResolver) TankPosts(ctx context.Context, tankID *string, args ListArgs) ([]*database.TankPost, error) {
	page, err := r.store.ListTankPosts(ctx, args.params(deref(tankID)))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

// TanksConnection pages through tanks, optionally of one profile.
func (r *queryResolver) TanksConnection(ctx context.Context, profileID *string, args ListArgs) (*Connection[database.Tank], error) {
	page, err := r.store.ListTanks(ctx, args.params(deref(profileID)))
	if err != nil {
		return nil, err
	}
	return newConnection(page), nil
}

// TankPostsConnection pages through tank posts, optionally of one tank.
func (r *queryResolver) TankPostsConnection(ctx context.Context, tankID *string, args ListArgs) (*Connection[database.TankPost], error) {
	page, err := r.store.ListTankPosts(ctx, args.params(deref(tankID)))
	if err != nil {
		return nil, err
	}
	return newConnection(page), nil
}

// FeedsConnection pages through the feed.
func (r *queryResolver) FeedsConnection(ctx context.Context, args ListArgs) (*Connection[database.Feed], error) {
	page, err := r.store.ListFeeds(ctx, args.params(""))
	if err != nil {
		return nil, err
	}
	return newConnection(page), nil
}

// FeedCommentsConnection pages through comments, optionally of one feed entry.
func (r *queryResolver) FeedCommentsConnection(ctx context.Context, feedID *string, args ListArgs) (*Connection[database.FeedComment], error) {
	page, err := r.store.ListFeedComments(ctx, args.params(deref(feedID)))
	if err != nil {
		return nil, err
	}
	return newConnection(page), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// =============================================================================
// MUTATION RESOLVERS
// =============================================================================

// Mutation returns the mutation resolver.
func (r *Resolver) Mutation() *mutationResolver {
	return &mutationResolver{r}
}

type mutationResolver struct{ *Resolver }

// CreateUser registers an account and its profile and signs the caller in.
func (r *mutationResolver) CreateUser(ctx context.Context, data UserCreateInput) (*AuthPayload, error) {
	name, err := requireText("name", data.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(data.Email)
	if err != nil {
		return nil, err
	}
	hash, err := r.hasher.Hash(data.Password)
	if err != nil {
		return nil, err
	}

	user, profile, err := r.store.CreateUserWithProfile(ctx, &database.User{
		Name:       name,
		Email:      email,
		Password:   hash,
		Permission: database.PermissionUser,
	})
	if err != nil {
		return nil, err
	}

	token, err := r.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	r.logger.WithField("userId", user.ID).WithField("profileId", profile.ID).Info("user registered")
	return &AuthPayload{Token: token, User: user}, nil
}

// Login exchanges credentials for a token. Unknown e-mails and wrong
// passwords fail identically.
func (r *mutationResolver) Login(ctx context.Context, data LoginInput) (*AuthPayload, error) {
	email := normalizeLogin(data.Email)
	user, err := r.store.GetUserByEmail(ctx, email)
	if err != nil {
		if apierror.IsNotFound(err) {
			return nil, apierror.Auth(loginFailed)
		}
		return nil, err
	}
	if !r.hasher.Compare(data.Password, user.Password) {
		return nil, apierror.Auth(loginFailed)
	}

	token, err := r.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthPayload{Token: token, User: user}, nil
}

const loginFailed = "Unable to login"

func normalizeLogin(email string) string {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return email
	}
	return normalized
}

// UpdateUser changes the caller's own account.
func (r *mutationResolver) UpdateUser(ctx context.Context, data UserUpdateInput) (*database.User, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}

	var patch database.UserPatch
	if data.Name != nil {
		name, err := requireText("name", *data.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if data.Email != nil {
		email, err := normalizeEmail(*data.Email)
		if err != nil {
			return nil, err
		}
		patch.Email = &email
	}
	if data.Password != nil {
		hash, err := r.hasher.Hash(*data.Password)
		if err != nil {
			return nil, err
		}
		patch.Password = &hash
	}
	return r.store.UpdateUser(ctx, userID, patch)
}

// DeleteUser removes the caller's account and everything it owns.
func (r *mutationResolver) DeleteUser(ctx context.Context) (*database.User, error) {
	userID, err := auth.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return r.store.DeleteUser(ctx, userID)
}
