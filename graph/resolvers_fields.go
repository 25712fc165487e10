package graph

import (
	"context"

	"github.com/kidtango/need2reefbackend/internal/auth"
	"github.com/kidtango/need2reefbackend/internal/database"
)

// =============================================================================
// OBJECT FIELD RESOLVERS
// =============================================================================

func (r *Resolver) User() *userResolver { return &userResolver{r} }

type userResolver struct{ *Resolver }

// Email is only visible to the account owner.
func (r *userResolver) Email(ctx context.Context, obj *database.User) (*string, error) {
	if auth.OptionalUserID(ctx) != obj.ID {
		return nil, nil
	}
	email := obj.Email
	return &email, nil
}

func (r *userResolver) Profile(ctx context.Context, obj *database.User) (*database.Profile, error) {
	return r.store.GetProfileByAuthor(ctx, obj.ID)
}

func (r *Resolver) Profile() *profileResolver { return &profileResolver{r} }

type profileResolver struct{ *Resolver }

func (r *profileResolver) Author(ctx context.Context, obj *database.Profile) (*database.User, error) {
	return r.store.GetUser(ctx, obj.AuthorID)
}

func (r *profileResolver) Tanks(ctx context.Context, obj *database.Profile, args ListArgs) ([]*database.Tank, error) {
	page, err := r.store.ListTanks(ctx, args.params(obj.ID))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *Resolver) Tank() *tankResolver { return &tankResolver{r} }

type tankResolver struct{ *Resolver }

func (r *tankResolver) Profile(ctx context.Context, obj *database.Tank) (*database.Profile, error) {
	return r.store.GetProfile(ctx, obj.ProfileID)
}

func (r *tankResolver) Posts(ctx context.Context, obj *database.Tank, args ListArgs) ([]*database.TankPost, error) {
	page, err := r.store.ListTankPosts(ctx, args.params(obj.ID))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *tankResolver) Images(ctx context.Context, obj *database.Tank, args ListArgs) ([]*database.TankImage, error) {
	page, err := r.store.ListTankImages(ctx, args.params(obj.ID))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *Resolver) TankPost() *tankPostResolver { return &tankPostResolver{r} }

type tankPostResolver struct{ *Resolver }

func (r *tankPostResolver) Tank(ctx context.Context, obj *database.TankPost) (*database.Tank, error) {
	return r.store.GetTank(ctx, obj.TankID)
}

func (r *tankPostResolver) Author(ctx context.Context, obj *database.TankPost) (*database.User, error) {
	return r.store.GetUser(ctx, obj.AuthorID)
}

func (r *tankPostResolver) Replies(ctx context.Context, obj *database.TankPost, args ListArgs) ([]*database.TankReply, error) {
	page, err := r.store.ListTankReplies(ctx, args.params(obj.ID))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *Resolver) TankReply() *tankReplyResolver { return &tankReplyResolver{r} }

type tankReplyResolver struct{ *Resolver }

func (r *tankReplyResolver) Post(ctx context.Context, obj *database.TankReply) (*database.TankPost, error) {
	return r.store.GetTankPost(ctx, obj.PostID)
}

func (r *tankReplyResolver) Author(ctx context.Context, obj *database.TankReply) (*database.User, error) {
	return r.store.GetUser(ctx, obj.AuthorID)
}

func (r *Resolver) TankImage() *tankImageResolver { return &tankImageResolver{r} }

type tankImageResolver struct{ *Resolver }

func (r *tankImageResolver) Tank(ctx context.Context, obj *database.TankImage) (*database.Tank, error) {
	return r.store.GetTank(ctx, obj.TankID)
}

func (r *Resolver) Feed() *feedResolver { return &feedResolver{r} }

type feedResolver struct{ *Resolver }

func (r *feedResolver) Author(ctx context.Context, obj *database.Feed) (*database.User, error) {
	return r.store.GetUser(ctx, obj.AuthorID)
}

func (r *feedResolver) Images(ctx context.Context, obj *database.Feed) ([]*database.FeedImage, error) {
	page, err := r.store.ListFeedImages(ctx, database.ListParams{First: MaxFeedImages, Filter: obj.ID})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *feedResolver) Comments(ctx context.Context, obj *database.Feed, args ListArgs) ([]*database.FeedComment, error) {
	page, err := r.store.ListFeedComments(ctx, args.params(obj.ID))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *Resolver) FeedComment() *feedCommentResolver { return &feedCommentResolver{r} }

type feedCommentResolver struct{ *Resolver }

func (r *feedCommentResolver) Feed(ctx context.Context, obj *database.FeedComment) (*database.Feed, error) {
	return r.store.GetFeed(ctx, obj.FeedID)
}

func (r *feedCommentResolver) Author(ctx context.Context, obj *database.FeedComment) (*database.User, error) {
	return r.store.GetUser(ctx, obj.AuthorID)
}

func (r *feedCommentResolver) Replies(ctx context.Context, obj *database.FeedComment, args ListArgs) ([]*database.FeedCommentReply, error) {
	page, err := r.store.ListFeedCommentReplies(ctx, args.params(obj.ID))
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (r *Resolver) FeedCommentReply() *feedCommentReplyResolver { return &feedCommentReplyResolver{r} }

type feedCommentReplyResolver struct{ *Resolver }

func (r *feedCommentReplyResolver) Comment(ctx context.Context, obj *database.FeedCommentReply) (*database.FeedComment, error) {
	return r.store.GetFeedComment(ctx, obj.CommentID)
}

func (r *feedCommentReplyResolver) Author(ctx context.Context, obj *database.FeedCommentReply) (*database.User, error) {
	return r.store.GetUser(ctx, obj.AuthorID)
}
