// Package database provides the data client used by the resolvers: the
// Store contract, its PostgreSQL implementation and the shared models.
package database

import (
	"time"
)

// Permission levels. Self-registered accounts always get PermissionUser.
const (
	PermissionUser  = "USER"
	PermissionAdmin = "ADMIN"
)

// =============================================================================
// ACCOUNT MODELS
// =============================================================================

// User is a registered account. Password holds the bcrypt hash.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	Permission string    `json:"permission"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// UserPatch carries the optional fields of an account update.
type UserPatch struct {
	Name     *string
	Email    *string
	Password *string
}

// Profile is the aquarium profile created alongside every User.
type Profile struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

// =============================================================================
// TANK MODELS
// =============================================================================

// Tank belongs to a Profile.
type Tank struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ProfileID string    `json:"profileId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TankPost is a post on a Tank written by a User.
type TankPost struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	TankID    string    `json:"tankId"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TankReply answers a TankPost.
type TankReply struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TankImage is a picture attached to a Tank. Its owner is the tank's owner.
type TankImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	TankID    string    `json:"tankId"`
	CreatedAt time.Time `json:"createdAt"`
}

// =============================================================================
// FEED MODELS
// =============================================================================

// Feed is a social feed entry.
type Feed struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FeedImage is a picture attached to a Feed entry.
type FeedImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	FeedID    string    `json:"feedId"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedComment comments on a Feed entry.
type FeedComment struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	FeedID    string    `json:"feedId"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FeedCommentReply answers a FeedComment.
type FeedCommentReply struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	CommentID string    `json:"commentId"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
