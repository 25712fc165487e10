package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/database"
)

// ProfileActivities holds the activity implementations.
type ProfileActivities struct {
	store database.Store
}

// NewProfileActivities creates a new ProfileActivities instance.
func NewProfileActivities(store database.Store) *ProfileActivities {
	return &ProfileActivities{store: store}
}

// =============================================================================
// FIND USERS WITHOUT PROFILE
// =============================================================================

// FindUsersWithoutProfileInput is the input for FindUsersWithoutProfile.
type FindUsersWithoutProfileInput struct {
	Limit int `json:"limit"`
}

// FindUsersWithoutProfileOutput is the output for FindUsersWithoutProfile.
type FindUsersWithoutProfileOutput struct {
	UserIDs []string `json:"userIds"`
}

// FindUsersWithoutProfile lists up to Limit users that have no profile,
// oldest first.
func (a *ProfileActivities) FindUsersWithoutProfile(ctx context.Context, input FindUsersWithoutProfileInput) (*FindUsersWithoutProfileOutput, error) {
	logger := activity.GetLogger(ctx)

	users, err := a.store.ListUsersWithoutProfile(ctx, input.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users without profile: %w", err)
	}

	out := &FindUsersWithoutProfileOutput{UserIDs: make([]string, len(users))}
	for i, u := range users {
		out.UserIDs[i] = u.ID
	}
	logger.Info("found users without profile", "count", len(out.UserIDs))
	return out, nil
}

// =============================================================================
// CREATE MISSING PROFILE
// =============================================================================

// CreateMissingProfileInput is the input for CreateMissingProfile.
type CreateMissingProfileInput struct {
	UserID string `json:"userId"`
}

// CreateMissingProfileOutput is the output for CreateMissingProfile. Created
// is false when the user already had a profile or no longer exists.
type CreateMissingProfileOutput struct {
	ProfileID string `json:"profileId,omitempty"`
	Created   bool   `json:"created"`
}

// CreateMissingProfile gives the user a profile. It is safe to retry: a
// profile created by an earlier attempt or by the user is reported, not
// duplicated.
func (a *ProfileActivities) CreateMissingProfile(ctx context.Context, input CreateMissingProfileInput) (*CreateMissingProfileOutput, error) {
	logger := activity.GetLogger(ctx)

	profile, err := a.store.CreateProfile(ctx, input.UserID)
	switch {
	case err == nil:
		logger.Info("created missing profile", "userId", input.UserID, "profileId", profile.ID)
		return &CreateMissingProfileOutput{ProfileID: profile.ID, Created: true}, nil
	case apierror.IsConflict(err):
		existing, err := a.store.GetProfileByAuthor(ctx, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing profile: %w", err)
		}
		return &CreateMissingProfileOutput{ProfileID: existing.ID}, nil
	case apierror.IsNotFound(err):
		logger.Info("user deleted before profile repair", "userId", input.UserID)
		return &CreateMissingProfileOutput{}, nil
	default:
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
}
