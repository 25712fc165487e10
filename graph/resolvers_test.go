package graph

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/auth"
	"github.com/kidtango/need2reefbackend/internal/database"
	"github.com/kidtango/need2reefbackend/internal/database/memory"
	"github.com/kidtango/need2reefbackend/internal/logging"
)

const testSecret = "test-secret"

func newTestResolver(t *testing.T) (*Resolver, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewResolver(store, auth.NewIssuer(testSecret, 0), auth.NewHasher(bcrypt.MinCost), logging.Discard()), store
}

func as(userID string) context.Context {
	return auth.WithIdentity(context.Background(), auth.Identity{Token: "token-" + userID, UserID: userID})
}

func register(t *testing.T, r *Resolver, email string) *database.User {
	t.Helper()
	payload, err := r.Mutation().CreateUser(context.Background(), UserCreateInput{
		Name:     "Reefer",
		Email:    email,
		Password: "secretpw",
	})
	require.NoError(t, err)
	return payload.User
}

func TestCreateUserNormalizesEmailAndCreatesProfile(t *testing.T) {
	r, store := newTestResolver(t)
	ctx := context.Background()

	payload, err := r.Mutation().CreateUser(ctx, UserCreateInput{Name: " Ann ", Email: " A@X.com ", Password: "secretpw"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", payload.User.Email)
	assert.Equal(t, "Ann", payload.User.Name)
	assert.Equal(t, database.PermissionUser, payload.User.Permission)
	assert.NotEqual(t, "secretpw", payload.User.Password)

	userID, err := auth.NewIssuer(testSecret, 0).Verify(payload.Token)
	require.NoError(t, err)
	assert.Equal(t, payload.User.ID, userID)

	profile, err := store.GetProfileByAuthor(ctx, payload.User.ID)
	require.NoError(t, err)
	assert.Equal(t, payload.User.ID, profile.AuthorID)
}

func TestCreateUserRejectsBadInput(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input UserCreateInput
	}{
		{"short password", UserCreateInput{Name: "Ann", Email: "a@x.com", Password: "short"}},
		{"invalid email", UserCreateInput{Name: "Ann", Email: "not-an-email", Password: "secretpw"}},
		{"blank name", UserCreateInput{Name: "  ", Email: "a@x.com", Password: "secretpw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Mutation().CreateUser(ctx, tt.input)
			require.Error(t, err)
			assert.True(t, apierror.IsValidation(err))
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	r, _ := newTestResolver(t)
	register(t, r, "a@x.com")

	_, err := r.Mutation().CreateUser(context.Background(), UserCreateInput{Name: "Other", Email: "A@x.com", Password: "secretpw"})
	require.Error(t, err)
	assert.True(t, apierror.IsConflict(err))
}

func TestLogin(t *testing.T) {
	r, _ := newTestResolver(t)
	user := register(t, r, "a@x.com")
	ctx := context.Background()

	payload, err := r.Mutation().Login(ctx, LoginInput{Email: "A@X.COM", Password: "secretpw"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, payload.User.ID)
	assert.NotEmpty(t, payload.Token)

	_, wrongPassword := r.Mutation().Login(ctx, LoginInput{Email: "a@x.com", Password: "wrongpass"})
	_, unknownEmail := r.Mutation().Login(ctx, LoginInput{Email: "nobody@x.com", Password: "secretpw"})
	for _, err := range []error{wrongPassword, unknownEmail} {
		require.Error(t, err)
		assert.True(t, apierror.IsAuth(err))
		assert.Equal(t, "Unable to login", apierror.Message(err))
	}
}

func TestMutationsRequireIdentity(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()
	m := r.Mutation()

	_, err := m.CreateTank(ctx, TankCreateInput{Title: "Reef1", ProfileID: "p"})
	assert.True(t, apierror.IsAuth(err))
	_, err = m.CreateTankPost(ctx, TankPostCreateInput{Body: "hello", TankID: "t"})
	assert.True(t, apierror.IsAuth(err))
	_, err = m.DeleteTankPost(ctx, "post")
	assert.True(t, apierror.IsAuth(err))
	_, err = m.CreateFeed(ctx, FeedCreateInput{Message: "hi"})
	assert.True(t, apierror.IsAuth(err))
	_, err = r.Query().Me(ctx)
	assert.True(t, apierror.IsAuth(err))
	_, err = r.Query().Profile(ctx, "p")
	assert.True(t, apierror.IsAuth(err))

	invalid := auth.WithIdentity(ctx, auth.Identity{Token: "garbage", Err: apierror.Auth("invalid token")})
	_, err = m.DeleteUser(invalid)
	assert.True(t, apierror.IsAuth(err))
}

func TestTankPostOwnershipScenario(t *testing.T) {
	r, _ := newTestResolver(t)
	m := r.Mutation()

	a := register(t, r, "a@x.com")
	b := register(t, r, "b@x.com")

	login, err := m.Login(context.Background(), LoginInput{Email: "a@x.com", Password: "secretpw"})
	require.NoError(t, err)
	require.Equal(t, a.ID, login.User.ID)

	profile, err := r.User().Profile(as(a.ID), a)
	require.NoError(t, err)

	tank, err := m.CreateTank(as(a.ID), TankCreateInput{Title: "Reef1", ProfileID: profile.ID})
	require.NoError(t, err)
	post, err := m.CreateTankPost(as(a.ID), TankPostCreateInput{Body: "hello", TankID: tank.ID})
	require.NoError(t, err)
	assert.Equal(t, a.ID, post.AuthorID)

	_, err = m.DeleteTankPost(as(b.ID), post.ID)
	require.Error(t, err)
	assert.True(t, apierror.IsForbidden(err))
	assert.Equal(t, "You don't have permission to delete this tank post!", apierror.Message(err))

	deleted, err := m.DeleteTankPost(as(a.ID), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, deleted.ID)

	_, err = r.Query().TankPost(context.Background(), post.ID)
	assert.True(t, apierror.IsNotFound(err))

	_, err = m.DeleteTankPost(as(a.ID), post.ID)
	assert.True(t, apierror.IsNotFound(err), "second delete reports not found, not forbidden")
}

func TestCreateTankRequiresOwnProfile(t *testing.T) {
	r, _ := newTestResolver(t)
	a := register(t, r, "a@x.com")
	b := register(t, r, "b@x.com")
	profile, err := r.User().Profile(as(a.ID), a)
	require.NoError(t, err)

	_, err = r.Mutation().CreateTank(as(b.ID), TankCreateInput{Title: "Stolen", ProfileID: profile.ID})
	assert.True(t, apierror.IsForbidden(err))

	_, err = r.Mutation().CreateTank(as(a.ID), TankCreateInput{Title: "Reef1", ProfileID: "missing"})
	assert.True(t, apierror.IsNotFound(err))

	_, err = r.Mutation().CreateTank(as(a.ID), TankCreateInput{Title: " ", ProfileID: profile.ID})
	assert.True(t, apierror.IsValidation(err))
}

func TestTankImagesFollowTankOwnership(t *testing.T) {
	r, _ := newTestResolver(t)
	m := r.Mutation()
	a := register(t, r, "a@x.com")
	b := register(t, r, "b@x.com")
	profile, err := r.User().Profile(as(a.ID), a)
	require.NoError(t, err)
	tank, err := m.CreateTank(as(a.ID), TankCreateInput{Title: "Reef1", ProfileID: profile.ID})
	require.NoError(t, err)

	_, err = m.CreateTankImage(as(b.ID), TankImageCreateInput{URL: "https://img.example/1.png", TankID: tank.ID})
	assert.True(t, apierror.IsForbidden(err))
	_, err = m.CreateTankImage(as(a.ID), TankImageCreateInput{URL: "ftp://img/1.png", TankID: tank.ID})
	assert.True(t, apierror.IsValidation(err))

	image, err := m.CreateTankImage(as(a.ID), TankImageCreateInput{URL: "https://img.example/1.png", TankID: tank.ID})
	require.NoError(t, err)

	_, err = m.DeleteTankImage(as(b.ID), image.ID)
	assert.True(t, apierror.IsForbidden(err))
	_, err = m.DeleteTankImage(as(a.ID), image.ID)
	require.NoError(t, err)

	images, err := r.Tank().Images(context.Background(), tank, ListArgs{})
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestUpdateTankPostAndReplies(t *testing.T) {
	r, store := newTestResolver(t)
	m := r.Mutation()
	a := register(t, r, "a@x.com")
	b := register(t, r, "b@x.com")
	profile, err := r.User().Profile(as(a.ID), a)
	require.NoError(t, err)
	tank, err := m.CreateTank(as(a.ID), TankCreateInput{Title: "Reef1", ProfileID: profile.ID})
	require.NoError(t, err)

	post, err := m.CreateTankPost(as(b.ID), TankPostCreateInput{Body: "nice tank", TankID: tank.ID})
	require.NoError(t, err)

	_, err = m.UpdateTankPost(as(a.ID), post.ID, BodyUpdateInput{Body: "edited"})
	assert.True(t, apierror.IsForbidden(err), "tank owner does not own other people's posts")
	stored, err := store.GetTankPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "nice tank", stored.Body)

	_, err = m.UpdateTankPost(as(b.ID), post.ID, BodyUpdateInput{Body: "  "})
	assert.True(t, apierror.IsValidation(err))

	updated, err := m.UpdateTankPost(as(b.ID), post.ID, BodyUpdateInput{Body: "very nice tank"})
	require.NoError(t, err)
	assert.Equal(t, "very nice tank", updated.Body)

	reply, err := m.CreateTankReply(as(a.ID), TankReplyCreateInput{Body: "thanks", PostID: post.ID})
	require.NoError(t, err)
	_, err = m.UpdateTankReply(as(b.ID), reply.ID, BodyUpdateInput{Body: "hijack"})
	assert.True(t, apierror.IsForbidden(err))
	storedReply, err := store.GetTankReply(context.Background(), reply.ID)
	require.NoError(t, err)
	assert.Equal(t, "thanks", storedReply.Body)
	_, err = m.UpdateTankReply(as(a.ID), reply.ID, BodyUpdateInput{Body: "thank you"})
	require.NoError(t, err)

	_, err = m.CreateTankReply(as(a.ID), TankReplyCreateInput{Body: "hi", PostID: "missing"})
	assert.True(t, apierror.IsNotFound(err))

	replies, err := r.TankPost().Replies(context.Background(), post, ListArgs{})
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "thank you", replies[0].Body)

	_, err = m.DeleteTankReply(as(a.ID), reply.ID)
	require.NoError(t, err)
}

func TestDuplicateCreatesProduceDistinctEntities(t *testing.T) {
	r, _ := newTestResolver(t)
	a := register(t, r, "a@x.com")

	first, err := r.Mutation().CreateFeed(as(a.ID), FeedCreateInput{Message: "same"})
	require.NoError(t, err)
	second, err := r.Mutation().CreateFeed(as(a.ID), FeedCreateInput{Message: "same"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestFeedFlow(t *testing.T) {
	r, store := newTestResolver(t)
	m := r.Mutation()
	a := register(t, r, "a@x.com")
	b := register(t, r, "b@x.com")

	_, err := m.CreateFeed(as(a.ID), FeedCreateInput{Message: "coral", Images: []string{"not a url"}})
	assert.True(t, apierror.IsValidation(err))

	feed, err := m.CreateFeed(as(a.ID), FeedCreateInput{
		Message: "new coral",
		Images:  []string{"https://img.example/1.png", "https://img.example/2.png"},
	})
	require.NoError(t, err)

	images, err := r.Feed().Images(context.Background(), feed)
	require.NoError(t, err)
	assert.Len(t, images, 2)

	comment, err := m.CreateFeedComment(as(b.ID), FeedCommentCreateInput{Body: "wow", FeedID: feed.ID})
	require.NoError(t, err)
	reply, err := m.CreateFeedCommentReply(as(a.ID), FeedCommentReplyCreateInput{Body: "thanks", CommentID: comment.ID})
	require.NoError(t, err)

	_, err = m.UpdateFeedComment(as(a.ID), comment.ID, BodyUpdateInput{Body: "edited"})
	assert.True(t, apierror.IsForbidden(err))
	stored, err := store.GetFeedComment(context.Background(), comment.ID)
	require.NoError(t, err)
	assert.Equal(t, "wow", stored.Body)
	_, err = m.UpdateFeedComment(as(b.ID), comment.ID, BodyUpdateInput{Body: "wow!"})
	require.NoError(t, err)
	_, err = m.UpdateFeedCommentReply(as(a.ID), reply.ID, BodyUpdateInput{Body: "thank you"})
	require.NoError(t, err)
	_, err = m.DeleteFeedCommentReply(as(b.ID), reply.ID)
	assert.True(t, apierror.IsForbidden(err))

	_, err = m.DeleteFeed(as(b.ID), feed.ID)
	assert.True(t, apierror.IsForbidden(err))
	_, err = m.DeleteFeed(as(a.ID), feed.ID)
	require.NoError(t, err)

	_, err = store.GetFeedComment(context.Background(), comment.ID)
	assert.True(t, apierror.IsNotFound(err))
	_, err = m.DeleteFeedComment(as(b.ID), comment.ID)
	assert.True(t, apierror.IsNotFound(err))
}

func TestUpdateAndDeleteUser(t *testing.T) {
	r, store := newTestResolver(t)
	m := r.Mutation()
	a := register(t, r, "a@x.com")
	register(t, r, "b@x.com")

	name := "Ann"
	email := "ANN@x.com"
	password := "newsecret"
	updated, err := m.UpdateUser(as(a.ID), UserUpdateInput{Name: &name, Email: &email, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Ann", updated.Name)
	assert.Equal(t, "ann@x.com", updated.Email)

	_, err = m.Login(context.Background(), LoginInput{Email: "ann@x.com", Password: "newsecret"})
	require.NoError(t, err)

	taken := "b@x.com"
	_, err = m.UpdateUser(as(a.ID), UserUpdateInput{Email: &taken})
	assert.True(t, apierror.IsConflict(err))

	_, err = m.DeleteUser(as(a.ID))
	require.NoError(t, err)
	_, err = store.GetUser(context.Background(), a.ID)
	assert.True(t, apierror.IsNotFound(err))
	_, err = r.Query().Me(as(a.ID))
	assert.True(t, apierror.IsNotFound(err))
}

func TestEmailVisibleToOwnerOnly(t *testing.T) {
	r, _ := newTestResolver(t)
	a := register(t, r, "a@x.com")
	b := register(t, r, "b@x.com")

	email, err := r.User().Email(as(a.ID), a)
	require.NoError(t, err)
	require.NotNil(t, email)
	assert.Equal(t, "a@x.com", *email)

	email, err = r.User().Email(as(b.ID), a)
	require.NoError(t, err)
	assert.Nil(t, email)

	email, err = r.User().Email(context.Background(), a)
	require.NoError(t, err)
	assert.Nil(t, email)
}

func TestUsersQuery(t *testing.T) {
	r, _ := newTestResolver(t)
	ctx := context.Background()
	for _, input := range []UserCreateInput{
		{Name: "Coral Carl", Email: "carl@x.com", Password: "secretpw"},
		{Name: "Anemone Ann", Email: "ann@x.com", Password: "secretpw"},
	} {
		_, err := r.Mutation().CreateUser(ctx, input)
		require.NoError(t, err)
	}

	query := "coral"
	users, err := r.Query().Users(ctx, ListArgs{Query: &query})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Coral Carl", users[0].Name)

	orderBy := "name_ASC"
	users, err = r.Query().Users(ctx, ListArgs{OrderBy: &orderBy})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Anemone Ann", users[0].Name)

	bad := "password_DESC"
	_, err = r.Query().Users(ctx, ListArgs{OrderBy: &bad})
	assert.True(t, apierror.IsValidation(err))
}

func TestTanksConnection(t *testing.T) {
	r, _ := newTestResolver(t)
	a := register(t, r, "a@x.com")
	profile, err := r.User().Profile(as(a.ID), a)
	require.NoError(t, err)
	for _, title := range []string{"one", "two", "three"} {
		_, err := r.Mutation().CreateTank(as(a.ID), TankCreateInput{Title: title, ProfileID: profile.ID})
		require.NoError(t, err)
	}

	first := 2
	conn, err := r.Query().TanksConnection(context.Background(), &profile.ID, ListArgs{First: &first})
	require.NoError(t, err)
	require.Len(t, conn.Edges, 2)
	assert.Equal(t, 3, conn.Aggregate.Count)
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.False(t, conn.PageInfo.HasPreviousPage)
	require.NotNil(t, conn.PageInfo.EndCursor)

	conn, err = r.Query().TanksConnection(context.Background(), &profile.ID, ListArgs{First: &first, After: conn.PageInfo.EndCursor})
	require.NoError(t, err)
	require.Len(t, conn.Edges, 1)
	assert.Equal(t, "three", conn.Edges[0].Node.Title)
	assert.False(t, conn.PageInfo.HasNextPage)
	assert.True(t, conn.PageInfo.HasPreviousPage)

	tanks, err := r.Profile().Tanks(context.Background(), profile, ListArgs{})
	require.NoError(t, err)
	assert.Len(t, tanks, 3)
}

func TestCreateFeedImageLimit(t *testing.T) {
	r, _ := newTestResolver(t)
	a := register(t, r, "a@x.com")

	urls := make([]string, MaxFeedImages+1)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://img.example/%d.png", i)
	}
	_, err := r.Mutation().CreateFeed(as(a.ID), FeedCreateInput{Message: "too many", Images: urls})
	assert.True(t, apierror.IsValidation(err))

	feed, err := r.Mutation().CreateFeed(as(a.ID), FeedCreateInput{Message: "full", Images: urls[:MaxFeedImages]})
	require.NoError(t, err)
	images, err := r.Feed().Images(context.Background(), feed)
	require.NoError(t, err)
	assert.Len(t, images, MaxFeedImages)
}

func TestConnectionRejectsOutOfRangeCursor(t *testing.T) {
	r, _ := newTestResolver(t)
	a := register(t, r, "a@x.com")
	_, err := r.Mutation().CreateFeed(as(a.ID), FeedCreateInput{Message: "coral"})
	require.NoError(t, err)

	after := database.EncodeCursor(math.MaxInt)
	_, err = r.Query().FeedsConnection(context.Background(), ListArgs{After: &after})
	require.Error(t, err)
	assert.True(t, apierror.IsValidation(err))

	skip := math.MaxInt32
	_, err = r.Query().FeedsConnection(context.Background(), ListArgs{Skip: &skip})
	assert.True(t, apierror.IsValidation(err))
}
