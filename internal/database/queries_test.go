package database

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/ownership"
)

func TestModelFields(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tank := &Tank{ID: "tank-1", Title: "Reef1", ProfileID: "profile-1", CreatedAt: now, UpdatedAt: now}

	assert.Equal(t, []string{"id", "title", "profile_id", "created_at", "updated_at"}, columns(tank))
	assert.Equal(t, []any{"tank-1", "Reef1", "profile-1", now, now}, values(tank))

	targets := scanTargets(tank)
	require.Len(t, targets, 5)
	*(targets[1].(*string)) = "Reef2"
	assert.Equal(t, "Reef2", tank.Title)
}

func TestPageQueries(t *testing.T) {
	count, page, offset, err := pageQueries(tanksTable, columns(&Tank{}), ListParams{
		First:   10,
		Skip:    3,
		OrderBy: "title_DESC",
		Query:   " 50%_reef ",
		Filter:  "profile-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, offset)

	query, args, err := count.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT COUNT(*) FROM tanks WHERE (profile_id = $1 AND title ILIKE $2)", query)
	assert.Equal(t, []any{"profile-1", `%50\%\_reef%`}, args)

	query, args, err = page.ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "SELECT id, title, profile_id, created_at, updated_at FROM tanks")
	assert.Contains(t, query, "ORDER BY title DESC, id DESC")
	assert.Contains(t, query, "LIMIT 10")
	assert.Contains(t, query, "OFFSET 3")
	assert.Len(t, args, 2)
}

func TestPageQueriesDefaultOrder(t *testing.T) {
	_, page, _, err := pageQueries(feedsTable, columns(&Feed{}), ListParams{})
	require.NoError(t, err)

	query, _, err := page.ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "ORDER BY created_at ASC, id ASC")
	assert.Contains(t, query, fmt.Sprintf("LIMIT %d", MaxPageSize))
}

func TestPageQueriesRejectsUnsupportedArguments(t *testing.T) {
	_, _, _, err := pageQueries(usersTable, columns(&User{}), ListParams{Filter: "x"})
	assert.True(t, apierror.IsValidation(err))

	_, _, _, err = pageQueries(usersTable, columns(&User{}), ListParams{OrderBy: "password_ASC"})
	assert.True(t, apierror.IsValidation(err))
}

func TestProjectionQuery(t *testing.T) {
	tests := []struct {
		kind ownership.Kind
		lock bool
		want string
	}{
		{
			kind: ownership.KindTankPost,
			want: "SELECT t0.id, t0.author_id FROM tank_posts t0 WHERE t0.id = $1",
		},
		{
			kind: ownership.KindTank,
			lock: true,
			want: "SELECT t0.id, t0.profile_id, t1.author_id FROM tanks t0 " +
				"JOIN profiles t1 ON t1.id = t0.profile_id WHERE t0.id = $1 FOR UPDATE OF t0",
		},
		{
			kind: ownership.KindTankImage,
			want: "SELECT t0.id, t0.tank_id, t1.profile_id, t2.author_id FROM tank_images t0 " +
				"JOIN tanks t1 ON t1.id = t0.tank_id JOIN profiles t2 ON t2.id = t1.profile_id WHERE t0.id = $1",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			q, err := projectionQuery(tt.kind, ownership.Chains[tt.kind], "id-1", tt.lock)
			require.NoError(t, err)
			query, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
			assert.Equal(t, []any{"id-1"}, args)
		})
	}
}

func TestProjectionQueryCoversEveryKind(t *testing.T) {
	for kind, chain := range ownership.Chains {
		_, err := projectionQuery(kind, chain, "id-1", false)
		assert.NoError(t, err, kind)
	}

	_, err := projectionQuery(ownership.KindTank, ownership.Chain{ownership.EdgeAuthor}, "id-1", false)
	assert.Error(t, err)
}

func TestUsersWithoutProfileQuery(t *testing.T) {
	query, args, err := usersWithoutProfileQuery(25).ToSql()
	require.NoError(t, err)
	assert.Contains(t, query, "FROM users u LEFT JOIN profiles p ON p.author_id = u.id")
	assert.Contains(t, query, "WHERE p.id IS NULL")
	assert.Contains(t, query, "LIMIT 25")
	assert.Empty(t, args)
}

func TestMapError(t *testing.T) {
	err := mapError("insert User", &pq.Error{Code: "23505", Constraint: "users_email_key"}, "", "")
	assert.True(t, apierror.IsConflict(err))
	assert.Equal(t, "Email is already in use", apierror.Message(err))

	err = mapError("insert Tank", fmt.Errorf("exec: %w", &pq.Error{Code: "23503"}), "Profile", "profile-9")
	assert.True(t, apierror.IsNotFound(err))
	assert.Equal(t, `No Profile found for id "profile-9"`, apierror.Message(err))

	err = mapError("get Tank", errors.New("connection refused"), "", "")
	assert.Equal(t, apierror.CodeDataAccess, apierror.Code(err))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\d`, escapeLike(`c:\d`))
}
