// Package memory implements database.Store in process memory. It backs the
// "memory" store driver and the resolver tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/database"
)

type data struct {
	clock time.Time

	users              map[string]*database.User
	profiles           map[string]*database.Profile
	tanks              map[string]*database.Tank
	tankPosts          map[string]*database.TankPost
	tankReplies        map[string]*database.TankReply
	tankImages         map[string]*database.TankImage
	feeds              map[string]*database.Feed
	feedImages         map[string]*database.FeedImage
	feedComments       map[string]*database.FeedComment
	feedCommentReplies map[string]*database.FeedCommentReply
}

func (d *data) clone() *data {
	return &data{
		clock:              d.clock,
		users:              maps.Clone(d.users),
		profiles:           maps.Clone(d.profiles),
		tanks:              maps.Clone(d.tanks),
		tankPosts:          maps.Clone(d.tankPosts),
		tankReplies:        maps.Clone(d.tankReplies),
		tankImages:         maps.Clone(d.tankImages),
		feeds:              maps.Clone(d.feeds),
		feedImages:         maps.Clone(d.feedImages),
		feedComments:       maps.Clone(d.feedComments),
		feedCommentReplies: maps.Clone(d.feedCommentReplies),
	}
}

// Store is an in-memory database.Store. Stored records are never mutated in
// place, so a shallow copy of the maps is a consistent snapshot.
type Store struct {
	mu   *sync.RWMutex
	data *data
	tx   bool
}

var _ database.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		mu: &sync.RWMutex{},
		data: &data{
			users:              map[string]*database.User{},
			profiles:           map[string]*database.Profile{},
			tanks:              map[string]*database.Tank{},
			tankPosts:          map[string]*database.TankPost{},
			tankReplies:        map[string]*database.TankReply{},
			tankImages:         map[string]*database.TankImage{},
			feeds:              map[string]*database.Feed{},
			feedImages:         map[string]*database.FeedImage{},
			feedComments:       map[string]*database.FeedComment{},
			feedCommentReplies: map[string]*database.FeedCommentReply{},
		},
	}
}

func (s *Store) rlock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) lock() func() {
	if s.tx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// tick returns a strictly increasing timestamp so listings keep creation order.
func (s *Store) tick() time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(s.data.clock) {
		now = s.data.clock.Add(time.Microsecond)
	}
	s.data.clock = now
	return now
}

// WithTx runs fn while holding the write lock. Changes made by fn are
// discarded when it fails.
func (s *Store) WithTx(ctx context.Context, fn func(database.Store) error) error {
	if s.tx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(&Store{mu: s.mu, data: s.data, tx: true}); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func get[T any](rows map[string]*T, entity, id string) (*T, error) {
	rec, ok := rows[id]
	if !ok {
		return nil, apierror.NotFound(entity, id)
	}
	cp := *rec
	return &cp, nil
}

func find[T any](rows map[string]*T, match func(*T) bool) (*T, bool) {
	for _, rec := range rows {
		if match(rec) {
			cp := *rec
			return &cp, true
		}
	}
	return nil, false
}

func idsWhere[T any](rows map[string]*T, match func(*T) bool) []string {
	var ids []string
	for id, rec := range rows {
		if match(rec) {
			ids = append(ids, id)
		}
	}
	return ids
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUserWithProfile(ctx context.Context, user *database.User) (*database.User, *database.Profile, error) {
	defer s.lock()()

	if s.emailTaken(user.Email, "") {
		return nil, nil, apierror.Conflict("Email is already in use")
	}
	now := s.tick()
	u := *user
	u.ID = newID()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Permission == "" {
		u.Permission = database.PermissionUser
	}
	p := &database.Profile{ID: newID(), AuthorID: u.ID, CreatedAt: now}

	s.data.users[u.ID] = &u
	s.data.profiles[p.ID] = p
	created, profile := u, *p
	return &created, &profile, nil
}

func (s *Store) emailTaken(email, exceptID string) bool {
	_, taken := find(s.data.users, func(u *database.User) bool {
		return u.ID != exceptID && strings.EqualFold(u.Email, email)
	})
	return taken
}

func (s *Store) GetUser(ctx context.Context, id string) (*database.User, error) {
	defer s.rlock()()
	return get(s.data.users, "User", id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	defer s.rlock()()
	u, ok := find(s.data.users, func(u *database.User) bool { return strings.EqualFold(u.Email, email) })
	if !ok {
		return nil, apierror.NotFound("User", "")
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, patch database.UserPatch) (*database.User, error) {
	defer s.lock()()
	u, err := get(s.data.users, "User", id)
	if err != nil {
		return nil, err
	}
	if patch.Email != nil {
		if s.emailTaken(*patch.Email, id) {
			return nil, apierror.Conflict("Email is already in use")
		}
		u.Email = *patch.Email
	}
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Password != nil {
		u.Password = *patch.Password
	}
	u.UpdatedAt = s.tick()
	s.data.users[id] = u
	cp := *u
	return &cp, nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) (*database.User, error) {
	defer s.lock()()
	u, err := get(s.data.users, "User", id)
	if err != nil {
		return nil, err
	}
	d := s.data
	for _, pid := range idsWhere(d.profiles, func(p *database.Profile) bool { return p.AuthorID == id }) {
		s.dropProfile(pid)
	}
	for _, fid := range idsWhere(d.feeds, func(f *database.Feed) bool { return f.AuthorID == id }) {
		s.dropFeed(fid)
	}
	for _, pid := range idsWhere(d.tankPosts, func(p *database.TankPost) bool { return p.AuthorID == id }) {
		s.dropTankPost(pid)
	}
	for _, rid := range idsWhere(d.tankReplies, func(r *database.TankReply) bool { return r.AuthorID == id }) {
		delete(d.tankReplies, rid)
	}
	for _, cid := range idsWhere(d.feedComments, func(c *database.FeedComment) bool { return c.AuthorID == id }) {
		s.dropFeedComment(cid)
	}
	for _, rid := range idsWhere(d.feedCommentReplies, func(r *database.FeedCommentReply) bool { return r.AuthorID == id }) {
		delete(d.feedCommentReplies, rid)
	}
	delete(d.users, id)
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context, params database.ListParams) (*database.Page[database.User], error) {
	defer s.rlock()()
	return list(s.data.users, params, userList)
}

func (s *Store) ListUsersWithoutProfile(ctx context.Context, limit int) ([]*database.User, error) {
	defer s.rlock()()
	if limit <= 0 || limit > database.MaxPageSize {
		limit = database.MaxPageSize
	}
	owners := make(map[string]bool, len(s.data.profiles))
	for _, p := range s.data.profiles {
		owners[p.AuthorID] = true
	}
	var users []*database.User
	for _, u := range s.data.users {
		if !owners[u.ID] {
			cp := *u
			users = append(users, &cp)
		}
	}
	slices.SortFunc(users, func(a, b *database.User) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

// =============================================================================
// PROFILES
// =============================================================================

func (s *Store) CreateProfile(ctx context.Context, authorID string) (*database.Profile, error) {
	defer s.lock()()
	if _, ok := s.data.users[authorID]; !ok {
		return nil, apierror.NotFound("User", authorID)
	}
	if _, ok := find(s.data.profiles, func(p *database.Profile) bool { return p.AuthorID == authorID }); ok {
		return nil, apierror.Conflict("User already has a profile")
	}
	p := &database.Profile{ID: newID(), AuthorID: authorID, CreatedAt: s.tick()}
	s.data.profiles[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*database.Profile, error) {
	defer s.rlock()()
	return get(s.data.profiles, "Profile", id)
}

func (s *Store) GetProfileByAuthor(ctx context.Context, authorID string) (*database.Profile, error) {
	defer s.rlock()()
	p, ok := find(s.data.profiles, func(p *database.Profile) bool { return p.AuthorID == authorID })
	if !ok {
		return nil, apierror.NotFound("Profile", "")
	}
	return p, nil
}

func (s *Store) dropProfile(id string) {
	for _, tid := range idsWhere(s.data.tanks, func(t *database.Tank) bool { return t.ProfileID == id }) {
		s.dropTank(tid)
	}
	delete(s.data.profiles, id)
}
