package memory

import (
	"context"

	"github.com/kidtango/need2reefbackend/internal/apierror"
	"github.com/kidtango/need2reefbackend/internal/database"
)

func (s *Store) CreateTank(ctx context.Context, tank *database.Tank) (*database.Tank, error) {
	defer s.lock()()
	if _, ok := s.data.profiles[tank.ProfileID]; !ok {
		return nil, apierror.NotFound("Profile", tank.ProfileID)
	}
	t := *tank
	t.ID = newID()
	t.CreatedAt = s.tick()
	t.UpdatedAt = t.CreatedAt
	s.data.tanks[t.ID] = &t
	cp := t
	return &cp, nil
}

func (s *Store) GetTank(ctx context.Context, id string) (*database.Tank, error) {
	defer s.rlock()()
	return get(s.data.tanks, "Tank", id)
}

func (s *Store) DeleteTank(ctx context.Context, id string) (*database.Tank, error) {
	defer s.lock()()
	t, err := get(s.data.tanks, "Tank", id)
	if err != nil {
		return nil, err
	}
	s.dropTank(id)
	return t, nil
}

func (s *Store) dropTank(id string) {
	for _, pid := range idsWhere(s.data.tankPosts, func(p *database.TankPost) bool { return p.TankID == id }) {
		s.dropTankPost(pid)
	}
	for _, iid := range idsWhere(s.data.tankImages, func(i *database.TankImage) bool { return i.TankID == id }) {
		delete(s.data.tankImages, iid)
	}
	delete(s.data.tanks, id)
}

func (s *Store) ListTanks(ctx context.Context, params database.ListParams) (*database.Page[database.Tank], error) {
	defer s.rlock()()
	return list(s.data.tanks, params, tankList)
}

func (s *Store) CreateTankPost(ctx context.Context, post *database.TankPost) (*database.TankPost, error) {
	defer s.lock()()
	if _, ok := s.data.tanks[post.TankID]; !ok {
		return nil, apierror.NotFound("Tank", post.TankID)
	}
	if _, ok := s.data.users[post.AuthorID]; !ok {
		return nil, apierror.NotFound("User", post.AuthorID)
	}
	p := *post
	p.ID = newID()
	p.CreatedAt = s.tick()
	p.UpdatedAt = p.CreatedAt
	s.data.tankPosts[p.ID] = &p
	cp := p
	return &cp, nil
}

func (s *Store) GetTankPost(ctx context.Context, id string) (*database.TankPost, error) {
	defer s.rlock()()
	return get(s.data.tankPosts, "TankPost", id)
}

func (s *Store) UpdateTankPost(ctx context.Context, id, body string) (*database.TankPost, error) {
	defer s.lock()()
	p, err := get(s.data.tankPosts, "TankPost", id)
	if err != nil {
		return nil, err
	}
	p.Body = body
	p.UpdatedAt = s.tick()
	s.data.tankPosts[id] = p
	cp := *p
	return &cp, nil
}

func (s *Store) DeleteTankPost(ctx context.Context, id string) (*database.TankPost, error) {
	defer s.lock()()
	p, err := get(s.data.tankPosts, "TankPost", id)
	if err != nil {
		return nil, err
	}
	s.dropTankPost(id)
	return p, nil
}

func (s *Store) dropTankPost(id string) {
	for _, rid := range idsWhere(s.data.tankReplies, func(r *database.TankReply) bool { return r.PostID == id }) {
		delete(s.data.tankReplies, rid)
	}
	delete(s.data.tankPosts, id)
}

func (s *Store) ListTankPosts(ctx context.Context, params database.ListParams) (*database.Page[database.TankPost], error) {
	defer s.rlock()()
	return list(s.data.tankPosts, params, tankPostList)
}

func (s *Store) CreateTankReply(ctx context.Context, reply *database.TankReply) (*database.TankReply, error) {
	defer s.lock()()
	if _, ok := s.data.tankPosts[reply.PostID]; !ok {
		return nil, apierror.NotFound("TankPost", reply.PostID)
	}
	if _, ok := s.data.users[reply.AuthorID]; !ok {
		return nil, apierror.NotFound("User", reply.AuthorID)
	}
	r := *reply
	r.ID = newID()
	r.CreatedAt = s.tick()
	r.UpdatedAt = r.CreatedAt
	s.data.tankReplies[r.ID] = &r
	cp := r
	return &cp, nil
}

func (s *Store) GetTankReply(ctx context.Context, id string) (*database.TankReply, error) {
	defer s.rlock()()
	return get(s.data.tankReplies, "TankReply", id)
}

func (s *Store) UpdateTankReply(ctx context.Context, id, body string) (*database.TankReply, error) {
	defer s.lock()()
	r, err := get(s.data.tankReplies, "TankReply", id)
	if err != nil {
		return nil, err
	}
	r.Body = body
	r.UpdatedAt = s.tick()
	s.data.tankReplies[id] = r
	cp := *r
	return &cp, nil
}

func (s *Store) DeleteTankReply(ctx context.Context, id string) (*database.TankReply, error) {
	defer s.lock()()
	r, err := get(s.data.tankReplies, "TankReply", id)
	if err != nil {
		return nil, err
	}
	delete(s.data.tankReplies, id)
	return r, nil
}

func (s *Store) ListTankReplies(ctx context.Context, params database.ListParams) (*database.Page[database.TankReply], error) {
	defer s.rlock()()
	return list(s.data.tankReplies, params, tankReplyList)
}

func (s *Store) CreateTankImage(ctx context.Context, image *database.TankImage) (*database.TankImage, error) {
	defer s.lock()()
	if _, ok := s.data.tanks[image.TankID]; !ok {
		return nil, apierror.NotFound("Tank", image.TankID)
	}
	i := *image
	i.ID = newID()
	i.CreatedAt = s.tick()
	s.data.tankImages[i.ID] = &i
	cp := i
	return &cp, nil
}

func (s *Store) DeleteTankImage(ctx context.Context, id string) (*database.TankImage, error) {
	defer s.lock()()
	i, err := get(s.data.tankImages, "TankImage", id)
	if err != nil {
		return nil, err
	}
	delete(s.data.tankImages, id)
	return i, nil
}

func (s *Store) ListTankImages(ctx context.Context, params database.ListParams) (*database.Page[database.TankImage], error) {
	defer s.rlock()()
	return list(s.data.tankImages, params, tankImageList)
}
