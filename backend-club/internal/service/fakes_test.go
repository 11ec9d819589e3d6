package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gronit/club-portal/backend-club/internal/domain"
	"github.com/gronit/club-portal/backend-club/internal/repository"
	"github.com/gronit/club-portal/pkg/firebase"
	"github.com/gronit/club-portal/pkg/media"
)

// fakeEventRepo is an in-memory EventRepository
type fakeEventRepo struct {
	mu        sync.Mutex
	events    map[string]*domain.Event
	lastQuery repository.EventFilter
	createErr error
	updateErr error
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	r := &fakeEventRepo{events: make(map[string]*domain.Event)}
	for _, e := range events {
		r.events[e.ID] = e.Clone()
	}
	return r
}

func (r *fakeEventRepo) Create(_ context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.events[e.ID] = e.Clone()
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	return e.Clone(), nil
}

func (r *fakeEventRepo) List(_ context.Context, f repository.EventFilter) ([]*domain.Event, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastQuery = f
	out := make([]*domain.Event, 0)
	for _, e := range r.events {
		switch f.Period {
		case domain.EventPeriodUpcoming:
			if !e.Date.After(f.Now) {
				continue
			}
		case domain.EventPeriodPast:
			if e.Date.After(f.Now) {
				continue
			}
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, len(out), nil
}

func (r *fakeEventRepo) Update(_ context.Context, e *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.events[e.ID]; !ok {
		return repository.ErrNotFound
	}
	r.events[e.ID] = e.Clone()
	return nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

// fakeBlogRepo is an in-memory BlogRepository
type fakeBlogRepo struct {
	blogs  map[string]*domain.Blog
	nextID int
}

func newFakeBlogRepo() *fakeBlogRepo {
	return &fakeBlogRepo{blogs: make(map[string]*domain.Blog)}
}

func (r *fakeBlogRepo) Create(_ context.Context, b *domain.Blog) error {
	r.nextID++
	b.ID = fmt.Sprintf("blog-%d", r.nextID)
	cp := *b
	r.blogs[b.ID] = &cp
	return nil
}

func (r *fakeBlogRepo) GetByID(_ context.Context, id string) (*domain.Blog, error) {
	b, ok := r.blogs[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBlogRepo) List(_ context.Context, limit, offset int) ([]*domain.Blog, int, error) {
	out := make([]*domain.Blog, 0, len(r.blogs))
	for _, b := range r.blogs {
		out = append(out, b)
	}
	total := len(out)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return out[offset:end], total, nil
}

func (r *fakeBlogRepo) Update(_ context.Context, b *domain.Blog) error {
	if _, ok := r.blogs[b.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *b
	r.blogs[b.ID] = &cp
	return nil
}

func (r *fakeBlogRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.blogs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.blogs, id)
	return nil
}

// fakeMemberRepo is an in-memory MemberRepository
type fakeMemberRepo struct {
	members map[string]*domain.Member
	nextID  int
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[string]*domain.Member)}
}

func (r *fakeMemberRepo) Create(_ context.Context, m *domain.Member) error {
	r.nextID++
	m.ID = fmt.Sprintf("member-%d", r.nextID)
	cp := *m
	r.members[m.ID] = &cp
	return nil
}

func (r *fakeMemberRepo) GetByID(_ context.Context, id string) (*domain.Member, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMemberRepo) List(_ context.Context, limit, offset int) ([]*domain.Member, int, error) {
	out := make([]*domain.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (r *fakeMemberRepo) Update(_ context.Context, m *domain.Member) error {
	if _, ok := r.members[m.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *m
	r.members[m.ID] = &cp
	return nil
}

func (r *fakeMemberRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.members[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.members, id)
	return nil
}

// fakeImageStore records uploads and deletions. Data starting with "bad"
// is rejected as not an image.
type fakeImageStore struct {
	uploads   int
	destroyed []string
	uploadErr error
}

func (s *fakeImageStore) Upload(_ context.Context, data []byte, filename string) (*media.Image, error) {
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	if len(data) >= 3 && string(data[:3]) == "bad" {
		return nil, media.ErrNotImage
	}
	s.uploads++
	id := fmt.Sprintf("gronit/img-%d", s.uploads)
	return &media.Image{
		URL:      "https://res.cloudinary.com/demo/image/upload/" + id + ".png",
		PublicID: id,
		Format:   "png",
	}, nil
}

func (s *fakeImageStore) Destroy(_ context.Context, publicID string) error {
	s.destroyed = append(s.destroyed, publicID)
	return nil
}

// fakePublisher collects published changes
type fakePublisher struct {
	mu      sync.Mutex
	changes []domain.ContentChange
	err     error
}

func (p *fakePublisher) Publish(_ context.Context, change domain.ContentChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.changes = append(p.changes, change)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.changes))
	for i, c := range p.changes {
		out[i] = c.Type
	}
	return out
}

// fakeDirectory is an in-memory UserDirectory
type fakeDirectory struct {
	users   []firebase.User
	listErr error
}

func (d *fakeDirectory) ListUsers(context.Context) ([]firebase.User, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	return d.users, nil
}

func (d *fakeDirectory) CreateUser(_ context.Context, email string) (*firebase.User, error) {
	for _, u := range d.users {
		if u.Email == email {
			return nil, firebase.ErrEmailExists
		}
	}
	u := firebase.User{UID: fmt.Sprintf("uid%020d", len(d.users)+1), Email: email}
	d.users = append(d.users, u)
	return &u, nil
}

func (d *fakeDirectory) DeleteUser(_ context.Context, uid string) error {
	for i, u := range d.users {
		if u.UID == uid {
			d.users = append(d.users[:i], d.users[i+1:]...)
			return nil
		}
	}
	return firebase.ErrUserNotFound
}

var errBoom = errors.New("boom")
