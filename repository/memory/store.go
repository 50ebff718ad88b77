// Package memory keeps every document collection in process. It backs tests
// and single-node development runs, and can be told to reject writes to a
// user's records the way a remote store's access rules would.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"alightgram/model"
	"alightgram/repository"
	"github.com/google/uuid"
)

type edgeKey struct {
	owner       string
	counterpart string
}

type Store struct {
	mu          sync.RWMutex
	users       map[string]models.UserProfile
	following   map[edgeKey]time.Time
	followers   map[edgeKey]time.Time
	projects    map[string]models.Project
	credentials map[string]models.Credential
	denied      map[string]bool
}

func NewStore() *Store {
	return &Store{
		users:       make(map[string]models.UserProfile),
		following:   make(map[edgeKey]time.Time),
		followers:   make(map[edgeKey]time.Time),
		projects:    make(map[string]models.Project),
		credentials: make(map[string]models.Credential),
		denied:      make(map[string]bool),
	}
}

// DenyWrites makes every later write to uid's profile and follow sets fail
// with repository.ErrPermissionDenied.
func (s *Store) DenyWrites(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.denied[uid] = true
}

// AllowWrites lifts a DenyWrites.
func (s *Store) AllowWrites(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.denied, uid)
}

// Users, Follows, Projects and Credentials expose the store through the
// repository ports.
func (s *Store) Users() repository.UserRepository             { return (*userRepo)(s) }
func (s *Store) Follows() repository.FollowRepository         { return (*followRepo)(s) }
func (s *Store) Projects() repository.ProjectRepository       { return (*projectRepo)(s) }
func (s *Store) Credentials() repository.CredentialRepository { return (*credentialRepo)(s) }

func (s *Store) checkWrite(uid string) error {
	if s.denied[uid] {
		return repository.ErrPermissionDenied
	}
	return nil
}

type userRepo Store

func (r *userRepo) Get(ctx context.Context, uid string) (*models.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *userRepo) Create(ctx context.Context, user *models.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := (*Store)(r).checkWrite(user.UID); err != nil {
		return err
	}
	if _, ok := r.users[user.UID]; ok {
		return repository.ErrAlreadyExists
	}
	r.users[user.UID] = *cloneUser(*user)
	return nil
}

func (r *userRepo) Update(ctx context.Context, uid string, update models.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := (*Store)(r).checkWrite(uid); err != nil {
		return err
	}
	user, ok := r.users[uid]
	if !ok {
		return repository.ErrNotFound
	}

	if update.DisplayName != nil {
		user.DisplayName = *update.DisplayName
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.PhotoURL != nil {
		user.PhotoURL = *update.PhotoURL
	}
	if update.Bio != nil {
		user.Bio = *update.Bio
	}
	if update.Followers != nil {
		v := *update.Followers
		user.Followers = &v
	}
	if update.Following != nil {
		v := *update.Following
		user.Following = &v
	}
	user.UpdatedAt = time.Now()

	r.users[uid] = user
	return nil
}

func (r *userRepo) List(ctx context.Context) ([]models.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]models.UserProfile, 0, len(r.users))
	for _, user := range r.users {
		users = append(users, *cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i].DisplayName) < strings.ToLower(users[j].DisplayName)
	})
	return users, nil
}

func (r *userRepo) IncrementFollowers(ctx context.Context, uid string, delta int64) error {
	return r.increment(uid, delta, func(u *models.UserProfile) **int64 { return &u.Followers })
}

func (r *userRepo) IncrementFollowing(ctx context.Context, uid string, delta int64) error {
	return r.increment(uid, delta, func(u *models.UserProfile) **int64 { return &u.Following })
}

func (r *userRepo) increment(uid string, delta int64, field func(*models.UserProfile) **int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := (*Store)(r).checkWrite(uid); err != nil {
		return err
	}
	user, ok := r.users[uid]
	if !ok {
		return repository.ErrNotFound
	}

	counter := field(&user)
	var next int64
	if *counter != nil {
		next = **counter
	}
	next += delta
	if next < 0 {
		next = 0
	}
	*counter = &next

	r.users[uid] = user
	return nil
}

type followRepo Store

func (r *followRepo) AddFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	return r.add(r.following, uid, targetUID)
}

func (r *followRepo) RemoveFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	return r.remove(r.following, uid, targetUID)
}

func (r *followRepo) AddFollower(ctx context.Context, uid, followerUID string) (bool, error) {
	return r.add(r.followers, uid, followerUID)
}

func (r *followRepo) RemoveFollower(ctx context.Context, uid, followerUID string) (bool, error) {
	return r.remove(r.followers, uid, followerUID)
}

func (r *followRepo) IsFollowing(ctx context.Context, uid, targetUID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.following[edgeKey{owner: uid, counterpart: targetUID}]
	return ok, nil
}

func (r *followRepo) ListFollowing(ctx context.Context, uid string) ([]models.FollowEdge, error) {
	return r.list(r.following, uid), nil
}

func (r *followRepo) ListFollowers(ctx context.Context, uid string) ([]models.FollowEdge, error) {
	return r.list(r.followers, uid), nil
}

func (r *followRepo) add(set map[edgeKey]time.Time, owner, counterpart string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := (*Store)(r).checkWrite(owner); err != nil {
		return false, err
	}
	key := edgeKey{owner: owner, counterpart: counterpart}
	if _, ok := set[key]; ok {
		return false, nil
	}
	set[key] = time.Now()
	return true, nil
}

func (r *followRepo) remove(set map[edgeKey]time.Time, owner, counterpart string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := (*Store)(r).checkWrite(owner); err != nil {
		return false, err
	}
	key := edgeKey{owner: owner, counterpart: counterpart}
	if _, ok := set[key]; !ok {
		return false, nil
	}
	delete(set, key)
	return true, nil
}

func (r *followRepo) list(set map[edgeKey]time.Time, owner string) []models.FollowEdge {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var edges []models.FollowEdge
	for key, at := range set {
		if key.owner == owner {
			edges = append(edges, models.FollowEdge{OwnerUID: key.owner, CounterpartUID: key.counterpart, CreatedAt: at})
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].CreatedAt.After(edges[j].CreatedAt) })
	return edges
}

type projectRepo Store

func (r *projectRepo) Create(ctx context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if _, ok := r.projects[project.ID]; ok {
		return repository.ErrAlreadyExists
	}
	r.projects[project.ID] = cloneProject(*project)
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	project, ok := r.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p := cloneProject(project)
	return &p, nil
}

func (r *projectRepo) Update(ctx context.Context, id string, update models.ProjectUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	project, ok := r.projects[id]
	if !ok {
		return repository.ErrNotFound
	}

	if update.Title != nil {
		project.Title = *update.Title
	}
	if update.Description != nil {
		project.Description = *update.Description
	}
	if update.XMLContent != nil {
		project.XMLContent = *update.XMLContent
	}
	if update.IsPublic != nil {
		project.IsPublic = *update.IsPublic
	}
	if update.Tags != nil {
		project.Tags = append([]string(nil), update.Tags...)
	}
	if update.VideoURL != nil {
		project.VideoURL = *update.VideoURL
	}
	if update.ThumbnailURL != nil {
		project.ThumbnailURL = *update.ThumbnailURL
	}
	now := time.Now()
	project.UpdatedAt = &now

	r.projects[id] = project
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

func (r *projectRepo) ListByOwner(ctx context.Context, ownerUID string, publicOnly bool) ([]models.Project, error) {
	return r.filter(func(p models.Project) bool {
		return p.UserID == ownerUID && (!publicOnly || p.IsPublic)
	}), nil
}

func (r *projectRepo) ListPublic(ctx context.Context) ([]models.Project, error) {
	return r.filter(func(p models.Project) bool { return p.IsPublic }), nil
}

func (r *projectRepo) IncrementLikes(ctx context.Context, id string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	project, ok := r.projects[id]
	if !ok {
		return repository.ErrNotFound
	}
	project.Likes += delta
	if project.Likes < 0 {
		project.Likes = 0
	}
	r.projects[id] = project
	return nil
}

func (r *projectRepo) filter(keep func(models.Project) bool) []models.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var projects []models.Project
	for _, p := range r.projects {
		if keep(p) {
			projects = append(projects, cloneProject(p))
		}
	}
	return projects
}

type credentialRepo Store

func (r *credentialRepo) Create(ctx context.Context, cred *models.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.credentials {
		if cred.Provider == models.ProviderPassword && existing.Provider == models.ProviderPassword &&
			strings.EqualFold(existing.Email, cred.Email) {
			return repository.ErrAlreadyExists
		}
		if cred.ProviderSubject != "" && existing.Provider == cred.Provider &&
			existing.ProviderSubject == cred.ProviderSubject {
			return repository.ErrAlreadyExists
		}
	}
	if _, ok := r.credentials[cred.UID]; ok {
		return repository.ErrAlreadyExists
	}
	r.credentials[cred.UID] = *cred
	return nil
}

func (r *credentialRepo) GetByEmail(ctx context.Context, email string) (*models.Credential, error) {
	return r.find(func(c models.Credential) bool {
		return c.Provider == models.ProviderPassword && strings.EqualFold(c.Email, email)
	})
}

func (r *credentialRepo) GetByProviderSubject(ctx context.Context, provider, subject string) (*models.Credential, error) {
	return r.find(func(c models.Credential) bool {
		return c.Provider == provider && c.ProviderSubject == subject
	})
}

func (r *credentialRepo) find(match func(models.Credential) bool) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.credentials {
		if match(c) {
			cred := c
			return &cred, nil
		}
	}
	return nil, repository.ErrNotFound
}

func cloneUser(u models.UserProfile) *models.UserProfile {
	if u.Followers != nil {
		v := *u.Followers
		u.Followers = &v
	}
	if u.Following != nil {
		v := *u.Following
		u.Following = &v
	}
	return &u
}

func cloneProject(p models.Project) models.Project {
	p.Tags = append([]string(nil), p.Tags...)
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		p.UpdatedAt = &t
	}
	return p
}
