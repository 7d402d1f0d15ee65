package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"placement-service/internal/apperror"
	"placement-service/internal/auth"
	"placement-service/internal/identity"

	"github.com/google/uuid"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*identity.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[uuid.UUID]*identity.User{}}
}

func (f *fakeUsers) add(email, password string, role identity.Role, active bool) *identity.User {
	hash, err := auth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	u := &identity.User{ID: uuid.New(), Email: email, Password: hash, Name: email, Role: role, IsActive: active}
	f.mu.Lock()
	f.users[u.ID] = u
	f.mu.Unlock()
	return u
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (f *fakeUsers) create(email, hash, name string, role identity.Role) (*identity.User, error) {
	if _, err := f.GetUserByEmail(context.Background(), email); err == nil {
		return nil, identity.ErrEmailExists
	}
	u := &identity.User{ID: uuid.New(), Email: email, Password: hash, Name: name, Role: role, IsActive: true}
	f.mu.Lock()
	f.users[u.ID] = u
	f.mu.Unlock()
	return u, nil
}

func (f *fakeUsers) RegisterStudent(_ context.Context, in identity.NewStudent) (*identity.User, *identity.StudentProfile, error) {
	u, err := f.create(in.Email, in.PasswordHash, in.FullName, identity.RoleStudent)
	if err != nil {
		return nil, nil, err
	}
	return u, &identity.StudentProfile{ID: uuid.New(), UserID: u.ID, FullName: in.FullName}, nil
}

func (f *fakeUsers) RegisterCompany(_ context.Context, in identity.NewCompany) (*identity.User, *identity.CompanyProfile, error) {
	u, err := f.create(in.Email, in.PasswordHash, in.ContactName, identity.RoleCompany)
	if err != nil {
		return nil, nil, err
	}
	return u, &identity.CompanyProfile{ID: uuid.New(), UserID: u.ID, Name: in.CompanyName}, nil
}

func (f *fakeUsers) ResolveActor(ctx context.Context, id uuid.UUID) (*identity.Actor, error) {
	u, err := f.GetUserByID(ctx, id)
	if err != nil || !u.IsActive {
		return nil, apperror.Unauthorized("account not found")
	}
	return &identity.Actor{UserID: u.ID, Role: u.Role, Email: u.Email}, nil
}

type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]*auth.RefreshToken
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]*auth.RefreshToken{}}
}

func (f *fakeTokens) CreateRefreshToken(_ context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = &auth.RefreshToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	return nil
}

func (f *fakeTokens) GetRefreshToken(_ context.Context, token string) (*auth.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[token]
	if !ok || !rt.ExpiresAt.After(time.Now()) {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (f *fakeTokens) DeleteRefreshToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeTokens) DeleteExpiredTokens(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, rt := range f.tokens {
		if rt.ExpiresAt.Before(time.Now()) {
			delete(f.tokens, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeTokens) DeleteAllUserTokens(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, rt := range f.tokens {
		if rt.UserID == userID {
			delete(f.tokens, k)
		}
	}
	return nil
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}
