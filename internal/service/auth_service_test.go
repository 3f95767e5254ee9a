package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"onboarding-service/internal/hashing"
	"onboarding-service/internal/models"
	redisrepo "onboarding-service/internal/repository/redis"
	"onboarding-service/internal/repository/scylla"
)

type mockAdminRepo struct {
	insert          func(*models.AdminUser) error
	getByEmail      func(string) (*models.AdminUser, error)
	updateLastLogin func(string) error
	updatePassword  func(string, string) error
}

func (m *mockAdminRepo) Insert(admin *models.AdminUser) error { return m.insert(admin) }
func (m *mockAdminRepo) GetByEmail(email string) (*models.AdminUser, error) {
	return m.getByEmail(email)
}
func (m *mockAdminRepo) UpdateLastLogin(email string) error { return m.updateLastLogin(email) }
func (m *mockAdminRepo) UpdatePassword(email, hash string) error {
	return m.updatePassword(email, hash)
}

// memorySessionStore is an in-memory SessionStore for tests.
type memorySessionStore struct {
	sessions map[string]*models.AdminSession
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]*models.AdminSession)}
}

func (s *memorySessionStore) Set(session *models.AdminSession, ttl time.Duration) error {
	s.sessions[session.SessionID] = session
	return nil
}

func (s *memorySessionStore) Get(sessionID string) (*models.AdminSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, redisrepo.ErrSessionNotFound
	}
	return session, nil
}

func (s *memorySessionStore) Delete(sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func (s *memorySessionStore) Refresh(sessionID string, ttl time.Duration) error { return nil }

func adminFixture(t *testing.T, password string) *models.AdminUser {
	t.Helper()
	hash, err := hashing.NewPasswordHasher().Hash(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.AdminUser{
		ID:           "admin-1",
		Email:        "admin@acmepromo.com",
		PasswordHash: hash,
		Name:         "Admin User",
	}
}

func TestLogin(t *testing.T) {
	admin := adminFixture(t, "correct-horse-battery")
	store := newMemorySessionStore()
	repo := &mockAdminRepo{
		getByEmail: func(email string) (*models.AdminUser, error) {
			if email != admin.Email {
				return nil, scylla.ErrAdminNotFound
			}
			return admin, nil
		},
		updateLastLogin: func(string) error { return nil },
	}
	svc := NewAuthService(repo, store, hashing.NewPasswordHasher(), nil, time.Hour)

	t.Run("success", func(t *testing.T) {
		session, err := svc.Login(context.Background(), "Admin@AcmePromo.com ", "correct-horse-battery")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if session.SessionID == "" {
			t.Error("no session id assigned")
		}
		if session.Email != admin.Email || session.AdminID != admin.ID {
			t.Errorf("session = %+v", session)
		}
		if _, ok := store.sessions[session.SessionID]; !ok {
			t.Error("session not persisted")
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), admin.Email, "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@acmepromo.com", "whatever")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
	})
}

func TestResolve(t *testing.T) {
	store := newMemorySessionStore()
	svc := NewAuthService(&mockAdminRepo{}, store, hashing.NewPasswordHasher(), nil, time.Hour)

	session := &models.AdminSession{SessionID: "live", AdminID: "a1", Email: "admin@x.co"}
	store.sessions["live"] = session

	got, err := svc.Resolve(context.Background(), "live")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.AdminID != "a1" {
		t.Errorf("resolved session = %+v", got)
	}

	if _, err := svc.Resolve(context.Background(), "dead"); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
}

func TestLogout(t *testing.T) {
	store := newMemorySessionStore()
	store.sessions["s1"] = &models.AdminSession{SessionID: "s1"}
	svc := NewAuthService(&mockAdminRepo{}, store, hashing.NewPasswordHasher(), nil, time.Hour)

	if err := svc.Logout(context.Background(), "s1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := store.sessions["s1"]; ok {
		t.Error("session survived logout")
	}
}

func TestChangePassword(t *testing.T) {
	admin := adminFixture(t, "old-password-123")
	hasher := hashing.NewPasswordHasher()

	newService := func(store *memorySessionStore, updated *string) *AuthService {
		repo := &mockAdminRepo{
			getByEmail: func(string) (*models.AdminUser, error) { return admin, nil },
			updatePassword: func(email, hash string) error {
				*updated = hash
				return nil
			},
		}
		return NewAuthService(repo, store, hasher, nil, time.Hour)
	}

	session := &models.AdminSession{SessionID: "s1", AdminID: admin.ID, Email: admin.Email}

	t.Run("rejects short password", func(t *testing.T) {
		var updated string
		svc := newService(newMemorySessionStore(), &updated)
		err := svc.ChangePassword(context.Background(), session, "old-password-123", "short")
		if !errors.Is(err, ErrWeakPassword) {
			t.Errorf("err = %v, want ErrWeakPassword", err)
		}
		if updated != "" {
			t.Error("password must not change")
		}
	})

	t.Run("rejects wrong current password", func(t *testing.T) {
		var updated string
		svc := newService(newMemorySessionStore(), &updated)
		err := svc.ChangePassword(context.Background(), session, "not-the-password", "new-password-456")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("err = %v, want ErrInvalidCredentials", err)
		}
		if updated != "" {
			t.Error("password must not change")
		}
	})

	t.Run("success stores new hash and drops session", func(t *testing.T) {
		var updated string
		store := newMemorySessionStore()
		store.sessions["s1"] = session
		svc := newService(store, &updated)

		if err := svc.ChangePassword(context.Background(), session, "old-password-123", "new-password-456"); err != nil {
			t.Fatalf("ChangePassword: %v", err)
		}
		if updated == "" {
			t.Fatal("new hash not stored")
		}
		ok, err := hasher.Verify("new-password-456", updated)
		if err != nil || !ok {
			t.Errorf("stored hash does not verify new password (ok=%v, err=%v)", ok, err)
		}
		if _, live := store.sessions["s1"]; live {
			t.Error("session should be invalidated after password change")
		}
	})
}
