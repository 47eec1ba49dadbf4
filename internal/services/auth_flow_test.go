package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/yungbote/skillsync-backend/internal/domain"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
)

type flowStore struct {
	SocialStore

	session     *domain.UserIdentity
	signInErr   error
	users       []domain.User
	createCalls int
	createErr   error
	createAdds  bool
}

func (s *flowStore) CurrentSession(context.Context) (*domain.UserIdentity, error) {
	return s.session, nil
}

func (s *flowStore) SignIn(context.Context, string, string) (*domain.UserIdentity, error) {
	if s.signInErr != nil {
		return nil, s.signInErr
	}
	return &domain.UserIdentity{ID: "user-1", Email: "ana@example.com", AccessToken: "jwt"}, nil
}

func (s *flowStore) SignUp(context.Context, string, string) (*domain.UserIdentity, error) {
	return &domain.UserIdentity{ID: "user-2", Email: "new@example.com", PendingConfirmation: true}, nil
}

func (s *flowStore) ListUsers(context.Context) ([]domain.User, error) {
	return append([]domain.User(nil), s.users...), nil
}

func (s *flowStore) CreateUserProfile(_ context.Context, email, name, id string) error {
	s.createCalls++
	if s.createErr != nil {
		return s.createErr
	}
	if s.createAdds {
		s.users = append(s.users, domain.User{ID: id, Email: email, Name: name})
	}
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestSignInResolvesExistingProfile(t *testing.T) {
	store := &flowStore{users: []domain.User{{ID: "user-1", Name: "Ana"}}}
	flow := NewAuthFlow(testLogger(t), store)

	identity, user, err := flow.SignIn(context.Background(), "ana@example.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if identity.ID != "user-1" || user.Name != "Ana" {
		t.Fatalf("identity=%+v user=%+v", identity, user)
	}
	if store.createCalls != 0 {
		t.Fatal("no profile provisioning should happen when the row exists")
	}
}

func TestSignInProvisionsMissingProfile(t *testing.T) {
	store := &flowStore{createAdds: true}
	flow := NewAuthFlow(testLogger(t), store)

	_, user, err := flow.SignIn(context.Background(), "ana@example.com", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if store.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", store.createCalls)
	}
	// The provisional display name is the email local part.
	if user.Name != "ana" {
		t.Fatalf("name = %q, want ana", user.Name)
	}
}

func TestSignInFailsWhenProfileStaysMissing(t *testing.T) {
	store := &flowStore{} // create succeeds but adds nothing
	flow := NewAuthFlow(testLogger(t), store)

	if _, _, err := flow.SignIn(context.Background(), "ana@example.com", "pw"); err == nil {
		t.Fatal("expected error when the profile never materializes")
	}
}

func TestSignInPropagatesAuthError(t *testing.T) {
	store := &flowStore{signInErr: fmt.Errorf("bad credentials")}
	flow := NewAuthFlow(testLogger(t), store)

	if _, _, err := flow.SignIn(context.Background(), "ana@example.com", "pw"); err == nil {
		t.Fatal("expected error")
	}
	if store.createCalls != 0 {
		t.Fatal("failed auth must not provision anything")
	}
}

func TestSignUpPendingConfirmationSkipsProfile(t *testing.T) {
	store := &flowStore{}
	flow := NewAuthFlow(testLogger(t), store)

	identity, user, err := flow.SignUp(context.Background(), "new@example.com", "pw")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if !identity.PendingConfirmation || user != nil {
		t.Fatalf("identity=%+v user=%+v", identity, user)
	}
	if store.createCalls != 0 {
		t.Fatal("unconfirmed signup must not provision a profile")
	}
}

func TestRestoreWithoutSession(t *testing.T) {
	flow := NewAuthFlow(testLogger(t), &flowStore{})
	identity, user, err := flow.Restore(context.Background())
	if err != nil || identity != nil || user != nil {
		t.Fatalf("identity=%v user=%v err=%v, want all nil", identity, user, err)
	}
}

func TestRestoreResolvesSession(t *testing.T) {
	store := &flowStore{
		session: &domain.UserIdentity{ID: "user-1", Email: "ana@example.com"},
		users:   []domain.User{{ID: "user-1", Name: "Ana"}},
	}
	flow := NewAuthFlow(testLogger(t), store)
	identity, user, err := flow.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if identity.ID != "user-1" || user.Name != "Ana" {
		t.Fatalf("identity=%+v user=%+v", identity, user)
	}
}
