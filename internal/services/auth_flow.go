package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/yungbote/skillsync-backend/internal/domain"
	"github.com/yungbote/skillsync-backend/internal/platform/apierr"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
)

// AuthFlow resolves an authenticated identity into a social-graph profile.
// Identity and profile live in different tables; a confirmed signup can exist
// without a profile row, so sign-in provisions one on first contact.
type AuthFlow struct {
	log   *logger.Logger
	store SocialStore
}

func NewAuthFlow(log *logger.Logger, store SocialStore) *AuthFlow {
	return &AuthFlow{
		log:   log.With("service", "AuthFlow"),
		store: store,
	}
}

// SignIn authenticates and returns the resolved profile. A missing profile
// row is created from the identity before giving up.
func (f *AuthFlow) SignIn(ctx context.Context, email, password string) (*domain.UserIdentity, *domain.User, error) {
	identity, err := f.store.SignIn(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	user, err := f.resolveProfile(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	return identity, user, nil
}

// SignUp registers the identity. When the project requires email
// confirmation no session exists yet, and the caller reports that instead of
// a signed-in state.
func (f *AuthFlow) SignUp(ctx context.Context, email, password string) (*domain.UserIdentity, *domain.User, error) {
	identity, err := f.store.SignUp(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	if identity.PendingConfirmation {
		return identity, nil, nil
	}
	user, err := f.resolveProfile(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	return identity, user, nil
}

// Restore recovers the signed-in user from a persisted session, if one
// exists. (nil, nil, nil) means no session; the caller shows the landing
// screen.
func (f *AuthFlow) Restore(ctx context.Context) (*domain.UserIdentity, *domain.User, error) {
	identity, err := f.store.CurrentSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	if identity == nil {
		return nil, nil, nil
	}
	user, err := f.resolveProfile(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	return identity, user, nil
}

func (f *AuthFlow) resolveProfile(ctx context.Context, identity *domain.UserIdentity) (*domain.User, error) {
	user, err := f.findUser(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	name := identity.Email
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}
	f.log.Info("provisioning profile for confirmed identity", "user_id", identity.ID)
	if err := f.store.CreateUserProfile(ctx, identity.Email, name, identity.ID); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	user, err = f.findUser(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.New(http.StatusInternalServerError, "profile_unresolved",
			fmt.Errorf("profile for %s missing after provisioning", identity.ID))
	}
	return user, nil
}

func (f *AuthFlow) findUser(ctx context.Context, id string) (*domain.User, error) {
	users, err := f.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, nil
}
