package services

import (
	"context"

	"github.com/yungbote/skillsync-backend/internal/domain"
)

// SocialStore is the contract consumed from the hosted identity & social graph
// store. Every call is a single attempt with no built-in retry; callers decide
// what a failure means for local state.
type SocialStore interface {
	// CurrentSession returns the authenticated identity, or nil when no
	// session exists.
	CurrentSession(ctx context.Context) (*domain.UserIdentity, error)
	SignUp(ctx context.Context, email, password string) (*domain.UserIdentity, error)
	SignIn(ctx context.Context, email, password string) (*domain.UserIdentity, error)
	SignOut(ctx context.Context) error

	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]any) (*domain.User, error)
	CreateUserProfile(ctx context.Context, email, name, id string) error

	// ListPosts returns the feed newest-first with denormalized like-actor
	// ids and nested comments.
	ListPosts(ctx context.Context) ([]domain.Post, error)
	CreatePost(ctx context.Context, authorID, title, content string) (*domain.Post, error)
	CreateComment(ctx context.Context, postID, authorID, content string) (*domain.Comment, error)
	ToggleLike(ctx context.Context, postID, userID string) (domain.ToggleAction, error)
	ToggleFollow(ctx context.Context, followerID, targetID string) (domain.ToggleAction, error)

	// ListMessages returns the thread for the unordered user pair, ascending
	// by time.
	ListMessages(ctx context.Context, userA, userB string) ([]domain.Message, error)
	SendMessage(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error)
}
