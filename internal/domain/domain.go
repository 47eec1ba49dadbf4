package domain

import "time"

// UserIdentity is the authentication-side view of a user as reported by the
// identity store. PendingConfirmation is set when signup succeeded but the
// store is waiting on an email confirmation before issuing a session.
type UserIdentity struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	AccessToken         string `json:"-"`
	PendingConfirmation bool   `json:"pendingConfirmation,omitempty"`
}

// User is the social-graph profile record. The store owns it; the process
// holds a cached, possibly stale copy. A user never appears in their own
// Following or Followers.
type User struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Country        string   `json:"country"`
	ProfilePicture string   `json:"profilePicture"`
	Skills         []string `json:"skills"`
	Bio            string   `json:"bio"`
	AboutMe        string   `json:"aboutMe"`
	Following      []string `json:"following"`
	Followers      []string `json:"followers"`
}

type PostType string

const (
	PostTypeText    PostType = "TEXT"
	PostTypePhoto   PostType = "PHOTO"
	PostTypeVideo   PostType = "VIDEO"
	PostTypeArticle PostType = "ARTICLE"
)

type Comment struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Post carries denormalized like-actor ids and nested comments, matching what
// the store returns from a feed listing. A user id appears at most once in
// Likes.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Type      PostType  `json:"type"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content"`
	MediaURL  string    `json:"mediaUrl,omitempty"`
	Likes     []string  `json:"likes"`
	Comments  []Comment `json:"comments"`
	Timestamp time.Time `json:"timestamp"`
}

type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

// ToggleAction reports which way the store flipped an edge. The client cannot
// know this ahead of time without a race-prone pre-check, so the store tells
// it.
type ToggleAction string

const (
	ActionLiked      ToggleAction = "liked"
	ActionUnliked    ToggleAction = "unliked"
	ActionFollowed   ToggleAction = "followed"
	ActionUnfollowed ToggleAction = "unfollowed"
)
