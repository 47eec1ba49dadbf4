package social

import (
	"testing"

	"github.com/yungbote/skillsync-backend/internal/domain"
)

func TestCacheReadersReturnCopies(t *testing.T) {
	c := seededCache()
	users := c.Users()
	users[0].Name = "Mallory"
	users[0].Following = append(users[0].Following, "bob")

	fresh, _ := c.User("alice")
	if fresh.Name != "Alice" || len(fresh.Following) != 0 {
		t.Fatalf("mutating a returned copy leaked into the cache: %+v", fresh)
	}
}

func TestApplyFollowRejectsSelfEdge(t *testing.T) {
	c := seededCache()
	if !c.ApplyFollow("alice", "alice", domain.ActionFollowed) {
		t.Fatal("ApplyFollow should report the users as cached")
	}
	alice, _ := c.User("alice")
	if len(alice.Following) != 0 || len(alice.Followers) != 0 {
		t.Fatalf("self-follow must never be stored: %+v", alice)
	}
}

func TestApplyFollowUnknownUser(t *testing.T) {
	c := seededCache()
	if c.ApplyFollow("alice", "ghost", domain.ActionFollowed) {
		t.Fatal("unknown target must report false")
	}
}

func TestApplyLikeIsIdempotent(t *testing.T) {
	c := seededCache()
	c.ApplyLike("post-1", "alice", domain.ActionLiked)
	c.ApplyLike("post-1", "alice", domain.ActionLiked)
	post, _ := c.Post("post-1")
	if len(post.Likes) != 1 {
		t.Fatalf("likes = %v, want one entry", post.Likes)
	}

	c.ApplyLike("post-1", "alice", domain.ActionUnliked)
	c.ApplyLike("post-1", "alice", domain.ActionUnliked)
	post, _ = c.Post("post-1")
	if len(post.Likes) != 0 {
		t.Fatalf("likes = %v, want empty", post.Likes)
	}
}

func TestPrependPostKeepsFeedOrder(t *testing.T) {
	c := seededCache()
	c.PrependPost(domain.Post{ID: "post-2", AuthorID: "alice", Content: "new"})
	feed := c.Posts()
	if len(feed) != 2 || feed[0].ID != "post-2" || feed[1].ID != "post-1" {
		t.Fatalf("feed order = %v", feed)
	}

	// Prepending an id already present replaces the entity, not the order.
	c.PrependPost(domain.Post{ID: "post-2", AuthorID: "alice", Content: "edited"})
	feed = c.Posts()
	if len(feed) != 2 || feed[0].Content != "edited" {
		t.Fatalf("feed = %v", feed)
	}
}

func TestUsersKeepListingOrder(t *testing.T) {
	c := NewCache()
	c.ReplaceUsers([]domain.User{{ID: "z"}, {ID: "a"}, {ID: "m"}})
	users := c.Users()
	if users[0].ID != "z" || users[1].ID != "a" || users[2].ID != "m" {
		t.Fatalf("order = %v, want listing order preserved", users)
	}
}
