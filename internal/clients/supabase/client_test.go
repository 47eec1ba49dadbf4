package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yungbote/skillsync-backend/internal/domain"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{URL: srv.URL, AnonKey: "anon-key"}, testLogger(t))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestSignInStoresAccessToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("grant_type = %q", r.URL.Query().Get("grant_type"))
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("apikey header = %q", r.Header.Get("apikey"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "jwt-123",
			"user":         map[string]any{"id": "user-1", "email": "a@b.co"},
		})
	})
	mux.HandleFunc("/rest/v1/users", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer jwt-123" {
			t.Errorf("Authorization = %q, want the session token", got)
		}
		json.NewEncoder(w).Encode([]any{})
	})
	mux.HandleFunc("/rest/v1/follows", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]any{})
	})

	c := newTestClient(t, mux)
	identity, err := c.SignIn(context.Background(), "a@b.co", "pw")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if identity.ID != "user-1" || identity.AccessToken != "jwt-123" {
		t.Fatalf("identity = %+v", identity)
	}

	// Subsequent row requests carry the session token.
	if _, err := c.ListUsers(context.Background()); err != nil {
		t.Fatalf("list users: %v", err)
	}
}

func TestSignInWithBadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	})
	c := newTestClient(t, mux)
	if _, err := c.SignIn(context.Background(), "a@b.co", "wrong"); err == nil {
		t.Fatal("expected error")
	}
}

func TestSignUpPendingConfirmation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		// No access_token: the project wants email confirmation first.
		json.NewEncoder(w).Encode(map[string]any{"id": "user-9", "email": "new@b.co"})
	})
	c := newTestClient(t, mux)
	identity, err := c.SignUp(context.Background(), "new@b.co", "pw")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if !identity.PendingConfirmation {
		t.Fatal("expected pending confirmation")
	}
	if identity.ID != "user-9" {
		t.Fatalf("id = %q", identity.ID)
	}
}

func TestListUsersAssemblesFollowEdges(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/users", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "alice", "name": "Alice", "skills": []string{"Guitar"}},
			{"id": "bob", "name": "Bob", "skills": "Cooking, Chess"},
		})
	})
	mux.HandleFunc("/rest/v1/follows", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"follower_id": "alice", "following_id": "bob"},
			{"follower_id": "carol", "following_id": "carol"},
		})
	})

	c := newTestClient(t, mux)
	users, err := c.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("users = %d, want 2", len(users))
	}
	alice, bob := users[0], users[1]
	if len(alice.Following) != 1 || alice.Following[0] != "bob" {
		t.Fatalf("alice.Following = %v", alice.Following)
	}
	if len(bob.Followers) != 1 || bob.Followers[0] != "alice" {
		t.Fatalf("bob.Followers = %v", bob.Followers)
	}
	if len(alice.Skills) != 1 || alice.Skills[0] != "Guitar" {
		t.Fatalf("alice.Skills = %v", alice.Skills)
	}
	// Comma-joined text column decodes too.
	if len(bob.Skills) != 2 || bob.Skills[1] != "Chess" {
		t.Fatalf("bob.Skills = %v", bob.Skills)
	}
}

func TestToggleLikeInsertsWhenAbsent(t *testing.T) {
	var inserted bool
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/post_likes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]any{})
		case http.MethodPost:
			inserted = true
			var payload map[string]any
			json.NewDecoder(r.Body).Decode(&payload)
			if payload["post_id"] != "post-1" || payload["user_id"] != "alice" {
				t.Errorf("payload = %v", payload)
			}
			json.NewEncoder(w).Encode([]any{payload})
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	c := newTestClient(t, mux)
	action, err := c.ToggleLike(context.Background(), "post-1", "alice")
	if err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	if action != domain.ActionLiked || !inserted {
		t.Fatalf("action = %q inserted = %v", action, inserted)
	}
}

func TestToggleLikeDeletesWhenPresent(t *testing.T) {
	var deleted bool
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/post_likes", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]map[string]any{{"user_id": "alice"}})
		case http.MethodDelete:
			deleted = true
			if !strings.Contains(r.URL.RawQuery, "post_id=eq.post-1") {
				t.Errorf("delete filter = %q", r.URL.RawQuery)
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	c := newTestClient(t, mux)
	action, err := c.ToggleLike(context.Background(), "post-1", "alice")
	if err != nil {
		t.Fatalf("toggle like: %v", err)
	}
	if action != domain.ActionUnliked || !deleted {
		t.Fatalf("action = %q deleted = %v", action, deleted)
	}
}

func TestToggleFollowRoundTrip(t *testing.T) {
	present := false
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/follows", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if present {
				json.NewEncoder(w).Encode([]map[string]any{{"follower_id": "alice"}})
			} else {
				json.NewEncoder(w).Encode([]any{})
			}
		case http.MethodPost:
			present = true
			w.WriteHeader(http.StatusCreated)
		case http.MethodDelete:
			present = false
			w.WriteHeader(http.StatusNoContent)
		}
	})

	c := newTestClient(t, mux)
	action, err := c.ToggleFollow(context.Background(), "alice", "bob")
	if err != nil || action != domain.ActionFollowed {
		t.Fatalf("first toggle: action=%q err=%v", action, err)
	}
	action, err = c.ToggleFollow(context.Background(), "alice", "bob")
	if err != nil || action != domain.ActionUnfollowed {
		t.Fatalf("second toggle: action=%q err=%v", action, err)
	}
}

func TestListPostsDecodesNestedRows(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/posts", func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "order=created_at.desc") {
			t.Errorf("query = %q, want newest-first ordering", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"id":        1001,
				"author_id": "bob",
				"type":      "TEXT",
				"content":   "hello",
				"post_likes": []map[string]any{
					{"user_id": "alice"},
				},
				"comments": []map[string]any{
					{"id": 7, "author_id": "alice", "content": "nice", "created_at": "2026-08-01T10:00:00Z"},
				},
				"created_at": "2026-08-01T09:00:00Z",
			},
		})
	})

	c := newTestClient(t, mux)
	posts, err := c.ListPosts(context.Background())
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(posts))
	}
	post := posts[0]
	if post.ID != "1001" {
		t.Fatalf("numeric id must decode to string, got %q", post.ID)
	}
	if len(post.Likes) != 1 || post.Likes[0] != "alice" {
		t.Fatalf("likes = %v", post.Likes)
	}
	if len(post.Comments) != 1 || post.Comments[0].ID != "7" {
		t.Fatalf("comments = %v", post.Comments)
	}
}

func TestListMessagesFiltersUnorderedPair(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.RawQuery
		if !strings.Contains(q, "or=") || !strings.Contains(q, "order=timestamp.asc") {
			t.Errorf("query = %q", q)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "m-1", "sender_id": "alice", "receiver_id": "bob", "content": "hi", "timestamp": "2026-08-01T09:00:00Z"},
			{"id": "m-2", "sender_id": "bob", "receiver_id": "alice", "content": "hey", "timestamp": "2026-08-01T09:01:00Z"},
		})
	})

	c := newTestClient(t, mux)
	msgs, err := c.ListMessages(context.Background(), "alice", "bob")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m-1" || msgs[1].SenderID != "bob" {
		t.Fatalf("messages = %v", msgs)
	}
}

func TestSignOutClearsToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "jwt-123",
			"user":         map[string]any{"id": "user-1", "email": "a@b.co"},
		})
	})
	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	c := newTestClient(t, mux)
	if _, err := c.SignIn(context.Background(), "a@b.co", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	identity, err := c.CurrentSession(context.Background())
	if err != nil {
		t.Fatalf("current session: %v", err)
	}
	if identity != nil {
		t.Fatalf("identity = %+v, want nil after sign out", identity)
	}
}
