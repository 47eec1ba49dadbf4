package social

import (
	"sync"

	"github.com/yungbote/skillsync-backend/internal/domain"
)

// Cache holds the local copy of the store-owned social collections. The store
// is the source of truth; this is the possibly-stale view the UI reads.
// Mutators copy-on-write the affected entity so readers never observe a
// half-applied merge.
type Cache struct {
	mu        sync.RWMutex
	users     map[string]*domain.User
	userOrder []string
	posts     map[string]*domain.Post
	feed      []string
}

func NewCache() *Cache {
	return &Cache{
		users: make(map[string]*domain.User),
		posts: make(map[string]*domain.Post),
	}
}

func (c *Cache) ReplaceUsers(users []domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = make(map[string]*domain.User, len(users))
	c.userOrder = c.userOrder[:0]
	for i := range users {
		u := copyUser(users[i])
		c.users[u.ID] = &u
		c.userOrder = append(c.userOrder, u.ID)
	}
}

func (c *Cache) ReplacePosts(posts []domain.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = make(map[string]*domain.Post, len(posts))
	c.feed = c.feed[:0]
	for i := range posts {
		p := copyPost(posts[i])
		c.posts[p.ID] = &p
		c.feed = append(c.feed, p.ID)
	}
}

// PrependPost puts a freshly created post at the top of the feed.
func (c *Cache) PrependPost(post domain.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := copyPost(post)
	if _, ok := c.posts[p.ID]; !ok {
		c.feed = append([]string{p.ID}, c.feed...)
	}
	c.posts[p.ID] = &p
}

func (c *Cache) Users() []domain.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.User, 0, len(c.userOrder))
	for _, id := range c.userOrder {
		if u, ok := c.users[id]; ok {
			out = append(out, copyUser(*u))
		}
	}
	return out
}

func (c *Cache) Posts() []domain.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Post, 0, len(c.feed))
	for _, id := range c.feed {
		if p, ok := c.posts[id]; ok {
			out = append(out, copyPost(*p))
		}
	}
	return out
}

func (c *Cache) User(id string) (domain.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	if !ok {
		return domain.User{}, false
	}
	return copyUser(*u), true
}

func (c *Cache) Post(id string) (domain.Post, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.posts[id]
	if !ok {
		return domain.Post{}, false
	}
	return copyPost(*p), true
}

// ApplyFollow merges a resolved follow toggle into both sides of the edge.
// Returns false when either user is missing from the cache; the caller treats
// that as recoverable.
func (c *Cache) ApplyFollow(actorID, targetID string, action domain.ToggleAction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	actor, okA := c.users[actorID]
	target, okT := c.users[targetID]
	if !okA || !okT {
		return false
	}
	switch action {
	case domain.ActionFollowed:
		actor.Following = addID(actor.Following, targetID, actorID)
		target.Followers = addID(target.Followers, actorID, targetID)
	case domain.ActionUnfollowed:
		actor.Following = removeID(actor.Following, targetID)
		target.Followers = removeID(target.Followers, actorID)
	}
	return true
}

// ApplyLike merges a resolved like toggle into the post's like set.
func (c *Cache) ApplyLike(postID, actorID string, action domain.ToggleAction) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	post, ok := c.posts[postID]
	if !ok {
		return false
	}
	switch action {
	case domain.ActionLiked:
		post.Likes = addID(post.Likes, actorID, "")
	case domain.ActionUnliked:
		post.Likes = removeID(post.Likes, actorID)
	}
	return true
}

func (c *Cache) AppendComment(postID string, comment domain.Comment) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	post, ok := c.posts[postID]
	if !ok {
		return false
	}
	comments := make([]domain.Comment, 0, len(post.Comments)+1)
	comments = append(comments, post.Comments...)
	comments = append(comments, comment)
	post.Comments = comments
	return true
}

func (c *Cache) SetAboutMe(userID, aboutMe string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	user, ok := c.users[userID]
	if !ok {
		return false
	}
	user.AboutMe = aboutMe
	return true
}

// addID appends id to ids unless it is already present or equals self. The
// self check keeps a user out of their own follow sets.
func addID(ids []string, id, self string) []string {
	if id == self && self != "" {
		return ids
	}
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids...)
	return append(out, id)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func copyUser(u domain.User) domain.User {
	u.Skills = append([]string(nil), u.Skills...)
	u.Following = append([]string(nil), u.Following...)
	u.Followers = append([]string(nil), u.Followers...)
	return u
}

func copyPost(p domain.Post) domain.Post {
	p.Likes = append([]string(nil), p.Likes...)
	p.Comments = append([]domain.Comment(nil), p.Comments...)
	return p
}
