package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/skillsync-backend/internal/domain"
	"github.com/yungbote/skillsync-backend/internal/platform/apierr"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
)

// Client talks to a Supabase project over its two REST surfaces: GoTrue for
// identity and PostgREST for rows. Auth state is the bearer token of the
// signed-in user; row requests fall back to the anon key when nobody is
// signed in.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client
	log     *logger.Logger

	mu          sync.RWMutex
	accessToken string
}

type Config struct {
	URL         string
	AnonKey     string
	AccessToken string // optional, restores a prior session
	Timeout     time.Duration
}

func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase: url is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase: anon key is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		anonKey:     cfg.AnonKey,
		http:        &http.Client{Timeout: cfg.Timeout},
		log:         log.With("service", "SupabaseClient"),
		accessToken: cfg.AccessToken,
	}, nil
}

// flexID tolerates stores that return numeric primary keys alongside uuid
// strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// --- auth ---

type authSession struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    flexID `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.UserIdentity, error) {
	body, err := c.doAuth(ctx, http.MethodPost, "/auth/v1/signup", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	var sess authSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("supabase: decode signup response: %w", err)
	}
	if sess.AccessToken == "" {
		// Project requires email confirmation; no session is issued until
		// the link is clicked.
		var user struct {
			ID    flexID `json:"id"`
			Email string `json:"email"`
		}
		if err := json.Unmarshal(body, &user); err != nil {
			return nil, fmt.Errorf("supabase: decode signup user: %w", err)
		}
		return &domain.UserIdentity{
			ID:                  string(user.ID),
			Email:               user.Email,
			PendingConfirmation: true,
		}, nil
	}

	c.setToken(sess.AccessToken)
	return &domain.UserIdentity{
		ID:          string(sess.User.ID),
		Email:       sess.User.Email,
		AccessToken: sess.AccessToken,
	}, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*domain.UserIdentity, error) {
	body, err := c.doAuth(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	var sess authSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("supabase: decode token response: %w", err)
	}
	if sess.AccessToken == "" {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("supabase: no session issued"))
	}
	c.setToken(sess.AccessToken)
	return &domain.UserIdentity{
		ID:          string(sess.User.ID),
		Email:       sess.User.Email,
		AccessToken: sess.AccessToken,
	}, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	_, err := c.doAuth(ctx, http.MethodPost, "/auth/v1/logout", nil)
	c.setToken("")
	return err
}

func (c *Client) CurrentSession(ctx context.Context) (*domain.UserIdentity, error) {
	token := c.token()
	if token == "" {
		return nil, nil
	}
	body, err := c.doAuth(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	var user struct {
		ID    flexID `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("supabase: decode user response: %w", err)
	}
	if user.ID == "" {
		return nil, nil
	}
	return &domain.UserIdentity{
		ID:          string(user.ID),
		Email:       user.Email,
		AccessToken: token,
	}, nil
}

// --- users & follows ---

type userRow struct {
	ID             flexID          `json:"id"`
	Name           string          `json:"name"`
	Email          string          `json:"email"`
	Country        string          `json:"country"`
	ProfilePicture string          `json:"profile_picture"`
	SkillsRaw      json.RawMessage `json:"skills"`
	Bio            string          `json:"bio"`
	AboutMe        string          `json:"about_me"`
}

type followRow struct {
	FollowerID  flexID `json:"follower_id"`
	FollowingID flexID `json:"following_id"`
}

func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := c.rest(ctx, http.MethodGet, "/rest/v1/users?select=*&order=name.asc", nil, &rows); err != nil {
		return nil, err
	}
	var follows []followRow
	if err := c.rest(ctx, http.MethodGet, "/rest/v1/follows?select=follower_id,following_id", nil, &follows); err != nil {
		return nil, err
	}

	following := map[string][]string{}
	followers := map[string][]string{}
	for _, f := range follows {
		a, b := string(f.FollowerID), string(f.FollowingID)
		if a == "" || b == "" || a == b {
			continue
		}
		following[a] = append(following[a], b)
		followers[b] = append(followers[b], a)
	}

	users := make([]domain.User, 0, len(rows))
	for _, row := range rows {
		id := string(row.ID)
		u := domain.User{
			ID:             id,
			Name:           row.Name,
			Email:          row.Email,
			Country:        row.Country,
			ProfilePicture: row.ProfilePicture,
			Skills:         decodeSkills(row.SkillsRaw),
			Bio:            row.Bio,
			AboutMe:        row.AboutMe,
			Following:      orEmpty(following[id]),
			Followers:      orEmpty(followers[id]),
		}
		users = append(users, u)
	}
	return users, nil
}

// decodeSkills accepts both a JSON array column and a comma-joined text
// column; seed data has used both shapes.
func decodeSkills(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}
	}
	var arr []string
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		parts := strings.Split(s, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return []string{}
}

func (c *Client) UpdateUser(ctx context.Context, id string, fields map[string]any) (*domain.User, error) {
	var rows []userRow
	path := "/rest/v1/users?id=eq." + url.QueryEscape(id)
	if err := c.rest(ctx, http.MethodPatch, path, fields, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apierr.New(http.StatusNotFound, "user_not_found", fmt.Errorf("supabase: user %s not found", id))
	}
	row := rows[0]
	return &domain.User{
		ID:             string(row.ID),
		Name:           row.Name,
		Email:          row.Email,
		Country:        row.Country,
		ProfilePicture: row.ProfilePicture,
		Skills:         decodeSkills(row.SkillsRaw),
		Bio:            row.Bio,
		AboutMe:        row.AboutMe,
		Following:      []string{},
		Followers:      []string{},
	}, nil
}

func (c *Client) CreateUserProfile(ctx context.Context, email, name, id string) error {
	payload := map[string]any{
		"id":    id,
		"email": email,
		"name":  name,
	}
	return c.rest(ctx, http.MethodPost, "/rest/v1/users", payload, nil)
}

// --- posts, likes, comments ---

type commentRow struct {
	ID        flexID    `json:"id"`
	AuthorID  flexID    `json:"author_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"created_at"`
}

type likeRow struct {
	UserID flexID `json:"user_id"`
}

type postRow struct {
	ID        flexID       `json:"id"`
	AuthorID  flexID       `json:"author_id"`
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	MediaURL  string       `json:"media_url"`
	Likes     []likeRow    `json:"post_likes"`
	Comments  []commentRow `json:"comments"`
	Timestamp time.Time    `json:"created_at"`
}

func (row postRow) toDomain() domain.Post {
	likes := make([]string, 0, len(row.Likes))
	for _, l := range row.Likes {
		likes = append(likes, string(l.UserID))
	}
	comments := make([]domain.Comment, 0, len(row.Comments))
	for _, cm := range row.Comments {
		comments = append(comments, domain.Comment{
			ID:        string(cm.ID),
			AuthorID:  string(cm.AuthorID),
			Content:   cm.Content,
			Timestamp: cm.Timestamp,
		})
	}
	pt := domain.PostType(row.Type)
	if pt == "" {
		pt = domain.PostTypeText
	}
	return domain.Post{
		ID:        string(row.ID),
		AuthorID:  string(row.AuthorID),
		Type:      pt,
		Title:     row.Title,
		Content:   row.Content,
		MediaURL:  row.MediaURL,
		Likes:     likes,
		Comments:  comments,
		Timestamp: row.Timestamp,
	}
}

func (c *Client) ListPosts(ctx context.Context) ([]domain.Post, error) {
	path := "/rest/v1/posts?select=*,post_likes(user_id),comments(id,author_id,content,created_at)&order=created_at.desc"
	var rows []postRow
	if err := c.rest(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	posts := make([]domain.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toDomain())
	}
	return posts, nil
}

func (c *Client) CreatePost(ctx context.Context, authorID, title, content string) (*domain.Post, error) {
	payload := map[string]any{
		"author_id": authorID,
		"type":      string(domain.PostTypeText),
		"title":     title,
		"content":   content,
	}
	var rows []postRow
	if err := c.rest(ctx, http.MethodPost, "/rest/v1/posts", payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: post insert returned no row")
	}
	post := rows[0].toDomain()
	return &post, nil
}

func (c *Client) CreateComment(ctx context.Context, postID, authorID, content string) (*domain.Comment, error) {
	payload := map[string]any{
		"post_id":   postID,
		"author_id": authorID,
		"content":   content,
	}
	var rows []commentRow
	if err := c.rest(ctx, http.MethodPost, "/rest/v1/comments", payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: comment insert returned no row")
	}
	row := rows[0]
	return &domain.Comment{
		ID:        string(row.ID),
		AuthorID:  string(row.AuthorID),
		Content:   row.Content,
		Timestamp: row.Timestamp,
	}, nil
}

// ToggleLike probes for an existing like row and flips it. The store reports
// which way it went so the caller never guesses.
func (c *Client) ToggleLike(ctx context.Context, postID, userID string) (domain.ToggleAction, error) {
	filter := "post_id=eq." + url.QueryEscape(postID) + "&user_id=eq." + url.QueryEscape(userID)
	var existing []likeRow
	if err := c.rest(ctx, http.MethodGet, "/rest/v1/post_likes?select=user_id&"+filter, nil, &existing); err != nil {
		return "", err
	}
	if len(existing) > 0 {
		if err := c.rest(ctx, http.MethodDelete, "/rest/v1/post_likes?"+filter, nil, nil); err != nil {
			return "", err
		}
		return domain.ActionUnliked, nil
	}
	payload := map[string]any{"post_id": postID, "user_id": userID}
	if err := c.rest(ctx, http.MethodPost, "/rest/v1/post_likes", payload, nil); err != nil {
		return "", err
	}
	return domain.ActionLiked, nil
}

func (c *Client) ToggleFollow(ctx context.Context, followerID, targetID string) (domain.ToggleAction, error) {
	filter := "follower_id=eq." + url.QueryEscape(followerID) + "&following_id=eq." + url.QueryEscape(targetID)
	var existing []followRow
	if err := c.rest(ctx, http.MethodGet, "/rest/v1/follows?select=follower_id&"+filter, nil, &existing); err != nil {
		return "", err
	}
	if len(existing) > 0 {
		if err := c.rest(ctx, http.MethodDelete, "/rest/v1/follows?"+filter, nil, nil); err != nil {
			return "", err
		}
		return domain.ActionUnfollowed, nil
	}
	payload := map[string]any{"follower_id": followerID, "following_id": targetID}
	if err := c.rest(ctx, http.MethodPost, "/rest/v1/follows", payload, nil); err != nil {
		return "", err
	}
	return domain.ActionFollowed, nil
}

// --- messages ---

type messageRow struct {
	ID         flexID    `json:"id"`
	SenderID   flexID    `json:"sender_id"`
	ReceiverID flexID    `json:"receiver_id"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
}

func (row messageRow) toDomain() domain.Message {
	return domain.Message{
		ID:         string(row.ID),
		SenderID:   string(row.SenderID),
		ReceiverID: string(row.ReceiverID),
		Content:    row.Content,
		Timestamp:  row.Timestamp,
	}
}

func (c *Client) ListMessages(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	a, b := url.QueryEscape(userA), url.QueryEscape(userB)
	path := "/rest/v1/messages?or=(and(sender_id.eq." + a + ",receiver_id.eq." + b +
		"),and(sender_id.eq." + b + ",receiver_id.eq." + a + "))&order=timestamp.asc"
	var rows []messageRow
	if err := c.rest(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}
	msgs := make([]domain.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toDomain())
	}
	return msgs, nil
}

func (c *Client) SendMessage(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error) {
	payload := map[string]any{
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"content":     content,
	}
	var rows []messageRow
	if err := c.rest(ctx, http.MethodPost, "/rest/v1/messages", payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: message insert returned no row")
	}
	msg := rows[0].toDomain()
	return &msg, nil
}

// --- transport ---

func (c *Client) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) doAuth(ctx context.Context, method, path string, payload any) ([]byte, error) {
	return c.do(ctx, method, path, payload, false)
}

// rest performs a PostgREST request. Mutations ask for the representation
// back so inserts and updates can return the stored row.
func (c *Client) rest(ctx context.Context, method, path string, payload any, out any) error {
	body, err := c.do(ctx, method, path, payload, method != http.MethodGet)
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("supabase: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, wantRepresentation bool) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("supabase: encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	bearer := c.token()
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if wantRepresentation {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("supabase: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apierr.New(resp.StatusCode, "supabase_"+strconv.Itoa(resp.StatusCode),
			fmt.Errorf("supabase: %s %s: status %d: %s", method, path, resp.StatusCode, truncate(string(body), 300)))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
