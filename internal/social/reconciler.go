package social

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/skillsync-backend/internal/domain"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
	"github.com/yungbote/skillsync-backend/internal/services"
)

// Persister is the optional warm-start snapshot sink. Refresh writes the
// authoritative collections through it; failures are logged, never fatal.
type Persister interface {
	SaveUsers(users []domain.User) error
	SavePosts(posts []domain.Post) error
}

type mutationPolicy int

const (
	// waitThenMerge merges only the store-acknowledged result.
	waitThenMerge mutationPolicy = iota
	// optimisticThenReconcile merges a locally constructed view immediately
	// after the store call and schedules a full refetch to reconcile fields
	// the optimistic object guessed at.
	optimisticThenReconcile
)

// mutation pairs one store call with its local merge. The policy choice is
// data, so optimistic vs. wait-then-merge is configured per mutation type
// instead of duplicated in every handler.
type mutation struct {
	name   string
	key    string // singleflight key; empty means no collapse
	policy mutationPolicy
	call   func(ctx context.Context) (any, error)
	merge  func(result any) bool
}

// Reconciler applies user-initiated social mutations against the store and
// merges the result into the cached collections, so the UI never needs a full
// refetch per action. A failed mutation leaves local state untouched and is
// logged, not surfaced.
type Reconciler struct {
	log     *logger.Logger
	store   services.SocialStore
	cache   *Cache
	persist Persister
	group   singleflight.Group
}

func NewReconciler(log *logger.Logger, store services.SocialStore, cache *Cache, persist Persister) *Reconciler {
	return &Reconciler{
		log:     log.With("service", "SocialReconciler"),
		store:   store,
		cache:   cache,
		persist: persist,
	}
}

func (r *Reconciler) Cache() *Cache { return r.cache }

// Refresh fetches users and posts in parallel and replaces the cached
// collections with the authoritative result.
func (r *Reconciler) Refresh(ctx context.Context) error {
	var (
		users []domain.User
		posts []domain.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = r.store.ListUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = r.store.ListPosts(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	r.cache.ReplaceUsers(users)
	r.cache.ReplacePosts(posts)
	if r.persist != nil {
		if err := r.persist.SaveUsers(users); err != nil {
			r.log.Warn("user snapshot save failed", "error", err)
		}
		if err := r.persist.SavePosts(posts); err != nil {
			r.log.Warn("post snapshot save failed", "error", err)
		}
	}
	return nil
}

// ToggleFollow flips the follow edge between actor and target. Concurrent
// toggles for the same pair collapse into one store call.
func (r *Reconciler) ToggleFollow(ctx context.Context, actorID, targetID string) error {
	_, err := r.apply(ctx, mutation{
		name:   "toggle_follow",
		key:    "follow|" + actorID + "|" + targetID,
		policy: waitThenMerge,
		call: func(ctx context.Context) (any, error) {
			return r.store.ToggleFollow(ctx, actorID, targetID)
		},
		merge: func(result any) bool {
			return r.cache.ApplyFollow(actorID, targetID, result.(domain.ToggleAction))
		},
	})
	return err
}

// ToggleLike flips the actor's like on a post.
func (r *Reconciler) ToggleLike(ctx context.Context, postID, actorID string) error {
	_, err := r.apply(ctx, mutation{
		name:   "toggle_like",
		key:    "like|" + postID + "|" + actorID,
		policy: waitThenMerge,
		call: func(ctx context.Context) (any, error) {
			return r.store.ToggleLike(ctx, postID, actorID)
		},
		merge: func(result any) bool {
			return r.cache.ApplyLike(postID, actorID, result.(domain.ToggleAction))
		},
	})
	return err
}

// AddComment appends the store-acknowledged comment to the post. There is no
// optimistic pre-append: comment identity comes from the store.
func (r *Reconciler) AddComment(ctx context.Context, postID, actorID, content string) (*domain.Comment, error) {
	res, err := r.apply(ctx, mutation{
		name:   "add_comment",
		policy: waitThenMerge,
		call: func(ctx context.Context) (any, error) {
			return r.store.CreateComment(ctx, postID, actorID, content)
		},
		merge: func(result any) bool {
			return r.cache.AppendComment(postID, *result.(*domain.Comment))
		},
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Comment), nil
}

// CreatePost inserts the post, prepends a locally complete view for immediate
// feedback, then schedules a full feed refetch to reconcile server-assigned
// fields. This is the one deliberately optimistic mutation.
func (r *Reconciler) CreatePost(ctx context.Context, authorID, title, content string) (*domain.Post, error) {
	res, err := r.apply(ctx, mutation{
		name:   "create_post",
		policy: optimisticThenReconcile,
		call: func(ctx context.Context) (any, error) {
			return r.store.CreatePost(ctx, authorID, title, content)
		},
		merge: func(result any) bool {
			created := result.(*domain.Post)
			view := *created
			if view.ID == "" {
				// Provisional local id; the scheduled refetch replaces it
				// with the stored row.
				view.ID = uuid.NewString()
			}
			view.AuthorID = authorID
			if view.Type == "" {
				view.Type = domain.PostTypeText
			}
			if view.Timestamp.IsZero() {
				view.Timestamp = time.Now().UTC()
			}
			view.Likes = []string{}
			view.Comments = []domain.Comment{}
			r.cache.PrependPost(view)
			return true
		},
	})
	if err != nil {
		return nil, err
	}
	return res.(*domain.Post), nil
}

// UpdateAboutMe persists the new biography and keeps every cached view of the
// user coherent; the runtime reads the current user out of this same cache,
// so the two views cannot diverge.
func (r *Reconciler) UpdateAboutMe(ctx context.Context, userID, aboutMe string) error {
	_, err := r.apply(ctx, mutation{
		name:   "update_about_me",
		policy: waitThenMerge,
		call: func(ctx context.Context) (any, error) {
			return r.store.UpdateUser(ctx, userID, map[string]any{"about_me": aboutMe})
		},
		merge: func(any) bool {
			return r.cache.SetAboutMe(userID, aboutMe)
		},
	})
	return err
}

func (r *Reconciler) apply(ctx context.Context, m mutation) (any, error) {
	run := func() (any, error) {
		result, err := m.call(ctx)
		if err != nil {
			return nil, err
		}
		if !m.merge(result) {
			// Entity not in the local cache. Recoverable: the next refresh
			// picks up the authoritative state.
			r.log.Warn("mutation merge skipped, entity not cached", "mutation", m.name)
			return result, nil
		}
		if m.policy == optimisticThenReconcile {
			r.scheduleRefresh()
		}
		return result, nil
	}

	var (
		result any
		err    error
	)
	if m.key != "" {
		result, err, _ = r.group.Do(m.key, run)
	} else {
		result, err = run()
	}
	if err != nil {
		r.log.Warn("mutation failed, local state unchanged", "mutation", m.name, "error", err)
		return nil, err
	}
	return result, nil
}

func (r *Reconciler) scheduleRefresh() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.Refresh(ctx); err != nil {
			r.log.Warn("post-create refetch failed", "error", err)
		}
	}()
}
