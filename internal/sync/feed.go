package sync

import (
	"context"
	"encoding/json"
	"log"
	stdsync "sync"
	"time"

	"breadshare-client/internal/api"
	"breadshare-client/internal/cache"
	"breadshare-client/internal/models"
	"breadshare-client/internal/realtime"
)

// PostFeed mirrors the post listing. Fetches go through the response cache;
// realtime post events reconcile the local list and invalidate the cached
// class of listing calls so the next fetch is fresh.
type PostFeed struct {
	posts api.PostAPI
	cache *cache.Cache
	rt    Realtime
	ttl   time.Duration

	mu     stdsync.Mutex
	list   []models.Post
	errMsg string
	subs   map[string]realtime.Subscription
}

// NewPostFeed builds a feed caching fetches for ttl.
func NewPostFeed(posts api.PostAPI, responseCache *cache.Cache, rt Realtime, ttl time.Duration) *PostFeed {
	return &PostFeed{
		posts: posts,
		cache: responseCache,
		rt:    rt,
		ttl:   ttl,
		subs:  make(map[string]realtime.Subscription),
	}
}

// Start subscribes to post lifecycle events. Stop releases them.
func (f *PostFeed) Start() {
	f.subs[models.EventPostCreated] = f.rt.On(models.EventPostCreated, f.onCreated)
	f.subs[models.EventPostUpdated] = f.rt.On(models.EventPostUpdated, f.onUpdated)
	f.subs[models.EventPostReserved] = f.rt.On(models.EventPostReserved, f.onUpdated)
	f.subs[models.EventPostExpired] = f.rt.On(models.EventPostExpired, f.onExpired)
}

func (f *PostFeed) Stop() {
	for event, sub := range f.subs {
		f.rt.Off(event, sub)
	}
}

// Load fetches posts for the query, served from cache while fresh.
// Concurrent identical queries share one backend call.
func (f *PostFeed) Load(ctx context.Context, query api.PostQuery) ([]models.Post, error) {
	key := cache.GenerateKey("posts", query)
	value, err := f.cache.Do(ctx, key, f.ttl, func(ctx context.Context) (any, error) {
		return f.posts.Posts(ctx, query)
	})
	if err != nil {
		f.setError(err)
		return nil, err
	}

	list, _ := value.([]models.Post)
	f.mu.Lock()
	f.list = list
	f.errMsg = ""
	f.mu.Unlock()
	return list, nil
}

// Search runs a geo-scoped text search around the provider's position and
// is never cached: positions move.
func (f *PostFeed) Search(ctx context.Context, text string, provider LocationProvider, radiusKM float64) ([]models.Post, error) {
	position, err := provider.Current(ctx)
	if err != nil {
		f.setError(err)
		return nil, err
	}
	results, err := f.posts.Posts(ctx, api.PostQuery{
		Query:     text,
		Latitude:  position.Latitude,
		Longitude: position.Longitude,
		RadiusKM:  radiusKM,
	})
	if err != nil {
		f.setError(err)
		return nil, err
	}
	return results, nil
}

// ToggleReservation optimistically flips the post's reservation locally and
// settles it against the backend. A conflict rewrites the local post to the
// state the server reported instead of retrying.
func (f *PostFeed) ToggleReservation(ctx context.Context, postID string, self models.UserRef) (models.Post, error) {
	before, ok := f.snapshot(postID)
	if !ok {
		return f.toggleRemote(ctx, postID)
	}

	var settled models.Post
	err := Optimistic(ctx,
		func() {
			next := before
			next.Reserved = !before.Reserved
			if next.Reserved {
				reserver := self
				next.ReservedBy = &reserver
			} else {
				next.ReservedBy = nil
			}
			f.replace(next)
		},
		func() { f.replace(before) },
		func(ctx context.Context) error {
			var callErr error
			settled, callErr = f.posts.ToggleReservation(ctx, postID)
			return callErr
		},
	)
	if err != nil {
		if api.IsConflict(err) && settled.ID != "" {
			// The server told us who actually holds the reservation.
			f.replace(settled)
			f.cache.ClearByPrefix("posts")
			return settled, err
		}
		f.setError(err)
		return models.Post{}, err
	}

	f.replace(settled)
	f.cache.ClearByPrefix("posts")
	return settled, nil
}

func (f *PostFeed) toggleRemote(ctx context.Context, postID string) (models.Post, error) {
	settled, err := f.posts.ToggleReservation(ctx, postID)
	if err != nil {
		if api.IsConflict(err) && settled.ID != "" {
			f.cache.ClearByPrefix("posts")
			return settled, err
		}
		f.setError(err)
		return models.Post{}, err
	}
	f.cache.ClearByPrefix("posts")
	return settled, nil
}

func (f *PostFeed) onCreated(payload json.RawMessage) {
	var post models.Post
	if err := json.Unmarshal(payload, &post); err != nil {
		log.Printf("feed: dropping malformed post event: %v", err)
		return
	}
	f.mu.Lock()
	f.list = append([]models.Post{post}, f.list...)
	f.mu.Unlock()
	f.cache.ClearByPrefix("posts")
}

func (f *PostFeed) onUpdated(payload json.RawMessage) {
	var post models.Post
	if err := json.Unmarshal(payload, &post); err != nil {
		log.Printf("feed: dropping malformed post event: %v", err)
		return
	}
	f.replace(post)
	f.cache.ClearByPrefix("posts")
}

func (f *PostFeed) onExpired(payload json.RawMessage) {
	var post models.Post
	if err := json.Unmarshal(payload, &post); err != nil {
		log.Printf("feed: dropping malformed post event: %v", err)
		return
	}
	f.mu.Lock()
	for i := range f.list {
		if f.list[i].ID == post.ID {
			f.list = append(f.list[:i], f.list[i+1:]...)
			break
		}
	}
	f.mu.Unlock()
	f.cache.ClearByPrefix("posts")
}

func (f *PostFeed) snapshot(postID string) (models.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, post := range f.list {
		if post.ID == postID {
			return post, true
		}
	}
	return models.Post{}, false
}

func (f *PostFeed) replace(post models.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.list {
		if f.list[i].ID == post.ID {
			f.list[i] = post
			return
		}
	}
}

// Items returns a snapshot of the feed.
func (f *PostFeed) Items() []models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Post, len(f.list))
	copy(out, f.list)
	return out
}

// Err returns the last error message, empty when healthy.
func (f *PostFeed) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

func (f *PostFeed) setError(err error) {
	f.mu.Lock()
	f.errMsg = err.Error()
	f.mu.Unlock()
}
