package sync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"breadshare-client/internal/api"
	"breadshare-client/internal/cache"
	"breadshare-client/internal/mocks"
	"breadshare-client/internal/models"
)

func newTestFeed(t *testing.T, posts *mocks.PostAPIMock) (*PostFeed, *fakeRealtime) {
	t.Helper()
	rt := newFakeRealtime()
	feed := NewPostFeed(posts, cache.New(time.Minute), rt, time.Minute)
	feed.Start()
	t.Cleanup(feed.Stop)
	return feed, rt
}

func sourdough() models.Post {
	return models.Post{ID: "p1", Author: aliceUser, Title: "sourdough loaf", Type: "offer"}
}

func TestPostFeedLoadCachesByQuery(t *testing.T) {
	posts := new(mocks.PostAPIMock)
	posts.On("Posts", mock.Anything, api.PostQuery{Type: "offer"}).
		Return([]models.Post{sourdough()}, nil).Once()

	feed, _ := newTestFeed(t, posts)

	first, err := feed.Load(context.Background(), api.PostQuery{Type: "offer"})
	require.NoError(t, err)
	second, err := feed.Load(context.Background(), api.PostQuery{Type: "offer"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	posts.AssertNumberOfCalls(t, "Posts", 1)
}

func TestPostFeedEventInvalidatesCache(t *testing.T) {
	posts := new(mocks.PostAPIMock)
	posts.On("Posts", mock.Anything, api.PostQuery{}).
		Return([]models.Post{sourdough()}, nil).Twice()

	feed, rt := newTestFeed(t, posts)
	_, err := feed.Load(context.Background(), api.PostQuery{})
	require.NoError(t, err)

	updated := sourdough()
	updated.Title = "rye loaf"
	rt.Push(t, models.EventPostUpdated, updated)

	items := feed.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "rye loaf", items[0].Title)

	// cache was cleared, so the next load goes to the backend again
	_, err = feed.Load(context.Background(), api.PostQuery{})
	require.NoError(t, err)
	posts.AssertNumberOfCalls(t, "Posts", 2)
}

func TestPostFeedExpiredEventRemoves(t *testing.T) {
	posts := new(mocks.PostAPIMock)
	posts.On("Posts", mock.Anything, api.PostQuery{}).
		Return([]models.Post{sourdough()}, nil).Once()

	feed, rt := newTestFeed(t, posts)
	_, err := feed.Load(context.Background(), api.PostQuery{})
	require.NoError(t, err)

	rt.Push(t, models.EventPostExpired, sourdough())
	assert.Empty(t, feed.Items())
}

func TestPostFeedToggleReservationOptimistic(t *testing.T) {
	reserved := sourdough()
	reserved.Reserved = true
	reserver := selfUser
	reserved.ReservedBy = &reserver

	posts := new(mocks.PostAPIMock)
	posts.On("Posts", mock.Anything, api.PostQuery{}).
		Return([]models.Post{sourdough()}, nil).Once()
	posts.On("ToggleReservation", mock.Anything, "p1").Return(reserved, nil).Once()

	feed, _ := newTestFeed(t, posts)
	_, err := feed.Load(context.Background(), api.PostQuery{})
	require.NoError(t, err)

	settled, err := feed.ToggleReservation(context.Background(), "p1", selfUser)
	require.NoError(t, err)
	assert.True(t, settled.Reserved)

	items := feed.Items()
	require.Len(t, items, 1)
	assert.True(t, items[0].Reserved)
	require.NotNil(t, items[0].ReservedBy)
	assert.Equal(t, selfUser.ID, items[0].ReservedBy.ID)
}

func TestPostFeedToggleReservationConflictRewritesFromServer(t *testing.T) {
	serverTruth := sourdough()
	serverTruth.Reserved = true
	other := bobUser
	serverTruth.ReservedBy = &other
	truthJSON, err := json.Marshal(serverTruth)
	require.NoError(t, err)

	posts := new(mocks.PostAPIMock)
	posts.On("Posts", mock.Anything, api.PostQuery{}).
		Return([]models.Post{sourdough()}, nil).Once()
	posts.On("ToggleReservation", mock.Anything, "p1").
		Return(serverTruth, &api.Error{Kind: api.KindConflict, Status: 409, Message: "already reserved", Data: truthJSON}).Once()

	feed, _ := newTestFeed(t, posts)
	_, err = feed.Load(context.Background(), api.PostQuery{})
	require.NoError(t, err)

	settled, err := feed.ToggleReservation(context.Background(), "p1", selfUser)
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
	require.NotNil(t, settled.ReservedBy)
	assert.Equal(t, bobUser.ID, settled.ReservedBy.ID)

	// local state reflects the actual holder, not our optimistic flip
	items := feed.Items()
	require.NotNil(t, items[0].ReservedBy)
	assert.Equal(t, bobUser.ID, items[0].ReservedBy.ID)
}

func TestPostFeedToggleReservationRollsBackOnFailure(t *testing.T) {
	posts := new(mocks.PostAPIMock)
	posts.On("Posts", mock.Anything, api.PostQuery{}).
		Return([]models.Post{sourdough()}, nil).Once()
	posts.On("ToggleReservation", mock.Anything, "p1").
		Return(models.Post{}, &api.Error{Kind: api.KindNetwork, Message: "connection refused"}).Once()

	feed, _ := newTestFeed(t, posts)
	_, err := feed.Load(context.Background(), api.PostQuery{})
	require.NoError(t, err)

	_, err = feed.ToggleReservation(context.Background(), "p1", selfUser)
	require.Error(t, err)

	items := feed.Items()
	assert.False(t, items[0].Reserved)
	assert.Nil(t, items[0].ReservedBy)
}
