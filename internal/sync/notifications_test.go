package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"breadshare-client/internal/mocks"
	"breadshare-client/internal/models"
)

func notif(id string, read bool) models.Notification {
	return models.Notification{
		ID:        id,
		Type:      models.NotificationMessage,
		User:      selfUser,
		Message:   "you have bread news",
		Read:      read,
		CreatedAt: time.Now(),
	}
}

func TestNotificationListPushPrepends(t *testing.T) {
	rt := newFakeRealtime()
	list := NewNotificationList(new(mocks.NotificationAPIMock), rt)
	list.Start()
	defer list.Stop()

	rt.Push(t, models.EventNotification, notif("n1", false))
	rt.Push(t, models.EventNotification, notif("n2", false))
	// duplicate delivery is shown twice, mirroring the server
	rt.Push(t, models.EventNotification, notif("n2", false))

	items := list.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "n2", items[0].ID)
	assert.Equal(t, "n2", items[1].ID)
	assert.Equal(t, "n1", items[2].ID)
	assert.Equal(t, 3, list.Unread())
}

func TestNotificationListMarkRead(t *testing.T) {
	notifications := new(mocks.NotificationAPIMock)
	notifications.On("Notifications", mock.Anything).
		Return([]models.Notification{notif("n1", false), notif("n2", false)}, nil)
	notifications.On("MarkNotificationRead", mock.Anything, "n1").Return(nil).Once()

	list := NewNotificationList(notifications, newFakeRealtime())
	require.NoError(t, list.Load(context.Background()))
	require.NoError(t, list.MarkRead(context.Background(), "n1"))

	assert.Equal(t, 1, list.Unread())
	notifications.AssertExpectations(t)
}

func TestNotificationListMarkAllReadIsOneCall(t *testing.T) {
	notifications := new(mocks.NotificationAPIMock)
	notifications.On("Notifications", mock.Anything).
		Return([]models.Notification{notif("n1", false), notif("n2", false), notif("n3", true)}, nil)
	notifications.On("MarkAllNotificationsRead", mock.Anything).Return(nil).Once()

	list := NewNotificationList(notifications, newFakeRealtime())
	require.NoError(t, list.Load(context.Background()))
	require.NoError(t, list.MarkAllRead(context.Background()))

	assert.Equal(t, 0, list.Unread())
	notifications.AssertExpectations(t)
	notifications.AssertNumberOfCalls(t, "MarkAllNotificationsRead", 1)
	notifications.AssertNotCalled(t, "MarkNotificationRead", mock.Anything, mock.Anything)
}
