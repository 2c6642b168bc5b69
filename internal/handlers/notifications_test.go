package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"breadshare-client/internal/middleware"
	"breadshare-client/internal/mocks"
	"breadshare-client/internal/models"
	"breadshare-client/internal/sync"
)

func TestNotificationRoutes(t *testing.T) {
	notifications := new(mocks.NotificationAPIMock)
	notifications.On("Notifications", mock.Anything).Return([]models.Notification{
		{ID: "n1", Type: models.NotificationReservation, Message: "your loaf was reserved", CreatedAt: time.Now()},
		{ID: "n2", Type: models.NotificationMessage, Message: "new message", CreatedAt: time.Now()},
	}, nil)
	notifications.On("MarkAllNotificationsRead", mock.Anything).Return(nil).Once()

	list := sync.NewNotificationList(notifications, nopRealtime{})
	require.NoError(t, list.Load(context.Background()))

	handler := NewNotificationHandler(list)
	sessions := newLoggedInStore(t)

	router := gin.New()
	guarded := router.Group("", middleware.SessionRequired(sessions))
	guarded.GET("/notifications", handler.ListNotifications)
	guarded.POST("/notifications/read-all", handler.MarkAllRead)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/notifications", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unread":2`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, list.Unread())
	notifications.AssertExpectations(t)
}

func TestAvailabilityCheck(t *testing.T) {
	users := new(mocks.UserAPIMock)
	users.On("UsernameAvailable", mock.Anything, "baker").Return(true, nil)

	checker := sync.NewAvailabilityChecker(users.UsernameAvailable, users.EmailAvailable, time.Millisecond)
	defer checker.Stop()
	handler := NewAvailabilityHandler(checker)

	router := gin.New()
	router.GET("/availability", handler.Check)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability?username=baker", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":true`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
