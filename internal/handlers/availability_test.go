package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"breadshare-client/internal/mocks"
	"breadshare-client/internal/sync"
)

func newAvailabilityRouter(t *testing.T, users *mocks.UserAPIMock, delay time.Duration) *gin.Engine {
	t.Helper()
	checker := sync.NewAvailabilityChecker(users.UsernameAvailable, users.EmailAvailable, delay)
	t.Cleanup(checker.Stop)

	router := gin.New()
	router.GET("/availability", NewAvailabilityHandler(checker).Check)
	return router
}

func TestAvailabilityCheckReturnsLookupResult(t *testing.T) {
	users := new(mocks.UserAPIMock)
	users.On("UsernameAvailable", mock.Anything, "baker").Return(true, nil)
	router := newAvailabilityRouter(t, users, time.Millisecond)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability?username=baker", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"value":"baker","available":true}`, w.Body.String())
}

func TestAvailabilityCheckRequiresExactlyOneField(t *testing.T) {
	router := newAvailabilityRouter(t, new(mocks.UserAPIMock), time.Millisecond)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability?username=a&email=b", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSupersededAvailabilityCheckEndsPromptly(t *testing.T) {
	users := new(mocks.UserAPIMock)
	users.On("UsernameAvailable", mock.Anything, "baker").Return(true, nil)
	router := newAvailabilityRouter(t, users, 50*time.Millisecond)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability?username=bak", nil))
		first <- w
	}()
	// let the first request register its waiter before replacing it
	time.Sleep(10 * time.Millisecond)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/availability?username=baker", nil))
	require.Equal(t, http.StatusOK, w.Code)

	select {
	case r := <-first:
		assert.Equal(t, http.StatusRequestTimeout, r.Code)
	case <-time.After(time.Second):
		t.Fatal("replaced request never completed")
	}
	users.AssertNumberOfCalls(t, "UsernameAvailable", 1)
}
