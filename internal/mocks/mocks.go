package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"breadshare-client/internal/api"
	"breadshare-client/internal/models"
)

type AuthAPIMock struct {
	mock.Mock
}

func (m *AuthAPIMock) Login(ctx context.Context, creds api.Credentials) (models.Session, error) {
	args := m.Called(ctx, creds)
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	return session, args.Error(1)
}

func (m *AuthAPIMock) Register(ctx context.Context, reg api.Registration) (models.Session, error) {
	args := m.Called(ctx, reg)
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	return session, args.Error(1)
}

type MessageAPIMock struct {
	mock.Mock
}

func (m *MessageAPIMock) Conversations(ctx context.Context) ([]models.Conversation, error) {
	args := m.Called(ctx)
	var list []models.Conversation
	if val := args.Get(0); val != nil {
		list = val.([]models.Conversation)
	}
	return list, args.Error(1)
}

func (m *MessageAPIMock) Messages(ctx context.Context) ([]models.Message, error) {
	args := m.Called(ctx)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageAPIMock) MessagesWith(ctx context.Context, userID string) ([]models.Message, error) {
	args := m.Called(ctx, userID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageAPIMock) SendMessage(ctx context.Context, recipientID, content string) (models.Message, error) {
	args := m.Called(ctx, recipientID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageAPIMock) MarkConversationRead(ctx context.Context, counterpartID string) error {
	args := m.Called(ctx, counterpartID)
	return args.Error(0)
}

type NotificationAPIMock struct {
	mock.Mock
}

func (m *NotificationAPIMock) Notifications(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationAPIMock) MarkNotificationRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *NotificationAPIMock) MarkAllNotificationsRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type PostAPIMock struct {
	mock.Mock
}

func (m *PostAPIMock) Posts(ctx context.Context, query api.PostQuery) ([]models.Post, error) {
	args := m.Called(ctx, query)
	var posts []models.Post
	if val := args.Get(0); val != nil {
		posts = val.([]models.Post)
	}
	return posts, args.Error(1)
}

func (m *PostAPIMock) Post(ctx context.Context, id string) (models.Post, error) {
	args := m.Called(ctx, id)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostAPIMock) CreatePost(ctx context.Context, draft api.PostDraft) (models.Post, error) {
	args := m.Called(ctx, draft)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostAPIMock) UpdatePost(ctx context.Context, id string, draft api.PostDraft) (models.Post, error) {
	args := m.Called(ctx, id, draft)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostAPIMock) DeletePost(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *PostAPIMock) ToggleReservation(ctx context.Context, id string) (models.Post, error) {
	args := m.Called(ctx, id)
	var post models.Post
	if val := args.Get(0); val != nil {
		post = val.(models.Post)
	}
	return post, args.Error(1)
}

func (m *PostAPIMock) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	args := m.Called(ctx, filename, r)
	return args.String(0), args.Error(1)
}

type UserAPIMock struct {
	mock.Mock
}

func (m *UserAPIMock) Profile(ctx context.Context, id string) (models.UserRef, error) {
	args := m.Called(ctx, id)
	var user models.UserRef
	if val := args.Get(0); val != nil {
		user = val.(models.UserRef)
	}
	return user, args.Error(1)
}

func (m *UserAPIMock) UpdateProfile(ctx context.Context, user models.UserRef) (models.UserRef, error) {
	args := m.Called(ctx, user)
	var updated models.UserRef
	if val := args.Get(0); val != nil {
		updated = val.(models.UserRef)
	}
	return updated, args.Error(1)
}

func (m *UserAPIMock) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *UserAPIMock) EmailAvailable(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ api.AuthAPI = (*AuthAPIMock)(nil)
var _ api.MessageAPI = (*MessageAPIMock)(nil)
var _ api.NotificationAPI = (*NotificationAPIMock)(nil)
var _ api.PostAPI = (*PostAPIMock)(nil)
var _ api.UserAPI = (*UserAPIMock)(nil)
