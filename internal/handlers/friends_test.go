package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messenger-service/internal/mocks"
	"messenger-service/internal/models"
	"messenger-service/internal/services"
)

func setupFriendRouter(handler *FriendHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", int64(1))
		c.Next()
	})
	r.POST("/friends/invites", handler.SendInvite)
	r.DELETE("/friends/invites/:user_id", handler.CancelInvite)
	r.POST("/friends/invites/:user_id/accept", handler.AcceptInvite)
	r.GET("/friends/invites/incoming", handler.ListIncoming)
	r.GET("/friends", handler.ListFriends)
	r.DELETE("/friends/:user_id", handler.RemoveFriend)
	r.POST("/friends/:user_id/block", handler.BlockUser)
	r.GET("/friends/:user_id/status", handler.Status)
	return r
}

func newFriendHandler(social *mocks.MockSocialRepository, users *mocks.MockUserRepository) *FriendHandler {
	return NewFriendHandler(services.NewSocialService(social, nil), users, social, nil)
}

func TestSendInviteHandlerSuccess(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2}, nil).Once()
	social.On("IsBlocked", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Twice()
	social.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(false, nil).Once()
	social.On("HasInvite", mock.Anything, int64(2), int64(1)).Return(false, nil).Once()
	social.On("CreateInvite", mock.Anything, int64(1), int64(2)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/invites", bytes.NewBufferString(`{"to_user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	social.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestSendInviteHandlerTargetMissing(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	users.On("GetByID", mock.Anything, int64(99)).Return(models.User{}, assert.AnError).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/invites", bytes.NewBufferString(`{"to_user_id":99}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	users.AssertExpectations(t)
}

func TestSendInviteHandlerConflictWhenFriends(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2}, nil).Once()
	social.On("IsBlocked", mock.Anything, mock.Anything, mock.Anything).Return(false, nil).Twice()
	social.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/invites", bytes.NewBufferString(`{"to_user_id":2}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	social.AssertExpectations(t)
}

func TestCancelInviteHandler(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	social.On("DeleteInvite", mock.Anything, int64(1), int64(2)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/friends/invites/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	social.AssertExpectations(t)
}

func TestAcceptInviteHandlerSuccess(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	social.On("HasInvite", mock.Anything, int64(2), int64(1)).Return(true, nil).Once()
	social.On("AcceptInvite", mock.Anything, int64(1), int64(2)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/invites/2/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	social.AssertExpectations(t)
}

func TestAcceptInviteHandlerNoInvite(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	social.On("HasInvite", mock.Anything, int64(2), int64(1)).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/invites/2/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	social.AssertExpectations(t)
}

func TestRemoveFriendHandler(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	social.On("RemoveFriendship", mock.Anything, int64(1), int64(2)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/friends/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	social.AssertExpectations(t)
}

func TestBlockUserHandler(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	social.On("Block", mock.Anything, int64(1), int64(2)).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/friends/2/block", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	social.AssertExpectations(t)
}

func TestBlockSelfRejected(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	req := httptest.NewRequest(http.MethodPost, "/friends/1/block", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	social.AssertNotCalled(t, "Block", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusHandler(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	social.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(false, nil).Once()
	social.On("HasInvite", mock.Anything, int64(1), int64(2)).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends/2/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, string(models.StatusOutgoingPending), resp["status"])
	social.AssertExpectations(t)
}

func TestListFriendsHandler(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	social.On("ListFriends", mock.Anything, int64(1)).Return([]int64{2, 3}, nil).Once()
	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2, Name: "Ann"}, nil).Once()
	users.On("GetByID", mock.Anything, int64(3)).Return(models.User{ID: 3, Name: "Bob"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []models.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	social.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestListIncomingHandler(t *testing.T) {
	social := new(mocks.MockSocialRepository)
	users := new(mocks.MockUserRepository)
	router := setupFriendRouter(newFriendHandler(social, users))

	social.On("ListIncomingInvites", mock.Anything, int64(1)).
		Return([]models.FriendInvite{{ID: 5, FromUserID: 2, ToUserID: 1}}, nil).Once()
	users.On("GetByID", mock.Anything, int64(2)).Return(models.User{ID: 2, Name: "Ann"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/friends/invites/incoming", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "Ann", resp[0]["name"])
	social.AssertExpectations(t)
}
