package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

func TestSyncHandler_ReplaceThenRedisplay(t *testing.T) {
	f := newFixture(t, seedQuotes, 0)

	remote := []domain.Quote{{Text: "From the server.", Category: "Remote"}}
	f.remote.EXPECT().FetchQuotes(mock.Anything).Return(remote, nil).Once()

	w := f.do(t, http.MethodPost, "/api/v1/sync", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	outcome := decode[dto.SyncResponse](t, w)
	assert.True(t, outcome.Replaced)
	assert.Equal(t, 3, outcome.Previous)
	assert.Equal(t, 1, outcome.Current)
	assert.Equal(t, 3, outcome.Discarded)
	require.NotNil(t, outcome.Notification)
	assert.Equal(t, domain.SyncUpdatedMessage, outcome.Notification.Message)
	assert.Equal(t, string(domain.ActionRedisplay), outcome.Notification.Action)

	assert.Equal(t, remote, f.quotes.List(context.Background()))

	w = f.do(t, http.MethodGet, "/api/v1/notifications", "", nil)
	list := decode[dto.NotificationsResponse](t, w)
	require.Len(t, list.Items, 1)
	assert.Equal(t, outcome.Notification.ID, list.Items[0].ID)

	w = f.do(t, http.MethodPost, "/api/v1/notifications/"+outcome.Notification.ID+"/redisplay", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "From the server.", decode[dto.RandomQuoteResponse](t, w).Quote.Text)

	w = f.do(t, http.MethodGet, "/api/v1/notifications", "", nil)
	assert.Empty(t, decode[dto.NotificationsResponse](t, w).Items)

	w = f.do(t, http.MethodPost, "/api/v1/notifications/"+outcome.Notification.ID+"/redisplay", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSyncHandler_Unchanged(t *testing.T) {
	f := newFixture(t, seedQuotes, 0)
	f.remote.EXPECT().FetchQuotes(mock.Anything).Return(seedQuotes, nil).Once()

	w := f.do(t, http.MethodPost, "/api/v1/sync", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	outcome := decode[dto.SyncResponse](t, w)
	assert.False(t, outcome.Replaced)
	assert.Nil(t, outcome.Notification)

	w = f.do(t, http.MethodGet, "/api/v1/notifications", "", nil)
	assert.Empty(t, decode[dto.NotificationsResponse](t, w).Items)
}

func TestSyncHandler_RemoteFailure(t *testing.T) {
	f := newFixture(t, seedQuotes, 0)
	f.remote.EXPECT().FetchQuotes(mock.Anything).
		Return(nil, domain.NewNetworkError("remote-quotes", "fetch", "connection refused")).Once()

	w := f.do(t, http.MethodPost, "/api/v1/sync", "", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, dto.ErrorCodeUpstream, decode[dto.ErrorResponse](t, w).Error.Code)

	assert.Equal(t, seedQuotes, f.quotes.List(context.Background()))
}

func TestSyncHandler_Dismiss(t *testing.T) {
	f := newFixture(t, seedQuotes, 0)
	f.remote.EXPECT().FetchQuotes(mock.Anything).
		Return([]domain.Quote{{Text: "x", Category: "y"}}, nil).Once()

	outcome := decode[dto.SyncResponse](t, f.do(t, http.MethodPost, "/api/v1/sync", "", nil))
	require.NotNil(t, outcome.Notification)

	w := f.do(t, http.MethodDelete, "/api/v1/notifications/"+outcome.Notification.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/notifications/"+outcome.Notification.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrorCodeNotFound, decode[dto.ErrorResponse](t, w).Error.Code)
}
