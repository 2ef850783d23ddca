package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotekeeper/internal/domain"
	"github.com/jsamuelsen/quotekeeper/internal/mocks"
)

type syncFixture struct {
	svc           *SyncService
	store         *QuoteStore
	quotes        *QuoteService
	notifications *Notifications
	remote        *mocks.MockRemoteQuoteSource
}

func newSyncFixture(t *testing.T, local []domain.Quote, interval time.Duration, onStart bool) *syncFixture {
	t.Helper()

	store, _ := newLoadedStore(t, local)
	remote := mocks.NewMockRemoteQuoteSource(t)
	quotes := NewQuoteService(QuoteServiceConfig{Store: store, Rand: fixedRand(0), Logger: discardLogger()})
	notifications := NewNotifications(discardLogger())

	svc, err := NewSyncService(SyncServiceConfig{
		Store:         store,
		Remote:        remote,
		Quotes:        quotes,
		Notifications: notifications,
		Interval:      interval,
		OnStart:       onStart,
		Logger:        discardLogger(),
	})
	require.NoError(t, err)

	return &syncFixture{
		svc:           svc,
		store:         store,
		quotes:        quotes,
		notifications: notifications,
		remote:        remote,
	}
}

func TestNewSyncService_Panics(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = NewSyncService(SyncServiceConfig{})
	})
}

func TestSyncService_Sync_Unchanged(t *testing.T) {
	f := newSyncFixture(t, testQuotes, time.Minute, false)
	f.remote.EXPECT().FetchQuotes(mock.Anything).Return(append([]domain.Quote{}, testQuotes...), nil).Once()

	outcome, err := f.svc.Sync(context.Background())
	require.NoError(t, err)

	assert.False(t, outcome.Replaced)
	assert.False(t, outcome.Skipped)
	assert.Nil(t, outcome.Notification)
	assert.Equal(t, testQuotes, f.store.Quotes())
	assert.Empty(t, f.notifications.Active())
}

func TestSyncService_Sync_RemoteWins(t *testing.T) {
	tests := []struct {
		name          string
		local         []domain.Quote
		remote        []domain.Quote
		wantDiscarded int
	}{
		{
			name:          "different content",
			local:         testQuotes[:2],
			remote:        []domain.Quote{{Text: "body", Category: "title"}},
			wantDiscarded: 2,
		},
		{
			name:          "same quotes reordered",
			local:         testQuotes[:2],
			remote:        []domain.Quote{testQuotes[1], testQuotes[0]},
			wantDiscarded: 0,
		},
		{
			name:          "remote is a superset",
			local:         testQuotes[:1],
			remote:        testQuotes,
			wantDiscarded: 0,
		},
		{
			name:          "remote is empty",
			local:         testQuotes[:3],
			remote:        []domain.Quote{},
			wantDiscarded: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSyncFixture(t, tt.local, time.Minute, false)
			f.remote.EXPECT().FetchQuotes(mock.Anything).Return(tt.remote, nil).Once()

			outcome, err := f.svc.Sync(context.Background())
			require.NoError(t, err)

			assert.True(t, outcome.Replaced)
			assert.Equal(t, len(tt.local), outcome.Previous)
			assert.Equal(t, len(tt.remote), outcome.Current)
			assert.Equal(t, tt.wantDiscarded, outcome.Discarded)
			assert.Equal(t, tt.remote, f.store.Quotes())

			require.NotNil(t, outcome.Notification)
			assert.Equal(t, domain.SyncUpdatedMessage, outcome.Notification.Message)
			assert.Equal(t, domain.ActionRedisplay, outcome.Notification.Action)

			active := f.notifications.Active()
			require.Len(t, active, 1)
			assert.Equal(t, outcome.Notification.ID, active[0].ID)
		})
	}
}

func TestSyncService_Sync_RedisplaysAfterReplace(t *testing.T) {
	remote := []domain.Quote{{Text: "body", Category: "title"}}

	f := newSyncFixture(t, testQuotes, time.Minute, false)
	f.remote.EXPECT().FetchQuotes(mock.Anything).Return(remote, nil).Once()

	_, err := f.svc.Sync(context.Background())
	require.NoError(t, err)

	last, err := f.quotes.LastQuote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, remote[0], last)
}

func TestSyncService_Sync_FetchErrorLeavesLocalUntouched(t *testing.T) {
	f := newSyncFixture(t, testQuotes, time.Minute, false)
	f.remote.EXPECT().FetchQuotes(mock.Anything).
		Return(nil, domain.NewNetworkError("remote-quotes", "FetchQuotes", "status 503")).Once()

	_, err := f.svc.Sync(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsNetwork(err))

	assert.Equal(t, testQuotes, f.store.Quotes())
	assert.Empty(t, f.notifications.Active())
}

func TestSyncService_Sync_SkipsWhileBusy(t *testing.T) {
	f := newSyncFixture(t, testQuotes, time.Minute, false)

	started := make(chan struct{})
	release := make(chan struct{})

	f.remote.EXPECT().FetchQuotes(mock.Anything).RunAndReturn(func(context.Context) ([]domain.Quote, error) {
		close(started)
		<-release

		return testQuotes, nil
	}).Once()

	done := make(chan domain.SyncOutcome)

	go func() {
		outcome, _ := f.svc.Sync(context.Background())
		done <- outcome
	}()

	<-started

	outcome, err := f.svc.Sync(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)

	close(release)

	first := <-done
	assert.False(t, first.Skipped)
}

func TestSyncService_Run(t *testing.T) {
	f := newSyncFixture(t, testQuotes, 10*time.Millisecond, true)

	var calls atomic.Int32

	f.remote.EXPECT().FetchQuotes(mock.Anything).RunAndReturn(func(context.Context) ([]domain.Quote, error) {
		calls.Add(1)
		return testQuotes, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)

	go func() { errCh <- f.svc.Run(ctx) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
