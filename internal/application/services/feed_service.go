package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/BrightFrames/tapx-go/internal/domain/journey"
	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/pkg/config"
)

// FeedBroadcaster fans incoming journey events out to the owning profile's
// live dashboard connections over SSE. Slow or stuck clients are skipped;
// the feed is advisory and may drop messages.
type FeedBroadcaster struct {
	mu      sync.Mutex
	clients map[string][]chan string // keyed by profile id
	total   int
	logger  *logging.ChanneledLogger
}

// NewFeedBroadcaster creates a new broadcaster.
func NewFeedBroadcaster(logger *logging.ChanneledLogger) *FeedBroadcaster {
	return &FeedBroadcaster{
		clients: make(map[string][]chan string),
		logger:  logger,
	}
}

// AddClient registers a dashboard connection for a profile. Returns an error
// when the global or per-profile connection cap is reached.
func (b *FeedBroadcaster) AddClient(profileID string) (chan string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.total >= config.MaxFeedConnections {
		return nil, fmt.Errorf("feed connection limit reached")
	}
	if len(b.clients[profileID]) >= config.MaxFeedConnectionsPerProfile {
		return nil, fmt.Errorf("feed connection limit reached for profile")
	}

	ch := make(chan string, 16)
	b.clients[profileID] = append(b.clients[profileID], ch)
	b.total++
	return ch, nil
}

// RemoveClient unregisters and closes a connection's channel.
func (b *FeedBroadcaster) RemoveClient(profileID string, ch chan string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	conns := b.clients[profileID]
	for i, client := range conns {
		if client == ch {
			b.clients[profileID] = append(conns[:i], conns[i+1:]...)
			b.total--
			close(ch)
			break
		}
	}
	if len(b.clients[profileID]) == 0 {
		delete(b.clients, profileID)
	}
}

// ConnectionCount reports the active connections for a profile.
func (b *FeedBroadcaster) ConnectionCount(profileID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients[profileID])
}

// BroadcastEvent pushes one journey event to the profile's listeners.
func (b *FeedBroadcaster) BroadcastEvent(e *journey.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		b.logger.Feed().Error("Feed payload encode failed", "error", err.Error(), "eventId", e.ID)
		return
	}
	message := fmt.Sprintf("event: journey\ndata: %s\n\n", payload)

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.clients[e.ProfileID] {
		select {
		case ch <- message:
		default:
			// Client buffer full. Drop rather than block ingestion.
		}
	}
}
