package services

import (
	socketio "github.com/googollee/go-socket.io"

	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/logger"
)

// Broadcaster publishes leaderboard snapshots to live contest viewers.
// Publication is fire-and-forget: a failed or subscriber-less broadcast
// never rolls back persisted state. Snapshots are absolute, not diffs, so a
// viewer that misses one simply catches up on the next.
type Broadcaster interface {
	PublishLeaderboard(contestID string, leaderboard []LeaderboardEntry)
}

// ContestRoom names the socket.io room for one contest's viewers.
func ContestRoom(contestID string) string {
	return "contest-" + contestID
}

// SocketBroadcaster emits snapshots over a socket.io server.
type SocketBroadcaster struct {
	Server *socketio.Server
}

func NewSocketBroadcaster(server *socketio.Server) *SocketBroadcaster {
	return &SocketBroadcaster{Server: server}
}

func (b *SocketBroadcaster) PublishLeaderboard(contestID string, leaderboard []LeaderboardEntry) {
	if b.Server == nil {
		logger.Debug().Str("contest_id", contestID).Msg("Socket server not available, skipping broadcast")
		return
	}
	b.Server.BroadcastToRoom("/", ContestRoom(contestID), "leaderboard-update", leaderboard)
}

// NoopBroadcaster discards snapshots. Used when realtime delivery is
// disabled.
type NoopBroadcaster struct{}

func (NoopBroadcaster) PublishLeaderboard(string, []LeaderboardEntry) {}
