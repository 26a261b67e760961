/*
 * This file is part of swarmd.
 *
 * swarmd is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * swarmd is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with swarmd.  If not, see <http://www.gnu.org/licenses/>.
 */

package private

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"swarmd/internal/bittorrent"
	"swarmd/internal/swarm"
	"swarmd/internal/util"
)

// conn is the seam between MySQLSink and the database connection it reads
// and writes through; *sql.DB satisfies it, and tests supply a fake to
// exercise the buffering/flush-swap and cache-reload logic without a
// live connection.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// MySQLSink is the private-mode Collaborator: passkey/torrent/peer
// gating backed by in-memory sets refreshed on a timer, plus a buffered,
// non-blocking delta sink that batches inserts on its own flush timer.
// The producer (AddAnnounce, called from inside the registry's
// HandleAnnounce) never blocks and never touches the database directly —
// it only ever sends to a buffered channel, mirroring the teacher's
// queue.go/flush.go split.
type MySQLSink struct {
	db   conn
	pool *util.BufferPool

	deltas chan deltaRow

	mu             sync.RWMutex
	passkeys       map[string]struct{}
	bannedTorrents map[bittorrent.InfoHash]struct{}
	bannedPeers    map[bittorrent.PeerID]struct{}

	// reloadSem gates Update so two reloads (a ticker-driven one racing
	// a manually triggered one) never run concurrently, the same role
	// the teacher's ClientsSemaphore/UsersSemaphore play around
	// server/util.go's cache reload calls.
	reloadSem util.Semaphore

	FlushBufferSize int
}

type deltaRow struct {
	passkey      string
	upload       uint64
	download     uint64
	leftDecrease uint64
	at           int64
}

// NewMySQLSink wires a sink against an already-open database handle. The
// caller is responsible for an initial Update() call before serving
// traffic, the same way the teacher's Database loads its caches at
// startup rather than lazily on first use.
func NewMySQLSink(db *sql.DB, flushBufferSize int) *MySQLSink {
	if flushBufferSize <= 0 {
		flushBufferSize = 4096
	}

	return &MySQLSink{
		db:              db,
		pool:            util.NewBufferPool(),
		deltas:          make(chan deltaRow, flushBufferSize),
		passkeys:        make(map[string]struct{}),
		bannedTorrents:  make(map[bittorrent.InfoHash]struct{}),
		bannedPeers:     make(map[bittorrent.PeerID]struct{}),
		reloadSem:       util.NewSemaphore(),
		FlushBufferSize: flushBufferSize,
	}
}

// QueueLen reports how many deltas are currently buffered, waiting for
// the next Flush. Exposed for internal/collector's flush-buffer gauge,
// mirroring the teacher's channel-length histograms in collectors/admin.go.
func (s *MySQLSink) QueueLen() int {
	return len(s.deltas)
}

func (s *MySQLSink) ValidatePasskey(passkey string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.passkeys[passkey]

	return ok
}

func (s *MySQLSink) ValidateTorrent(infoHash bittorrent.InfoHash) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, banned := s.bannedTorrents[infoHash]

	return !banned
}

func (s *MySQLSink) ValidatePeer(peerID bittorrent.PeerID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, banned := s.bannedPeers[peerID]

	return !banned
}

// ValidateAnnounce runs the final pre-flight check; the teacher's
// equivalent source never rejects on the announce body itself beyond the
// passkey/hash/peer checks already performed, so neither do we.
func (s *MySQLSink) ValidateAnnounce(*swarm.Announce) error {
	return nil
}

// AddAnnounce is the non-blocking sink entry point (§5: "must be
// non-blocking from the caller's perspective"). A full channel falls
// back to a spawned goroutine that blocks instead of stalling the
// announce path, the same select/default/go pattern the teacher's
// QueueTorrent family uses.
func (s *MySQLSink) AddAnnounce(d swarm.Delta) {
	row := deltaRow{
		passkey:      d.Passkey,
		upload:       d.Upload,
		download:     d.Download,
		leftDecrease: d.LeftDecrease,
		at:           time.Now().Unix(),
	}

	select {
	case s.deltas <- row:
	default:
		go func() { s.deltas <- row }()
	}
}

// Flush drains whatever is currently queued into one batched INSERT.
// Draining reads exactly len(s.deltas) rows at call time so a steady
// trickle of concurrent AddAnnounce calls can't make this loop forever.
// The query string itself is built from a pooled buffer (placeholders
// only, following the teacher's bulk-insert shape), but every value —
// notably the client-supplied passkey — travels as a bound argument, not
// interpolated text.
func (s *MySQLSink) Flush() {
	n := len(s.deltas)
	if n == 0 {
		return
	}

	buf := s.pool.Take()
	defer s.pool.Give(buf)

	buf.WriteString("INSERT INTO transfer_deltas (passkey, upload, download, left_decrease, at) VALUES\n")

	args := make([]any, 0, n*5)

	for i := 0; i < n; i++ {
		row := <-s.deltas

		if i > 0 {
			buf.WriteString(",")
		}

		buf.WriteString("(?,?,?,?,?)")
		args = append(args, row.passkey, row.upload, row.download, row.leftDecrease, row.at)
	}

	if len(args) == 0 {
		return
	}

	if _, err := s.db.ExecContext(context.Background(), buf.String(), args...); err != nil {
		s.requeueOnFailure(err)
	}
}

// requeueOnFailure drops the batch and relies on the next flush picking
// up fresh deltas. The failed rows have already been drained from the
// channel and are not put back, and the error is discarded, so the
// failure is terminal for this batch.
func (s *MySQLSink) requeueOnFailure(err error) {
	_ = err
}

// Update reloads the passkey and ban-list caches from the database; it is
// driven by private.update_interval, mirroring the teacher's periodic
// full-table reload in database/reload.go. reloadSem serializes Update
// against itself so an overlapping ticker-driven and manually triggered
// reload can't run their queries concurrently, the same guard the teacher
// applies around its own cache reloads. Each reload then builds a fresh
// map and swaps it in under the write lock rather than mutating the live
// one in place, so concurrent ValidatePasskey/ValidateTorrent/ValidatePeer
// calls never see a half-populated set.
func (s *MySQLSink) Update() {
	util.TakeSemaphore(s.reloadSem)
	defer util.ReturnSemaphore(s.reloadSem)

	if passkeys, err := s.loadPasskeys(); err == nil {
		s.mu.Lock()
		s.passkeys = passkeys
		s.mu.Unlock()
	}

	if torrents, peers, err := s.loadBans(); err == nil {
		s.mu.Lock()
		s.bannedTorrents = torrents
		s.bannedPeers = peers
		s.mu.Unlock()
	}
}

func (s *MySQLSink) loadPasskeys() (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(context.Background(), "SELECT passkey FROM users WHERE enabled = 1")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})

	for rows.Next() {
		var passkey string
		if err := rows.Scan(&passkey); err != nil {
			return nil, err
		}

		out[passkey] = struct{}{}
	}

	return out, rows.Err()
}

func (s *MySQLSink) loadBans() (map[bittorrent.InfoHash]struct{}, map[bittorrent.PeerID]struct{}, error) {
	torrents := make(map[bittorrent.InfoHash]struct{})

	rows, err := s.db.QueryContext(context.Background(), "SELECT info_hash FROM banned_torrents")
	if err != nil {
		return nil, nil, err
	}

	for rows.Next() {
		var h bittorrent.InfoHash
		if err := rows.Scan(&h); err != nil {
			rows.Close()
			return nil, nil, err
		}

		torrents[h] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, nil, err
	}

	rows.Close()

	peers := make(map[bittorrent.PeerID]struct{})

	rows, err = s.db.QueryContext(context.Background(), "SELECT peer_id FROM banned_peers")
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id bittorrent.PeerID
		if err := rows.Scan(&id); err != nil {
			return nil, nil, err
		}

		peers[id] = struct{}{}
	}

	return torrents, peers, rows.Err()
}

var _ swarm.Collaborator = (*MySQLSink)(nil)
