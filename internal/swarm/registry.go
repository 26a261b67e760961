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

package swarm

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"swarmd/internal/bittorrent"
)

// shardCount is fixed rather than configurable: it only needs to be large
// enough to spread lock contention across cores, and a prime count keeps
// the first-byte-modulo distribution from aliasing with common hash
// prefixes.
const shardCount = 61

// Collaborator is the private-mode hook surface described in §4.5. The
// registry only ever calls AddAnnounce directly — ValidatePasskey,
// ValidateTorrent, ValidatePeer and ValidateAnnounce gate a request
// before it reaches HandleAnnounce, and Flush/Update are periodic
// no-arg callbacks driven by their own timers — but all seven live on
// one interface so a single permissive implementation (private.Permissive)
// satisfies every caller without conditional code paths.
type Collaborator interface {
	ValidatePasskey(passkey string) bool
	ValidateTorrent(infoHash bittorrent.InfoHash) bool
	ValidatePeer(peerID bittorrent.PeerID) bool
	ValidateAnnounce(a *Announce) error
	AddAnnounce(d Delta)
	Flush()
	Update()
}

type shard struct {
	mu       sync.Mutex
	torrents map[bittorrent.InfoHash]*Torrent
}

// Registry is the process-wide, sharded info-hash -> Torrent map plus the
// single GlobalStats record, per §4.3/§5. It is the only thing server
// handlers talk to; nothing outside of it ever touches a Torrent.
type Registry struct {
	shards [shardCount]*shard
	Stats  *GlobalStats

	Collaborator Collaborator

	AnnounceInterval    time.Duration
	MinAnnounceInterval time.Duration
}

// NewRegistry builds an empty registry. collab may be nil, in which case
// announces and scrapes proceed as if every hook returned permissively.
func NewRegistry(collab Collaborator) *Registry {
	r := &Registry{
		Stats:               NewGlobalStats(),
		Collaborator:        collab,
		AnnounceInterval:    30 * time.Minute,
		MinAnnounceInterval: 15 * time.Minute,
	}

	for i := range r.shards {
		r.shards[i] = &shard{torrents: make(map[bittorrent.InfoHash]*Torrent)}
	}

	return r
}

func (r *Registry) shardFor(h bittorrent.InfoHash) *shard {
	return r.shards[int(h[0])%shardCount]
}

// AnnounceResult is everything ResponseShaper.EncodeAnnounce needs to
// build a reply; it borrows nothing from the registry after it is
// returned.
type AnnounceResult struct {
	Stats   Stats
	Peers   PeerSample
	Compact bool

	Interval    time.Duration
	MinInterval time.Duration
}

// HandleAnnounce locates or creates the torrent for a.InfoHash, applies
// the update, and returns the reply payload. GlobalStats.peers tracks the
// net effect of the update rather than doing a remove-then-add across two
// separate lock windows. The shard lock is held from lookup through the
// update, so the reaper cannot drop the torrent mid-announce and two
// announces on one torrent cannot mix their peer-count deltas.
func (r *Registry) HandleAnnounce(a *Announce) AnnounceResult {
	r.Stats.IncAnnounces()

	s := r.shardFor(a.InfoHash)

	s.mu.Lock()
	t, ok := s.torrents[a.InfoHash]
	if !ok {
		t = NewTorrent(a.InfoHash)
		s.torrents[a.InfoHash] = t
		r.Stats.IncTorrents()
	}

	before := t.GetPeerCount()
	delta := t.Update(a)
	after := t.GetPeerCount()
	r.Stats.AddPeers(int64(after - before))
	s.mu.Unlock()

	if r.Collaborator != nil {
		r.Collaborator.AddAnnounce(delta)
	}

	return AnnounceResult{
		Stats:       t.GetStats(),
		Peers:       t.GetPeers(a.Numwant, a.Action, a.PeerID),
		Compact:     a.Compact,
		Interval:    r.AnnounceInterval,
		MinInterval: r.MinAnnounceInterval,
	}
}

// ScrapeResult maps each requested, known info-hash to its Stats; unknown
// hashes are simply absent from Files.
type ScrapeResult struct {
	Files map[bittorrent.InfoHash]Stats
}

// HandleScrape returns Stats for every known hash among hashes, silently
// dropping duplicates and unknown hashes.
func (r *Registry) HandleScrape(hashes []bittorrent.InfoHash) ScrapeResult {
	r.Stats.IncScrapes()

	result := ScrapeResult{Files: make(map[bittorrent.InfoHash]Stats, len(hashes))}

	for _, h := range hashes {
		if _, already := result.Files[h]; already {
			continue
		}

		s := r.shardFor(h)

		s.mu.Lock()
		t, ok := s.torrents[h]
		s.mu.Unlock()

		if ok {
			result.Files[h] = t.GetStats()
		}
	}

	return result
}

// GetStats returns the current GlobalStats snapshot.
func (r *Registry) GetStats() Snapshot {
	return r.Stats.Snapshot()
}

// Reap runs the two-pass eviction described in §4.3 concurrently across
// shards via errgroup, one goroutine per shard. Each shard holds its own
// lock while it checks every torrent's last_action and deletes the idle
// ones — the fix for the source's racy reap (§9's Open Question). Since
// HandleAnnounce also holds the shard lock across its update, no announce
// can land between a torrent's idle check and its deletion, so it can
// never be evicted out from under a concurrent announce.
func (r *Registry) Reap(torrentIdleLimit, peerIdleLimit time.Duration) error {
	var totalTorrentsRemoved atomic64
	var totalPeers atomic64

	var g errgroup.Group

	for _, s := range r.shards {
		s := s
		g.Go(func() error {
			removed, peers := reapShard(s, torrentIdleLimit, peerIdleLimit)
			totalTorrentsRemoved.add(int64(removed))
			totalPeers.add(int64(peers))

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	r.Stats.DecTorrents(totalTorrentsRemoved.load())
	r.Stats.SetPeers(totalPeers.load())
	r.Stats.Reset()

	return nil
}

// reapShard evicts idle torrents first, reaps peers from every survivor,
// and returns the number of torrents removed and the surviving peer
// total for this shard — the building blocks for Registry.Reap's
// authoritative GlobalStats.peers rebuild.
func reapShard(s *shard, torrentIdleLimit, peerIdleLimit time.Duration) (removed, survivingPeers int) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for h, t := range s.torrents {
		if now.Sub(t.lastActionUnlocked()) > torrentIdleLimit {
			delete(s.torrents, h)
			removed++

			continue
		}
	}

	for _, t := range s.torrents {
		t.Reap(peerIdleLimit)
		survivingPeers += t.GetPeerCount()
	}

	return removed, survivingPeers
}

// lastActionUnlocked reads last_action under the torrent's own lock; the
// name marks that the caller (reapShard) holds no lock of the torrent's
// own going in, only the shard lock. Lock order is always
// shard-then-torrent throughout this package, so nesting the two here
// never risks a deadlock against a concurrent announce.
func (t *Torrent) lastActionUnlocked() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.lastAction
}

// atomic64 is a tiny int64 accumulator guarded by a mutex, used only to
// fan reap totals back in from the per-shard errgroup goroutines.
type atomic64 struct {
	mu  sync.Mutex
	val int64
}

func (a *atomic64) add(n int64) {
	a.mu.Lock()
	a.val += n
	a.mu.Unlock()
}

func (a *atomic64) load() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.val
}
