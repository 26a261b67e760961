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

	"swarmd/internal/bittorrent"
)

// Stats is the aggregate view of one torrent's swarm, as returned by both
// an announce reply and a scrape entry.
type Stats struct {
	Complete   int
	Incomplete int
	Downloaded uint64
}

// PeerSample is the eagerly-materialized peer selection handed back by
// GetPeers. It is built while the torrent's lock is held and is safe to
// encode afterward without touching the torrent again (§9: "encoding must
// not hold the registry lock").
type PeerSample struct {
	Peers4 []Peer
	Peers6 []Peer
}

// Torrent is one swarm: every peer known for a single info-hash, split
// into seeders and leechers. All access goes through its own lock — a
// Torrent never reaches outside of it to mutate registry-level state.
type Torrent struct {
	InfoHash bittorrent.InfoHash

	mu         sync.Mutex
	seeders    map[bittorrent.PeerID]*Peer
	leechers   map[bittorrent.PeerID]*Peer
	snatches   uint64
	lastAction time.Time
}

// NewTorrent creates an empty swarm for infoHash. The first Update call
// against it supplies the first peer.
func NewTorrent(infoHash bittorrent.InfoHash) *Torrent {
	return &Torrent{
		InfoHash:   infoHash,
		seeders:    make(map[bittorrent.PeerID]*Peer),
		leechers:   make(map[bittorrent.PeerID]*Peer),
		lastAction: time.Now(),
	}
}

// Update applies the event-driven state transition described by the
// seeder/leecher/absent x Seeding/Leeching/Completed/Stopped table and
// returns the Delta against whatever state the peer previously held.
func (t *Torrent) Update(a *Announce) Delta {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastAction = time.Now()

	id := a.PeerID
	seeder, isSeeder := t.seeders[id]
	leecher, isLeecher := t.leechers[id]

	switch a.Action {
	case ActionStopped:
		switch {
		case isSeeder:
			delete(t.seeders, id)
			return seeder.update(a)
		case isLeecher:
			delete(t.leechers, id)
			return leecher.update(a)
		default:
			return zeroDelta(id, a.Passkey)
		}

	case ActionCompleted:
		t.snatches++

		switch {
		case isSeeder:
			return seeder.update(a)
		case isLeecher:
			delete(t.leechers, id)
			d := leecher.update(a)
			t.seeders[id] = leecher
			return d
		default:
			p := newPeer(a)
			t.seeders[id] = p
			return zeroDelta(id, a.Passkey)
		}

	case ActionSeeding:
		switch {
		case isSeeder:
			return seeder.update(a)
		case isLeecher:
			delete(t.leechers, id)
			d := leecher.update(a)
			t.seeders[id] = leecher
			return d
		default:
			t.seeders[id] = newPeer(a)
			return zeroDelta(id, a.Passkey)
		}

	default: // ActionLeeching
		switch {
		case isSeeder:
			delete(t.seeders, id)
			d := seeder.update(a)
			t.leechers[id] = seeder
			return d
		case isLeecher:
			return leecher.update(a)
		default:
			t.leechers[id] = newPeer(a)
			return zeroDelta(id, a.Passkey)
		}
	}
}

// GetStats reports the complete/incomplete/downloaded triple.
func (t *Torrent) GetStats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Stats{
		Complete:   len(t.seeders),
		Incomplete: len(t.leechers),
		Downloaded: t.snatches,
	}
}

// GetPeerCount returns the total number of peers known to the swarm.
func (t *Torrent) GetPeerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.seeders) + len(t.leechers)
}

// GetPeers selects up to numwant distinct peers for an announce reply,
// excluding self (a peer is never handed its own entry back). Leeching
// announces prefer seeders, topping up from leechers if short. Every
// other action prefers leechers only, by design: a seeder gains nothing
// from knowing about other seeders beyond confirming the swarm exists.
func (t *Torrent) GetPeers(numwant int, action Action, self bittorrent.PeerID) PeerSample {
	if action == ActionStopped || numwant <= 0 {
		return PeerSample{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var chosen []*Peer

	if action == ActionLeeching {
		chosen = sampleExcluding(t.seeders, numwant, self, nil)
		if len(chosen) < numwant {
			chosen = sampleExcluding(t.leechers, numwant-len(chosen), self, chosen)
		}
	} else {
		chosen = sampleExcluding(t.leechers, numwant, self, nil)
	}

	sample := PeerSample{}
	for _, p := range chosen {
		if _, ok := p.GetIPv4Str(); ok {
			sample.Peers4 = append(sample.Peers4, *p)
		}
		if _, ok := p.GetIPv6Str(); ok {
			sample.Peers6 = append(sample.Peers6, *p)
		}
	}

	return sample
}

// sampleExcluding appends up to n peers from m to a copy of already,
// skipping self and peers without a usable address. It does not check m's
// peers against already; callers pass disjoint maps (seeders, then
// leechers). Go's map iteration order is randomized per run, which is the
// randomization the selection policy asks for.
func sampleExcluding(m map[bittorrent.PeerID]*Peer, n int, self bittorrent.PeerID, already []*Peer) []*Peer {
	out := append([]*Peer(nil), already...)

	for id, p := range m {
		if len(out) >= len(already)+n {
			break
		}

		if id == self || !p.HasAddress() {
			continue
		}

		out = append(out, p)
	}

	return out
}

// Reap removes every peer whose last_action predates now-limit and
// reports how many were removed. It never changes the torrent's own
// last_action; only Update does.
func (t *Torrent) Reap(limit time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	removed := 0

	for id, p := range t.seeders {
		if p.idle(now, limit) {
			delete(t.seeders, id)
			removed++
		}
	}

	for id, p := range t.leechers {
		if p.idle(now, limit) {
			delete(t.leechers, id)
			removed++
		}
	}

	return removed
}

// Idle reports whether the torrent itself has seen no announce for
// longer than limit, the reaper's criterion for dropping it entirely.
func (t *Torrent) Idle(now time.Time, limit time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return now.Sub(t.lastAction) > limit
}
