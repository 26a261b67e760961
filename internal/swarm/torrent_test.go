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
	"net/netip"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"swarmd/internal/bittorrent"
)

func announceWith(peerID byte, ip string, left uint64, action Action) *Announce {
	var id bittorrent.PeerID
	id[0] = peerID

	return &Announce{
		PeerID:  id,
		IPv4:    netip.AddrPortFrom(netip.MustParseAddr(ip), 6881),
		Left:    left,
		Action:  action,
		Numwant: maxNumwant,
	}
}

// TestFreshLeecher follows scenario 1 in §8: a single started announce
// with left > 0 produces stats of one leecher, no seeders, no snatches.
func TestFreshLeecher(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})

	a := announceWith(1, "10.0.0.1", 1000, ActionLeeching)
	tr.Update(a)

	stats := tr.GetStats()
	if stats.Complete != 0 || stats.Incomplete != 1 || stats.Downloaded != 0 {
		t.Fatalf("expected {0,1,0}, got %+v", stats)
	}
}

// TestSeederJoinsLeecherQueries follows scenario 2: once a seeder joins,
// a leecher's re-announce samples only the seeder (prefer-seeders rule).
func TestSeederJoinsLeecherQueries(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})

	p1 := announceWith(1, "10.0.0.1", 1000, ActionLeeching)
	tr.Update(p1)

	p2 := announceWith(2, "10.0.0.2", 0, ActionSeeding)
	tr.Update(p2)

	stats := tr.GetStats()
	if stats.Complete != 1 || stats.Incomplete != 1 {
		t.Fatalf("expected {1,1,0}, got %+v", stats)
	}

	sample := tr.GetPeers(5, ActionLeeching, p1.PeerID)
	if len(sample.Peers4) != 1 {
		t.Fatalf("expected exactly one sampled peer, got %d", len(sample.Peers4))
	}

	if sample.Peers4[0].ID != p2.PeerID {
		t.Fatalf("expected the seeder P2 to be sampled, got %v", sample.Peers4[0].ID)
	}
}

// TestCompletionTransition follows scenario 3: a leecher announcing
// completed moves to seeders and increments snatches.
func TestCompletionTransition(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})

	tr.Update(announceWith(1, "10.0.0.1", 1000, ActionLeeching))
	tr.Update(announceWith(2, "10.0.0.2", 0, ActionSeeding))
	tr.Update(announceWith(1, "10.0.0.1", 0, ActionCompleted))

	stats := tr.GetStats()
	if stats.Complete != 2 || stats.Incomplete != 0 || stats.Downloaded != 1 {
		t.Fatalf("expected {2,0,1}, got %+v", stats)
	}
}

// TestDeltaComputation follows scenario 4: a second announce computes a
// delta against the first, saturating a download regression at zero.
func TestDeltaComputation(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})

	first := announceWith(2, "10.0.0.2", 0, ActionSeeding)
	first.Uploaded, first.Downloaded = 100, 50
	tr.Update(first)

	second := announceWith(2, "10.0.0.2", 0, ActionSeeding)
	second.Uploaded, second.Downloaded = 150, 40
	d := tr.Update(second)

	want := Delta{PeerID: second.PeerID, Upload: 50, Download: 0, LeftDecrease: 0}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Fatalf("delta mismatch (-want +got):\n%s", diff)
	}
}

// TestReapEviction follows scenario 5: an idle peer is removed by Reap.
func TestReapEviction(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})
	tr.Update(announceWith(1, "10.0.0.1", 1000, ActionLeeching))

	time.Sleep(20 * time.Millisecond)

	removed := tr.Reap(10 * time.Millisecond)
	if removed != 1 {
		t.Fatalf("expected 1 peer removed, got %d", removed)
	}

	if tr.GetPeerCount() != 0 {
		t.Fatalf("expected an empty swarm after reap, got %d peers", tr.GetPeerCount())
	}
}

func TestStoppedRemovesFromEitherMap(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})
	seed := announceWith(1, "10.0.0.1", 0, ActionSeeding)
	tr.Update(seed)

	d := tr.Update(announceWith(1, "10.0.0.1", 0, ActionStopped))

	want := Delta{PeerID: seed.PeerID}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Fatalf("delta mismatch (-want +got):\n%s", diff)
	}

	if tr.GetPeerCount() != 0 {
		t.Fatalf("expected the peer to be gone after Stopped")
	}
}

func TestStoppedOnAbsentPeerIsANoOpWithZeroDelta(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})

	var id bittorrent.PeerID
	id[0] = 9

	d := tr.Update(announceWith(9, "10.0.0.9", 0, ActionStopped))

	want := Delta{PeerID: id}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Fatalf("expected an all-zero delta (-want +got):\n%s", diff)
	}
}

func TestGetPeersExcludesSelf(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})

	self := announceWith(1, "10.0.0.1", 1000, ActionLeeching)
	tr.Update(self)

	sample := tr.GetPeers(5, ActionLeeching, self.PeerID)
	if len(sample.Peers4) != 0 {
		t.Fatalf("a peer must never be handed its own entry back, got %+v", sample)
	}
}

func TestGetPeersZeroNumwantIsEmpty(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})
	tr.Update(announceWith(1, "10.0.0.1", 0, ActionSeeding))

	var other bittorrent.PeerID
	other[0] = 2

	sample := tr.GetPeers(0, ActionLeeching, other)
	if len(sample.Peers4)+len(sample.Peers6) != 0 {
		t.Fatalf("numwant=0 must yield an empty sample, got %+v", sample)
	}
}

func TestSeederDoesNotFallBackToOtherSeeders(t *testing.T) {
	tr := NewTorrent(bittorrent.InfoHash{})

	tr.Update(announceWith(1, "10.0.0.1", 0, ActionSeeding))
	requester := announceWith(2, "10.0.0.2", 0, ActionSeeding)
	tr.Update(requester)

	sample := tr.GetPeers(5, ActionSeeding, requester.PeerID)
	if len(sample.Peers4) != 0 {
		t.Fatalf("a seeding announce must never sample other seeders, got %+v", sample)
	}
}
