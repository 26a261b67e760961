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
	"bytes"
	"net/netip"
	"testing"

	"swarmd/internal/bittorrent"
)

func testAnnounce(peerID byte, ip string, port uint16, ul, dl, left uint64) *Announce {
	var id bittorrent.PeerID
	id[0] = peerID

	return &Announce{
		PeerID:     id,
		IPv4:       netip.AddrPortFrom(netip.MustParseAddr(ip), port),
		Uploaded:   ul,
		Downloaded: dl,
		Left:       left,
	}
}

func TestNewPeerCopiesCountersAndSetsLastAction(t *testing.T) {
	a := testAnnounce(1, "10.0.0.1", 6881, 500, 200, 1000)
	p := newPeer(a)

	if p.Uploaded != 500 || p.Downloaded != 200 || p.Left != 1000 {
		t.Fatalf("newPeer did not copy counters: %+v", p)
	}

	if p.LastAction.IsZero() {
		t.Fatalf("newPeer must set last_action")
	}
}

func TestUpdateComputesDeltaAndSaturatesOnRegression(t *testing.T) {
	a1 := testAnnounce(2, "10.0.0.2", 6881, 100, 50, 0)
	p := newPeer(a1)

	a2 := testAnnounce(2, "10.0.0.2", 6881, 150, 40, 0)
	d := p.update(a2)

	if d.Upload != 50 {
		t.Fatalf("expected upload delta 50, got %d", d.Upload)
	}

	if d.Download != 0 {
		t.Fatalf("a download regression must saturate at zero, got %d", d.Download)
	}

	if d.LeftDecrease != 0 {
		t.Fatalf("left did not change, expected left_decrease 0, got %d", d.LeftDecrease)
	}
}

func TestGetIPv4BytesMatchesCompactEncoding(t *testing.T) {
	a := testAnnounce(3, "10.0.0.1", 6881, 0, 0, 1000)
	p := newPeer(a)

	addr, ok := p.GetIPv4Bytes()
	if !ok {
		t.Fatalf("expected a v4 address")
	}

	want := []byte{0x0a, 0x00, 0x00, 0x01, 0x1a, 0xe1}
	if !bytes.Equal(addr[:], want) {
		t.Fatalf("expected %x, got %x", want, addr)
	}
}

func TestGetIPv6BytesAbsentWhenNoV6Address(t *testing.T) {
	a := testAnnounce(4, "10.0.0.1", 6881, 0, 0, 1000)
	p := newPeer(a)

	if _, ok := p.GetIPv6Bytes(); ok {
		t.Fatalf("expected no v6 address")
	}
}

func TestHasAddressFalseForEmptyPeer(t *testing.T) {
	p := &Peer{}

	if p.HasAddress() {
		t.Fatalf("a peer with no addresses must report HasAddress() == false")
	}
}
