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

package response

import (
	"bytes"
	"net/netip"
	"testing"
	"time"

	"swarmd/internal/bittorrent"
	"swarmd/internal/swarm"
)

func peerWithV4(idByte byte, ip string, port uint16) swarm.Peer {
	var id bittorrent.PeerID
	id[0] = idByte

	return swarm.Peer{
		ID:   id,
		IPv4: netip.AddrPortFrom(netip.MustParseAddr(ip), port),
	}
}

func TestEncodeAnnounceCompactPeerLength(t *testing.T) {
	result := swarm.AnnounceResult{
		Stats:       swarm.Stats{Complete: 1, Incomplete: 1, Downloaded: 0},
		Peers:       swarm.PeerSample{Peers4: []swarm.Peer{peerWithV4(2, "10.0.0.2", 6881)}},
		Compact:     true,
		Interval:    30 * time.Minute,
		MinInterval: 15 * time.Minute,
	}

	encoded := EncodeAnnounce(result)

	if !bytes.Contains(encoded, []byte("5:peers6:")) {
		t.Fatalf("expected a 6-byte peers payload marker, got %s", encoded)
	}

	if !bytes.Contains(encoded, []byte{0x0a, 0x00, 0x00, 0x02, 0x1a, 0xe1}) {
		t.Fatalf("expected the compact encoding of 10.0.0.2:6881, got %x", encoded)
	}

	if !bytes.Contains(encoded, []byte("6:peers60:")) {
		t.Fatalf("expected an empty peers6 payload, got %s", encoded)
	}
}

func TestEncodeAnnounceNonCompactCarriesPeerID(t *testing.T) {
	result := swarm.AnnounceResult{
		Peers:   swarm.PeerSample{Peers4: []swarm.Peer{peerWithV4(7, "10.0.0.7", 1234)}},
		Compact: false,
	}

	encoded := EncodeAnnounce(result)

	if !bytes.Contains(encoded, []byte("7:peer id")) {
		t.Fatalf("expected a peer id key in the non-compact list, got %s", encoded)
	}

	if !bytes.Contains(encoded, []byte("8:10.0.0.7")) {
		t.Fatalf("expected a printable ip string, got %s", encoded)
	}
}

func TestEncodeScrapeWritesFilesDictWithCounts(t *testing.T) {
	var h bittorrent.InfoHash
	h[0] = 1

	result := swarm.ScrapeResult{Files: map[bittorrent.InfoHash]swarm.Stats{
		h: {Complete: 3, Incomplete: 2, Downloaded: 9},
	}}

	encoded := EncodeScrape(result)

	if !bytes.Contains(encoded, []byte("5:filesd")) {
		t.Fatalf("expected a files dict, got %s", encoded)
	}

	if !bytes.Contains(encoded, []byte("9:downloaded")) {
		t.Fatalf("expected a downloaded key, got %s", encoded)
	}
}

func TestEncodeErrorProducesFailureReason(t *testing.T) {
	encoded := EncodeError(bittorrent.BadAuth)

	want := "d14:failure reason8:bad authe"
	if string(encoded) != want {
		t.Fatalf("expected %q, got %q", want, encoded)
	}
}

func TestEncodeStatsIsPlainTextNotBencode(t *testing.T) {
	encoded := EncodeStats(swarm.Snapshot{Torrents: 4, Peers: 10})

	if bytes.HasPrefix(encoded, []byte("d")) {
		t.Fatalf("stats output must not be bencoded, got %s", encoded)
	}

	if !bytes.Contains(encoded, []byte("torrents: 4")) {
		t.Fatalf("expected a torrents line, got %s", encoded)
	}
}
