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
	"time"

	"swarmd/internal/bittorrent"
)

// Peer is one client's record within a single torrent's swarm.
type Peer struct {
	ID bittorrent.PeerID

	Uploaded   uint64
	Downloaded uint64
	Left       uint64

	IPv4 netip.AddrPort
	IPv6 netip.AddrPort

	LastAction time.Time
}

// Delta is the per-announce transfer increment computed by Update,
// consumed only by the private-mode sink; it is never reflected back in
// an announce reply.
type Delta struct {
	PeerID       bittorrent.PeerID
	Upload       uint64
	Download     uint64
	LeftDecrease uint64
	Passkey      string
}

// newPeer builds a Peer from the first announce seen for it. There is no
// baseline to subtract from, so the caller is expected to treat the first
// Delta as all-zero rather than computing one from this value.
func newPeer(a *Announce) *Peer {
	return &Peer{
		ID:         a.PeerID,
		Uploaded:   a.Uploaded,
		Downloaded: a.Downloaded,
		Left:       a.Left,
		IPv4:       a.IPv4,
		IPv6:       a.IPv6,
		LastAction: time.Now(),
	}
}

// update applies a subsequent announce to an already-known peer and
// returns the transfer delta since its last announce. Upload/download
// regressions (a client that restarted and reset its counters) saturate
// at zero rather than going negative.
func (p *Peer) update(a *Announce) Delta {
	d := Delta{
		PeerID:       p.ID,
		Upload:       saturatingSub(a.Uploaded, p.Uploaded),
		Download:     saturatingSub(a.Downloaded, p.Downloaded),
		LeftDecrease: saturatingSub(p.Left, a.Left),
		Passkey:      a.Passkey,
	}

	p.Uploaded = a.Uploaded
	p.Downloaded = a.Downloaded
	p.Left = a.Left
	p.IPv4 = a.IPv4
	p.IPv6 = a.IPv6
	p.LastAction = time.Now()

	return d
}

func saturatingSub(a, b uint64) uint64 {
	if a <= b {
		return 0
	}

	return a - b
}

func zeroDelta(peerID bittorrent.PeerID, passkey string) Delta {
	return Delta{PeerID: peerID, Passkey: passkey}
}

// GetIPv4Bytes returns the compact 6-byte address||port encoding, if the
// peer has a v4 endpoint.
func (p *Peer) GetIPv4Bytes() (bittorrent.Address, bool) {
	if !p.IPv4.IsValid() || !p.IPv4.Addr().Is4() {
		return bittorrent.Address{}, false
	}

	return bittorrent.NewAddressFromAddrPort(p.IPv4), true
}

// GetIPv6Bytes returns the compact 18-byte address||port encoding, if the
// peer has a v6 endpoint.
func (p *Peer) GetIPv6Bytes() (bittorrent.Address6, bool) {
	if !p.IPv6.IsValid() || !p.IPv6.Addr().Is6() || p.IPv6.Addr().Is4In6() {
		return bittorrent.Address6{}, false
	}

	return bittorrent.NewAddress6FromAddrPort(p.IPv6), true
}

// GetIPv4Str returns a printable "ip" for non-compact responses.
func (p *Peer) GetIPv4Str() (string, bool) {
	if !p.IPv4.IsValid() || !p.IPv4.Addr().Is4() {
		return "", false
	}

	return p.IPv4.Addr().String(), true
}

// GetIPv6Str returns a printable "ip" for non-compact responses.
func (p *Peer) GetIPv6Str() (string, bool) {
	if !p.IPv6.IsValid() || !p.IPv6.Addr().Is6() || p.IPv6.Addr().Is4In6() {
		return "", false
	}

	return p.IPv6.Addr().String(), true
}

// HasAddress reports whether the peer has at least one usable endpoint; a
// peer without one contributes no entries to peer samples (§3).
func (p *Peer) HasAddress() bool {
	_, v4 := p.GetIPv4Str()
	_, v6 := p.GetIPv6Str()

	return v4 || v6
}

func (p *Peer) idle(now time.Time, limit time.Duration) bool {
	return now.Sub(p.LastAction) > limit
}
