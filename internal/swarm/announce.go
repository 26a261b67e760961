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

	"swarmd/internal/bittorrent"
)

// Action is the event a client reports with an announce.
type Action int

const (
	// ActionSeeding covers any announce with left==0 whose event is
	// "started", empty or unrecognized; see InferAction.
	ActionSeeding Action = iota
	ActionLeeching
	ActionCompleted
	ActionStopped
)

func (a Action) String() string {
	switch a {
	case ActionSeeding:
		return "seeding"
	case ActionLeeching:
		return "leeching"
	case ActionCompleted:
		return "completed"
	case ActionStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// InferAction derives an Action from a raw announce "event" parameter and
// the reported "left" value. An empty or unrecognized event is lenient:
// the tracker falls back to inferring seeding-vs-leeching from left, which
// is de-facto protocol behavior clients rely on (§9).
func InferAction(event string, left uint64) Action {
	switch event {
	case "stopped":
		return ActionStopped
	case "completed":
		return ActionCompleted
	case "started", "":
		if left == 0 {
			return ActionSeeding
		}

		return ActionLeeching
	default:
		if left == 0 {
			return ActionSeeding
		}

		return ActionLeeching
	}
}

const maxNumwant = 25

// Announce is the parsed, validated input to HandleAnnounce. Everything
// about HTTP, bencode or query-string parsing has already happened by the
// time a value of this type exists — the HTTP collaborator is responsible
// for producing one or rejecting the request with a BadRequest.
type Announce struct {
	InfoHash bittorrent.InfoHash
	PeerID   bittorrent.PeerID
	Passkey  string

	IPv4 netip.AddrPort
	IPv6 netip.AddrPort

	Uploaded   uint64
	Downloaded uint64
	Left       uint64

	Action  Action
	Numwant int
	Compact bool
}

// HasIPv4 reports whether IPv4 carries a usable address.
func (a *Announce) HasIPv4() bool {
	return a.IPv4.IsValid() && a.IPv4.Addr().Is4()
}

// HasIPv6 reports whether IPv6 carries a usable address.
func (a *Announce) HasIPv6() bool {
	return a.IPv6.IsValid() && a.IPv6.Addr().Is6() && !a.IPv6.Addr().Is4In6()
}

// ClampNumwant enforces the configured ceiling (default 25 per §6); a
// non-positive numwant is left alone so "don't send peers" (numwant=0)
// still means exactly that.
func ClampNumwant(requested, max int) int {
	if max <= 0 {
		max = maxNumwant
	}

	if requested > max {
		return max
	}

	return requested
}
