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

// Package private implements the optional private-tracker collaborator:
// passkey/torrent/peer gating plus a buffered delta sink for out-of-band
// credit accounting. Public-tracker builds use Permissive instead.
package private

import (
	"swarmd/internal/bittorrent"
	"swarmd/internal/swarm"
)

// Permissive satisfies swarm.Collaborator by allowing everything and
// discarding every delta; it is the zero-value collaborator for
// public-tracker builds, per §9: "provide a permissive default
// implementation... so the engine compiles without conditional code
// paths."
type Permissive struct{}

func (Permissive) ValidatePasskey(string) bool                   { return true }
func (Permissive) ValidateTorrent(bittorrent.InfoHash) bool       { return true }
func (Permissive) ValidatePeer(bittorrent.PeerID) bool            { return true }
func (Permissive) ValidateAnnounce(*swarm.Announce) error         { return nil }
func (Permissive) AddAnnounce(swarm.Delta)                        {}
func (Permissive) Flush()                                         {}
func (Permissive) Update()                                        {}

var _ swarm.Collaborator = Permissive{}
