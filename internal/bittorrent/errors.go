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

package bittorrent

// ErrorKind is the tracker's error taxonomy, surfaced to the client as a
// bencoded failure reason rather than an HTTP status. Shared by the
// HTTP collaborator, the private-mode hook and the response shaper so
// all three agree on one vocabulary.
type ErrorKind int

const (
	BadAction ErrorKind = iota
	BadRequest
	BadAuth
	BadPeer
)

func (k ErrorKind) Error() string {
	switch k {
	case BadAuth:
		return "bad auth"
	case BadAction:
		return "bad action"
	case BadPeer:
		return "bad peer"
	default:
		return "bad request"
	}
}
