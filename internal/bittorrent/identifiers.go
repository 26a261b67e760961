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

// Package bittorrent holds the wire-level identifier types shared by the
// swarm engine, the response shaper and the private-mode sink: info
// hashes, peer ids and packed peer addresses. None of these types know
// anything about swarms, announces or HTTP — they are pure values.
package bittorrent

import (
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"net/netip"
)

const (
	// InfoHashSize is the length in bytes of a torrent's SHA-1 info hash.
	InfoHashSize = 20
	// PeerIDSize is the length in bytes of a BEP 0020 peer id.
	PeerIDSize = 20
	// AddressSize is the length in bytes of a compact v4 peer entry
	// (4 bytes address + 2 bytes port).
	AddressSize = 4 + 2
	// Address6Size is the length in bytes of a compact v6 peer entry
	// (16 bytes address + 2 bytes port).
	Address6Size = 16 + 2
)

var (
	errWrongHashSize    = errors.New("bittorrent: wrong info hash size")
	errWrongPeerIDSize  = errors.New("bittorrent: wrong peer id size")
	errNilValue         = errors.New("bittorrent: nil value scanned")
	errInvalidScanValue = errors.New("bittorrent: invalid value type for Scan")
)

// InfoHash identifies a torrent: the 20-byte SHA-1 of its metainfo.
type InfoHash [InfoHashSize]byte

func InfoHashFromBytes(buf []byte) (h InfoHash) {
	if len(buf) != InfoHashSize {
		return
	}

	copy(h[:], buf)

	return h
}

//goland:noinspection GoMixedReceiverTypes
func (h *InfoHash) Scan(src any) error {
	if src == nil {
		return nil
	}

	buf, ok := src.([]byte)
	if !ok {
		return errInvalidScanValue
	}

	if len(buf) == 0 {
		return errNilValue
	}

	if len(buf) != InfoHashSize {
		return errWrongHashSize
	}

	copy((*h)[:], buf)

	return nil
}

//goland:noinspection GoMixedReceiverTypes
func (h InfoHash) Value() (driver.Value, error) {
	return h[:], nil
}

//goland:noinspection GoMixedReceiverTypes
func (h InfoHash) MarshalText() ([]byte, error) {
	var buf [InfoHashSize * 2]byte
	hex.Encode(buf[:], h[:])

	return buf[:], nil
}

//goland:noinspection GoMixedReceiverTypes
func (h *InfoHash) UnmarshalText(b []byte) error {
	if len(b) != InfoHashSize*2 {
		return errWrongHashSize
	}

	_, err := hex.Decode(h[:], b)

	return err
}

//goland:noinspection GoMixedReceiverTypes
func (h InfoHash) String() string {
	buf, _ := h.MarshalText()
	return string(buf)
}

// PeerID is a BEP 0020 client-chosen session identifier.
type PeerID [PeerIDSize]byte

func PeerIDFromBytes(buf []byte) (id PeerID) {
	if len(buf) != PeerIDSize {
		return
	}

	copy(id[:], buf)

	return id
}

//goland:noinspection GoMixedReceiverTypes
func (id *PeerID) Scan(src any) error {
	if src == nil {
		return nil
	}

	buf, ok := src.([]byte)
	if !ok {
		return errInvalidScanValue
	}

	if len(buf) == 0 {
		return errNilValue
	}

	if len(buf) != PeerIDSize {
		return errWrongPeerIDSize
	}

	copy((*id)[:], buf)

	return nil
}

//goland:noinspection GoMixedReceiverTypes
func (id PeerID) Value() (driver.Value, error) {
	return id[:], nil
}

//goland:noinspection GoMixedReceiverTypes
func (id PeerID) MarshalText() ([]byte, error) {
	var buf [PeerIDSize * 2]byte
	hex.Encode(buf[:], id[:])

	return buf[:], nil
}

//goland:noinspection GoMixedReceiverTypes
func (id *PeerID) UnmarshalText(b []byte) error {
	if len(b) != PeerIDSize*2 {
		return errWrongPeerIDSize
	}

	_, err := hex.Decode(id[:], b)

	return err
}

// Address is the compact v4 peer encoding: 4 bytes network-order address
// followed by 2 bytes big-endian port.
type Address [AddressSize]byte

func NewAddressFromAddrPort(ap netip.AddrPort) (a Address) {
	a4 := ap.Addr().As4()
	copy(a[:4], a4[:])
	binary.BigEndian.PutUint16(a[4:], ap.Port())

	return a
}

//goland:noinspection GoMixedReceiverTypes
func (a Address) IP() netip.Addr {
	return netip.AddrFrom4([4]byte{a[0], a[1], a[2], a[3]})
}

//goland:noinspection GoMixedReceiverTypes
func (a Address) Port() uint16 {
	return binary.BigEndian.Uint16(a[4:])
}

//goland:noinspection GoMixedReceiverTypes
func (a Address) String() string {
	return netip.AddrPortFrom(a.IP(), a.Port()).String()
}

// Address6 is the compact v6 peer encoding: 16 bytes network-order
// address followed by 2 bytes big-endian port.
type Address6 [Address6Size]byte

func NewAddress6FromAddrPort(ap netip.AddrPort) (a Address6) {
	a16 := ap.Addr().As16()
	copy(a[:16], a16[:])
	binary.BigEndian.PutUint16(a[16:], ap.Port())

	return a
}

//goland:noinspection GoMixedReceiverTypes
func (a Address6) IP() netip.Addr {
	var b [16]byte
	copy(b[:], a[:16])

	return netip.AddrFrom16(b)
}

//goland:noinspection GoMixedReceiverTypes
func (a Address6) Port() uint16 {
	return binary.BigEndian.Uint16(a[16:])
}

//goland:noinspection GoMixedReceiverTypes
func (a Address6) String() string {
	return netip.AddrPortFrom(a.IP(), a.Port()).String()
}
