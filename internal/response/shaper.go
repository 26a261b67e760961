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
	"fmt"
	"time"

	"swarmd/internal/bittorrent"
	"swarmd/internal/swarm"
)

// EncodeAnnounce builds the bencoded announce reply described in §4.4.
// Compact encodes peers4/peers6 as concatenated fixed-width binary
// records; otherwise each is a list of {peer id, ip, port} maps.
func EncodeAnnounce(result swarm.AnnounceResult) []byte {
	buf := &bytes.Buffer{}

	buf.WriteByte('d')

	writeDictKey(buf, "complete")
	writeNumber(buf, int64(result.Stats.Complete))

	writeDictKey(buf, "downloaded")
	writeNumber(buf, int64(result.Stats.Downloaded))

	writeDictKey(buf, "incomplete")
	writeNumber(buf, int64(result.Stats.Incomplete))

	writeDictKey(buf, "interval")
	writeNumber(buf, int64(result.Interval/time.Second))

	writeDictKey(buf, "min interval")
	writeNumber(buf, int64(result.MinInterval/time.Second))

	writeDictKey(buf, "peers")
	writePeerList(buf, result.Peers.Peers4, result.Compact, true)

	writeDictKey(buf, "peers6")
	writePeerList(buf, result.Peers.Peers6, result.Compact, false)

	buf.WriteByte('e')

	return buf.Bytes()
}

func writePeerList(buf *bytes.Buffer, peers []swarm.Peer, compact, v4 bool) {
	if compact {
		size := bittorrent.AddressSize
		if !v4 {
			size = bittorrent.Address6Size
		}

		writeInt(buf, int64(len(peers)*size))
		buf.WriteByte(':')

		for _, p := range peers {
			if v4 {
				addr, _ := p.GetIPv4Bytes()
				buf.Write(addr[:])
			} else {
				addr, _ := p.GetIPv6Bytes()
				buf.Write(addr[:])
			}
		}

		return
	}

	buf.WriteByte('l')

	for _, p := range peers {
		ip, port := peerIPAndPort(p, v4)

		buf.WriteByte('d')

		writeDictKey(buf, "peer id")
		writeBytes(buf, p.ID[:])

		writeDictKey(buf, "ip")
		writeString(buf, ip)

		writeDictKey(buf, "port")
		writeNumber(buf, int64(port))

		buf.WriteByte('e')
	}

	buf.WriteByte('e')
}

func peerIPAndPort(p swarm.Peer, v4 bool) (string, uint16) {
	if v4 {
		ip, _ := p.GetIPv4Str()
		return ip, p.IPv4.Port()
	}

	ip, _ := p.GetIPv6Str()

	return ip, p.IPv6.Port()
}

// EncodeScrape builds the bencoded scrape reply described in §4.4.
func EncodeScrape(result swarm.ScrapeResult) []byte {
	buf := &bytes.Buffer{}

	buf.WriteByte('d')
	writeDictKey(buf, "files")
	buf.WriteByte('d')

	for hash, stats := range result.Files {
		writeBytes(buf, hash[:])

		buf.WriteByte('d')

		writeDictKey(buf, "complete")
		writeNumber(buf, int64(stats.Complete))

		writeDictKey(buf, "downloaded")
		writeNumber(buf, int64(stats.Downloaded))

		writeDictKey(buf, "incomplete")
		writeNumber(buf, int64(stats.Incomplete))

		buf.WriteByte('e')
	}

	buf.WriteByte('e')
	buf.WriteByte('e')

	return buf.Bytes()
}

// EncodeError builds the bencoded {failure reason: ...} reply shared by
// every error kind in §7's taxonomy.
func EncodeError(kind bittorrent.ErrorKind) []byte {
	buf := &bytes.Buffer{}

	buf.WriteByte('d')
	writeDictKey(buf, "failure reason")
	writeString(buf, kind.Error())
	buf.WriteByte('e')

	return buf.Bytes()
}

// EncodeStats renders a human-readable, non-bencoded stats payload, one
// line per field (§4.4).
func EncodeStats(snap swarm.Snapshot) []byte {
	return []byte(fmt.Sprintf(
		"uptime: %s\nannounce rate: %.2f/s\nscrape rate: %.2f/s\ntorrents: %d\npeers: %d\n",
		snap.Uptime.Round(time.Second), snap.AnnounceRate, snap.ScrapeRate, snap.Torrents, snap.Peers,
	))
}
