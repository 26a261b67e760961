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

package server

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"swarmd/internal/bittorrent"
	"swarmd/internal/response"
	"swarmd/internal/swarm"
	"swarmd/internal/util"
)

const maxParams = 10

const bearerPrefix = "Bearer "

// respond routes a single request to its handler, mirroring the teacher's
// respond()/parseQuery split: path first (passkey + action), then query.
// Every branch writes into buf and returns; nothing here ever panics on
// malformed client input, only on a genuine internal bug, which the
// caller recovers from.
func (s *Server) respond(ctx *fasthttp.RequestCtx, buf *bytebufferpool.ByteBuffer) {
	segments := strings.Split(strings.Trim(string(ctx.Path()), "/"), "/")
	if segments[0] == "" {
		segments = segments[1:]
	}

	var passkey, action string

	switch {
	case s.PrivateMode && len(segments) == 2:
		passkey, action = segments[0], segments[1]
	case !s.PrivateMode && len(segments) == 1:
		action = segments[0]
	default:
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	if s.PrivateMode {
		if !s.Collaborator.ValidatePasskey(passkey) {
			buf.Write(response.EncodeError(bittorrent.BadAuth))
			return
		}
	}

	switch action {
	case "announce":
		s.handleAnnounce(ctx, passkey, buf)
	case "scrape":
		s.handleScrape(ctx, buf)
	case "stats":
		buf.Write(response.EncodeStats(s.Registry.GetStats()))
	case "metrics":
		s.handleMetrics(ctx, buf)
	default:
		buf.Write(response.EncodeError(bittorrent.BadAction))
	}
}

// handleAnnounce validates the mandatory parameters from §6, derives the
// BEP 0007 endpoint(s), consults the collaborator, and hands the engine a
// fully-formed Announce. Any failure here is a bencoded BadRequest/BadAuth/
// BadPeer, never an engine call.
func (s *Server) handleAnnounce(ctx *fasthttp.RequestCtx, passkey string, buf *bytebufferpool.ByteBuffer) {
	qp := parseQuery(ctx.QueryArgs())

	if qp.count > maxParams {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	if len(qp.infoHash) != 1 {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	infoHashRaw := qp.infoHash[0]
	if len(infoHashRaw) > 40 || len(infoHashRaw) != bittorrent.InfoHashSize {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	peerIDStr, ok := qp.get("peer_id")
	if !ok || len(peerIDStr) > 30 || len(peerIDStr) != bittorrent.PeerIDSize {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	port, ok := qp.getUint16("port")
	if !ok {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	uploaded, ok := qp.getUint64("uploaded")
	if !ok {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	downloaded, ok := qp.getUint64("downloaded")
	if !ok {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	left, ok := qp.getUint64("left")
	if !ok {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	infoHash := bittorrent.InfoHashFromBytes(infoHashRaw)
	peerID := bittorrent.PeerIDFromBytes([]byte(peerIDStr))

	if s.PrivateMode {
		if !s.Collaborator.ValidateTorrent(infoHash) {
			buf.Write(response.EncodeError(bittorrent.BadPeer))
			return
		}

		if !s.Collaborator.ValidatePeer(peerID) {
			buf.Write(response.EncodeError(bittorrent.BadPeer))
			return
		}
	}

	forwardedFor := string(ctx.Request.Header.Peek(s.ForwardedForHeader))

	ep, ok := deriveEndpoints(qp, forwardedFor, ctx.RemoteAddr().String(), port)
	if !ok {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	event, _ := qp.get("event")

	numwant := swarm.ClampNumwant(qp.getInt("numwant", 25), 25)

	compactStr, hasCompact := qp.get("compact")
	compact := !hasCompact || compactStr != "0"

	announce := &swarm.Announce{
		InfoHash:   infoHash,
		PeerID:     peerID,
		Passkey:    passkey,
		Uploaded:   uploaded,
		Downloaded: downloaded,
		Left:       left,
		Action:     swarm.InferAction(event, left),
		Numwant:    numwant,
		Compact:    compact,
	}

	if ep.hasV4 {
		announce.IPv4 = ep.v4
	}

	if ep.hasV6 {
		announce.IPv6 = ep.v6
	}

	if !announce.HasIPv4() && !announce.HasIPv6() {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	if s.PrivateMode {
		if err := s.Collaborator.ValidateAnnounce(announce); err != nil {
			buf.Write(response.EncodeError(bittorrent.BadRequest))
			return
		}
	}

	result := s.Registry.HandleAnnounce(announce)

	// Vary the interval we hand back by a few seconds so clients of the
	// same swarm don't all re-announce in lockstep, matching
	// server/announce.go's announceDrift.
	if s.AnnounceDrift > 0 {
		result.Interval += time.Duration(util.Rand(0, s.AnnounceDrift)) * time.Second
	}

	buf.Write(response.EncodeAnnounce(result))
}

// handleScrape accepts repeated info_hash parameters; an empty request is
// rejected exactly like the teacher's "must provide at least one
// info_hash" check.
func (s *Server) handleScrape(ctx *fasthttp.RequestCtx, buf *bytebufferpool.ByteBuffer) {
	qp := parseQuery(ctx.QueryArgs())

	if len(qp.infoHash) == 0 {
		buf.Write(response.EncodeError(bittorrent.BadRequest))
		return
	}

	hashes := make([]bittorrent.InfoHash, 0, len(qp.infoHash))

	for _, raw := range qp.infoHash {
		if len(raw) != bittorrent.InfoHashSize {
			continue
		}

		hashes = append(hashes, bittorrent.InfoHashFromBytes(raw))
	}

	buf.Write(response.EncodeScrape(s.Registry.HandleScrape(hashes)))
}

// handleMetrics always gathers the public swarm collector; the admin
// collector is appended only behind a matching Bearer token, mirroring
// server/metrics.go's two-tier gather.
func (s *Server) handleMetrics(ctx *fasthttp.RequestCtx, buf *bytebufferpool.ByteBuffer) {
	if s.NormalGatherer != nil {
		writeMetricFamilies(s.NormalGatherer, buf)
	}

	auth := string(ctx.Request.Header.Peek("Authorization"))
	if s.AdminToken == "" || !strings.HasPrefix(auth, bearerPrefix) {
		return
	}

	if auth[len(bearerPrefix):] != s.AdminToken {
		return
	}

	if s.AdminGatherer != nil {
		writeMetricFamilies(s.AdminGatherer, buf)
	}
}

func writeMetricFamilies(g prometheus.Gatherer, buf *bytebufferpool.ByteBuffer) {
	mfs, err := g.Gather()
	if err != nil {
		return
	}

	for _, mf := range mfs {
		_, _ = expfmt.MetricFamilyToText(buf, mf)
	}
}
