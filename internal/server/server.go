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

// Package server is the HTTP collaborator described in §6: it owns query
// parsing, BEP 0007 IP derivation, passkey gating and bencode framing, and
// talks to the engine only through swarm.Registry's public methods. It
// never holds a torrent or peer reference past a single request.
package server

import (
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"

	"swarmd/internal/log"
	"swarmd/internal/swarm"
	"swarmd/internal/util"
)

// Server is the fasthttp-backed HTTP collaborator. Its lifecycle mirrors
// the teacher's httpHandler: a waitGroup tracks in-flight requests so
// Shutdown can drain them instead of cutting them off mid-response.
type Server struct {
	Registry     *swarm.Registry
	Collaborator swarm.Collaborator
	PrivateMode  bool

	AdminToken          string
	ForwardedForHeader  string
	AnnounceDrift       int
	NormalGatherer      prometheus.Gatherer
	AdminGatherer       prometheus.Gatherer

	bufferPool *util.BufferPool
	startTime  time.Time
	requests   atomic.Uint64

	waitGroup sync.WaitGroup
	terminate atomic.Bool

	fasthttp *fasthttp.Server
	listener net.Listener
}

// New builds a Server ready for ListenAndServe. collab may be nil only
// when privateMode is false; Permissive should be passed explicitly
// otherwise, per §9's "engine compiles without conditional code paths".
func New(registry *swarm.Registry, collab swarm.Collaborator, privateMode bool) *Server {
	s := &Server{
		Registry:           registry,
		Collaborator:       collab,
		PrivateMode:        privateMode,
		ForwardedForHeader: "X-Forwarded-For",
		bufferPool:         util.NewBufferPool(),
		startTime:          time.Now(),
	}

	s.fasthttp = &fasthttp.Server{
		Handler:     s.serveHTTP,
		ReadTimeout: 20 * time.Second,
	}

	return s
}

// serveHTTP is the single fasthttp.RequestHandler: recover a panicking
// handler (a misbehaving private-mode hook, say) so it never takes the
// listener down, then always answer 200 with a bencoded (or, for stats
// and metrics, plain-text) body, per §6's BitTorrent-convention status
// code.
func (s *Server) serveHTTP(ctx *fasthttp.RequestCtx) {
	if s.terminate.Load() {
		return
	}

	s.waitGroup.Add(1)
	defer s.waitGroup.Done()

	defer func() {
		if r := recover(); r != nil {
			log.Error.Printf("panic handling %s: %v", ctx.Path(), r)
			log.WriteStack()
		}
	}()

	buf := s.bufferPool.Take()
	defer s.bufferPool.Give(buf)

	s.respond(ctx, buf)

	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.Response.Header.Set("Content-Type", "text/plain")
	ctx.Response.Header.Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = ctx.Write(buf.B)

	s.requests.Add(1)
}

// ListenAndServe binds addr and blocks until Shutdown closes the
// listener, then waits for in-flight requests to finish before
// returning — the same two-phase stop as the teacher's Start/Stop pair.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.listener = ln

	log.Info.Printf("accepting connections on %s", addr)

	err = s.fasthttp.Serve(ln)

	s.waitGroup.Wait()

	log.Info.Println("drained in-flight requests, shutdown complete")

	return err
}

// Shutdown stops accepting new connections; ListenAndServe's call to
// Serve returns once the listener is closed, and the waitGroup drain
// happens there.
func (s *Server) Shutdown() error {
	s.terminate.Store(true)

	if s.listener != nil {
		return s.listener.Close()
	}

	return nil
}

// Requests returns the lifetime request counter, exposed by the swarm
// collector.
func (s *Server) Requests() uint64 {
	return s.requests.Load()
}

// Uptime is the duration since the server started serving.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}
