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
	"sync/atomic"
	"time"
)

// GlobalStats is the registry-wide counter block. announces and scrapes
// are reset by Reset(); torrents and peers are running totals kept in
// lockstep with the registry's map mutations. On reap, torrents is
// decremented by the number of torrents dropped, while peers is
// authoritatively rebuilt rather than decremented incrementally.
type GlobalStats struct {
	announces atomic.Int64
	scrapes   atomic.Int64
	torrents  atomic.Int64
	peers     atomic.Int64

	startTime time.Time
	clearTime atomic.Int64 // unix nanos, read/written atomically so get_stats never locks
}

// NewGlobalStats initializes a stats block with start_time and clear_time
// set to now.
func NewGlobalStats() *GlobalStats {
	g := &GlobalStats{startTime: time.Now()}
	g.clearTime.Store(g.startTime.UnixNano())

	return g
}

func (g *GlobalStats) IncAnnounces() { g.announces.Add(1) }
func (g *GlobalStats) IncScrapes()   { g.scrapes.Add(1) }

func (g *GlobalStats) IncTorrents() { g.torrents.Add(1) }
func (g *GlobalStats) DecTorrents(n int64) {
	if n != 0 {
		g.torrents.Add(-n)
	}
}

func (g *GlobalStats) AddPeers(n int64) {
	if n != 0 {
		g.peers.Add(n)
	}
}

// SetPeers overwrites the running peer total, used by the reap pass's
// authoritative rebuild (§4.3 step 2).
func (g *GlobalStats) SetPeers(n int64) { g.peers.Store(n) }

// Reset zeroes the announce/scrape counters and rolls clear_time forward,
// the third step of a reap pass.
func (g *GlobalStats) Reset() {
	g.announces.Store(0)
	g.scrapes.Store(0)
	g.clearTime.Store(time.Now().UnixNano())
}

// Snapshot is the read-only view returned by Registry.GetStats.
type Snapshot struct {
	AnnounceRate float64
	ScrapeRate   float64
	Torrents     int64
	Peers        int64
	Uptime       time.Duration
}

// Snapshot computes rates against the elapsed time since the last Reset,
// clamping the divisor to at least one second so a reap that just fired
// can't produce a division by zero or an absurd spike.
func (g *GlobalStats) Snapshot() Snapshot {
	now := time.Now()
	clearTime := time.Unix(0, g.clearTime.Load())

	elapsed := now.Sub(clearTime).Seconds()
	if elapsed < 1 {
		elapsed = 1
	}

	return Snapshot{
		AnnounceRate: float64(g.announces.Load()) / elapsed,
		ScrapeRate:   float64(g.scrapes.Load()) / elapsed,
		Torrents:     g.torrents.Load(),
		Peers:        g.peers.Load(),
		Uptime:       now.Sub(g.startTime),
	}
}
