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
	"testing"
	"time"
)

func TestSnapshotClampsDivisorToOneSecond(t *testing.T) {
	g := NewGlobalStats()
	g.IncAnnounces()
	g.IncAnnounces()

	snap := g.Snapshot()
	if snap.AnnounceRate != 2 {
		t.Fatalf("expected an announce_rate of 2 immediately after start (divisor clamped to 1s), got %f",
			snap.AnnounceRate)
	}
}

func TestResetZeroesCountersAndRollsClearTimeForward(t *testing.T) {
	g := NewGlobalStats()
	g.IncAnnounces()
	g.IncScrapes()

	time.Sleep(5 * time.Millisecond)
	g.Reset()

	snap := g.Snapshot()
	if snap.AnnounceRate != 0 || snap.ScrapeRate != 0 {
		t.Fatalf("expected zeroed rates right after Reset, got %+v", snap)
	}
}

func TestSetPeersOverwritesRatherThanAccumulates(t *testing.T) {
	g := NewGlobalStats()
	g.AddPeers(10)
	g.SetPeers(3)

	if g.Snapshot().Peers != 3 {
		t.Fatalf("expected SetPeers to overwrite the running total, got %d", g.Snapshot().Peers)
	}
}

func TestDecTorrentsWithZeroIsNoOp(t *testing.T) {
	g := NewGlobalStats()
	g.IncTorrents()
	g.DecTorrents(0)

	if g.Snapshot().Torrents != 1 {
		t.Fatalf("expected torrents to remain 1, got %d", g.Snapshot().Torrents)
	}
}
