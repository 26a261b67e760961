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

package collector

import (
	"net/netip"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"swarmd/internal/bittorrent"
	"swarmd/internal/swarm"
)

func gaugeValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}

		return mf.GetMetric()[0].GetGauge().GetValue()
	}

	t.Fatalf("metric %s not found", name)

	return 0
}

func TestSwarmCollectorReportsLiveTorrentsAndPeers(t *testing.T) {
	registry := swarm.NewRegistry(nil)

	registry.HandleAnnounce(&swarm.Announce{
		InfoHash: bittorrent.InfoHash{1},
		PeerID:   bittorrent.PeerID{1},
		IPv4:     netip.MustParseAddrPort("10.0.0.1:6881"),
		Left:     1000,
		Numwant:  25,
		Compact:  true,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewSwarmCollector(registry, nil))

	if got := gaugeValue(t, reg, "swarmd_torrents"); got != 1 {
		t.Fatalf("expected 1 torrent, got %v", got)
	}

	if got := gaugeValue(t, reg, "swarmd_peers"); got != 1 {
		t.Fatalf("expected 1 peer, got %v", got)
	}
}

type fakeQueueLenReporter struct{ n int }

func (f fakeQueueLenReporter) QueueLen() int { return f.n }

func TestOpsCollectorReportsQueueLength(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewOpsCollector(fakeQueueLenReporter{n: 7}))

	if got := gaugeValue(t, reg, "swarmd_private_queue_length"); got != 7 {
		t.Fatalf("expected queue length 7, got %v", got)
	}
}

func TestOpsCollectorWithNilSinkReportsZeroQueue(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewOpsCollector(nil))

	if got := gaugeValue(t, reg, "swarmd_private_queue_length"); got != 0 {
		t.Fatalf("expected queue length 0 with nil sink, got %v", got)
	}
}
