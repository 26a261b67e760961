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

package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus"

	"swarmd/internal/collector"
	"swarmd/internal/config"
	"swarmd/internal/log"
	"swarmd/internal/private"
	"swarmd/internal/server"
	"swarmd/internal/swarm"
	"swarmd/internal/util"
)

var help bool

// provided at compile-time
var (
	BuildDate    = "0000-00-00T00:00:00+0000"
	BuildVersion = "development"
)

func init() {
	flag.BoolVar(&help, "h", false, "Shows this help dialog")
}

func main() {
	fmt.Printf("swarmd, ver=%s date=%s runtime=%s\n\n", BuildVersion, BuildDate, runtime.Version())

	flag.Parse()

	if help {
		fmt.Printf("Usage of %s:\n", os.Args[0])
		flag.PrintDefaults()

		return
	}

	runtime.GOMAXPROCS(runtime.NumCPU())

	trackerCfg := config.Section("tracker")
	privateCfg := config.Section("private")
	httpCfg := config.Section("http")

	reapInterval := secondsOr(trackerCfg, "reap_interval", 120)
	announceInterval := secondsOr(trackerCfg, "announce_interval", 1800)
	minAnnounceInterval := secondsOr(trackerCfg, "min_announce_interval", 900)
	torrentIdleLimit := secondsOr(trackerCfg, "min_torrent_update_interval", 2000)
	peerIdleLimit := secondsOr(trackerCfg, "min_peer_update_interval", 2000)

	privateMode, _ := config.GetBool("private_mode", false)

	var collab swarm.Collaborator = private.Permissive{}

	var sink *private.MySQLSink

	if privateMode {
		dsn, _ := privateCfg.Get("dsn", "")

		db, err := sql.Open("mysql", dsn)
		if err != nil {
			log.Fatal.Fatalf("failed to open private-mode database: %s", err)
		}

		flushBufferSize, _ := privateCfg.GetInt("flush_buffer_size", 4096)

		sink = private.NewMySQLSink(db, flushBufferSize)
		sink.Update()

		collab = sink
	}

	registry := swarm.NewRegistry(collab)
	registry.AnnounceInterval = announceInterval
	registry.MinAnnounceInterval = minAnnounceInterval

	srv := server.New(registry, collab, privateMode)

	if header, exists := httpCfg.Get("forwarded_for_header", ""); exists && header != "" {
		srv.ForwardedForHeader = header
	}

	if token, exists := httpCfg.Get("admin_token", ""); exists {
		srv.AdminToken = token
	}

	swarmCollector := collector.NewSwarmCollector(registry, srv)

	normalRegisterer := prometheus.NewRegistry()
	normalRegisterer.MustRegister(swarmCollector)
	srv.NormalGatherer = normalRegisterer

	var opsCollector *collector.OpsCollector

	if privateMode {
		opsCollector = collector.NewOpsCollector(sink)

		adminRegisterer := prometheus.NewRegistry()
		adminRegisterer.MustRegister(swarmCollector)
		adminRegisterer.MustRegister(opsCollector)
		srv.AdminGatherer = adminRegisterer
	}

	ctx, cancel := context.WithCancel(context.Background())

	go util.ContextTick(ctx, reapInterval, func() {
		start := time.Now()

		if err := registry.Reap(torrentIdleLimit, peerIdleLimit); err != nil {
			log.Error.Printf("reap failed: %s", err)
		}

		if opsCollector != nil {
			opsCollector.ObserveReap(time.Since(start).Seconds())
		}
	})

	if privateMode {
		flushInterval := secondsOr(privateCfg, "flush_interval", 5)
		updateInterval := secondsOr(privateCfg, "update_interval", 900)

		go util.ContextTick(ctx, flushInterval, func() {
			start := time.Now()
			sink.Flush()
			opsCollector.ObserveFlush(time.Since(start).Seconds())
		})

		go util.ContextTick(ctx, updateInterval, sink.Update)
	}

	addr, _ := httpCfg.Get("listen_addr", "127.0.0.1:8000")

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		<-c

		log.Info.Println("caught interrupt, shutting down...")

		cancel()

		if err := srv.Shutdown(); err != nil {
			log.Error.Printf("shutdown: %s", err)
		}
	}()

	if err := srv.ListenAndServe(addr); err != nil {
		log.Fatal.Fatalf("listen: %s", err)
	}
}

// secondsOr reads an integer-seconds config key from m, falling back to
// defaultSeconds when absent, and returns it as a time.Duration.
func secondsOr(m config.ConfigMap, key string, defaultSeconds int) time.Duration {
	n, _ := m.GetInt(key, defaultSeconds)

	return time.Duration(n) * time.Second
}
