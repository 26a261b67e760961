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

package util

import (
	"context"
	"time"
)

// ContextTick calls onTick every d until ctx is done. Used to drive the
// reaper and the private-mode flush/update timers, each on its own
// goroutine. onTick runs on the calling goroutine, so calls never overlap;
// a time.Ticker drops ticks its reader is too slow to receive, so a tick
// that fires while onTick is still running is skipped, not queued.
func ContextTick(ctx context.Context, d time.Duration, onTick func()) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			onTick()
		}
	}
}
