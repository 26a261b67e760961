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

import "context"

// Semaphore is a 1-slot mutual-exclusion gate that supports context-aware
// acquisition, unlike sync.Mutex.
type Semaphore chan struct{}

func NewSemaphore() (s Semaphore) {
	s = make(Semaphore, 1)
	s <- struct{}{}

	return
}

func TakeSemaphore(s Semaphore) {
	<-s
}

func TryTakeSemaphore(ctx context.Context, s Semaphore) bool {
	select {
	case <-s:
		return true
	case <-ctx.Done():
		return false
	}
}

func ReturnSemaphore(s Semaphore) {
	select {
	case s <- struct{}{}:
		return
	default:
		panic("attempted to return a semaphore to an already full channel")
	}
}
