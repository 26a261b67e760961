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
	"github.com/valyala/bytebufferpool"
)

// BufferPool hands out reusable response buffers for the request path.
// Backed by bytebufferpool, which already does the size-class bucketing
// a hand-rolled sync.Pool wrapper would otherwise have to reinvent.
type BufferPool struct {
	pool bytebufferpool.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

func (p *BufferPool) Take() *bytebufferpool.ByteBuffer {
	buf := p.pool.Get()
	buf.Reset()

	return buf
}

func (p *BufferPool) Give(buf *bytebufferpool.ByteBuffer) {
	p.pool.Put(buf)
}
