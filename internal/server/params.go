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
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
)

// queryParams is a flattened view of a request's query string: every key
// except "info_hash" collapses to its last value (mirroring
// net/url.Values semantics the old handler relied on), while info_hash
// is kept as an ordered slice since scrape allows repeats. count is the
// number of key=value pairs actually seen, used for the §6 "more than 10
// parameters" rejection.
type queryParams struct {
	values   map[string]string
	infoHash [][]byte
	count    int
}

// parseQuery copies every key/value pair out of a fasthttp query args
// table. fasthttp already percent-decodes values while parsing them, but
// its backing buffers are reused across requests, so everything that
// escapes this function is copied.
func parseQuery(args *fasthttp.Args) *queryParams {
	qp := &queryParams{values: make(map[string]string, args.Len())}

	args.VisitAll(func(key, value []byte) {
		qp.count++

		if string(key) == "info_hash" {
			cp := make([]byte, len(value))
			copy(cp, value)
			qp.infoHash = append(qp.infoHash, cp)

			return
		}

		qp.values[strings.ToLower(string(key))] = string(value)
	})

	return qp
}

func (qp *queryParams) get(key string) (string, bool) {
	v, ok := qp.values[key]
	return v, ok
}

func (qp *queryParams) getUint(key string, bitSize int) (uint64, bool) {
	str, ok := qp.values[key]
	if !ok {
		return 0, false
	}

	v, err := strconv.ParseUint(str, 10, bitSize)
	if err != nil {
		return 0, false
	}

	return v, true
}

func (qp *queryParams) getUint64(key string) (uint64, bool) {
	return qp.getUint(key, 64)
}

func (qp *queryParams) getUint16(key string) (uint16, bool) {
	v, ok := qp.getUint(key, 16)
	return uint16(v), ok
}

func (qp *queryParams) getInt(key string, defaultValue int) int {
	v, ok := qp.getUint(key, 32)
	if !ok {
		return defaultValue
	}

	return int(v)
}
