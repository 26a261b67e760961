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
	"testing"

	"github.com/valyala/fasthttp"
)

func argsFrom(query string) *fasthttp.Args {
	args := &fasthttp.Args{}
	args.Parse(query)

	return args
}

func TestParseQueryLowercasesKeysExceptInfoHash(t *testing.T) {
	qp := parseQuery(argsFrom("Port=6881&Uploaded=0"))

	if _, ok := qp.get("port"); !ok {
		t.Fatalf("expected lowercased key 'port' to be present")
	}
}

func TestParseQueryKeepsRepeatedInfoHashInOrder(t *testing.T) {
	qp := parseQuery(argsFrom("info_hash=AAAAAAAAAAAAAAAAAAAA&info_hash=BBBBBBBBBBBBBBBBBBBB"))

	if len(qp.infoHash) != 2 {
		t.Fatalf("expected 2 info_hash values, got %d", len(qp.infoHash))
	}

	if string(qp.infoHash[0]) != "AAAAAAAAAAAAAAAAAAAA" {
		t.Fatalf("expected first info_hash preserved, got %q", qp.infoHash[0])
	}
}

func TestParseQueryCountsEveryPair(t *testing.T) {
	qp := parseQuery(argsFrom("a=1&b=2&c=3"))

	if qp.count != 3 {
		t.Fatalf("expected count 3, got %d", qp.count)
	}
}

func TestGetUint16RejectsUnparseableValue(t *testing.T) {
	qp := parseQuery(argsFrom("port=notanumber"))

	if _, ok := qp.getUint16("port"); ok {
		t.Fatalf("expected unparseable port to be rejected")
	}
}

func TestGetIntFallsBackToDefault(t *testing.T) {
	qp := parseQuery(argsFrom("a=1"))

	if got := qp.getInt("numwant", 25); got != 25 {
		t.Fatalf("expected default 25, got %d", got)
	}
}
