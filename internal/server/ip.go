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
	"net/netip"
	"strings"
)

// endpoints is the pair of (possibly absent) addresses derived from an
// announce per BEP 0007.
type endpoints struct {
	v4    netip.AddrPort
	hasV4 bool
	v6    netip.AddrPort
	hasV6 bool
}

// deriveEndpoints implements §6's IP derivation priority: explicit "ip"
// parameter, then X-Forwarded-For, then the request's remote address.
// Whichever family the primary address belongs to, the opposite family's
// explicit parameter ("ipv4" or "ipv6") is additionally accepted to
// attach a second, dual-stack endpoint.
func deriveEndpoints(qp *queryParams, forwardedFor string, remoteAddr string, port uint16) (endpoints, bool) {
	primary, ok := resolvePrimary(qp, forwardedFor, remoteAddr)
	if !ok {
		return endpoints{}, false
	}

	var out endpoints

	if primary.Is4() || primary.Is4In6() {
		out.v4 = netip.AddrPortFrom(primary.Unmap(), port)
		out.hasV4 = true

		if raw, exists := qp.get("ipv6"); exists {
			if addr, err := netip.ParseAddr(raw); err == nil && addr.Is6() && !addr.Is4In6() {
				out.v6 = netip.AddrPortFrom(addr, port)
				out.hasV6 = true
			}
		}
	} else {
		out.v6 = netip.AddrPortFrom(primary, port)
		out.hasV6 = true

		if raw, exists := qp.get("ipv4"); exists {
			if addr, err := netip.ParseAddr(raw); err == nil && (addr.Is4() || addr.Is4In6()) {
				out.v4 = netip.AddrPortFrom(addr.Unmap(), port)
				out.hasV4 = true
			}
		}
	}

	return out, true
}

// resolvePrimary walks the §6 priority chain. An explicit "ip" parameter
// is trusted outright — unlike the teacher's getPublicIPV4, which
// silently discards private/link-local values and falls through, this
// repository has no NAT-detection policy of its own to enforce, so a
// parseable address is accepted whatever range it falls in.
func resolvePrimary(qp *queryParams, forwardedFor string, remoteAddr string) (netip.Addr, bool) {
	if raw, exists := qp.get("ip"); exists {
		if addr, err := netip.ParseAddr(raw); err == nil {
			return addr, true
		}
	}

	if forwardedFor != "" {
		first := forwardedFor
		if i := strings.IndexByte(first, ','); i >= 0 {
			first = first[:i]
		}

		first = strings.TrimSpace(first)

		if addr, err := netip.ParseAddr(first); err == nil {
			return addr, true
		}
	}

	if remoteAddr != "" {
		host := remoteAddr
		if i := strings.LastIndexByte(remoteAddr, ':'); i >= 0 {
			host = remoteAddr[:i]
		}

		host = strings.Trim(host, "[]")

		if addr, err := netip.ParseAddr(host); err == nil {
			return addr, true
		}
	}

	return netip.Addr{}, false
}
