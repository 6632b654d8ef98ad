// Zaparoo Label
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Zaparoo Label.
//
// Zaparoo Label is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Zaparoo Label is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Zaparoo Label.  If not, see <http://www.gnu.org/licenses/>.

package middleware

import (
	"net"
	"net/http"
	"net/netip"

	"github.com/rs/zerolog/log"
)

// ParseRemoteAddr extracts the client address from a RemoteAddr with or
// without a port. IPv4-mapped IPv6 addresses are unmapped.
func ParseRemoteAddr(remoteAddr string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// RemoteHost is the client address as a string, or the raw RemoteAddr when
// it cannot be parsed.
func RemoteHost(remoteAddr string) string {
	if addr, ok := ParseRemoteAddr(remoteAddr); ok {
		return addr.String()
	}
	return remoteAddr
}

func IsLoopbackAddr(remoteAddr string) bool {
	addr, ok := ParseRemoteAddr(remoteAddr)
	return ok && addr.IsLoopback()
}

// IPFilter allows requests from a list of addresses and CIDR ranges.
// Loopback is always allowed so the local CLI keeps working.
type IPFilter struct {
	prefixes []netip.Prefix
}

func NewIPFilter(allowed []string) *IPFilter {
	filter := &IPFilter{}
	for _, entry := range allowed {
		// users paste addresses with ports
		if host, _, err := net.SplitHostPort(entry); err == nil {
			entry = host
		}

		if prefix, err := netip.ParsePrefix(entry); err == nil {
			filter.prefixes = append(filter.prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			filter.prefixes = append(filter.prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}

		log.Warn().Str("ip", entry).Msg("invalid IP or CIDR in allowed_ips, skipping")
	}
	return filter
}

func (f *IPFilter) Empty() bool {
	return len(f.prefixes) == 0
}

func (f *IPFilter) IsAllowed(remoteAddr string) bool {
	if f.Empty() {
		return true
	}

	addr, ok := ParseRemoteAddr(remoteAddr)
	if !ok {
		log.Warn().Str("addr", remoteAddr).Msg("failed to parse IP address")
		return false
	}
	if addr.IsLoopback() {
		return true
	}
	for _, prefix := range f.prefixes {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func HTTPIPFilterMiddleware(filter *IPFilter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !filter.IsAllowed(r.RemoteAddr) {
				log.Debug().
					Str("ip", RemoteHost(r.RemoteAddr)).
					Str("path", r.URL.Path).
					Str("method", r.Method).
					Msg("request from blocked IP")

				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
