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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPFilter_IsAllowed(t *testing.T) {
	t.Parallel()

	filter := NewIPFilter([]string{
		"192.168.1.10",
		"10.0.0.0/8",
		"192.168.2.5:7598",
		"2001:db8::/32",
		"not-an-ip",
	})

	tests := []struct {
		addr string
		want bool
	}{
		{"192.168.1.10:5000", true},
		{"192.168.1.11:5000", false},
		{"10.20.30.40:80", true},
		{"192.168.2.5:1", true},
		{"[2001:db8::1]:443", true},
		{"[2001:db9::1]:443", false},
		{"[::ffff:10.1.1.1]:80", true},
		{"127.0.0.1:9000", true},
		{"[::1]:9000", true},
		{"garbage", false},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, filter.IsAllowed(tt.addr))
		})
	}
}

func TestIPFilter_EmptyAllowsAll(t *testing.T) {
	t.Parallel()

	filter := NewIPFilter(nil)
	assert.True(t, filter.Empty())
	assert.True(t, filter.IsAllowed("203.0.113.9:1234"))
	assert.True(t, filter.IsAllowed("garbage"))

	assert.True(t, NewIPFilter([]string{"bogus"}).Empty())
}

func TestHTTPIPFilterMiddleware(t *testing.T) {
	t.Parallel()

	handler := HTTPIPFilterMiddleware(NewIPFilter([]string{"192.168.1.0/24"}))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/session", http.NoBody)
	req.RemoteAddr = "192.168.1.77:40000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/session", http.NoBody)
	req.RemoteAddr = "192.168.9.77:40000"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRemoteHost(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "192.168.1.1", RemoteHost("192.168.1.1:8080"))
	assert.Equal(t, "192.168.1.1", RemoteHost("192.168.1.1"))
	assert.Equal(t, "::1", RemoteHost("[::1]:8080"))
	assert.Equal(t, "10.0.0.1", RemoteHost("[::ffff:10.0.0.1]:8080"))
	assert.Equal(t, "bad", RemoteHost("bad"))
}

func TestIsLoopbackAddr(t *testing.T) {
	t.Parallel()

	assert.True(t, IsLoopbackAddr("127.0.0.1:1"))
	assert.True(t, IsLoopbackAddr("[::1]:1"))
	assert.False(t, IsLoopbackAddr("192.168.1.1:1"))
	assert.False(t, IsLoopbackAddr(""))
}
