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

// Package discovery advertises the print station API over mDNS so the
// companion app can find it without typing an address.
package discovery

import (
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ZaparooProject/zaparoo-label/pkg/config"
	"github.com/grandcat/zeroconf"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ServiceType is the DNS-SD service type of the label station API.
const ServiceType = "_zaparoo-label._tcp"

// RetryInterval is how often registration is retried while no network is
// available.
const RetryInterval = 30 * time.Second

var virtualInterfacePrefixes = []string{
	"docker", "br-", "veth", "virbr", "lxc", "lxd",
	"cni", "flannel", "cali", "tunl", "wg",
}

type shutdowner interface {
	Shutdown()
}

type registerFunc func(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (shutdowner, error)

func zeroconfRegister(
	instance, service, domain string,
	port int,
	text []string,
	ifaces []net.Interface,
) (shutdowner, error) {
	server, err := zeroconf.Register(instance, service, domain, port, text, ifaces)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	return server, nil
}

// filterInterfaces keeps interfaces that are up, multicast capable and
// neither loopback nor virtual.
func filterInterfaces(ifaces []net.Interface) []net.Interface {
	var preferred []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagMulticast == 0 ||
			isVirtualInterface(iface.Name) {
			continue
		}
		preferred = append(preferred, iface)
	}
	return preferred
}

func isVirtualInterface(name string) bool {
	lowerName := strings.ToLower(name)
	for _, prefix := range virtualInterfacePrefixes {
		if strings.HasPrefix(lowerName, prefix) {
			return true
		}
	}
	return false
}

// Advertiser publishes the API while Run is active.
type Advertiser struct {
	cfg        *config.Instance
	clock      clockwork.Clock
	register   registerFunc
	interfaces func() ([]net.Interface, error)
	hostname   func() (string, error)
	printer    func() string
}

// New returns an advertiser for cfg. printer reports the current printer
// for the TXT record and may be nil.
func New(cfg *config.Instance, printer func() string) *Advertiser {
	return &Advertiser{
		cfg:        cfg,
		clock:      clockwork.NewRealClock(),
		register:   zeroconfRegister,
		interfaces: net.Interfaces,
		hostname:   os.Hostname,
		printer:    printer,
	}
}

// InstanceName is the advertised name: the configured one, else the
// hostname, else a name derived from the device ID.
func (a *Advertiser) InstanceName() string {
	if name := a.cfg.DiscoveryInstanceName(); name != "" {
		return name
	}
	hostname, err := a.hostname()
	if err == nil && hostname != "" {
		return hostname
	}
	log.Warn().Err(err).Msg("failed to get hostname, using fallback")
	if id := a.cfg.DeviceID(); len(id) >= 8 {
		return "zaparoo-label-" + id[:8]
	}
	return config.AppName
}

func (a *Advertiser) txtRecords() []string {
	records := []string{
		"id=" + a.cfg.DeviceID(),
		"version=" + config.AppVersion,
	}
	if a.printer != nil {
		if p := a.printer(); p != "" {
			records = append(records, "printer="+p)
		}
	}
	return records
}

func (a *Advertiser) tryRegister(instance string) (shutdowner, bool) {
	all, err := a.interfaces()
	if err != nil {
		log.Debug().Err(err).Msg("failed to list network interfaces")
		return nil, false
	}
	ifaces := filterInterfaces(all)
	if len(ifaces) == 0 {
		log.Debug().Msg("no suitable network interfaces found for mDNS")
		return nil, false
	}

	server, err := a.register(instance, ServiceType, "local.", a.cfg.APIPort(), a.txtRecords(), ifaces)
	if err != nil {
		log.Debug().Err(err).Msg("mDNS registration attempt failed")
		return nil, false
	}

	names := make([]string, len(ifaces))
	for i, iface := range ifaces {
		names[i] = iface.Name
	}
	log.Info().
		Str("instance", instance).
		Int("port", a.cfg.APIPort()).
		Strs("interfaces", names).
		Msg("mDNS service advertising started")
	return server, true
}

// Run advertises the API until ctx is done, retrying registration every
// RetryInterval while the network is unavailable. Goodbye packets are
// sent on return.
func (a *Advertiser) Run(ctx context.Context) error {
	if !a.cfg.DiscoveryEnabled() {
		log.Info().Msg("mDNS discovery disabled by configuration")
		return nil
	}

	instance := a.InstanceName()
	server, ok := a.tryRegister(instance)
	if !ok {
		log.Info().Dur("retryInterval", RetryInterval).
			Msg("mDNS registration failed, retrying in background")
		ticker := a.clock.NewTicker(RetryInterval)
		for !ok {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return nil
			case <-ticker.Chan():
				server, ok = a.tryRegister(instance)
			}
		}
		ticker.Stop()
	}

	<-ctx.Done()
	log.Debug().Msg("stopping mDNS service advertising")
	server.Shutdown()
	return nil
}
