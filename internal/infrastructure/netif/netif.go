// Package netif reports the state of the scanner's network link by
// inspecting the host's interfaces.
package netif

import (
	"net"
)

// NoAddress is reported when the link has no IPv4 address.
const NoAddress = "0.0.0.0"

// Monitor inspects one network interface, or the first usable one.
type Monitor struct {
	name string

	// Seams for tests.
	interfaces func() ([]net.Interface, error)
	addrs      func(iface net.Interface) ([]net.Addr, error)
}

// New creates a Monitor for the named interface. An empty name selects the
// first interface that is up, not loopback and has an IPv4 address.
func New(name string) *Monitor {
	return &Monitor{
		name:       name,
		interfaces: net.Interfaces,
		addrs:      func(iface net.Interface) ([]net.Addr, error) { return iface.Addrs() },
	}
}

// IsLinkUp reports whether the interface is up and holds an IPv4 address.
func (m *Monitor) IsLinkUp() bool {
	_, ok := m.lookup()
	return ok
}

// LocalAddress returns the interface's IPv4 address, or NoAddress.
func (m *Monitor) LocalAddress() string {
	if ip, ok := m.lookup(); ok {
		return ip.String()
	}
	return NoAddress
}

// lookup finds the monitored interface's IPv4 address.
func (m *Monitor) lookup() (net.IP, bool) {
	ifaces, err := m.interfaces()
	if err != nil {
		return nil, false
	}

	for _, iface := range ifaces {
		if m.name != "" && iface.Name != m.name {
			continue
		}
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		if m.name == "" && iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if ip := m.ipv4(iface); ip != nil {
			return ip, true
		}
	}
	return nil, false
}

func (m *Monitor) ipv4(iface net.Interface) net.IP {
	addrs, err := m.addrs(iface)
	if err != nil {
		return nil
	}
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
	}
	return nil
}
