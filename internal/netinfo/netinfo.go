// Package netinfo discovers the host's LAN address and a listenable port.
package netinfo

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// Localhost is returned when no LAN address qualifies.
const Localhost = "localhost"

// MaxPortSearch bounds how far FindFreePort walks past its start.
const MaxPortSearch = 100

var ErrNoFreePort = errors.New("netinfo: no free port")

// Candidate is one IPv4 address bound to a named interface.
type Candidate struct {
	Interface string
	IP        net.IP
}

var skippedInterfaces = []string{
	"loopback", "virtual", "vmware", "virtualbox", "vboxnet", "vmnet", "hyper-v", "docker", "wsl",
}

var (
	wifiNames     = []string{"wifi", "wireless", "wlan", "wi-fi"}
	ethernetNames = []string{"ethernet", "lan", "local area connection"}
)

// Choose picks the address most likely reachable from a phone on the same
// network: wifi first, then ethernet, then any private range.
func Choose(candidates []Candidate) string {
	var wifi, ethernet, private []string
	for _, c := range candidates {
		name := strings.ToLower(c.Interface)
		if containsAny(name, skippedInterfaces) {
			continue
		}
		ip := c.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}
		// VirtualBox and docker-machine host-only networks.
		if ip[0] == 192 && ip[1] == 168 && (ip[2] == 56 || ip[2] == 99) {
			continue
		}
		switch {
		case containsAny(name, wifiNames):
			wifi = append(wifi, ip.String())
		case containsAny(name, ethernetNames):
			ethernet = append(ethernet, ip.String())
		case ip.IsPrivate():
			private = append(private, ip.String())
		}
	}
	for _, group := range [][]string{wifi, ethernet, private} {
		if len(group) > 0 {
			return group[0]
		}
	}
	return Localhost
}

// LocalIP inspects the host interfaces and returns Choose's pick.
func LocalIP() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return Localhost
	}
	var candidates []Candidate
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if n, ok := a.(*net.IPNet); ok {
				candidates = append(candidates, Candidate{Interface: iface.Name, IP: n.IP})
			}
		}
	}
	return Choose(candidates)
}

// PortAvailable reports whether a TCP listener can bind port on all interfaces.
func PortAvailable(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

// FindFreePort returns start if it is free, otherwise the first free port
// in (start, start+MaxPortSearch].
func FindFreePort(start int) (int, error) {
	for port := start; port <= start+MaxPortSearch && port <= 65535; port++ {
		if PortAvailable(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("%w in %d-%d", ErrNoFreePort, start, start+MaxPortSearch)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
