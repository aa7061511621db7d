// Package netctl wraps the netlink calls needed to bring an interface up
// or down and to assign or remove the AP's gateway address, in place of
// shelling out to the `ip` binary.
package netctl

import (
	"fmt"
	"strings"

	"github.com/vishvananda/netlink"
)

// AddrAdd assigns cidr (e.g. "192.168.4.1/24") to the named interface.
// An address that is already present is not an error.
func AddrAdd(iface, cidr string) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("link %s: %w", iface, err)
	}

	addr, err := netlink.ParseAddr(cidr)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", cidr, err)
	}

	if err := netlink.AddrAdd(link, addr); err != nil {
		if isExistsErr(err) {
			return nil
		}
		return fmt.Errorf("addr add %s on %s: %w", cidr, iface, err)
	}
	return nil
}

// AddrDel removes cidr from the named interface. A missing address is not
// an error.
func AddrDel(iface, cidr string) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("link %s: %w", iface, err)
	}

	addr, err := netlink.ParseAddr(cidr)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", cidr, err)
	}

	if err := netlink.AddrDel(link, addr); err != nil {
		if isMissingErr(err) {
			return nil
		}
		return fmt.Errorf("addr del %s on %s: %w", cidr, iface, err)
	}
	return nil
}

// LinkDown brings the named interface down.
func LinkDown(iface string) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("link %s: %w", iface, err)
	}
	return netlink.LinkSetDown(link)
}

// LinkUp brings the named interface up.
func LinkUp(iface string) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("link %s: %w", iface, err)
	}
	return netlink.LinkSetUp(link)
}

func isExistsErr(err error) bool {
	return strings.Contains(err.Error(), "exists")
}

func isMissingErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "cannot assign") ||
		strings.Contains(msg, "no such") ||
		strings.Contains(msg, "not found")
}
