package network

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/jackpal/gateway"
	"github.com/mdp/qrterminal/v3"
)

// LocalIP finds the IPv4 address of the interface that reaches the default gateway.
func LocalIP() (net.IP, error) {
	gw, err := gateway.DiscoverGateway()
	if err != nil {
		return nil, fmt.Errorf("failed to discover gateway: %w", err)
	}

	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		if ip := addressFacing(gw, addrs); ip != nil {
			return ip, nil
		}
	}

	return nil, fmt.Errorf("no local IPv4 address in the subnet of gateway %v", gw)
}

func addressFacing(gw net.IP, addrs []net.Addr) net.IP {
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		ip := ipnet.IP.To4()
		if ip == nil || ip.IsLoopback() || !ip.IsGlobalUnicast() {
			continue
		}

		if ipnet.Contains(gw) {
			return ip
		}
	}

	return nil
}

// ShareURL turns a listen address into the URL other machines should open.
// Wildcard and empty hosts are replaced with ip.
func ShareURL(listen string, ip net.IP) (string, error) {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "", err
	}

	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", fmt.Errorf("invalid port %q", port)
	}

	if parsed := net.ParseIP(host); host == "" || (parsed != nil && parsed.IsUnspecified()) {
		host = "127.0.0.1"
		if ip != nil {
			host = ip.String()
		}
	}

	return "http://" + net.JoinHostPort(host, port), nil
}

// glyphs for HalfBlocks mode
const (
	blackWhite = "▄"
	blackBlack = " "
	whiteBlack = "▀"
	whiteWhite = "█"
)

func PrintQR(w io.Writer, url string) {
	qrterminal.GenerateWithConfig(url, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         w,
		HalfBlocks:     true,
		BlackChar:      blackBlack,
		WhiteBlackChar: whiteBlack,
		WhiteChar:      whiteWhite,
		BlackWhiteChar: blackWhite,
		QuietZone:      1,
	})
}
