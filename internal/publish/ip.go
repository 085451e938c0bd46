package publish

import "net"

const fallbackIP = "127.0.0.1"

// LocalIP returns the address of the interface used for outbound traffic.
// The UDP dial sends nothing; it only makes the kernel pick a route.
func LocalIP() string {
	conn, err := net.Dial("udp", "10.254.254.254:1")
	if err != nil {
		return fallbackIP
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP == nil {
		return fallbackIP
	}
	return addr.IP.String()
}
