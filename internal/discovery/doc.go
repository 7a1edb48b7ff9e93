// Package discovery finds modbusdash gateways on the local network using
// multicast DNS.
//
// Gateways advertise a "_http._tcp" service. Because that service type is
// shared with every printer and NAS on the LAN, only entries that mention
// "modbus" in their instance name or hostname, or carry a "modbus" TXT key,
// are reported.
//
//	gateways, err := discovery.ScanForGateways(ctx, 5*time.Second)
//	for _, gw := range gateways {
//	    fmt.Println(gw.Instance, gw.BaseURL())
//	}
//
// Discovery needs multicast on the local segment and UDP port 5353 open.
package discovery
