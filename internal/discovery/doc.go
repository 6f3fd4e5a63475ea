// Package discovery announces integra-bridge instances over mDNS and finds
// them on the local network.
//
// A running bridge registers the "_integra-bridge._tcp" service pointing
// at its HTTP API, with TXT records carrying the controller model,
// firmware version and address. The scanner browses for that service.
//
// # Usage Example
//
//	bridges, err := discovery.NewScanner().Scan(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, b := range bridges {
//	    fmt.Println(b.String(), b.BaseURL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Bridges must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
