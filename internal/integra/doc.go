// Package integra executes commands against a Satel Integra controller
// reached through an ETHM-1 (TCP) or INT-RS (serial) module.
//
// The controller accepts a single client connection at a time, so every
// command, whether a one-shot system info query or a periodic zone poll,
// goes through one FIFO queue serviced by a single executor goroutine.
// Each execution opens a fresh connection, sends one frame, reads one
// response frame, validates and decodes it, and closes the connection.
// Failed executions are retried once.
//
// Basic usage:
//
//	client := integra.New(integra.Config{
//		Dialer: integra.TCPDialer{Host: "192.168.1.10", Port: 7094},
//	})
//	go client.Run(ctx)
//
//	info, err := client.ReadInfo(ctx)
//
//	client.StartReadingZones(ctx)
//	zones, cancel := client.Subscribe()
//	defer cancel()
//	for violated := range zones {
//		...
//	}
package integra
