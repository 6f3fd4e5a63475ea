// Package server exposes the bridge over HTTP.
//
// Routes:
//
//	GET /api/info            controller model and firmware (?refresh=true re-reads it)
//	GET /api/zones           configured zones with their sensor state
//	GET /api/zones/violated  raw violated zone list
//	GET /healthz             executor counters; 503 until the first good poll
//	GET /ws                  WebSocket stream of ZoneEvent messages
//
// The server never talks to the controller directly. It reads the state
// cached by an integra.Client and queues a system info query only when
// asked to refresh.
//
// # Usage Example
//
//	srv := server.New(&server.Config{Listen: ":8094"}, client, zones)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
