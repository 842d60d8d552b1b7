// Package proxy is the forward proxy engine that carries client traffic to
// upstream APIs and gives request hooks a chance to rewrite headers first.
//
// # Architecture
//
//   - Server: HTTP listener with lifecycle management
//   - Options: runtime-tunable settings (allow-list, idle timeout)
//   - Shutdown: process-wide shutdown flag
//   - Flow: one intercepted request as seen by a RequestHook
//   - Middleware: request ID, logging and panic recovery
//
// # Request Flow
//
// Clients configure the gateway as their HTTP proxy and send absolute-form
// requests ("GET http://api.example.com/v1/models HTTP/1.1"). For each request
// the server:
//
//  1. Rejects CONNECT (405) and origin-form requests (400)
//  2. Builds a Flow with the destination host
//  3. Runs every RequestHook when Options.Intercepts(host) is true
//  4. Forwards the request upstream with httputil.ReverseProxy, streaming
//     the response back
//
// # Allow-list
//
// Options.SetAllowHosts narrows interception. An empty list intercepts every
// host; a non-empty list intercepts only the listed hosts and passes all
// other traffic through untouched.
//
// # Basic Usage
//
//	opts := proxy.NewOptions()
//	shutdown := proxy.NewShutdown()
//	srv := proxy.NewServer(&cfg.Proxy, opts, shutdown,
//	    proxy.WithHooks(hook),
//	    proxy.WithLogger(logger),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
package proxy
