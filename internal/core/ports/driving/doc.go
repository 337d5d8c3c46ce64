// Package driving defines interfaces that external actors (HTTP, MCP, CLI) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// Every method that acts for a caller takes the caller's evaluated
// domain.Capabilities; services never re-derive roles themselves.
//
// Implementations of these interfaces live in internal/core/services.
package driving
