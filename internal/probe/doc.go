// Package probe checks whether the session URL answers. A probe is a single
// lightweight GET carrying the tunnel's browser-warning bypass header; it
// never reads the body.
package probe
