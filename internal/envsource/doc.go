// Package envsource fetches the configuration resource (env.json) the
// backend publishes its current origin into, and writes it on the
// publishing side.
package envsource
