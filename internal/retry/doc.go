// Package retry holds the delay and ceiling policies the availability
// poller waits by between attempts.
package retry
