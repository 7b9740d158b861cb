// Package poller decides whether the backend a visitor's session points at
// is reachable, keeps the session record fresh and tells the caller where to
// send the visitor next.
//
// A run moves through these states:
//
//	NoURL   --refresh--> (delay) --> Expired | Probing
//	Expired --refresh--> (delay) --> Probing
//	Probing --ok-------> Active                        (terminal, go to root)
//	Probing --failed---> Expired                       (session marked expired)
//	any     --ceiling--> GaveUp                        (terminal, go to server-down)
//	any     --config---> Unknown                       (terminal, go to unknown)
//
// The retry counter lives in the run and starts at zero every time Run is
// called. The session record lives in the Store handed to Run, so one Poller
// can serve many visitors at once.
package poller
