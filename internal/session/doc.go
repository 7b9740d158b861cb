// Package session persists the client-side session record: the backend
// origin the visitor should talk to and whether it was last seen active or
// expired.
//
// Stores hide where the record lives. CookieStore maps every key to a
// browser cookie, MemoryStore keeps it in process and LevelDBStore keeps it
// on disk so a headless poller survives restarts.
package session
