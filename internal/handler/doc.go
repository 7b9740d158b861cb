// Package handler exposes the availability poller over HTTP.
//
// Gate wraps the static site: HTML pages are only served to visitors whose
// session cookies name a backend in the active state; everybody else is
// sent to the hamster page with a caller cookie remembering where they were
// going. Hamster runs the poller against the visitor's cookies and answers
// with the redirect the poll produced.
package handler
