// Package e2e holds end-to-end tests that drive a fully wired server over
// HTTP and watch its broadcast feed.
package e2e
