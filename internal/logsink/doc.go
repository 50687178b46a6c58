// Package logsink provides the destinations the batch driver's output is
// streamed into, one line at a time.
//
// A sink is created fresh for every batch. File appends timestamped lines to
// the per-iteration log, Relay forwards them to a socket.io server for live
// dashboards, and Multi fans a line out to several sinks.
package logsink
