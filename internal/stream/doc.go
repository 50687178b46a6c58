// Package stream drains a running process's merged output into a line sink
// while the process runs, and reports how the process ended.
//
// Reading happens on a dedicated goroutine that splits the output into lines
// and hands them over a bounded channel; the caller's goroutine forwards each
// line to the sink and watches for cancellation. Draining ends once the output
// reaches EOF, which is what guarantees that output written just before the
// process exited is not lost.
package stream
