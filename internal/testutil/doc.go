// Package testutil holds helpers shared by package tests: a concurrency-safe
// log buffer, a logger-carrying context, and builders for workspace trees and
// fake batch drivers on disk.
package testutil
