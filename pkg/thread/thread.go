// Package thread runs functions on the main OS thread.
// Windowing and GL contexts have to stay on the thread that created them,
// and macOS requires that to be the main one.
// See: https://github.com/golang/go/wiki/LockOSThread
package thread

import "github.com/faiface/mainthread"

// Main serves the main thread while f runs in its own goroutine.
// It returns when f returns and has to be called from main.
func Main(f func()) { mainthread.Run(f) }

// Call runs f on the main thread and blocks until it finishes.
func Call(f func()) { mainthread.Call(f) }

// CallErr is Call for functions that fail.
func CallErr(f func() error) error { return mainthread.CallErr(f) }
