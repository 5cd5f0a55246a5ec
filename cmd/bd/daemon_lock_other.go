//go:build !unix

package main

// acquireDaemonLock is a no-op on platforms without flock; the daemon
// still runs, it just can't detect a second concurrent instance here.
func acquireDaemonLock(path string) (func() error, error) {
	return func() error { return nil }, nil
}
