// Package hostapi defines the boundary to the native audio subsystem.
//
// Everything above this package (sessions, transfers, catalogs) talks to
// the sound hardware exclusively through the Host and Stream interfaces
// declared here. The production implementation wraps PortAudio; tests
// substitute an in-process mock. The interfaces deliberately mirror the
// shape of the native blocking-I/O ABI: process-wide init/teardown,
// device enumeration, duplex open, and chunk-sized blocking reads and
// writes against channel-major buffers.
package hostapi
