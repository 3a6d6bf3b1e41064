// Package session holds the authenticated identity of one console client.
//
// A Holder is the only reader and writer of the client's durable storage.
// Everything else receives read-only snapshots from Current.
package session
