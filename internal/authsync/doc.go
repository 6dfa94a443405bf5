// Package authsync keeps a client's in-memory authentication state in step
// with the session record held in durable storage.
//
// A Synchronizer re-validates the stored access token on start, on storage
// change notifications from other processes sharing the same store, on a fixed
// interval, and whenever an "auth:expired" event is published on its Bus. An
// expired or undecodable token purges the stored session.
package authsync
