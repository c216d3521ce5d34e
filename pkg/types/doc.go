// Package types defines the Store and Backend interfaces, the record types
// (Profile, Item), identities and derived addresses, and the standard errors
// for the larder record store.
package types
