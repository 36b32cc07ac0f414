// Package authapi holds the wire types, error vocabulary, and a small Go
// client for the storefront authentication service. The server handlers and
// the end-to-end tests share these definitions so the contract only exists
// in one place.
package authapi
