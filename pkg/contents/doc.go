// Package contents provides a typed client for a remote contents API: the
// HTTP surface that manages files, directories, and notebook-like items
// under <root>/api/contents, including checkpoint snapshots. The client
// turns each operation into exactly one request, gates the response on the
// operation's accepted status codes, validates every returned payload
// against its expected shape, and never hands the caller an unvalidated
// object. Construction goes through New for a live server, NewWithBackend
// for custom transports, or NewFromEnv to resolve http/mock mode from the
// environment.
package contents
