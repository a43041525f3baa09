// Package errs defines the error shapes returned to API clients.
//
// Every failure that reaches the HTTP layer is turned into an HTTPError so
// clients always get the same JSON body: a machine readable code, a message
// and, for validation failures, per-field errors.
package errs
