package validation

import "regexp"

// emailRegex is a syntactic check only: something@something.something with
// no whitespace and no extra @. It says nothing about deliverability, and
// uniqueness is the store's job.
//
// "a@b" fails (no dot after the @), "a@b.c" passes.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether email looks like local-part@domain.tld.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
