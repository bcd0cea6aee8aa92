package service

// PasswordService hides the hash algorithm from the auth flow. Verify must
// not leak, via timing or distinct errors, which part of a credential pair
// was wrong; callers collapse every failure into the same generic outcome.
type PasswordService interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}
