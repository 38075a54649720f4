package ports

// PasswordHasher turns passwords into salted one-way hashes and checks
// candidates against them. Implementations are stateless with respect to
// users.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare reports whether password matches hash. A mismatch is not an
	// error.
	Compare(hash, password string) (bool, error)
	// CompareDummy burns the same amount of work as Compare against a hash
	// that never matches. It is used when the user does not exist.
	CompareDummy(password string)
}
