package usecase

import "fmt"

var (
	// ErrPersistence indicates an infrastructure/repository failure inside a
	// use case. The gateway never retries these; the store owns durability.
	ErrPersistence = fmt.Errorf("chat use case persistence error")

	// ErrAuthentication covers every credential failure: malformed, expired,
	// badly signed, or a subject that no longer resolves to an account.
	ErrAuthentication = fmt.Errorf("chat use case authentication error")
)
