package identity

import "context"

// TokenSource supplies the bearer credential attached to every data-API
// request. Tokens are retrieved asynchronously from the identity provider
// and cached until they expire.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	IsSignedIn() bool
}
