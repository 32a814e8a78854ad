package ports

import "github.com/nftopia/stellar-auth/core"

// Tokenizer converts between sessions and opaque signed credentials.
// The credential format is the tokenizer's own business; the service
// only requires that the conversions round-trip.
type Tokenizer interface {
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToSession(token string) (*core.Session, error)
	SessionToRefreshToken(session *core.Session) (string, error)
	RefreshTokenToSession(token string) (*core.Session, error)
}
