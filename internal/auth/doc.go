// Package auth provides password hashing, access tokens and the
// signup/login flow for the API.
//
// Tokens are stateless HMAC-signed JWTs. A token carries the user ID as its
// subject and an expiry; nothing about it is stored server-side, so a token
// stays valid until it expires even if the password changes.
//
// # Configuration
//
//	SECRET_KEY=<random string>          # Required, startup fails without it
//	ALGORITHM=HS256                     # HS256, HS384 or HS512
//	ACCESS_TOKEN_EXPIRE_MINUTES=30      # Token lifetime
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_HASH_WORKERS=0                 # Concurrent bcrypt operations, 0 = NumCPU
//
// # Usage
//
//	hasher := auth.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.HashWorkers)
//	tokens, err := auth.NewTokenService(cfg.Auth, nil)
//	svc := auth.NewService(users.NewRepository(db), hasher, tokens)
//	mw := auth.NewMiddleware(svc, auditService)
//	router.GET("/users/me", mw.RequireAuth(), handler)
//
// Extract user in handlers:
//
//	user := auth.GetUser(c)
//	userID := auth.GetUserID(c)
//
// # Failures
//
// Login reports every credential failure as ErrInvalidCredentials. Token
// failures (ErrMalformedToken, ErrBadSignature, ErrExpired,
// ErrMissingSubjectClaim, ErrUnknownSubject) stay distinct inside the
// process and collapse to a single 401 at the HTTP boundary.
package auth
