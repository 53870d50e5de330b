package middleware

import (
	"github.com/gin-gonic/gin"

	"seatledger.io/ledger/internal/domain"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
)

// AdminChecker reports whether an identity is the store admin.
type AdminChecker interface {
	IsAdmin(caller domain.Identity) bool
}

// RequireStoreAdmin rejects requests whose caller is not the store admin.
// It must run after JWTAuth.
func RequireStoreAdmin(checker AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := IdentityFromContext(c.Request.Context())
		if caller.IsAnonymous() {
			_ = c.Error(apperrors.Unauthorized(apperrors.CodeIdentityMissing, "authentication required"))
			c.Abort()
			return
		}
		if !checker.IsAdmin(caller) {
			_ = c.Error(apperrors.Forbidden(apperrors.CodeNotStoreAdmin, "store admin required"))
			c.Abort()
			return
		}
		c.Next()
	}
}
