package sessions

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// AuthStoreFactory is a function that creates an AuthStore for a given request context.
type AuthStoreFactory func(c *gin.Context) AuthStore

// NewAuthStoreFactory creates a new AuthStoreFactory.
func NewAuthStoreFactory(store sessions.Store) AuthStoreFactory {
	return func(c *gin.Context) AuthStore {
		return NewGorillaAuthStore(store, c)
	}
}
