package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/credentials"
	"stillbatch/dashboard/sessions"
)

type AuthMiddleware struct {
	logger            logging.Logger
	credentialService credentials.CredentialService
	authStoreFactory  sessions.AuthStoreFactory
}

func NewAuthMiddleware(logger logging.Logger, credentialService credentials.CredentialService, authStoreFactory sessions.AuthStoreFactory) *AuthMiddleware {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &AuthMiddleware{
		logger:            logger,
		credentialService: credentialService,
		authStoreFactory:  authStoreFactory,
	}
}

func (m *AuthMiddleware) RequireAuth(c *gin.Context) {
	// Check if the admin credential exists. If not, redirect to setup.
	isSetUp, err := m.credentialService.IsSetUp()
	if err != nil {
		m.logger.Error("Failed to check for admin credential", "error", err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if !isSetUp {
		m.logger.Info("No admin credential found, redirecting to setup.")
		c.Redirect(http.StatusFound, "/auth/setup")
		c.Abort()
		return
	}

	// Check if the user is authenticated
	authStore := m.authStoreFactory(c)
	authenticated, err := authStore.IsAuthenticated()
	if err != nil || !authenticated {
		m.logger.Info("User not authenticated, redirecting to login.")
		c.Redirect(http.StatusFound, "/auth/login")
		c.Abort()
		return
	}

	c.Next()
}

func (m *AuthMiddleware) RedirectIfAuth(c *gin.Context) {
	// If the session is signed in, redirect to the dashboard.
	authStore := m.authStoreFactory(c)
	authenticated, err := authStore.IsAuthenticated()
	if err == nil && authenticated {
		c.Redirect(http.StatusFound, "/")
		c.Abort()
		return
	}

	c.Next()
}
