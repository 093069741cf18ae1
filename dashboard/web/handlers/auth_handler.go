package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"stillbatch/core/ccc/auth"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/credentials"
	"stillbatch/core/notifications"
	"stillbatch/dashboard/sessions"
)

type AuthHandler struct {
	logger            logging.Logger
	credentialService credentials.CredentialService
	authStoreFactory  sessions.AuthStoreFactory
	failureTracker    auth.FailureTracker
	authNotifier      notifications.AuthNotifier
}

// NewAuthHandler creates the login/setup/logout handler. The failure tracker
// and notifier are optional; login failures are keyed by the remote IP.
func NewAuthHandler(
	logger logging.Logger,
	credentialService credentials.CredentialService,
	authStoreFactory sessions.AuthStoreFactory,
	failureTracker auth.FailureTracker,
	authNotifier notifications.AuthNotifier,
) *AuthHandler {
	if logger == nil {
		logger = logging.NopLogger
	}
	if failureTracker == nil {
		failureTracker = auth.NopFailureTracker
	}
	if authNotifier == nil {
		authNotifier = notifications.NopAuthNotifier
	}

	return &AuthHandler{
		logger:            logger,
		credentialService: credentialService,
		authStoreFactory:  authStoreFactory,
		failureTracker:    failureTracker,
		authNotifier:      authNotifier,
	}
}

func (h *AuthHandler) ShowLogin(c *gin.Context) {
	c.HTML(http.StatusOK, "login", gin.H{
		"Title": "Login",
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	password := c.PostForm("password")
	if password == "" {
		c.HTML(http.StatusBadRequest, "login", gin.H{
			"Title": "Login",
			"Error": "Password is required",
		})
		return
	}

	remoteIP := c.ClientIP()
	now := time.Now()

	if h.failureTracker.IsThrottled(remoteIP, now) {
		h.logger.Warn("Login throttled due to repeated failures", "remoteIP", remoteIP)
		c.HTML(http.StatusTooManyRequests, "login", gin.H{
			"Title": "Login",
			"Error": "Too many failed attempts. Please try again later.",
		})
		return
	}

	if err := h.credentialService.Verify(password); err != nil {
		if credentials.IsVerificationError(err) {
			failureCount := h.failureTracker.RecordFailure(remoteIP, remoteIP, now)
			h.logger.Warn("Failed login attempt", "remoteIP", remoteIP, "failures", failureCount)

			if h.authNotifier.ShouldNotify(failureCount) {
				if notifyErr := h.authNotifier.NotifyRepeatedAuthFailure(remoteIP, failureCount, remoteIP); notifyErr != nil {
					h.logger.Error("Failed to send auth failure notification", "error", notifyErr)
				}
			}

			c.HTML(http.StatusUnauthorized, "login", gin.H{
				"Title": "Login",
				"Error": "Invalid password",
			})
			return
		}

		h.logger.Error("Failed to verify password", "error", err)
		c.HTML(http.StatusInternalServerError, "login", gin.H{
			"Title": "Login",
			"Error": "An internal error occurred.",
		})
		return
	}

	h.failureTracker.ClearFailures(remoteIP)

	authStore := h.authStoreFactory(c)
	if err := authStore.SignIn(); err != nil {
		h.logger.Error("Failed to start session", "error", err)
		c.HTML(http.StatusInternalServerError, "login", gin.H{
			"Title": "Login",
			"Error": "Failed to start session.",
		})
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	authStore := h.authStoreFactory(c)
	if err := authStore.SignOut(); err != nil {
		h.logger.Error("Failed to clear session", "error", err)
		// Don't block logout, just log the error.
	}
	c.Redirect(http.StatusFound, "/auth/login")
}

func (h *AuthHandler) ShowSetup(c *gin.Context) {
	// Setup is a first-run flow; once a credential exists it is unavailable
	isSetUp, err := h.credentialService.IsSetUp()
	if err == nil && isSetUp {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	c.HTML(http.StatusOK, "setup", gin.H{
		"Title": "Setup",
	})
}

func (h *AuthHandler) Setup(c *gin.Context) {
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	if password == "" || confirmPassword == "" {
		c.HTML(http.StatusBadRequest, "setup", gin.H{
			"Title": "Setup",
			"Error": "All fields are required",
		})
		return
	}

	if password != confirmPassword {
		c.HTML(http.StatusBadRequest, "setup", gin.H{
			"Title": "Setup",
			"Error": "Passwords do not match",
		})
		return
	}

	if err := h.credentialService.Setup(password); err != nil {
		switch {
		case credentials.IsPasswordPolicyError(err):
			c.HTML(http.StatusBadRequest, "setup", gin.H{
				"Title": "Setup",
				"Error": err.Error(),
			})
		case credentials.IsAlreadySetUpError(err):
			c.Redirect(http.StatusFound, "/auth/login")
		default:
			h.logger.Error("Failed to set up admin credential", "error", err)
			c.HTML(http.StatusInternalServerError, "setup", gin.H{
				"Title": "Setup",
				"Error": "Failed to set up the admin password.",
			})
		}
		return
	}

	// Sign the user in right away
	authStore := h.authStoreFactory(c)
	if err := authStore.SignIn(); err != nil {
		h.logger.Error("Failed to start session after setup", "error", err)
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	c.Redirect(http.StatusFound, "/")
}
