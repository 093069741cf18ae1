package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"stillbatch/core/ccc/auth"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/notifications"
	"stillbatch/core/operators"
)

// AuthMiddleware provides operator authentication middleware for Gin
type AuthMiddleware struct {
	logger          logging.Logger
	verifier        operators.OperatorVerifier
	operatorService operators.OperatorService
	failureTracker  auth.FailureTracker
	authNotifier    notifications.AuthNotifier
}

// NewAuthMiddleware creates a new authentication middleware. The failure
// tracker and notifier are optional.
func NewAuthMiddleware(
	logger logging.Logger,
	verifier operators.OperatorVerifier,
	operatorService operators.OperatorService,
	failureTracker auth.FailureTracker,
	authNotifier notifications.AuthNotifier,
) *AuthMiddleware {
	if logger == nil {
		logger = logging.NopLogger
	}
	if failureTracker == nil {
		failureTracker = auth.NopFailureTracker
	}
	if authNotifier == nil {
		authNotifier = notifications.NopAuthNotifier
	}

	return &AuthMiddleware{
		logger:          logger,
		verifier:        verifier,
		operatorService: operatorService,
		failureTracker:  failureTracker,
		authNotifier:    authNotifier,
	}
}

// RequireAuth middleware that requires operator authentication
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Extract operator ID and secret from Authorization header
		// Expected format: "Basic <base64(operatorId:operatorSecret)>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.logger.Warn("Missing Authorization header")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			c.Abort()
			return
		}

		// Check if it's Basic auth
		if !strings.HasPrefix(authHeader, "Basic ") {
			m.logger.Warn("Invalid Authorization header format")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			c.Abort()
			return
		}

		// Extract and decode credentials
		operatorID, operatorSecret, ok := c.Request.BasicAuth()
		if !ok {
			m.logger.Warn("Failed to parse Basic Auth credentials")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials format"})
			c.Abort()
			return
		}

		now := time.Now()
		if m.failureTracker.IsThrottled(operatorID, now) {
			m.logger.Warn("Operator is throttled due to repeated failures", "operatorID", operatorID)
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed attempts. Try again later."})
			c.Abort()
			return
		}

		// Verify operator credentials
		valid, operator, err := m.verifier.VerifyOperator(operatorID, operatorSecret)
		if err != nil {
			// Check if it's an operator verification error (authentication failure)
			if operators.IsOperatorVerificationError(err) {
				m.handleFailure(c, operatorID, now)
				return
			}
			// Other errors are internal server errors
			m.logger.Error("Error verifying operator", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Authentication error"})
			c.Abort()
			return
		}

		if !valid {
			m.handleFailure(c, operatorID, now)
			return
		}

		m.failureTracker.ClearFailures(operatorID)

		// Store operator information in context
		c.Set("operator", operator)
		c.Set("operatorID", operatorID)

		c.Next()
	}
}

// handleFailure records the failed attempt, notifies on repeated failures and
// auto-disables the operator once the threshold is exceeded
func (m *AuthMiddleware) handleFailure(c *gin.Context, operatorID string, now time.Time) {
	remoteIP := c.ClientIP()
	failureCount := m.failureTracker.RecordFailure(operatorID, remoteIP, now)

	m.logger.Warn("Operator verification failed", "operatorID", operatorID, "remoteIP", remoteIP, "failures", failureCount)

	if m.authNotifier.ShouldNotify(failureCount) {
		if err := m.authNotifier.NotifyRepeatedAuthFailure(operatorID, failureCount, remoteIP); err != nil {
			m.logger.Error("Failed to send auth failure notification", "error", err)
		}
	}

	if m.operatorService != nil && m.failureTracker.ShouldAutoDisable(failureCount) {
		m.logger.Warn("Auto-disabling operator after repeated failures", "operatorID", operatorID)
		if err := m.operatorService.SetDisabled(operatorID, true); err != nil && !operators.IsOperatorNotFoundError(err) {
			m.logger.Error("Failed to auto-disable operator", "error", err, "operatorID", operatorID)
		}
	}

	c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	c.Abort()
}
