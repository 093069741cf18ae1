package sessions

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

const (
	sessionName      = "stillbatch-dashboard-session"
	authenticatedKey = "authenticated"
)

// AuthStore tracks whether the current browser session is signed in
type AuthStore interface {
	// IsAuthenticated reports whether the session is signed in
	IsAuthenticated() (bool, error)
	// SignIn marks the session as signed in
	SignIn() error
	// SignOut clears the session's sign-in state
	SignOut() error
}

// GorillaAuthStore implements the AuthStore interface using gorilla sessions
type GorillaAuthStore struct {
	store   sessions.Store
	request *gin.Context
}

// NewGorillaAuthStore creates a new GorillaAuthStore for a specific request
func NewGorillaAuthStore(store sessions.Store, c *gin.Context) AuthStore {
	return &GorillaAuthStore{
		store:   store,
		request: c,
	}
}

// IsAuthenticated reports whether the session is signed in
func (s *GorillaAuthStore) IsAuthenticated() (bool, error) {
	session, err := s.store.Get(s.request.Request, sessionName)
	if err != nil {
		return false, err
	}

	value, ok := session.Values[authenticatedKey]
	if !ok {
		return false, nil
	}

	authenticated, ok := value.(bool)
	if !ok {
		return false, nil
	}

	return authenticated, nil
}

// SignIn marks the session as signed in
func (s *GorillaAuthStore) SignIn() error {
	session, err := s.store.Get(s.request.Request, sessionName)
	if err != nil {
		return err
	}

	session.Values[authenticatedKey] = true
	return session.Save(s.request.Request, s.request.Writer)
}

// SignOut clears the session's sign-in state
func (s *GorillaAuthStore) SignOut() error {
	session, err := s.store.Get(s.request.Request, sessionName)
	if err != nil {
		return err
	}

	delete(session.Values, authenticatedKey)
	return session.Save(s.request.Request, s.request.Writer)
}
