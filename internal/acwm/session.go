package acwm

import "sync"

// sessionStore holds the credentials and the current session identifier.
// It is mutated only by login and logout.
type sessionStore struct {
	mu       sync.RWMutex
	username string
	password string
	token    string
}

func (s *sessionStore) get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

func (s *sessionStore) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *sessionStore) clear() {
	s.set("")
}

func (s *sessionStore) credentials() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, s.password
}

func (s *sessionStore) setCredentials(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.password = password
}

// resolve fills empty arguments from the stored credentials
func (s *sessionStore) resolve(username, password string) (string, string) {
	storedUser, storedPass := s.credentials()
	if username == "" {
		username = storedUser
	}
	if password == "" {
		password = storedPass
	}
	return username, password
}
