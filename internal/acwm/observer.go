package acwm

import "time"

// Observer receives events from a Client. Implementations must be cheap and
// must not call back into the client.
type Observer interface {
	// CommandCompleted is called once per HTTP exchange. err is nil for a
	// success:true answer.
	CommandCompleted(command string, duration time.Duration, err error)

	// Reauthenticated is called after an automatic re-login attempt
	Reauthenticated(command string, err error)

	// Retrying is called before the retry wrapper waits for the next attempt
	Retrying(command string, attempt int, err error)
}
