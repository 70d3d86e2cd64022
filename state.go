package session

// State is the in-memory session record. It is a value: the Manager hands
// copies to observers and never leaks its internal pointer.
type State struct {
	User          *User
	Credential    string
	Authenticated bool
	Loading       bool
	LastError     string
}

// Empty reports whether the state carries no user and no credential.
func (s State) Empty() bool {
	return s.User == nil && s.Credential == ""
}

// Command is the closed set of legal session transitions. Apply consumes
// commands one at a time; everything with a side effect (storage, network,
// broadcast) lives in the Manager, never here.
type Command interface {
	isCommand()
}

// StartLogin marks a login attempt in flight and clears the previous error.
type StartLogin struct{}

// LoginSucceeded installs an accepted user/credential pair.
type LoginSucceeded struct {
	User       *User
	Credential string
}

// LoginFailed records a failed attempt. User and credential are dropped so
// a failed re-login never leaves a stale authenticated view behind.
type LoginFailed struct {
	Message string
}

// Logout resets the session to empty.
type Logout struct{}

// RefreshSucceeded rotates the credential without touching the user.
type RefreshSucceeded struct {
	Credential string
}

// SetLoading toggles the loading flag.
type SetLoading struct {
	Loading bool
}

// ClearError drops the last login error.
type ClearError struct{}

// RestoreSnapshot installs a user/credential pair recovered from durable
// storage. Same effect as LoginSucceeded, kept distinct so bootstrap can
// carry different telemetry.
type RestoreSnapshot struct {
	User       *User
	Credential string
}

func (StartLogin) isCommand()       {}
func (LoginSucceeded) isCommand()   {}
func (LoginFailed) isCommand()      {}
func (Logout) isCommand()           {}
func (RefreshSucceeded) isCommand() {}
func (SetLoading) isCommand()       {}
func (ClearError) isCommand()       {}
func (RestoreSnapshot) isCommand()  {}

// Apply is the pure transition function. For every reachable state it
// preserves the invariant Authenticated == (User != nil && Credential != "").
func Apply(s State, cmd Command) State {
	switch c := cmd.(type) {
	case StartLogin:
		s.Loading = true
		s.LastError = ""
	case LoginSucceeded:
		s.User = c.User
		s.Credential = c.Credential
		s.Authenticated = s.User != nil && s.Credential != ""
		s.Loading = false
		s.LastError = ""
	case LoginFailed:
		s.User = nil
		s.Credential = ""
		s.Authenticated = false
		s.Loading = false
		s.LastError = c.Message
	case Logout:
		s = State{}
	case RefreshSucceeded:
		s.Credential = c.Credential
		// Forces the session back to authenticated after a silent refresh,
		// provided a user is still attached.
		s.Authenticated = s.User != nil && s.Credential != ""
	case SetLoading:
		s.Loading = c.Loading
	case ClearError:
		s.LastError = ""
	case RestoreSnapshot:
		s.User = c.User
		s.Credential = c.Credential
		s.Authenticated = s.User != nil && s.Credential != ""
		s.Loading = false
		s.LastError = ""
	}
	return s
}
