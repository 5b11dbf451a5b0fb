package fakeidm

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tesseral-labs/authflow/pkg/flow"
)

// DefaultIntermediateSessionTTL is how long an unconsumed intermediate
// session lives before whoami starts rejecting it.
const DefaultIntermediateSessionTTL = 30 * time.Minute

// Organization is a tenant with its configured login policy.
type Organization struct {
	ID          string
	DisplayName string

	LogInWithEmail     bool
	LogInWithGoogle    bool
	LogInWithMicrosoft bool
	LogInWithGithub    bool
	LogInWithSaml      bool
	LogInWithPassword  bool

	LogInWithAuthenticatorApp bool
	LogInWithPasskey          bool
	RequireMFA                bool

	PrimarySamlConnectionID string
}

// User is a member of an organization together with its registered factors.
type User struct {
	ID             string
	OrganizationID string
	Email          string
	DisplayName    string

	GoogleUserID    string
	MicrosoftUserID string
	GithubUserID    string

	PasswordHash        []byte
	TOTPSecret          string
	RecoveryCodes       []string
	PasskeyCredentialID string
}

// HasPassword reports whether the user has a registered password.
func (u *User) HasPassword() bool { return len(u.PasswordHash) > 0 }

// HasAuthenticatorApp reports whether the user has a provisioned
// authenticator app.
func (u *User) HasAuthenticatorApp() bool { return u.TOTPSecret != "" }

// HasPasskey reports whether the user has a registered passkey.
func (u *User) HasPasskey() bool { return u.PasskeyCredentialID != "" }

// session is an intermediate session plus the server-side challenge state
// that never leaves the backend.
type session struct {
	flow.IntermediateSession

	token     string
	expiresAt time.Time

	pendingEmailCode        string
	pendingTOTPSecret       string
	pendingPasskeyChallenge string
}

// oauthIdentity is a pre-seeded authorization code a test or demo may redeem.
type oauthIdentity struct {
	provider  string
	email     string
	subjectID string
}

// store holds all backend state behind one mutex. The production backend owns
// the equivalent state in a database; a map-per-entity is enough here.
type store struct {
	mutex      sync.RWMutex
	orgs       map[string]*Organization
	users      map[string]*User
	sessions   map[string]*session // keyed by intermediate session token
	oauthCodes map[string]*oauthIdentity
	sessionTTL time.Duration
}

func newStore(sessionTTL time.Duration) *store {
	return &store{
		orgs:       make(map[string]*Organization),
		users:      make(map[string]*User),
		sessions:   make(map[string]*session),
		oauthCodes: make(map[string]*oauthIdentity),
		sessionTTL: sessionTTL,
	}
}

func (st *store) addOrganization(org Organization) *Organization {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if org.ID == "" {
		org.ID = uuid.New().String()
	}
	orgCopy := org
	st.orgs[orgCopy.ID] = &orgCopy
	return &orgCopy
}

func (st *store) addUser(user User, password string) (*User, error) {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if _, ok := st.orgs[user.OrganizationID]; !ok {
		return nil, fmt.Errorf("unknown organization: %s", user.OrganizationID)
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	userCopy := user
	st.users[userCopy.ID] = &userCopy
	return &userCopy, nil
}

func (st *store) addOAuthCode(code string, identity oauthIdentity) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	st.oauthCodes[code] = &identity
}

func (st *store) createSession() *session {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	sess := &session{
		token:     uuid.New().String(),
		expiresAt: time.Now().Add(st.sessionTTL),
	}
	sess.ID = uuid.New().String()
	st.sessions[sess.token] = sess
	return sess
}

// sessionByToken returns the live session for token, or nil when the token is
// unknown or expired.
func (st *store) sessionByToken(token string) *session {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	sess, ok := st.sessions[token]
	if !ok || time.Now().After(sess.expiresAt) {
		return nil
	}
	return sess
}

func (st *store) deleteSession(token string) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	delete(st.sessions, token)
}

func (st *store) organization(id string) *Organization {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return st.orgs[id]
}

// userForSession resolves the session's identity to a user of the given
// organization: by email for the email factor, by provider subject for OAuth
// factors.
func (st *store) userForSession(sess *session, organizationID string) *User {
	st.mutex.RLock()
	defer st.mutex.RUnlock()

	for _, u := range st.users {
		if u.OrganizationID != organizationID {
			continue
		}
		switch sess.PrimaryAuthFactor {
		case flow.PrimaryAuthFactorEmail:
			if sess.Email != "" && u.Email == sess.Email {
				return u
			}
		case flow.PrimaryAuthFactorGoogle:
			if sess.GoogleUserID != "" && u.GoogleUserID == sess.GoogleUserID {
				return u
			}
			if sess.Email != "" && u.Email == sess.Email {
				return u
			}
		case flow.PrimaryAuthFactorMicrosoft:
			if sess.MicrosoftUserID != "" && u.MicrosoftUserID == sess.MicrosoftUserID {
				return u
			}
			if sess.Email != "" && u.Email == sess.Email {
				return u
			}
		case flow.PrimaryAuthFactorGithub:
			if sess.GithubUserID != "" && u.GithubUserID == sess.GithubUserID {
				return u
			}
			if sess.Email != "" && u.Email == sess.Email {
				return u
			}
		}
	}
	return nil
}

// organizationsForSession lists organizations where the session's identity
// has a user.
func (st *store) organizationsForSession(sess *session) []*Organization {
	st.mutex.RLock()
	ids := make([]string, 0, len(st.orgs))
	for id := range st.orgs {
		ids = append(ids, id)
	}
	st.mutex.RUnlock()

	var orgs []*Organization
	for _, id := range ids {
		if st.userForSession(sess, id) != nil {
			orgs = append(orgs, st.organization(id))
		}
	}
	return orgs
}

// update runs fn while holding the store lock. Handlers use it to mutate
// sessions and users resolved earlier.
func (st *store) update(fn func()) {
	st.mutex.Lock()
	defer st.mutex.Unlock()
	fn()
}

func (st *store) userByID(id string) *User {
	st.mutex.RLock()
	defer st.mutex.RUnlock()
	return st.users[id]
}

func (st *store) redeemOAuthCode(code string) *oauthIdentity {
	st.mutex.Lock()
	defer st.mutex.Unlock()

	identity, ok := st.oauthCodes[code]
	if !ok {
		return nil
	}
	delete(st.oauthCodes, code)
	return identity
}
