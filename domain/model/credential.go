package model

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// Credential is one connected Pinterest account.
type Credential struct {
	Username              string     `json:"username"`
	AccessToken           string     `json:"accessToken"`
	RefreshToken          string     `json:"refreshToken,omitempty"`
	TokenType             string     `json:"tokenType,omitempty"`
	Scope                 string     `json:"scope,omitempty"`
	ExpiresAt             *time.Time `json:"expiresAt,omitempty"`
	RefreshTokenExpiresAt *time.Time `json:"refreshTokenExpiresAt,omitempty"`
	RefreshAfter          time.Time  `json:"refreshAfter"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

func (c Credential) NeedsRefresh(now time.Time) bool {
	return c.RefreshToken != "" && !c.RefreshAfter.After(now)
}

// AccountSet is an immutable map of credentials keyed by username plus the
// selected account. Every mutation returns a new set.
type AccountSet struct {
	accounts map[string]Credential
	active   string
}

func NewAccountSet(active string, creds ...Credential) AccountSet {
	s := AccountSet{accounts: make(map[string]Credential, len(creds))}
	for _, c := range creds {
		s.accounts[c.Username] = c
	}
	if _, ok := s.accounts[active]; ok {
		s.active = active
	} else {
		s.active = s.first()
	}
	return s
}

func (s AccountSet) clone() AccountSet {
	next := AccountSet{accounts: make(map[string]Credential, len(s.accounts)+1), active: s.active}
	for k, v := range s.accounts {
		next.accounts[k] = v
	}
	return next
}

func (s AccountSet) first() string {
	names := s.Usernames()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// With adds or replaces a credential. An empty set adopts it as active.
func (s AccountSet) With(c Credential) AccountSet {
	next := s.clone()
	next.accounts[c.Username] = c
	if next.active == "" {
		next.active = c.Username
	}
	return next
}

// Without drops username; losing the active account selects the first remaining one.
func (s AccountSet) Without(username string) AccountSet {
	next := s.clone()
	delete(next.accounts, username)
	if next.active == username {
		next.active = next.first()
	}
	return next
}

// Switch selects username. It reports false and returns s unchanged when unknown.
func (s AccountSet) Switch(username string) (AccountSet, bool) {
	if _, ok := s.accounts[username]; !ok {
		return s, false
	}
	next := s.clone()
	next.active = username
	return next, true
}

func (s AccountSet) Active() (Credential, bool) {
	c, ok := s.accounts[s.active]
	return c, ok
}

func (s AccountSet) ActiveUsername() string {
	return s.active
}

func (s AccountSet) Get(username string) (Credential, bool) {
	c, ok := s.accounts[username]
	return c, ok
}

func (s AccountSet) Len() int {
	return len(s.accounts)
}

// Usernames returns the account names in lexicographic order.
func (s AccountSet) Usernames() []string {
	names := lo.Keys(s.accounts)
	sort.Strings(names)
	return names
}

func (s AccountSet) Credentials() []Credential {
	out := make([]Credential, 0, len(s.accounts))
	for _, name := range s.Usernames() {
		out = append(out, s.accounts[name])
	}
	return out
}
