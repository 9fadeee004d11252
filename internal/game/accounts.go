package game

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	goccy "github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slices"
)

const defaultAdminAccount = "admin"

var (
	ErrAccountExists  = errors.New("account already exists")
	ErrUnknownAccount = errors.New("unknown account")
)

// account is one entry of the accounts file. Class is the staff grant an
// operator can edit by hand; players log in with at least this class.
type account struct {
	Name      string    `json:"name"`
	Hash      string    `json:"hash"`
	Class     Class     `json:"class,omitempty"`
	Created   time.Time `json:"created"`
	LastLogin time.Time `json:"last_login,omitempty"`
	Logins    int       `json:"logins,omitempty"`
}

// AccountManager keeps login credentials and staff grants in one JSON file.
// Names are matched without regard to case. Player state lives in the Store.
type AccountManager struct {
	mu       sync.RWMutex
	path     string
	admin    string
	accounts map[string]*account
}

func NewAccountManager(path string) (*AccountManager, error) {
	a := &AccountManager{
		path:     path,
		admin:    defaultAdminAccount,
		accounts: make(map[string]*account),
	}
	if err := a.load(); err != nil {
		return nil, err
	}
	return a, nil
}

func accountKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// SetAdminAccount names the account that always logs in as a dungeonmaster.
func (a *AccountManager) SetAdminAccount(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultAdminAccount
	}
	a.mu.Lock()
	a.admin = name
	a.mu.Unlock()
}

// ClassFor returns the class an account is granted at login.
func (a *AccountManager) ClassFor(name string) Class {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if strings.EqualFold(name, a.admin) {
		return ClassDungeonmaster
	}
	if acct, ok := a.accounts[accountKey(name)]; ok {
		return acct.Class
	}
	return ClassPlayer
}

func (a *AccountManager) load() error {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read accounts: %w", err)
	}
	var list []*account
	if err := goccy.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("decode accounts %s: %w", a.path, err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acct := range list {
		if acct == nil || accountKey(acct.Name) == "" {
			continue
		}
		a.accounts[accountKey(acct.Name)] = acct
	}
	return nil
}

// saveLocked writes every account, sorted by key, through the atomic writer
// the record store uses.
func (a *AccountManager) saveLocked() error {
	keys := make([]string, 0, len(a.accounts))
	for key := range a.accounts {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	list := make([]*account, 0, len(keys))
	for _, key := range keys {
		list = append(list, a.accounts[key])
	}
	data, err := goccy.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("create accounts directory: %w", err)
	}
	return writeFileAtomic(a.path, data)
}

func (a *AccountManager) Exists(name string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.accounts[accountKey(name)]
	return ok
}

// Register creates an account with a bcrypt hash of pass.
func (a *AccountManager) Register(name, pass string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	key := accountKey(name)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.accounts[key]; ok {
		return ErrAccountExists
	}
	a.accounts[key] = &account{Name: strings.TrimSpace(name), Hash: string(hash), Created: time.Now().UTC()}
	if err := a.saveLocked(); err != nil {
		delete(a.accounts, key)
		return err
	}
	return nil
}

func (a *AccountManager) Authenticate(name, pass string) bool {
	a.mu.RLock()
	acct, ok := a.accounts[accountKey(name)]
	a.mu.RUnlock()
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(acct.Hash), []byte(pass)) == nil
}

// RecordLogin stamps the login time and bumps the counter.
func (a *AccountManager) RecordLogin(name string, when time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	acct, ok := a.accounts[accountKey(name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, name)
	}
	acct.LastLogin = when
	acct.Logins++
	return a.saveLocked()
}
