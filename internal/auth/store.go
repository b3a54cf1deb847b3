// Package auth provides user accounts and JWT session tokens.
package auth

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	appErr "termchat/pkg/errors"
)

// User is one registered account.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Email        string    `json:"email,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FileStore persists users to a single JSON file. All mutations rewrite the
// file atomically through a temp file.
type FileStore struct {
	path string

	mu    sync.RWMutex
	users map[string]User
}

// NewFileStore loads the user file if it exists.
func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{path: path, users: make(map[string]User)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, appErr.Wrapf(err, appErr.InternalServerError, "read user file failed")
	}
	if len(data) == 0 {
		return store, nil
	}

	var users []User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, appErr.Wrapf(err, appErr.InternalServerError, "parse user file failed")
	}
	for _, u := range users {
		if u.Username != "" {
			store.users[u.Username] = u
		}
	}
	return store, nil
}

// Get returns the user or a UserNotFound error.
func (s *FileStore) Get(username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[username]
	if !ok {
		return User{}, appErr.New(appErr.UserNotFound)
	}
	return user, nil
}

// Put inserts a new user; an existing username is an error.
func (s *FileStore) Put(user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[user.Username]; exists {
		return appErr.New(appErr.UserAlreadyExists)
	}
	s.users[user.Username] = user
	if err := s.persistLocked(); err != nil {
		delete(s.users, user.Username)
		return err
	}
	return nil
}

// Usernames returns all registered usernames, sorted.
func (s *FileStore) Usernames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.users))
	for name := range s.users {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *FileStore) persistLocked() error {
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return appErr.Wrapf(err, appErr.InternalServerError, "marshal users failed")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return appErr.Wrapf(err, appErr.InternalServerError, "create user file dir failed")
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return appErr.Wrapf(err, appErr.InternalServerError, "write user file failed")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return appErr.Wrapf(err, appErr.InternalServerError, "replace user file failed")
	}
	return nil
}
