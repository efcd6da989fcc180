package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNoCredentials      = errors.New("no credentials provided")
)

// 用户不存在时也做一次比较，避免通过响应时间枚举用户名
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.MinCost)

// Users 是从 AUTH_USERS 解析出的账号表，密码只以 bcrypt 哈希形式保存
type Users struct {
	hashes map[string][]byte
}

// ParseUsers 解析形如 "user1:pass1; user2:pass2" 的账号列表。
// 密码中可以包含冒号；以 $2 开头的值视为已经是 bcrypt 哈希
func ParseUsers(raw string) (*Users, error) {
	users := &Users{hashes: map[string][]byte{}}
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		username, password, ok := strings.Cut(entry, ":")
		username = strings.TrimSpace(username)
		if !ok || username == "" || password == "" {
			return nil, fmt.Errorf("malformed user entry %q", username)
		}

		if strings.HasPrefix(password, "$2") {
			if _, err := bcrypt.Cost([]byte(password)); err != nil {
				return nil, fmt.Errorf("user %s: %w", username, err)
			}
			users.hashes[username] = []byte(password)
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("user %s: %w", username, err)
		}
		users.hashes[username] = hash
	}
	return users, nil
}

func (u *Users) Len() int {
	return len(u.hashes)
}

func (u *Users) Authenticate(username, password string) error {
	hash, ok := u.hashes[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}
