package auth

import "github.com/hvac-crew/schedule/backend/internal/domain"

// Authenticator 同时接受会话 cookie 与 HTTP Basic 认证
type Authenticator struct {
	users    *Users
	sessions *SessionManager
}

func NewAuthenticator(users *Users, sessions *SessionManager) *Authenticator {
	return &Authenticator{users: users, sessions: sessions}
}

func (a *Authenticator) Users() *Users {
	return a.users
}

func (a *Authenticator) Sessions() *SessionManager {
	return a.sessions
}

// Verify 返回已验证的用户名。优先使用会话令牌，失效时再尝试 Basic 认证
func (a *Authenticator) Verify(creds domain.Credentials) (string, error) {
	if creds.SessionToken != "" {
		username, err := a.sessions.Verify(creds.SessionToken)
		if err == nil {
			return username, nil
		}
		if !creds.HasBasicAuth {
			return "", err
		}
	}

	if creds.HasBasicAuth {
		if err := a.users.Authenticate(creds.BasicUsername, creds.BasicPassword); err != nil {
			return "", err
		}
		return creds.BasicUsername, nil
	}

	return "", ErrNoCredentials
}
