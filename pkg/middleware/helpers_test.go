package middleware

import (
	"time"

	"github.com/clubhive/clubhive/pkg/auth"
)

const testSecret = "test-secret"

func NewTestToken(sub, sid string) (string, error) {
	return auth.NewAccessToken(sub, "", auth.RoleStudent, sid, testSecret, time.Minute)
}
