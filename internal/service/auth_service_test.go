package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/config"
	"github.com/Smalik1203/Classbridge-V1-sub001/internal/model"
)

func newAuth() *AuthService {
	return NewAuthService(&config.Config{JWTSecret: "test-secret", JWTExpiry: time.Hour}, nil)
}

func TestIssueAndValidateToken(t *testing.T) {
	auth := newAuth()
	op := model.Operator{ID: 12, Role: "teacher", SchoolCode: "S1"}

	token, err := auth.IssueToken(op, []model.Permission{model.PermissionAttendanceRead})
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	claims, err := auth.ValidateToken(context.Background(), token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Operator() != op {
		t.Errorf("Operator() = %+v, want %+v", claims.Operator(), op)
	}
	if !claims.Can(model.PermissionAttendanceRead) || claims.Can(model.PermissionAttendanceWrite) {
		t.Errorf("permissions = %v", claims.Permissions)
	}
}

func TestValidateTokenRejects(t *testing.T) {
	auth := newAuth()
	op := model.Operator{ID: 12, Role: "teacher"}
	ctx := context.Background()

	expired := newAuth()
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.IssueToken(op, nil)
	if _, err := auth.ValidateToken(ctx, old); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired token error = %v", err)
	}

	other := NewAuthService(&config.Config{JWTSecret: "other", JWTExpiry: time.Hour}, nil)
	forged, _ := other.IssueToken(op, nil)
	if _, err := auth.ValidateToken(ctx, forged); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("foreign signature error = %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{OperatorID: 1})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := auth.ValidateToken(ctx, unsigned); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("unsigned token error = %v", err)
	}

	if _, err := auth.ValidateToken(ctx, "garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("garbage token error = %v", err)
	}
}
