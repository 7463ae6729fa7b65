package webctl

import (
	"testing"
	"time"
)

func TestLoginSucceedsWithCorrectPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	a := NewAuthenticator("admin", hash, []byte("test-secret"), time.Hour)

	tok, err := a.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if tok == "" {
		t.Fatal("expected a non-empty token")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	hash, _ := HashPassword("s3cret")
	a := NewAuthenticator("admin", hash, []byte("test-secret"), time.Hour)

	if _, err := a.Login("admin", "wrong"); err == nil {
		t.Fatal("expected an error for a wrong password")
	}
}

func TestLoginRejectsUnknownUser(t *testing.T) {
	hash, _ := HashPassword("s3cret")
	a := NewAuthenticator("admin", hash, []byte("test-secret"), time.Hour)

	if _, err := a.Login("nobody", "s3cret"); err == nil {
		t.Fatal("expected an error for an unknown user")
	}
}

func TestVerifyAcceptsItsOwnToken(t *testing.T) {
	hash, _ := HashPassword("s3cret")
	a := NewAuthenticator("admin", hash, []byte("test-secret"), time.Hour)

	tok, err := a.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := a.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Username != "admin" {
		t.Fatalf("claims.Username = %q, want admin", claims.Username)
	}
	if claims.ID == "" {
		t.Fatal("expected Login to stamp a non-empty jti on each issued token")
	}
}

func TestLoginStampsAUniqueIDOnEachToken(t *testing.T) {
	hash, _ := HashPassword("s3cret")
	a := NewAuthenticator("admin", hash, []byte("test-secret"), time.Hour)

	tok1, _ := a.Login("admin", "s3cret")
	tok2, _ := a.Login("admin", "s3cret")
	c1, err := a.Verify(tok1)
	if err != nil {
		t.Fatalf("Verify tok1: %v", err)
	}
	c2, err := a.Verify(tok2)
	if err != nil {
		t.Fatalf("Verify tok2: %v", err)
	}
	if c1.ID == c2.ID {
		t.Fatal("expected distinct jti values across separate logins")
	}
}

func TestVerifyRejectsTokenSignedWithAnotherSecret(t *testing.T) {
	hash, _ := HashPassword("s3cret")
	a := NewAuthenticator("admin", hash, []byte("secret-a"), time.Hour)
	other := NewAuthenticator("admin", hash, []byte("secret-b"), time.Hour)

	tok, err := other.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := a.Verify(tok); err == nil {
		t.Fatal("expected verification to fail for a token signed with a different secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	hash, _ := HashPassword("s3cret")
	a := NewAuthenticator("admin", hash, []byte("test-secret"), -time.Second)

	tok, err := a.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := a.Verify(tok); err == nil {
		t.Fatal("expected verification to fail for an already-expired token")
	}
}
