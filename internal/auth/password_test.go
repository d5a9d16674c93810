package auth

import (
	"strings"
	"testing"
)

func TestPasswordHashingLifecycle(t *testing.T) {
	password := "S3curePass!"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("unexpected error hashing password: %v", err)
	}
	if hash == "" {
		t.Fatal("expected hash to be populated")
	}

	if err := ComparePassword(hash, password); err != nil {
		t.Fatalf("expected password to verify, got error: %v", err)
	}

	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("expected verification to fail for wrong password")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("   "); err == nil {
		t.Fatal("expected error for blank password")
	}
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	long := strings.Repeat("a", 73)
	if _, err := HashPassword(long); err == nil {
		t.Fatal("expected error for password longer than 72 bytes")
	}
}
