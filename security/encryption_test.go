package security

import (
	"strings"
	"testing"
)

const testKey = "test-encryption-key-12345678901234"

func TestEncryptDecrypt(t *testing.T) {
	c, err := NewCipher(testKey)
	if err != nil {
		t.Fatalf("NewCipher failed: %v", err)
	}

	enc, err := c.Encrypt("card *1234 LIDL")
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	if enc == "card *1234 LIDL" {
		t.Error("Expected ciphertext to differ from plaintext")
	}

	dec, err := c.Decrypt(enc)
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if dec != "card *1234 LIDL" {
		t.Errorf("Expected round trip, got %q", dec)
	}
}

func TestKeyLengths(t *testing.T) {
	for _, key := range []string{"short-key", "12345678901234567890123456789012", strings.Repeat("long", 20)} {
		c, err := NewCipher(key)
		if err != nil {
			t.Errorf("NewCipher(%d bytes) failed: %v", len(key), err)
			continue
		}
		if _, err := c.Encrypt("x"); err != nil {
			t.Errorf("Encrypt with %d byte key failed: %v", len(key), err)
		}
	}
}

func TestEmptyKeyIsPassthrough(t *testing.T) {
	c, err := NewCipher("")
	if err != nil || c != nil {
		t.Fatalf("Expected nil cipher without error, got %v, %v", c, err)
	}

	sealed, err := c.Seal("plain note")
	if err != nil || sealed != "plain note" {
		t.Errorf("Expected passthrough seal, got %q, %v", sealed, err)
	}
	opened, err := c.Open("plain note")
	if err != nil || opened != "plain note" {
		t.Errorf("Expected passthrough open, got %q, %v", opened, err)
	}

	if _, err := c.Encrypt("x"); err == nil {
		t.Error("Expected Encrypt on nil cipher to fail")
	}
}

func TestSealOpen(t *testing.T) {
	c, _ := NewCipher(testKey)

	sealed, err := c.Seal("Mama transfer")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(sealed, EncryptedPrefix) {
		t.Errorf("Expected %q prefix, got %q", EncryptedPrefix, sealed)
	}

	opened, err := c.Open(sealed)
	if err != nil || opened != "Mama transfer" {
		t.Errorf("Expected round trip, got %q, %v", opened, err)
	}

	legacy, err := c.Open("written before encryption")
	if err != nil || legacy != "written before encryption" {
		t.Errorf("Expected legacy plaintext unchanged, got %q, %v", legacy, err)
	}

	if empty, _ := c.Seal(""); empty != "" {
		t.Errorf("Expected empty value to stay empty, got %q", empty)
	}
}

func TestDecryptErrors(t *testing.T) {
	c, _ := NewCipher(testKey)

	if _, err := c.Decrypt("not base64!"); err == nil {
		t.Error("Expected error for invalid base64")
	}
	if _, err := c.Decrypt("YWJj"); err == nil {
		t.Error("Expected error for short ciphertext")
	}

	other, _ := NewCipher("another-key")
	enc, _ := other.Encrypt("secret")
	if _, err := c.Decrypt(enc); err == nil {
		t.Error("Expected error decrypting with the wrong key")
	}
}
