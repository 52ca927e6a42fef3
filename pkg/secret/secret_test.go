package secret

import (
	"testing"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plain := []byte(`{"imei":"xxx","cookie":"yyy"}`)

	encoded, err := Encrypt(plain, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if encoded == string(plain) {
		t.Fatal("ciphertext should differ from plaintext")
	}

	decoded, err := Decrypt(encoded, testKey)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != string(plain) {
		t.Fatalf("round trip mismatch: %s", decoded)
	}
}

func TestEncryptProducesUniqueCiphertext(t *testing.T) {
	// GCM 随机 nonce，同一明文两次加密结果必须不同
	a, err := Encrypt([]byte("credential"), testKey)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encrypt([]byte("credential"), testKey)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("two encryptions of the same plaintext should differ")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	encoded, err := Encrypt([]byte("credential"), testKey)
	if err != nil {
		t.Fatal(err)
	}
	wrongKey := []byte("fedcba9876543210fedcba9876543210")
	if _, err := Decrypt(encoded, wrongKey); err == nil {
		t.Fatal("decrypt with wrong key should fail")
	}
}

func TestDecryptTamperedData(t *testing.T) {
	if _, err := Decrypt("not-base64!!!", testKey); err == nil {
		t.Fatal("decrypt of garbage should fail")
	}
}
