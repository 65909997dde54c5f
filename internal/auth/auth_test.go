package auth

import "testing"

func TestHashAndCheckPin(t *testing.T) {
	hash, err := HashPin("4217")
	if err != nil {
		t.Fatalf("HashPin failed: %v", err)
	}
	if hash == "4217" {
		t.Fatal("Hash should not equal the plaintext PIN")
	}

	if !CheckPin("4217", hash) {
		t.Error("CheckPin rejected the correct PIN")
	}
	if CheckPin("0000", hash) {
		t.Error("CheckPin accepted a wrong PIN")
	}
	if CheckPin("4217", "not-a-hash") {
		t.Error("CheckPin accepted an invalid hash")
	}
}
