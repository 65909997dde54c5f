package auth

import "golang.org/x/crypto/bcrypt"

// HashPin generates a bcrypt hash of a parent-gate PIN. PINs are short, so a
// moderate cost keeps profile creation fast on low-end devices.
func HashPin(pin string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(pin), 10)
	return string(bytes), err
}

// CheckPin compares a plaintext PIN with a stored bcrypt hash.
// It returns true if the PIN matches the hash.
func CheckPin(pin, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	return err == nil
}
