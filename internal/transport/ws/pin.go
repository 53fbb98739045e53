package ws

import "crypto/rand"

const pinLength = 6

// generatePIN returns a random 6-digit game PIN, using rejection sampling
// to keep the digit distribution uniform.
func generatePIN() string {
	const digits = "0123456789"
	const max = byte(255 - (256 % len(digits)))

	out := make([]byte, 0, pinLength)
	buf := make([]byte, pinLength*2)

	for {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		for _, b := range buf {
			if b <= max {
				out = append(out, digits[int(b)%len(digits)])
				if len(out) == pinLength {
					return string(out)
				}
			}
		}
	}
}

// validPIN reports whether s is a well-formed game PIN (exactly six digits).
func validPIN(s string) bool {
	if len(s) != pinLength {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
