package state

import (
	"time"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
		DefaultLogo: []byte(`<svg viewBox="0 0 120 120" xmlns="http://www.w3.org/2000/svg">
  <circle cx="60" cy="60" r="56" fill="#00a8a8"/>
  <circle cx="60" cy="60" r="49" fill="none" stroke="#fdfbf5" stroke-width="2"/>
  <path d="
    M32 36
    C44 32, 54 34, 60 40
    C66 34, 76 32, 88 36
    V84
    C76 80, 66 82, 60 88
    C54 82, 44 80, 32 84
    Z"
    fill="#fdfbf5"/>
  <path d="M60 40 V88" stroke="#00a8a8" stroke-width="2"/>
  <path d="
    M60 58
    C57 52, 49 53, 50 60
    C51 66, 60 71, 60 71
    C60 71, 69 66, 70 60
    C71 53, 63 52, 60 58
    Z"
    fill="#e8a838"/>
</svg>`),
	}
}
