package database

// SetPingAttempts overrides the number of ping attempts until the test ends.
func SetPingAttempts(n int) (restore func()) {
	orig := pingAttempts
	pingAttempts = n
	return func() { pingAttempts = orig }
}
