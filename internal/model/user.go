package model

// TestUserID is the single user every accepted credential resolves to.
const TestUserID int64 = 1

// TestUserName is the display name returned for the test user.
const TestUserName = "Test User"

// User is the caller resolved from a bearer credential. The stub has exactly
// one user; Token echoes the credential that was presented.
type User struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}
