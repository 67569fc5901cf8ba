package entity

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID   string
	Username string
	Locale   Locale
	Profile  Profile
}
