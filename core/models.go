package core

import "time"

// User is the application's own user record, keyed by the OAuth
// provider's stable user identifier. Profile fields stay nil until the
// user completes onboarding.
type User struct {
	UID       string    `json:"u_id"`
	Name      string    `json:"u_name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	Height          *float64 `json:"height"`
	Weight          *float64 `json:"weight"`
	Age             *int     `json:"age"`
	Sex             *string  `json:"sex"`
	ActivityLevel   *int     `json:"activity_level"`
	SugarLimitGrams *float64 `json:"sugar_limit_grams"`
}

// ProfileComplete reports whether the user has finished onboarding.
func (u *User) ProfileComplete() bool {
	return u.Height != nil &&
		u.Weight != nil &&
		u.Age != nil &&
		u.Sex != nil &&
		u.ActivityLevel != nil &&
		u.SugarLimitGrams != nil
}

// ProfileUpdate carries the mutable profile fields of a user. Nil
// fields are written as NULL, matching the all-at-once form submit.
type ProfileUpdate struct {
	Height          *float64 `json:"height"`
	Weight          *float64 `json:"weight"`
	Age             *int     `json:"age"`
	Sex             *string  `json:"sex"`
	ActivityLevel   *int     `json:"activity_level"`
	SugarLimitGrams *float64 `json:"sugar_limit_grams"`
}

// OAuthTokens represents the tokens returned by the OAuth provider.
// The access token is used once to fetch the profile and never stored.
type OAuthTokens struct {
	AccessToken string
	ExpiresIn   int
}

// ProviderProfile is the external identity returned by the provider.
type ProviderProfile struct {
	ProviderUserID string
	DisplayName    string
}
