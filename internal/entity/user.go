package entity

import "time"

type User struct {
	ID          string    `db:"id"`
	Email       string    `db:"email"`
	Username    string    `db:"username"`
	Password    string    `db:"password"`
	City        string    `db:"city"`
	State       string    `db:"state"`
	Country     string    `db:"country"`
	Role        string    `db:"role"`
	Temperament string    `db:"temperament"`
	Locale      string    `db:"locale"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type UserLoginData struct {
	ID       string
	Username string
	Email    string
}

type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

type Persona struct {
	Role        string `json:"role"`
	Temperament string `json:"temperament"`
}

// Profile is the part of a user that shapes generated copy.
type Profile struct {
	Location Location `json:"location"`
	Persona  Persona  `json:"persona"`
}

func (u User) Profile() Profile {
	return Profile{
		Location: Location{City: u.City, State: u.State, Country: u.Country},
		Persona:  Persona{Role: u.Role, Temperament: u.Temperament},
	}
}

func (u User) Actor(locale Locale) Actor {
	return Actor{
		UserID:   u.ID,
		Username: u.Username,
		Locale:   locale,
		Profile:  u.Profile(),
	}
}
