package entity

import "time"

type ErrorLog struct {
	ID        string    `db:"id"`
	Username  string    `db:"username"`
	Stage     string    `db:"stage"`
	Error     string    `db:"error"`
	ImageURL  string    `db:"image_url"`
	AudioURL  string    `db:"audio_url"`
	CreatedAt time.Time `db:"created_at"`
}
