package models

import "time"

// AdminUser is a dashboard operator. Rows are provisioned out-of-band by the
// createadmin CLI; only password changes and login timestamps mutate them.
type AdminUser struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	LastLogin    time.Time `json:"last_login" db:"last_login"`
}

// AdminSession is the Redis-backed session payload behind the admin cookie.
type AdminSession struct {
	SessionID string    `json:"session_id"`
	AdminID   string    `json:"admin_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
