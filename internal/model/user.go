package model

import "time"

type User struct {
	UUID         string     `db:"uuid" json:"uuid"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	IsVerified   bool       `db:"is_verified" json:"is_verified"`
	// Токены одноразовые: очищаются после использования
	VerificationToken *string    `db:"verification_token" json:"-"`
	ResetToken        *string    `db:"reset_token" json:"-"`
	ResetExpires      *time.Time `db:"reset_expires" json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}
