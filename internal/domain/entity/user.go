package entity

import (
	"time"
)

type Role string

const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
)

type User struct {
	ID          string    `json:"id" firestore:"id"`
	Email       string    `json:"email" firestore:"email"`
	DisplayName string    `json:"display_name" firestore:"displayName"`
	Role        Role      `json:"role" firestore:"role"`
	FCMToken    string    `json:"-" firestore:"fcmToken,omitempty"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) IsStaff() bool {
	return u.Role == RoleStaff
}

func (u *User) HasDeviceToken() bool {
	return u.FCMToken != ""
}

// Name falls back to the email when no display name is set.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}
