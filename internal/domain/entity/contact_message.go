package entity

import "time"

type ContactStatus string

const (
	ContactStatusUnread ContactStatus = "Unread"
	ContactStatusRead   ContactStatus = "Read"
)

type ContactMessage struct {
	ID        string        `json:"id" firestore:"id"`
	Name      string        `json:"name" firestore:"name"`
	Email     string        `json:"email" firestore:"email"`
	Subject   string        `json:"subject" firestore:"subject"`
	Message   string        `json:"message" firestore:"message"`
	Status    ContactStatus `json:"status" firestore:"status"`
	CreatedAt time.Time     `json:"created_at" firestore:"createdAt"`
}
