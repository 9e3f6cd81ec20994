package entity

import (
	"fmt"
	"time"
)

type ThreadKind string

const (
	ThreadKindGeneral ThreadKind = "general"
	ThreadKindProject ThreadKind = "project"
)

// ThreadKey identifies a conversation. A general thread is unique per user,
// a project thread per (user, project).
type ThreadKey struct {
	UserID    string     `json:"user_id"`
	Kind      ThreadKind `json:"kind"`
	ProjectID string     `json:"project_id,omitempty"`
}

func GeneralThread(userID string) ThreadKey {
	return ThreadKey{UserID: userID, Kind: ThreadKindGeneral}
}

func ProjectThread(userID, projectID string) ThreadKey {
	return ThreadKey{UserID: userID, Kind: ThreadKindProject, ProjectID: projectID}
}

func (k ThreadKey) IsGeneral() bool {
	return k.Kind == ThreadKindGeneral
}

func (k ThreadKey) Valid() bool {
	if k.UserID == "" {
		return false
	}
	switch k.Kind {
	case ThreadKindGeneral:
		return k.ProjectID == ""
	case ThreadKindProject:
		return k.ProjectID != ""
	}
	return false
}

func (k ThreadKey) String() string {
	if k.Kind == ThreadKindProject {
		return fmt.Sprintf("project:%s:%s", k.UserID, k.ProjectID)
	}
	return fmt.Sprintf("general:%s", k.UserID)
}

// Thread is the parent record of a message log: the general chat document
// or the project document. Participant metadata is copied in on staff writes.
type Thread struct {
	Key            ThreadKey `json:"key" firestore:"-"`
	UserID         string    `json:"user_id" firestore:"userId"`
	UserName       string    `json:"user_name,omitempty" firestore:"userName,omitempty"`
	UserEmail      string    `json:"user_email,omitempty" firestore:"userEmail,omitempty"`
	LastMessage    string    `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt  time.Time `json:"last_message_at" firestore:"lastMessageAt"`
	LastSenderRole Role      `json:"last_sender_role,omitempty" firestore:"lastSenderRole,omitempty"`
	UnreadByClient int       `json:"unread_by_client" firestore:"unreadByClient"`
	UnreadByStaff  int       `json:"unread_by_staff" firestore:"unreadByStaff"`
}

// UnreadFor returns the counter of the party reading the thread.
func (t *Thread) UnreadFor(reader Role) int {
	if reader == RoleStaff {
		return t.UnreadByStaff
	}
	return t.UnreadByClient
}
