package entity

import "time"

type ProjectStatus string

const (
	ProjectStatusPending    ProjectStatus = "pending"
	ProjectStatusAccepted   ProjectStatus = "accepted"
	ProjectStatusInProgress ProjectStatus = "in-progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusRejected   ProjectStatus = "rejected"
)

var projectTransitions = map[ProjectStatus][]ProjectStatus{
	ProjectStatusPending:    {ProjectStatusAccepted, ProjectStatusRejected},
	ProjectStatusAccepted:   {ProjectStatusInProgress, ProjectStatusRejected},
	ProjectStatusInProgress: {ProjectStatusCompleted},
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusAccepted, ProjectStatusInProgress,
		ProjectStatusCompleted, ProjectStatusRejected:
		return true
	}
	return false
}

func (s ProjectStatus) CanTransitionTo(next ProjectStatus) bool {
	for _, allowed := range projectTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Project doubles as the parent record of its chat thread. The thread fields
// on the same document are read through ThreadRepository.GetThread.
type Project struct {
	ID          string        `json:"id" firestore:"id"`
	OwnerID     string        `json:"owner_id" firestore:"userId"`
	Name        string        `json:"name" firestore:"name"`
	Description string        `json:"description" firestore:"description"`
	Status      ProjectStatus `json:"status" firestore:"status"`
	CreatedAt   time.Time     `json:"created_at" firestore:"createdAt"`
	UpdatedAt   time.Time     `json:"updated_at" firestore:"updatedAt"`
}

func (p *Project) ThreadKey() ThreadKey {
	return ProjectThread(p.OwnerID, p.ID)
}
