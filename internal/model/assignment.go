package model

import "time"

// Assignment is a piece of coursework. Its ID is generated by the repository.
type Assignment struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Points        int       `json:"points"`
	NumOfAttempts int       `json:"num_of_attempts"`
	Deadline      time.Time `json:"deadline"`
	CreatedAt     time.Time `json:"assignment_created"`
	UpdatedAt     time.Time `json:"assignment_updated"`
}

// AssignmentLink records that UserID owns AssignmentID.
// ID is always LinkID(UserID, AssignmentID).
type AssignmentLink struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	AssignmentID string    `json:"assignment_id"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LinkSeparator joins the user and assignment ids inside a link id.
// Neither UUIDs nor xids contain it, so a link id splits back unambiguously.
const LinkSeparator = "_"

// LinkID builds the ownership key for a (user, assignment) pair.
//
// Every code path that creates, looks up or deletes a link must go through this
// function: the user id comes first, the assignment id second. If two call sites
// disagree, ownership checks silently start failing.
func LinkID(userID, assignmentID string) string {
	return userID + LinkSeparator + assignmentID
}

// NewAssignmentLink returns the link asserting that userID owns assignmentID.
func NewAssignmentLink(userID, assignmentID string) *AssignmentLink {
	return &AssignmentLink{
		ID:           LinkID(userID, assignmentID),
		UserID:       userID,
		AssignmentID: assignmentID,
	}
}
