package approval

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siteworks/backend/internal/domain/shared"
)

// Status represents the approval status of a document
type Status string

const (
	StatusDraft          Status = "DRAFT"
	StatusApprovedLevel1 Status = "APPROVED_LEVEL_1"
	StatusApprovedLevel2 Status = "APPROVED_LEVEL_2"
	StatusCompleted      Status = "COMPLETED"
	StatusSuspended      Status = "SUSPENDED"
)

// IsValid checks if the status is a valid approval Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusApprovedLevel1, StatusApprovedLevel2, StatusCompleted, StatusSuspended:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Action represents an approval workflow action
type Action string

const (
	ActionApprove1  Action = "approve1"
	ActionApprove2  Action = "approve2"
	ActionComplete  Action = "complete"
	ActionSuspend   Action = "suspend"
	ActionUnsuspend Action = "unsuspend"
)

// IsValid checks if the action is a known workflow action
func (a Action) IsValid() bool {
	switch a {
	case ActionApprove1, ActionApprove2, ActionComplete, ActionSuspend, ActionUnsuspend:
		return true
	}
	return false
}

// String returns the string representation of Action
func (a Action) String() string {
	return string(a)
}

// CapabilityChecker answers whether an actor holds a named capability.
// The state machine itself stays pure; permission evaluation is delegated
// to whoever implements this interface.
type CapabilityChecker interface {
	HasCapability(actorID uuid.UUID, capability string) bool
}

// Capabilities names the permission required for each action on a document type.
// An empty name means the action is not available for that document type.
type Capabilities struct {
	Approve1 string
	Approve2 string
	Complete string
	Suspend  string
}

// For returns the capability name guarding the given action.
// suspend and unsuspend share the same capability.
func (c Capabilities) For(action Action) string {
	switch action {
	case ActionApprove1:
		return c.Approve1
	case ActionApprove2:
		return c.Approve2
	case ActionComplete:
		return c.Complete
	case ActionSuspend, ActionUnsuspend:
		return c.Suspend
	}
	return ""
}

// State holds the approval workflow state embedded in approvable documents.
// Status advances monotonically except for the suspend/unsuspend detour;
// the stamped approver fields are the source of truth when recomputing the
// status after an unsuspend.
type State struct {
	Status        Status     `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	CreatedByID   uuid.UUID  `gorm:"type:uuid;not null"`
	Approved1ByID *uuid.UUID `gorm:"type:uuid"`
	Approved1At   *time.Time
	Approved2ByID *uuid.UUID `gorm:"type:uuid"`
	Approved2At   *time.Time
	CompletedByID *uuid.UUID `gorm:"type:uuid"`
	CompletedAt   *time.Time
	SuspendedByID *uuid.UUID `gorm:"type:uuid"`
	SuspendedAt   *time.Time
}

// NewState creates the initial workflow state for a freshly created document
func NewState(createdByID uuid.UUID) State {
	return State{
		Status:      StatusDraft,
		CreatedByID: createdByID,
	}
}

// IsApproved1 returns true if level-1 approval has been stamped
func (s *State) IsApproved1() bool {
	return s.Approved1ByID != nil
}

// IsApproved2 returns true if level-2 approval has been stamped
func (s *State) IsApproved2() bool {
	return s.Approved2ByID != nil
}

// IsComplete returns true if the document has been completed
func (s *State) IsComplete() bool {
	return s.CompletedByID != nil
}

// IsSuspended returns true if the document is currently suspended
func (s *State) IsSuspended() bool {
	return s.Status == StatusSuspended
}

// resumeStatus recomputes the status a suspended document returns to,
// derived from the stamped approval fields
func (s *State) resumeStatus() Status {
	switch {
	case s.IsComplete():
		return StatusCompleted
	case s.IsApproved2():
		return StatusApprovedLevel2
	case s.IsApproved1():
		return StatusApprovedLevel1
	}
	return StatusDraft
}

// Transition applies a workflow action to the state.
// All guards must hold or the state is left untouched and a DomainError
// with a specific reason is returned.
func (s *State) Transition(action Action, actorID uuid.UUID, checker CapabilityChecker, caps Capabilities) error {
	if !action.IsValid() {
		return shared.NewDomainError("INVALID_ACTION", fmt.Sprintf("Unknown status action %q", action))
	}

	capability := caps.For(action)
	if capability == "" {
		return shared.NewDomainError("INVALID_ACTION", fmt.Sprintf("Action %q is not available for this document type", action))
	}
	if checker == nil || !checker.HasCapability(actorID, capability) {
		return shared.NewDomainError("FORBIDDEN", fmt.Sprintf("Actor lacks the %q capability", capability))
	}

	now := time.Now()

	switch action {
	case ActionApprove1:
		if s.Status != StatusDraft {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve level 1 in %s status", s.Status))
		}
		if actorID == s.CreatedByID {
			return shared.NewDomainError("FORBIDDEN", "Creator cannot approve own document")
		}
		s.Status = StatusApprovedLevel1
		s.Approved1ByID = &actorID
		s.Approved1At = &now

	case ActionApprove2:
		if s.Status != StatusApprovedLevel1 {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve level 2 in %s status", s.Status))
		}
		if actorID == s.CreatedByID {
			return shared.NewDomainError("FORBIDDEN", "Creator cannot approve own document")
		}
		if s.Approved1ByID != nil && actorID == *s.Approved1ByID {
			return shared.NewDomainError("FORBIDDEN", "Level-1 approver cannot also approve level 2")
		}
		s.Status = StatusApprovedLevel2
		s.Approved2ByID = &actorID
		s.Approved2At = &now

	case ActionComplete:
		if s.Status != StatusApprovedLevel2 {
			return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete in %s status", s.Status))
		}
		s.Status = StatusCompleted
		s.CompletedByID = &actorID
		s.CompletedAt = &now

	case ActionSuspend:
		if s.Status == StatusCompleted {
			return shared.NewDomainError("INVALID_STATE", "Cannot suspend a completed document")
		}
		if s.Status == StatusSuspended {
			return shared.NewDomainError("INVALID_STATE", "Document is already suspended")
		}
		s.Status = StatusSuspended
		s.SuspendedByID = &actorID
		s.SuspendedAt = &now

	case ActionUnsuspend:
		if s.Status != StatusSuspended {
			return shared.NewDomainError("INVALID_STATE", "Document is not suspended")
		}
		s.Status = s.resumeStatus()
		s.SuspendedByID = nil
		s.SuspendedAt = nil
	}

	return nil
}

// Escalate stamps level-2 approval with the same actor immediately after a
// successful level-1 approval. This is the auto-escalation path for purchase
// orders below the amount threshold (or approved by an elevated approver);
// it intentionally skips the distinct-approver guard.
func (s *State) Escalate(actorID uuid.UUID) error {
	if s.Status != StatusApprovedLevel1 {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot escalate in %s status", s.Status))
	}
	now := time.Now()
	s.Status = StatusApprovedLevel2
	s.Approved2ByID = &actorID
	s.Approved2At = &now
	return nil
}
