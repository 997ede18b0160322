// Package errors provides structured errors shared by the runner and the
// combat engine boundary.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Catalog errors
	CodeQuestNotFound      Code = "QUEST_NOT_FOUND"
	CodeElementIDInvalid   Code = "ELEMENT_ID_INVALID"
	CodeQuestCatalogLoad   Code = "QUEST_CATALOG_LOAD"
	CodeQuestDisabled      Code = "QUEST_DISABLED"
	CodeSequenceNotPresent Code = "SEQUENCE_NOT_PRESENT"

	// Priority errors
	CodePriorityDuplicate Code = "PRIORITY_DUPLICATE"
	CodePriorityNotListed Code = "PRIORITY_NOT_LISTED"

	// Orchestration errors
	CodeNoActiveQuest      Code = "NO_ACTIVE_QUEST"
	CodeAlreadyRunning     Code = "ALREADY_RUNNING"
	CodeSimulationInactive Code = "SIMULATION_INACTIVE"
	CodeControllerBusy     Code = "CONTROLLER_BUSY"
	CodeCombatInactive     Code = "COMBAT_INACTIVE"
	CodeCombatNotPausable  Code = "COMBAT_NOT_PAUSABLE"

	// Lease protocol errors
	CodeLeaseUnavailable   Code = "LEASE_UNAVAILABLE"
	CodeLeaseUnknown       Code = "LEASE_UNKNOWN"
	CodeEngineUnavailable  Code = "ENGINE_UNAVAILABLE"
	CodeControlLost        Code = "CONTROL_LOST"
	CodeInvalidEngineInput Code = "INVALID_ENGINE_INPUT"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeElementIDInvalid,
		CodeInvalidEngineInput:
		return codes.InvalidArgument

	case CodeQuestDisabled,
		CodeAlreadyRunning,
		CodeSimulationInactive,
		CodeNoActiveQuest,
		CodeControllerBusy,
		CodeCombatInactive,
		CodeCombatNotPausable,
		CodeSequenceNotPresent:
		return codes.FailedPrecondition

	case CodeQuestNotFound,
		CodePriorityNotListed,
		CodeLeaseUnknown,
		CodeNotFound:
		return codes.NotFound

	case CodePriorityDuplicate:
		return codes.AlreadyExists

	case CodeLeaseUnavailable:
		return codes.ResourceExhausted

	case CodeEngineUnavailable:
		return codes.Unavailable

	case CodeControlLost:
		return codes.Aborted

	default:
		return codes.Internal
	}
}

var userMessages = map[Code]string{
	CodeQuestNotFound:      "Quest is not in the catalog.",
	CodeElementIDInvalid:   "Quest identifier is not valid.",
	CodeQuestDisabled:      "Quest is disabled.",
	CodePriorityDuplicate:  "Quest is already prioritized.",
	CodePriorityNotListed:  "Quest is not prioritized.",
	CodeNoActiveQuest:      "No active quest.",
	CodeAlreadyRunning:     "Already running.",
	CodeSimulationInactive: "Quest simulation is not active.",
	CodeCombatInactive:     "No combat encounter is active.",
	CodeCombatNotPausable:  "Combat module cannot pause.",
	CodeLeaseUnavailable:   "Combat engine did not grant control.",
	CodeLeaseUnknown:       "Combat engine lease is no longer valid.",
	CodeEngineUnavailable:  "Combat engine is not available.",
	CodeControlLost:        "Combat engine revoked control.",
}

// UserMessage returns the short status text shown for c.
func (c Code) UserMessage() string {
	if message, ok := userMessages[c]; ok {
		return message
	}
	return string(c)
}
