// internal/app/features/auditlog/types.go
package auditlog

import "github.com/condovote/assemblyhub/internal/app/store/audit"

// listResponse is the body of GET /api/audit.
type listResponse struct {
	Events     []audit.Event `json:"events"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	Total      int64         `json:"total"`
	HasPrev    bool          `json:"has_prev"`
	HasNext    bool          `json:"has_next"`

	// Filter options for the current category.
	Categories []string `json:"categories"`
	EventTypes []string `json:"event_types"`
}

func allCategories() []string {
	return []string{audit.CategoryGovernance, audit.CategoryAttendance}
}

// eventTypesForCategory returns the event types for a given category.
// If category is empty, returns all event types.
func eventTypesForCategory(category string) []string {
	governanceEvents := []string{
		audit.EventAssemblyCreated,
		audit.EventAssemblyStarted,
		audit.EventAssemblyFinished,
		audit.EventAssemblyCancelled,
		audit.EventAssemblyDeleted,
		audit.EventCheckinOTPIssued,
		audit.EventVotingStarted,
		audit.EventVotingClosed,
		audit.EventVotingOTPIssued,
		audit.EventVoteCast,
		audit.EventParticipantAdded,
		audit.EventParticipantWeight,
		audit.EventParticipantOK,
		audit.EventParticipantDenied,
		audit.EventParticipantRemove,
		audit.EventMinutesGenerated,
		audit.EventMinutesApproved,
		audit.EventMinutesPublished,
	}

	attendanceEvents := []string{
		audit.EventCheckin,
		audit.EventReentry,
		audit.EventCheckout,
		audit.EventCheckinFailed,
	}

	switch category {
	case audit.CategoryGovernance:
		return governanceEvents
	case audit.CategoryAttendance:
		return attendanceEvents
	case "":
		all := make([]string, 0, len(governanceEvents)+len(attendanceEvents))
		all = append(all, governanceEvents...)
		all = append(all, attendanceEvents...)
		return all
	default:
		return nil
	}
}
