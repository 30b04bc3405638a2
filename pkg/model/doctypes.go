package model

import "strings"

// Record type names with engine-level special cases.
const (
	DoctypeEmployee       = "employee"
	DoctypeAnnouncement   = "announcement"
	DoctypeCircular       = "circular"
	DoctypeDepartment     = "department"
	DoctypeDesignation    = "designation"
	DoctypeStudyCenter    = "study-center"
	DoctypeJobApplication = "job-application"
)

// AnnouncementTypes get sentinel department/target-center options and have
// sentinel departments scrubbed on submit.
var AnnouncementTypes = []string{DoctypeAnnouncement, DoctypeCircular}

// DepartmentalTypes are seeded with the session department.
var DepartmentalTypes = []string{
	"job-opening",
	DoctypeJobApplication,
	"attendance",
	"leave-application",
	"expense-claim",
	"task",
	"support-ticket",
	"asset",
	"student",
	DoctypeAnnouncement,
	DoctypeCircular,
}

// IsAnnouncementType reports whether recordType is announcement-like.
func IsAnnouncementType(recordType string) bool {
	return contains(AnnouncementTypes, recordType)
}

// IsDepartmentalType reports whether recordType is seeded with the session
// department.
func IsDepartmentalType(recordType string) bool {
	return contains(DepartmentalTypes, recordType)
}

func contains(list []string, recordType string) bool {
	normalized := strings.ToLower(strings.TrimSpace(recordType))
	for _, candidate := range list {
		if candidate == normalized {
			return true
		}
	}
	return false
}
