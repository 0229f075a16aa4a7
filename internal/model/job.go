package model

import "time"

// Allowed values for Job.Location and Job.JobType. Stored verbatim, so the
// strings match what the client renders.
var (
	JobLocations = []string{"Remote", "Hybrid", "On-site"}
	JobTypes     = []string{"Full-time", "Part-time", "Contract", "Internship"}
)

// Job represents a single posting on the board.
//
// SalaryMin/SalaryMax are annual figures; zero means "not disclosed".
// PostedBy is the ID of the posting user and may be empty for seeded data.
type Job struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Company         string    `json:"company"`
	Location        string    `json:"location"`
	JobType         string    `json:"jobType"`
	SalaryMin       int       `json:"salaryMin,omitempty"`
	SalaryMax       int       `json:"salaryMax,omitempty"`
	Skills          []string  `json:"skills"`
	Description     string    `json:"description"`
	ApplicationLink string    `json:"applicationLink"`
	ContactEmail    string    `json:"contactEmail"`
	LogoURL         string    `json:"logoUrl,omitempty"`
	PostedBy        string    `json:"postedBy,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ValidJobLocation reports whether loc is one of the allowed location modes.
func ValidJobLocation(loc string) bool {
	for _, l := range JobLocations {
		if l == loc {
			return true
		}
	}
	return false
}

// ValidJobType reports whether jt is one of the allowed employment types.
func ValidJobType(jt string) bool {
	for _, t := range JobTypes {
		if t == jt {
			return true
		}
	}
	return false
}
