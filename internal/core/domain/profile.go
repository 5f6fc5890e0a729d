package domain

import "strings"

type UserID string

// RemotePreference expresses how strongly a user wants remote work.
type RemotePreference string

const (
	RemoteOnly RemotePreference = "remote_only"
	HybridOK   RemotePreference = "hybrid_ok"
	OnsiteOK   RemotePreference = "onsite_ok"
	RemoteAny  RemotePreference = "any"
)

// Personal holds contact fields. The core never interprets these; they are
// carried for the profile and form-filler stages.
type Personal struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// JobPreferences are the positive side of a user's search criteria.
// TargetTitles is ordered by priority.
type JobPreferences struct {
	TargetTitles     []string         `json:"target_titles"`
	Locations        []string         `json:"locations"`
	RemotePreference RemotePreference `json:"remote_preference"`
	SalaryMin        *int             `json:"salary_min,omitempty"`
	SalaryMax        *int             `json:"salary_max,omitempty"`
	JobTypes         []string         `json:"job_types,omitempty"`
}

// Filters are the negative side: anything here can disqualify a job outright.
type Filters struct {
	RequiredKeywords     []string `json:"required_keywords"`
	ExcludedKeywords     []string `json:"excluded_keywords"`
	BlacklistedCompanies []string `json:"blacklisted_companies"`
}

type ExperienceEntry struct {
	Company  string   `json:"company"`
	Title    string   `json:"title"`
	Duration string   `json:"duration"`
	Bullets  []string `json:"bullets,omitempty"`
}

type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Year        string `json:"year"`
}

type Skills struct {
	Technical []string `json:"technical"`
	Tools     []string `json:"tools"`
	Soft      []string `json:"soft,omitempty"`
}

// ParsedResume is the structured output of the resume-parsing collaborator.
type ParsedResume struct {
	Summary           string            `json:"summary"`
	Experience        []ExperienceEntry `json:"experience,omitempty"`
	Education         []EducationEntry  `json:"education,omitempty"`
	Skills            Skills            `json:"skills"`
	Certifications    []string          `json:"certifications,omitempty"`
	ExtractedKeywords []string          `json:"extracted_keywords,omitempty"`
}

// Resume pairs the raw document text with its parsed form.
type Resume struct {
	RawText  string        `json:"raw_text,omitempty"`
	Parsed   *ParsedResume `json:"parsed,omitempty"`
	FilePath string        `json:"file_path,omitempty"`
}

// UserProfile is owned by the profile stage; everything else in the core
// treats it as read-only input.
type UserProfile struct {
	UserID      UserID         `json:"user_id"`
	Personal    Personal       `json:"personal"`
	Preferences JobPreferences `json:"job_preferences"`
	Filters     Filters        `json:"filters"`
	Resume      *Resume        `json:"resume,omitempty"`
}

// MatchTerms returns the search terms used for title/keyword affinity:
// the target titles plus any keywords extracted from the resume.
func (p *UserProfile) MatchTerms() []string {
	terms := make([]string, 0, len(p.Preferences.TargetTitles))
	terms = append(terms, p.Preferences.TargetTitles...)
	if p.Resume != nil && p.Resume.Parsed != nil {
		terms = append(terms, p.Resume.Parsed.ExtractedKeywords...)
	}
	out := terms[:0]
	for _, t := range terms {
		if strings.TrimSpace(t) != "" {
			out = append(out, t)
		}
	}
	return out
}
