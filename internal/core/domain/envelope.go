package domain

// AgentName identifies one of the ten pipeline stages. The set is closed;
// the registry rejects anything else.
type AgentName string

const (
	AgentProfile      AgentName = "profile"
	AgentResumeParser AgentName = "resume_parser"
	AgentScraper      AgentName = "scraper"
	AgentMatcher      AgentName = "matcher"
	AgentResumeTailor AgentName = "resume_tailor"
	AgentCoverLetter  AgentName = "cover_letter"
	AgentFormFiller   AgentName = "form_filler"
	AgentQA           AgentName = "qa"
	AgentTracker      AgentName = "tracker"
	AgentDigest       AgentName = "digest"
)

// AgentNames lists the closed capability set in pipeline order.
func AgentNames() []AgentName {
	return []AgentName{
		AgentProfile, AgentResumeParser, AgentScraper, AgentMatcher,
		AgentResumeTailor, AgentCoverLetter, AgentFormFiller, AgentQA,
		AgentTracker, AgentDigest,
	}
}

// Output is the typed result payload of one hop. Each capability fills the
// fields it owns; Extra is reserved for genuinely open-ended metadata.
type Output struct {
	Profile      *UserProfile      `json:"profile,omitempty"`
	Jobs         []Job             `json:"jobs,omitempty"`
	Matches      []MatchResult     `json:"matches,omitempty"`
	Application  *Application      `json:"application,omitempty"`
	Applications []Application     `json:"applications,omitempty"`
	Artifact     string            `json:"artifact,omitempty"`
	Answers      map[string]string `json:"answers,omitempty"`
	Digest       *DigestReport     `json:"digest,omitempty"`
	Extra        map[string]any    `json:"extra,omitempty"`
}

// Pass is the ephemeral context forwarded to the next stage only.
// It is not merged into shared memory.
type Pass struct {
	JobIDs     []JobID        `json:"job_ids,omitempty"`
	AppIDs     []AppID        `json:"app_ids,omitempty"`
	MatchScore int            `json:"match_score,omitempty"`
	Question   string         `json:"question,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// Envelope is the message every capability returns: what it did, what the
// next stage is (empty string terminates the run), what to forward, and
// what to merge into shared memory before the next hop.
type Envelope struct {
	Agent        AgentName      `json:"agent"`
	Action       string         `json:"action"`
	Output       Output         `json:"output_data"`
	NextAgent    AgentName      `json:"next_agent,omitempty"`
	Pass         Pass           `json:"pass_data,omitempty"`
	SaveToMemory map[string]any `json:"save_to_memory,omitempty"`
}

// DigestReport summarizes a user's pipeline activity for one period.
type DigestReport struct {
	UserID         UserID         `json:"user_id"`
	GeneratedAt    string         `json:"generated_at"`
	Text           string         `json:"text"`
	StatsByStatus  map[string]int `json:"stats_by_status"`
	RecentActivity int            `json:"recent_activity"`
	StaleFollowUps []AppID        `json:"stale_follow_ups,omitempty"`
	NewMatches     int            `json:"new_matches"`
}
