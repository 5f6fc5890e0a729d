package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hireloop/hireloop/internal/core/domain"
)

// Config holds the scoring constants. Defaults match the shipped behavior;
// all of them are overridable from the engine config file.
type Config struct {
	TitleWeight     float64 `yaml:"title_weight"`
	LocationWeight  float64 `yaml:"location_weight"`
	SalaryWeight    float64 `yaml:"salary_weight"`
	FreshnessWeight float64 `yaml:"freshness_weight"`

	// HighlightThreshold is the sub-score floor for emitting a highlight.
	HighlightThreshold int `yaml:"highlight_threshold"`

	// ScoreThreshold is the overall score a job must reach to qualify for
	// the application stages.
	ScoreThreshold int `yaml:"score_threshold"`

	// FreshDays postings score full freshness; past StaleDays they score 0,
	// with linear decay in between.
	FreshDays int `yaml:"fresh_days"`
	StaleDays int `yaml:"stale_days"`

	// SalarySlack is the tolerated shortfall below the profile minimum,
	// as a fraction of that minimum.
	SalarySlack float64 `yaml:"salary_slack"`
}

// DefaultConfig returns the standard weights and windows.
func DefaultConfig() Config {
	return Config{
		TitleWeight:        0.35,
		LocationWeight:     0.25,
		SalaryWeight:       0.25,
		FreshnessWeight:    0.15,
		HighlightThreshold: 70,
		ScoreThreshold:     70,
		FreshDays:          7,
		StaleDays:          60,
		SalarySlack:        0.20,
	}
}

// Engine computes profile/job compatibility. Score and Rank are pure:
// no store access, no clock reads beyond the injected now.
type Engine struct {
	cfg Config
	now func() time.Time
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, now: time.Now}
}

// NewEngineAt pins the clock, for reproducible scoring in tests and
// batch reruns.
func NewEngineAt(cfg Config, now func() time.Time) *Engine {
	return &Engine{cfg: cfg, now: now}
}

// Score computes the weighted compatibility of one profile/job pair.
// A hard-filter failure yields score 0 with a single highlight naming
// the filter that failed.
func (e *Engine) Score(profile *domain.UserProfile, job *domain.Job) domain.MatchResult {
	res := domain.MatchResult{
		UserID:     profile.UserID,
		JobID:      job.ID,
		Highlights: []string{},
		ComputedAt: e.now().UTC(),
	}

	if reason, failed := e.hardFilter(profile, job); failed {
		res.Highlights = append(res.Highlights, reason)
		return res
	}

	title := e.titleAffinity(profile, job)
	location := e.locationFit(profile, job)
	salary := e.salaryFit(profile, job)
	freshness := e.freshness(job)

	weighted := title*e.cfg.TitleWeight +
		location*e.cfg.LocationWeight +
		salary*e.cfg.SalaryWeight +
		freshness*e.cfg.FreshnessWeight
	res.Score = clamp(int(math.Round(weighted)), 0, 100)

	// fixed order: title, location, salary, freshness
	th := float64(e.cfg.HighlightThreshold)
	if title >= th {
		res.Highlights = append(res.Highlights,
			fmt.Sprintf("strong title and keyword overlap (%d/100)", int(math.Round(title))))
	}
	if location >= th {
		res.Highlights = append(res.Highlights,
			fmt.Sprintf("location fits %s preference", profile.Preferences.RemotePreference))
	}
	if salary >= th {
		res.Highlights = append(res.Highlights,
			fmt.Sprintf("salary range compatible (%d/100)", int(math.Round(salary))))
	}
	if freshness >= th {
		res.Highlights = append(res.Highlights, "recently posted")
	}
	return res
}

// Rank scores every job for one profile, drops hard-filtered (zero-score)
// postings, and sorts the rest descending by score, ties broken by more
// recent posting date, then by job ID ascending.
func (e *Engine) Rank(profile *domain.UserProfile, jobs []domain.Job) []domain.MatchResult {
	out := make([]domain.MatchResult, 0, len(jobs))
	byJob := make(map[domain.JobID]*domain.Job, len(jobs))
	for i := range jobs {
		r := e.Score(profile, &jobs[i])
		if r.Score == 0 {
			continue
		}
		byJob[r.JobID] = &jobs[i]
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		pi, pj := byJob[out[i].JobID].PostedAt, byJob[out[j].JobID].PostedAt
		switch {
		case pi != nil && pj != nil && !pi.Equal(*pj):
			return pi.After(*pj)
		case pi != nil && pj == nil:
			return true
		case pi == nil && pj != nil:
			return false
		}
		return out[i].JobID < out[j].JobID
	})
	return out
}

// hardFilter returns the failure reason and true when the job must be
// excluded outright.
func (e *Engine) hardFilter(profile *domain.UserProfile, job *domain.Job) (string, bool) {
	company := strings.ToLower(strings.TrimSpace(job.Company))
	for _, b := range profile.Filters.BlacklistedCompanies {
		if strings.ToLower(strings.TrimSpace(b)) == company {
			return "excluded: company is blacklisted", true
		}
	}

	text := job.SearchText()
	if req := profile.Filters.RequiredKeywords; len(req) > 0 {
		found := false
		for _, kw := range req {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
				found = true
				break
			}
		}
		if !found {
			return "excluded: no required keyword present", true
		}
	}

	for _, kw := range profile.Filters.ExcludedKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" && strings.Contains(text, kw) {
			return fmt.Sprintf("excluded: contains %q", kw), true
		}
	}
	return "", false
}

// titleAffinity is the fraction of profile terms (target titles plus resume
// keywords) present in the job text. An empty term set trivially passes.
func (e *Engine) titleAffinity(profile *domain.UserProfile, job *domain.Job) float64 {
	terms := profile.MatchTerms()
	if len(terms) == 0 {
		return 100
	}
	text := job.SearchText()
	hits := 0
	for _, term := range terms {
		if strings.Contains(text, strings.ToLower(term)) {
			hits++
		}
	}
	return math.Min(100, float64(hits)/float64(len(terms))*100)
}

func (e *Engine) locationFit(profile *domain.UserProfile, job *domain.Job) float64 {
	pref := profile.Preferences.RemotePreference
	if pref == domain.RemoteAny || pref == "" {
		return 100
	}

	switch pref {
	case domain.RemoteOnly:
		if job.RemoteStatus == domain.RemoteStatusRemote {
			return 100
		}
	case domain.HybridOK:
		if job.RemoteStatus == domain.RemoteStatusRemote || job.RemoteStatus == domain.RemoteStatusHybrid {
			return 100
		}
	case domain.OnsiteOK:
		return 100
	}

	loc := strings.ToLower(job.Location)
	for _, want := range profile.Preferences.Locations {
		if want = strings.ToLower(strings.TrimSpace(want)); want != "" && strings.Contains(loc, want) {
			return 100
		}
	}
	return 0
}

// salaryFit compares the job's posted range against the profile minimum.
// Full marks when either side posts nothing, or when the job's effective
// minimum clears the profile's; otherwise the score decays linearly to 0 as
// the shortfall grows past the configured slack.
func (e *Engine) salaryFit(profile *domain.UserProfile, job *domain.Job) float64 {
	pMin := profile.Preferences.SalaryMin
	jMin := job.SalaryRange.Min
	if jMin == nil {
		jMin = job.SalaryRange.Max
	}
	if pMin == nil || jMin == nil {
		return 100
	}
	if *jMin >= *pMin {
		return 100
	}

	slack := float64(*pMin) * e.cfg.SalarySlack
	if slack <= 0 {
		return 0
	}
	gap := float64(*pMin - *jMin)
	return math.Max(0, 100*(1-gap/slack))
}

func (e *Engine) freshness(job *domain.Job) float64 {
	if job.PostedAt == nil {
		return 0
	}
	age := e.now().Sub(*job.PostedAt).Hours() / 24
	fresh, stale := float64(e.cfg.FreshDays), float64(e.cfg.StaleDays)
	switch {
	case age <= fresh:
		return 100
	case age >= stale:
		return 0
	}
	return 100 * (stale - age) / (stale - fresh)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
