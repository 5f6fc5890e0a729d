package greenhouse

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

const userAgent = "hireloop/1.0 (+local)"

// Company is one Greenhouse board to watch.
type Company struct {
	Slug string `yaml:"slug"` // boards.greenhouse.io/<slug>
	Name string `yaml:"name"` // display name
}

type Config struct {
	Companies []Company `yaml:"companies"`
	// RequestsPerSecond throttles each board host; defaults to 2.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Scraper pulls postings from Greenhouse job boards.
type Scraper struct {
	cfg     Config
	logger  *slog.Logger
	hc      *http.Client
	limiter *hostLimiter
	baseURL string
	now     func() time.Time
}

var _ ports.JobSource = (*Scraper)(nil)

func New(cfg Config, logger *slog.Logger) *Scraper {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		hc:      &http.Client{Timeout: 20 * time.Second},
		limiter: newHostLimiter(rps, 1),
		baseURL: "https://boards.greenhouse.io",
		now:     time.Now,
	}
}

// FetchJobs walks every configured board and returns postings whose title
// matches the query. One board being down does not fail the whole fetch;
// every board failing does.
func (s *Scraper) FetchJobs(ctx context.Context, query domain.JobQuery) ([]domain.Job, error) {
	if len(s.cfg.Companies) == 0 {
		return nil, nil
	}

	var out []domain.Job
	failures := 0
	var lastErr error
	for _, co := range s.cfg.Companies {
		jobs, err := s.fetchCompany(ctx, co, query)
		if err != nil {
			s.logger.Warn("board fetch failed", "slug", co.Slug, "error", err)
			failures++
			lastErr = err
			continue
		}
		out = append(out, jobs...)
		if query.Limit > 0 && len(out) >= query.Limit {
			out = out[:query.Limit]
			break
		}
	}
	if failures == len(s.cfg.Companies) {
		return nil, fmt.Errorf("all %d boards failed, last: %w", failures, lastErr)
	}
	return out, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company, query domain.JobQuery) ([]domain.Job, error) {
	boardURL := fmt.Sprintf("%s/%s", s.baseURL, co.Slug)
	doc, err := s.get(ctx, boardURL)
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", co.Slug, err)
	}

	// Boards link postings as /<slug>/jobs/<id>
	seen := map[string]bool{}
	var jobs []domain.Job
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}

		abs := href
		if strings.HasPrefix(href, "/") {
			abs = s.baseURL + href
		}
		if !strings.Contains(strings.ToLower(abs), "/jobs/") {
			return
		}
		if seen[abs] {
			return
		}
		seen[abs] = true

		title := cleanText(a.Text())
		if looksLikeJunkTitle(title) {
			title = ""
		}
		if title != "" && !titleMatches(title, query.Titles) {
			return
		}

		scraped := s.now().UTC()
		jobs = append(jobs, domain.Job{
			Title:          title,
			Company:        co.Name,
			SourceURL:      abs,
			ApplicationURL: abs,
			ScrapedAt:      &scraped,
			Status:         domain.JobStatusNew,
		})
	})

	// Hydrate details from each posting page; a failed hydrate keeps the
	// minimal entry.
	kept := jobs[:0]
	for i := range jobs {
		if err := s.hydrate(ctx, &jobs[i]); err != nil {
			s.logger.Debug("hydrate failed", "url", jobs[i].SourceURL, "error", err)
		}
		if jobs[i].Title == "" || !titleMatches(jobs[i].Title, query.Titles) {
			continue
		}
		jobs[i].ID = domain.DeriveJobID(jobs[i].Company, jobs[i].Title, jobs[i].Location)
		kept = append(kept, jobs[i])
	}
	return kept, nil
}

func (s *Scraper) hydrate(ctx context.Context, job *domain.Job) error {
	doc, err := s.get(ctx, job.SourceURL)
	if err != nil {
		return err
	}

	if job.Title == "" {
		job.Title = cleanText(doc.Find("h1").First().Text())
	}
	if loc := cleanText(doc.Find(".location").First().Text()); loc != "" {
		job.Location = loc
	}
	if sel := doc.Find("#content").First(); sel.Length() > 0 {
		job.Description = cleanText(sel.Text())
	}
	if job.PostedAt == nil {
		// boards rarely expose a posting date; treat first sighting as posted
		job.PostedAt = job.ScrapedAt
	}

	switch {
	case strings.Contains(strings.ToLower(job.Location), "remote"):
		job.RemoteStatus = domain.RemoteStatusRemote
	case strings.Contains(strings.ToLower(job.Location), "hybrid"):
		job.RemoteStatus = domain.RemoteStatusHybrid
	default:
		job.RemoteStatus = domain.RemoteStatusOnsite
	}
	return nil
}

func (s *Scraper) get(ctx context.Context, url string) (*goquery.Document, error) {
	if err := s.limiter.waitURL(ctx, url); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("status %d from %s", res.StatusCode, url)
	}

	return goquery.NewDocumentFromReader(res.Body)
}

// titleMatches is a case-insensitive substring check against the wanted
// titles; an empty want-list matches everything.
func titleMatches(title string, wanted []string) bool {
	if len(wanted) == 0 {
		return true
	}
	low := strings.ToLower(title)
	for _, w := range wanted {
		for _, word := range strings.Fields(strings.ToLower(w)) {
			if strings.Contains(low, word) {
				return true
			}
		}
	}
	return false
}

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func looksLikeJunkTitle(t string) bool {
	l := strings.ToLower(t)
	return strings.Contains(l, "view") || strings.Contains(l, "apply")
}
