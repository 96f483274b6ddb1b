package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/panbanda/defectmine/pkg/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultJiraURL is the Apache Software Foundation Jira instance.
const DefaultJiraURL = "https://issues.apache.org/jira"

// DefaultPageSize is the largest page the search endpoint serves.
const DefaultPageSize = 1000

// JiraOptions configures a Jira source.
type JiraOptions struct {
	BaseURL  string
	PageSize int
	// RateLimit is requests per second; zero disables limiting.
	RateLimit  float64
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// Jira pages through the REST search API.
type Jira struct {
	baseURL  string
	pageSize int
	client   *http.Client
	limiter  *rate.Limiter
	logger   logrus.FieldLogger
}

// NewJira creates a Jira source.
func NewJira(opts JiraOptions) *Jira {
	j := &Jira{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		pageSize: opts.PageSize,
		client:   opts.HTTPClient,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		logger:   opts.Logger,
	}
	if j.baseURL == "" {
		j.baseURL = DefaultJiraURL
	}
	if j.pageSize <= 0 {
		j.pageSize = DefaultPageSize
	}
	if j.client == nil {
		j.client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.RateLimit > 0 {
		j.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	if j.logger == nil {
		j.logger = logrus.StandardLogger()
	}
	return j
}

// JQL is the search for fixed bugs of project.
func JQL(project string) string {
	return fmt.Sprintf(`project=%q AND issueType="Bug" AND (status="closed" OR status="resolved") AND resolution="fixed"`, project)
}

type searchResult struct {
	StartAt    int         `json:"startAt"`
	MaxResults int         `json:"maxResults"`
	Total      int         `json:"total"`
	Issues     []jiraIssue `json:"issues"`
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		ResolutionDate *string `json:"resolutiondate"`
		Created        *string `json:"created"`
		Versions       []struct {
			Name string `json:"name"`
		} `json:"versions"`
	} `json:"fields"`
}

func (i jiraIssue) ticket() (models.Ticket, error) {
	created, err := ParseDate(deref(i.Fields.Created))
	if err != nil {
		return models.Ticket{}, fmt.Errorf("%s created: %w", i.Key, err)
	}
	resolved, err := ParseDate(deref(i.Fields.ResolutionDate))
	if err != nil {
		return models.Ticket{}, fmt.Errorf("%s resolutiondate: %w", i.Key, err)
	}
	t := models.Ticket{ID: i.Key, CreatedAt: created, ResolvedAt: resolved}
	for _, v := range i.Fields.Versions {
		t.AffectedVersions = append(t.AffectedVersions, v.Name)
	}
	return t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Tickets implements Source.
func (j *Jira) Tickets(ctx context.Context, project string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	for startAt := 0; ; {
		page, err := j.search(ctx, project, startAt)
		if err != nil {
			return nil, err
		}
		for _, issue := range page.Issues {
			t, err := issue.ticket()
			if err != nil {
				return nil, err
			}
			tickets = append(tickets, t)
		}
		startAt += len(page.Issues)

		j.logger.WithFields(logrus.Fields{
			"project": project,
			"fetched": startAt,
			"total":   page.Total,
		}).Debug("jira page")

		if len(page.Issues) == 0 || startAt >= page.Total {
			break
		}
	}
	return tickets, nil
}

func (j *Jira) search(ctx context.Context, project string, startAt int) (*searchResult, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("jql", JQL(project))
	q.Set("fields", "key,resolutiondate,versions,created")
	q.Set("startAt", strconv.Itoa(startAt))
	q.Set("maxResults", strconv.Itoa(j.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.baseURL+"/rest/api/2/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jira search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("jira search: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var result searchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode jira search: %w", err)
	}
	return &result, nil
}
