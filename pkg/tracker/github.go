package tracker

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/panbanda/defectmine/pkg/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// GitHubOptions configures a GitHub issues source.
type GitHubOptions struct {
	Token string
	// BaseURL overrides the API endpoint, for GitHub Enterprise.
	BaseURL string
	// BugLabel selects bug issues. Defaults to "bug".
	BugLabel string
	// VersionLabelPrefix marks labels naming an affected version,
	// e.g. "affects/" for "affects/4.2.0".
	VersionLabelPrefix string
	RateLimit          float64
	Logger             logrus.FieldLogger
}

// GitHub reads closed, completed bug issues as tickets. The project is
// "owner/repo" and ticket ids are "#<number>".
type GitHub struct {
	client  *github.Client
	limiter *rate.Limiter
	opts    GitHubOptions
	logger  logrus.FieldLogger
}

// NewGitHub creates a GitHub source.
func NewGitHub(opts GitHubOptions) (*GitHub, error) {
	client := github.NewClient(nil)
	if opts.Token != "" {
		client = client.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
		client.BaseURL = base
	}
	if opts.BugLabel == "" {
		opts.BugLabel = "bug"
	}
	if opts.VersionLabelPrefix == "" {
		opts.VersionLabelPrefix = "affects/"
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GitHub{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		logger:  logger,
	}, nil
}

// Tickets implements Source.
func (g *GitHub) Tickets(ctx context.Context, project string) ([]models.Ticket, error) {
	owner, repo, ok := strings.Cut(project, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("github project must be owner/repo, got %q", project)
	}

	opts := &github.IssueListByRepoOptions{
		State:       "closed",
		Labels:      []string{g.opts.BugLabel},
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var tickets []models.Ticket
	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		issues, resp, err := g.client.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() || issue.GetStateReason() != "completed" {
				continue
			}
			tickets = append(tickets, g.ticket(issue))
		}

		g.logger.WithFields(logrus.Fields{
			"project": project,
			"page":    opts.Page,
			"tickets": len(tickets),
		}).Debug("github page")

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return tickets, nil
}

func (g *GitHub) ticket(issue *github.Issue) models.Ticket {
	t := models.Ticket{
		ID:         fmt.Sprintf("#%d", issue.GetNumber()),
		CreatedAt:  dateOnly(issue.GetCreatedAt().Time),
		ResolvedAt: dateOnly(issue.GetClosedAt().Time),
	}
	for _, l := range issue.Labels {
		if v, ok := strings.CutPrefix(l.GetName(), g.opts.VersionLabelPrefix); ok && v != "" {
			t.AffectedVersions = append(t.AffectedVersions, v)
		}
	}
	return t
}
