package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/example/stacklyhub/internal/policy"
)

// DefaultRangeDays is the analytics window used when none is requested.
const DefaultRangeDays = 30

// AllowedRanges lists the analytics windows in days.
var AllowedRanges = []int{7, 30, 90, 365}

// AnalyticsRoster is the read-only view analytics are computed from.
type AnalyticsRoster interface {
	Users() []User
	Sessions() []Session
}

// Stat is a labelled headline figure as shown on dashboards and in exports.
type Stat struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Count is a labelled tally used for distributions.
type Count struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Stats are the analytics headline figures.
type Stats struct {
	TotalSessions  int `json:"totalSessions"`
	ActiveUsers    int `json:"activeUsers"`
	CompletionRate int `json:"completionRate"`
	AvgDuration    int `json:"avgDuration"`
}

// List renders the stats the way the export file presents them.
func (s Stats) List() []Stat {
	return []Stat{
		{Name: "Total Sessions", Value: strconv.Itoa(s.TotalSessions)},
		{Name: "Active Users", Value: strconv.Itoa(s.ActiveUsers)},
		{Name: "Completion Rate", Value: fmt.Sprintf("%d%%", s.CompletionRate)},
		{Name: "Avg Duration", Value: fmt.Sprintf("%dm", s.AvgDuration)},
	}
}

// TrainerPerformance summarises one trainer's sessions inside the window.
type TrainerPerformance struct {
	TrainerID      int    `json:"trainerId"`
	Name           string `json:"name"`
	Sessions       int    `json:"sessions"`
	Completed      int    `json:"completed"`
	Attendees      int    `json:"attendees"`
	CompletionRate int    `json:"completionRate"`
}

// DailyEngagement counts sessions and present attendees for one calendar day.
type DailyEngagement struct {
	Date       string `json:"date"`
	Sessions   int    `json:"sessions"`
	Attendance int    `json:"attendance"`
}

// Overview is the analytics page model.
type Overview struct {
	RangeDays          int                  `json:"rangeDays"`
	From               time.Time            `json:"from"`
	To                 time.Time            `json:"to"`
	Stats              Stats                `json:"stats"`
	StatusDistribution []Count              `json:"statusDistribution"`
	TrainerPerformance []TrainerPerformance `json:"trainerPerformance"`
	Engagement         []DailyEngagement    `json:"engagement"`
}

// ExportReport is the downloadable analytics document.
type ExportReport struct {
	DateRange          string               `json:"dateRange"`
	Stats              []Stat               `json:"stats"`
	Sessions           int                  `json:"sessions"`
	TrainerPerformance []TrainerPerformance `json:"trainerPerformance"`
	GeneratedAt        string               `json:"generatedAt"`
	// FileName is the suggested download name.
	FileName string `json:"-"`
}

// Dashboard is the role specific landing page model.
type Dashboard struct {
	Role             Role      `json:"role"`
	Cards            []Stat    `json:"cards"`
	RoleDistribution []Count   `json:"roleDistribution,omitempty"`
	Upcoming         []Session `json:"upcoming"`
	RecentCompleted  []Session `json:"recentCompleted"`
	Trainees         []User    `json:"trainees,omitempty"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// AnalyticsService computes analytics and dashboards from the rosters.
type AnalyticsService struct {
	roster AnalyticsRoster
	logger *slog.Logger
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(roster AnalyticsRoster) *AnalyticsService {
	return NewAnalyticsServiceWithLogger(roster, nil)
}

// NewAnalyticsServiceWithLogger constructs an AnalyticsService with a specified logger.
func NewAnalyticsServiceWithLogger(roster AnalyticsRoster, logger *slog.Logger) *AnalyticsService {
	return &AnalyticsService{roster: roster, logger: defaultLogger(logger)}
}

func (s *AnalyticsService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AnalyticsService", operation, attrs...)
}

// NormalizeRange maps zero to the default window and rejects unsupported ones.
func NormalizeRange(days int) (int, error) {
	if days == 0 {
		return DefaultRangeDays, nil
	}
	if !slices.Contains(AllowedRanges, days) {
		return 0, &ValidationError{FieldErrors: map[string]string{"range": "range must be one of 7, 30, 90 or 365 days"}}
	}
	return days, nil
}

// Overview computes the analytics for sessions starting in [now-rangeDays, now]. Admin only.
func (s *AnalyticsService) Overview(ctx context.Context, principal Principal, rangeDays int, now time.Time) (Overview, error) {
	if err := policy.Can(principal.subject(), policy.ActionViewAnalytics); err != nil {
		return Overview{}, err
	}
	days, err := NormalizeRange(rangeDays)
	if err != nil {
		return Overview{}, err
	}

	users := s.roster.Users()
	sessions := s.roster.Sessions()
	from := now.AddDate(0, 0, -days)

	var window []Session
	for _, sess := range sessions {
		if !sess.StartTime.Before(from) && !sess.StartTime.After(now) {
			window = append(window, sess)
		}
	}

	overview := Overview{
		RangeDays: days,
		From:      from,
		To:        now,
		Stats:     computeStats(users, window),
		StatusDistribution: []Count{
			{Name: "Scheduled", Value: countStatus(window, StatusScheduled)},
			{Name: "Completed", Value: countStatus(window, StatusCompleted)},
			{Name: "Cancelled", Value: countStatus(window, StatusCancelled)},
		},
		TrainerPerformance: trainerPerformance(users, window),
		Engagement:         dailyEngagement(sessions, days, now),
	}

	s.loggerWith(ctx, "Overview", "user_id", principal.UserID).
		DebugContext(ctx, "analytics computed", "range_days", days, "sessions", len(window))
	return overview, nil
}

// Export builds the downloadable report for the same window as Overview.
func (s *AnalyticsService) Export(ctx context.Context, principal Principal, rangeDays int, now time.Time) (ExportReport, error) {
	overview, err := s.Overview(ctx, principal, rangeDays, now)
	if err != nil {
		return ExportReport{}, err
	}

	report := ExportReport{
		DateRange:          fmt.Sprintf("%s to %s", overview.From.Format(time.DateOnly), overview.To.Format(time.DateOnly)),
		Stats:              overview.Stats.List(),
		Sessions:           overview.Stats.TotalSessions,
		TrainerPerformance: overview.TrainerPerformance,
		GeneratedAt:        now.UTC().Format(time.RFC3339),
		FileName:           fmt.Sprintf("training-analytics-%s.json", now.Format(time.DateOnly)),
	}
	s.loggerWith(ctx, "Export", "user_id", principal.UserID).
		InfoContext(ctx, "analytics exported", "date_range", report.DateRange)
	return report, nil
}

// Dashboard builds the landing page for principal's role.
func (s *AnalyticsService) Dashboard(ctx context.Context, principal Principal, now time.Time) (Dashboard, error) {
	if err := policy.Can(principal.subject(), policy.ActionViewDashboard); err != nil {
		return Dashboard{}, err
	}

	users := s.roster.Users()
	sessions := s.roster.Sessions()
	sortByStart(sessions)

	board := Dashboard{Role: principal.Role, GeneratedAt: now}
	switch principal.Role {
	case RoleAdmin:
		board.Cards = []Stat{
			{Name: "Total Users", Value: strconv.Itoa(len(users))},
			{Name: "Active Sessions", Value: strconv.Itoa(countStatus(sessions, StatusScheduled))},
			{Name: "Completed Sessions", Value: strconv.Itoa(countStatus(sessions, StatusCompleted))},
		}
		board.RoleDistribution = []Count{
			{Name: "Admins", Value: countRole(users, RoleAdmin)},
			{Name: "Trainers", Value: countRole(users, RoleTrainer)},
			{Name: "Trainees", Value: countRole(users, RoleTrainee)},
		}
		board.Upcoming, board.RecentCompleted = split(sessions)
	case RoleTrainer:
		var mine []Session
		for _, sess := range sessions {
			if sess.Trainer == principal.UserID {
				mine = append(mine, sess)
			}
		}
		board.Trainees = []User{}
		for _, u := range users {
			if u.AssignedTrainer != nil && *u.AssignedTrainer == principal.UserID {
				board.Trainees = append(board.Trainees, u)
			}
		}
		board.Upcoming, board.RecentCompleted = split(mine)
		board.Cards = []Stat{
			{Name: "Total Sessions", Value: strconv.Itoa(len(mine))},
			{Name: "My Trainees", Value: strconv.Itoa(len(board.Trainees))},
			{Name: "Upcoming", Value: strconv.Itoa(countStatus(mine, StatusScheduled))},
			{Name: "Completed", Value: strconv.Itoa(countStatus(mine, StatusCompleted))},
		}
	case RoleTrainee:
		var mine []Session
		for _, sess := range sessions {
			if sess.Enrolled(principal.UserID) {
				mine = append(mine, sess)
			}
		}
		completed := countStatus(mine, StatusCompleted)
		board.Upcoming, board.RecentCompleted = split(mine)
		board.Cards = []Stat{
			{Name: "Total Sessions", Value: strconv.Itoa(len(mine))},
			{Name: "Upcoming", Value: strconv.Itoa(countStatus(mine, StatusScheduled))},
			{Name: "Completed", Value: strconv.Itoa(completed)},
			{Name: "Progress", Value: fmt.Sprintf("%d%%", percent(completed, len(mine)))},
		}
	}
	return board, nil
}

const recentCompletedLimit = 5

// split returns scheduled sessions and the most recent completed ones, newest first.
func split(sessions []Session) (upcoming, completed []Session) {
	upcoming = []Session{}
	completed = []Session{}
	for _, sess := range sessions {
		switch sess.Status {
		case StatusScheduled:
			upcoming = append(upcoming, sess)
		case StatusCompleted:
			completed = append(completed, sess)
		}
	}
	slices.Reverse(completed)
	if len(completed) > recentCompletedLimit {
		completed = completed[:recentCompletedLimit]
	}
	return upcoming, completed
}

func computeStats(users []User, window []Session) Stats {
	stats := Stats{TotalSessions: len(window)}
	for _, u := range users {
		if u.Role != RoleAdmin {
			stats.ActiveUsers++
		}
	}
	if len(window) == 0 {
		return stats
	}
	total := 0
	for _, sess := range window {
		total += sess.Duration
	}
	stats.CompletionRate = percent(countStatus(window, StatusCompleted), len(window))
	stats.AvgDuration = int(math.Round(float64(total) / float64(len(window))))
	return stats
}

func trainerPerformance(users []User, window []Session) []TrainerPerformance {
	out := []TrainerPerformance{}
	for _, u := range users {
		if u.Role != RoleTrainer {
			continue
		}
		perf := TrainerPerformance{TrainerID: u.ID, Name: u.Name}
		for _, sess := range window {
			if sess.Trainer != u.ID {
				continue
			}
			perf.Sessions++
			if sess.Status == StatusCompleted {
				perf.Completed++
				perf.Attendees += presentCount(sess)
			}
		}
		perf.CompletionRate = percent(perf.Completed, perf.Sessions)
		out = append(out, perf)
	}
	return out
}

// dailyEngagement covers the days calendar days ending today, oldest first.
func dailyEngagement(sessions []Session, days int, now time.Time) []DailyEngagement {
	out := make([]DailyEngagement, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 0, 1)

		entry := DailyEngagement{Date: day.Format("Jan 2")}
		for _, sess := range sessions {
			at := sess.StartTime.In(now.Location())
			if !at.Before(start) && at.Before(end) {
				entry.Sessions++
				entry.Attendance += presentCount(sess)
			}
		}
		out = append(out, entry)
	}
	return out
}

func presentCount(sess Session) int {
	n := 0
	for _, a := range sess.Attendance {
		if a.Present {
			n++
		}
	}
	return n
}

func countStatus(sessions []Session, status SessionStatus) int {
	n := 0
	for _, sess := range sessions {
		if sess.Status == status {
			n++
		}
	}
	return n
}

func countRole(users []User, role Role) int {
	n := 0
	for _, u := range users {
		if u.Role == role {
			n++
		}
	}
	return n
}
