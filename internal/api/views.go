package api

import (
	"example.com/attendance/internal/domain"
)

// EntryView is one activity entry.
type EntryView struct {
	Category        string   `json:"category"`
	Start           string   `json:"start"`
	End             string   `json:"end,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
	Duration        string   `json:"duration,omitempty"`
}

// CategoryView is the session total of one category.
type CategoryView struct {
	Category string  `json:"category"`
	Minutes  float64 `json:"minutes"`
	Count    int     `json:"count"`
	Duration string  `json:"duration"`
}

// SessionView aggregates the current session.
type SessionView struct {
	Categories     []CategoryView `json:"categories"`
	TotalMinutes   float64        `json:"total_minutes"`
	NetWorkMinutes float64        `json:"net_work_minutes"`
	Total          string         `json:"total"`
	NetWork        string         `json:"net_work"`
}

// LogView exposes a daily log with its open entry and current session.
type LogView struct {
	UserID     int64       `json:"user_id"`
	Date       string      `json:"date"`
	Version    int64       `json:"version"`
	Activities []EntryView `json:"activities"`
	Open       *EntryView  `json:"open,omitempty"`
	Session    SessionView `json:"current_session"`
}

// ListLogsResponse packages a history page.
type ListLogsResponse struct {
	Items      []LogView `json:"items"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// SummaryResponse carries a rendered session summary.
type SummaryResponse struct {
	UserID int64  `json:"user_id"`
	Date   string `json:"date"`
	Text   string `json:"text"`
	HTML   string `json:"html"`
}

func toEntryView(e domain.ActivityEntry) EntryView {
	v := EntryView{Category: string(e.Category), Start: e.Start, End: e.End}
	if e.Closed() && e.Category != domain.CategorySessionEnd {
		minutes := e.DurationMinutes()
		v.DurationMinutes = &minutes
		v.Duration = domain.FormatDuration(minutes)
	}
	return v
}

func toLogView(log *domain.ActivityLog) LogView {
	view := LogView{
		UserID:     log.UserID,
		Date:       log.Date,
		Version:    log.Version,
		Activities: make([]EntryView, 0, len(log.Activities)),
	}
	for _, e := range log.Activities {
		view.Activities = append(view.Activities, toEntryView(e))
	}
	if open, ok := log.Open(); ok {
		ev := toEntryView(open)
		view.Open = &ev
	}

	totals := domain.Aggregate(log.CurrentSession())
	view.Session = SessionView{
		Categories:     make([]CategoryView, 0, len(totals.PerCategory)),
		TotalMinutes:   totals.TotalMinutes,
		NetWorkMinutes: totals.NetWorkMinutes,
		Total:          domain.FormatDuration(totals.TotalMinutes),
		NetWork:        domain.FormatDuration(totals.NetWorkMinutes),
	}
	for _, cat := range domain.TrackedCategories() {
		ct := totals.PerCategory[cat]
		view.Session.Categories = append(view.Session.Categories, CategoryView{
			Category: string(cat),
			Minutes:  ct.Minutes,
			Count:    ct.Count,
			Duration: domain.FormatDuration(ct.Minutes),
		})
	}
	return view
}
