// Package summary renders the per-session attendance report.
package summary

import (
	"fmt"

	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/message"
)

const separator = "──────────────────"

// Build renders the summary of the log's current session for userName.
func Build(log *domain.ActivityLog, userName string) message.Message {
	var b message.Builder
	if log == nil || len(log.Activities) == 0 {
		b.Text("📝 ").Bold("本次工作总结").Line().Italic("暂无活动记录")
		return b.Message()
	}

	totals := domain.Aggregate(log.CurrentSession())

	b.Text("📝 ").Bold("本次工作总结 / Session Summary").Line()
	b.Text("👤 ").Bold("用户 / User:").Text(" " + userName).Line()
	b.Text(separator)

	lines := 0
	for _, cat := range domain.TrackedCategories() {
		ct := totals.PerCategory[cat]
		if ct.Minutes == 0 && ct.Count == 0 {
			continue
		}
		d := cat.Describe()
		b.Line().Text(d.Icon + " ").Bold(d.NameLocal + " / " + d.NameEnglish + ":")
		b.Text(" " + domain.FormatDuration(ct.Minutes))
		if cat != domain.CategoryWork {
			b.Text(fmt.Sprintf(" (%d次)", ct.Count))
		}
		lines++
	}
	if lines == 0 {
		b.Line().Italic("暂无活动记录")
	}

	b.Line().Text(separator).Line()
	b.Text("⏱ ").Bold("本次总时长 / Total Session Time:").Text(" " + domain.FormatDuration(totals.TotalMinutes)).Line()
	b.Text("✅ ").Bold("实际工作时长 / Actual Working Hours:").Text(" " + domain.FormatDuration(totals.NetWorkMinutes))
	return b.Message()
}
