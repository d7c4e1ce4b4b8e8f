package router

import (
	"strings"

	"example.com/attendance/internal/domain"
)

// Command is a recognised keyboard action.
type Command string

const (
	CommandStartWork  Command = "start_work"
	CommandEat        Command = "eat"
	CommandToilet     Command = "toilet"
	CommandSmoke      Command = "smoke"
	CommandBackToSeat Command = "back_to_seat"
	CommandSummary    Command = "summary"
	CommandOffWork    Command = "off_work"
)

// Keyboard button texts, matched exactly after trimming.
const (
	TokenStartWork  = "💼 开始工作 / Start Work"
	TokenEat        = "🍔 吃饭 / Eat"
	TokenToilet     = "🚽 上厕所 / Toilet"
	TokenSmoke      = "🚬 抽烟 / Smoke"
	TokenBackToSeat = "🪑 回到座位 / Back to Seat"
	TokenSummary    = "📊 本次总结 / Session Summary"
	TokenOffWork    = "🏁 下班 / Off Work"
)

// action describes how a transition command mutates the log and what it replies.
type action struct {
	opens      domain.Category
	endSession bool
	icon       string
	title      string
	timeLabel  string
	prevHeader string
}

var actions = map[Command]action{
	CommandStartWork: {
		opens: domain.CategoryWork, icon: "💼", title: "开始工作 / Work Started",
		timeLabel: "时间 / Time", prevHeader: "上一个活动结束 / Previous ended:",
	},
	CommandEat: {
		opens: domain.CategoryEat, icon: "🍔", title: "吃饭去了 / Eating",
		timeLabel: "开始时间 / Start Time", prevHeader: "上一个活动结束:",
	},
	CommandToilet: {
		opens: domain.CategoryToilet, icon: "🚽", title: "上厕所 / Toilet Break",
		timeLabel: "开始时间 / Start Time", prevHeader: "上一个活动结束:",
	},
	CommandSmoke: {
		opens: domain.CategorySmoke, icon: "🚬", title: "抽烟去了 / Smoking",
		timeLabel: "开始时间 / Start Time", prevHeader: "上一个活动结束:",
	},
	CommandBackToSeat: {
		opens: domain.CategoryWork, icon: "🪑", title: "回到座位，继续工作 / Back to Work",
		timeLabel: "时间 / Time", prevHeader: "休息结束 / Break ended:",
	},
	CommandOffWork: {
		endSession: true, icon: "🏁", title: "下班啦！/ Off Work",
		timeLabel: "时间 / Time", prevHeader: "最后一个活动结束:",
	},
}

var tokens = map[string]Command{
	TokenStartWork:  CommandStartWork,
	TokenEat:        CommandEat,
	TokenToilet:     CommandToilet,
	TokenSmoke:      CommandSmoke,
	TokenBackToSeat: CommandBackToSeat,
	TokenSummary:    CommandSummary,
	TokenOffWork:    CommandOffWork,
}

// ParseCommand maps a button text to its command. Slash commands and unknown
// text are not recognised.
func ParseCommand(token string) (Command, bool) {
	token = strings.TrimSpace(token)
	if token == "" || strings.HasPrefix(token, "/") {
		return "", false
	}
	cmd, ok := tokens[token]
	return cmd, ok
}

// KeyboardLayout returns the button rows of the main keyboard.
func KeyboardLayout() [][]string {
	return [][]string{
		{TokenStartWork, TokenOffWork},
		{TokenEat, TokenToilet, TokenSmoke},
		{TokenBackToSeat, TokenSummary},
	}
}
