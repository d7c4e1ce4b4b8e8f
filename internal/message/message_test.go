package message

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderRendersHTMLAndPlain(t *testing.T) {
	var b Builder
	b.Text("💼 ").Bold("Work Started").Line().Text("👤 ").Bold("Tom & Jerry").Line().Italic("<none>")
	msg := b.Message()

	require.Equal(t, "💼 Work Started\n👤 Tom & Jerry\n<none>", msg.PlainText())
	require.Equal(t, "💼 <b>Work Started</b>\n👤 <b>Tom &amp; Jerry</b>\n<i>&lt;none&gt;</i>", msg.HTML())
}

func TestBuilderMergesPlainRuns(t *testing.T) {
	var b Builder
	b.Text("a").Text("b").Line().Bold("c").Text("")
	msg := b.Message()

	require.Len(t, msg.Segments, 2)
	require.Equal(t, Segment{Text: "ab\n", Style: Plain}, msg.Segments[0])
}

func TestEmptyMessage(t *testing.T) {
	require.True(t, Message{}.Empty())

	var b Builder
	b.Append(Message{}).Bold("x")
	require.False(t, b.Message().Empty())
}
