// Package domain holds the attendance core: the per-user daily activity log,
// its state machine, session aggregation and the policies evaluated on it.
package domain

// Category identifies what a worker is doing. Values are persisted verbatim.
type Category string

const (
	CategoryWork       Category = "Work"
	CategoryEat        Category = "Eat"
	CategoryToilet     Category = "Toilet"
	CategorySmoke      Category = "Smoke"
	CategorySessionEnd Category = "SessionEnd"
)

// Descriptor carries the display metadata of a category.
type Descriptor struct {
	Icon        string
	NameLocal   string
	NameEnglish string
}

var descriptors = map[Category]Descriptor{
	CategoryWork:   {Icon: "💼", NameLocal: "工作", NameEnglish: "Work"},
	CategoryEat:    {Icon: "🍔", NameLocal: "吃饭", NameEnglish: "Eat"},
	CategoryToilet: {Icon: "🚽", NameLocal: "上厕所", NameEnglish: "Toilet"},
	CategorySmoke:  {Icon: "🚬", NameLocal: "抽烟", NameEnglish: "Smoke"},
}

// TrackedCategories lists the timed categories in display order.
func TrackedCategories() []Category {
	return []Category{CategoryWork, CategoryEat, CategoryToilet, CategorySmoke}
}

// Describe returns the display metadata for c. Unknown categories (including
// SessionEnd) fall back to the raw value as both names.
func (c Category) Describe() Descriptor {
	if d, ok := descriptors[c]; ok {
		return d
	}
	return Descriptor{Icon: "•", NameLocal: string(c), NameEnglish: string(c)}
}

// IsBreak reports whether time spent in c is subtracted from working time.
func (c Category) IsBreak() bool {
	switch c {
	case CategoryEat, CategoryToilet, CategorySmoke:
		return true
	default:
		return false
	}
}

// Valid reports whether c is one of the persisted categories.
func (c Category) Valid() bool {
	_, ok := descriptors[c]
	return ok || c == CategorySessionEnd
}
