package ast

import (
	"iter"
	"slices"
)

// Event is one step of a depth-first walk over a markdown document.
// Container nodes produce a Start and an End carrying the same Tag;
// leaves produce a single event.
//
//go:generate sumgen Event = Start | End | Text | Code | HTML | InlineHTML | SoftBreak | HardBreak | Rule | TaskMarker
type Event interface {
	event()
}

// Tag identifies the container opened by Start and closed by End.
//
//go:generate sumgen Tag = Paragraph | Heading | BlockQuote | CodeBlock | List | Item | Emphasis | Strong | Strikethrough | Link | Image | Table | TableHead | TableRow | TableCell
type Tag interface {
	tag()
}

type Start struct {
	Tag Tag
}

type End struct {
	Tag Tag
}

// Text is literal text with escapes and entities already resolved.
type Text string

// Code is the content of an inline code span.
type Code string

// HTML is a raw HTML block, including its trailing newline.
type HTML string

type InlineHTML string

type SoftBreak struct{}

type HardBreak struct{}

// Rule is a thematic break.
type Rule struct{}

// TaskMarker is a GFM task list checkbox; true when checked.
type TaskMarker bool

type Paragraph struct{}

type Heading struct {
	Level int
}

type BlockQuote struct{}

type CodeBlock struct {
	Fenced bool
	Info   string
}

type List struct {
	Ordered bool
	Start   int
	Marker  byte
	Tight   bool
}

type Item struct{}

type Emphasis struct{}

type Strong struct{}

type Strikethrough struct{}

type LinkKind int

const (
	Inline LinkKind = iota
	Auto
	Email
)

type Link struct {
	Kind  LinkKind
	Dest  string
	Title string
}

// Image wraps its alt text: the events between Start and End are the
// alt text runs.
type Image struct {
	Dest  string
	Title string
}

type Alignment int

const (
	AlignNone Alignment = iota
	AlignLeft
	AlignCenter
	AlignRight
)

type Table struct {
	Align []Alignment
}

type TableHead struct{}

type TableRow struct{}

type TableCell struct {
	Align Alignment
}

func (Start) event()      {}
func (End) event()        {}
func (Text) event()       {}
func (Code) event()       {}
func (HTML) event()       {}
func (InlineHTML) event() {}
func (SoftBreak) event()  {}
func (HardBreak) event()  {}
func (Rule) event()       {}
func (TaskMarker) event() {}

func (Paragraph) tag()     {}
func (Heading) tag()       {}
func (BlockQuote) tag()    {}
func (CodeBlock) tag()     {}
func (List) tag()          {}
func (Item) tag()          {}
func (Emphasis) tag()      {}
func (Strong) tag()        {}
func (Strikethrough) tag() {}
func (Link) tag()          {}
func (Image) tag()         {}
func (Table) tag()         {}
func (TableHead) tag()     {}
func (TableRow) tag()      {}
func (TableCell) tag()     {}

// Mapper transforms a single event. Returning the event unchanged leaves
// it in place.
type Mapper func(Event) (Event, error)

// Map applies f to every event of seq in order and collects the results.
// It stops at the first error, returning the events mapped so far.
func Map(seq iter.Seq[Event], f Mapper) ([]Event, error) {
	var out []Event
	for e := range seq {
		m, err := f(e)
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Values returns a sequence over a slice of events.
func Values(events []Event) iter.Seq[Event] {
	return slices.Values(events)
}
