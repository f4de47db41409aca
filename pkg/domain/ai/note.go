package ai

import "strings"

// NoteState is the read-only view of the open note used to gate actions.
type NoteState interface {
	IsEmpty() bool
	WordCount() int
}

// NoteContent is a NoteState that can also hand out its body.
type NoteContent interface {
	NoteState
	Content() string
}

// Note is a plain-text note body.
type Note struct {
	Body string
}

func NewNote(body string) Note {
	return Note{Body: body}
}

func (n Note) IsEmpty() bool {
	return strings.TrimSpace(n.Body) == ""
}

// WordCount counts whitespace-separated words.
func (n Note) WordCount() int {
	return len(strings.Fields(n.Body))
}

func (n Note) Content() string {
	return n.Body
}
