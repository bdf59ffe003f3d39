package shelf

import (
	"errors"
	"time"
)

var ErrFeedUnavailable = errors.New("reading feed unavailable")

type Kind string

const (
	KindCurrentlyReading Kind = "currently_reading"
	KindFinished         Kind = "finished"
)

// Entry is one parsed activity record. Fields that could not be extracted
// are left empty rather than failing the entry.
type Entry struct {
	Kind               Kind       `json:"kind"`
	Title              string     `json:"title"`
	Author             string     `json:"author,omitempty"`
	CoverURLNormalized string     `json:"cover,omitempty"`
	CoverURLRaw        string     `json:"coverOriginal,omitempty"`
	CoverProxyURL      string     `json:"coverProxy,omitempty"`
	Progress           string     `json:"progress,omitempty"`
	Rating             int        `json:"rating,omitempty"`
	Link               string     `json:"link,omitempty"`
	BookID             string     `json:"bookId,omitempty"`
	PublishedAt        *time.Time `json:"publishedAt,omitempty"`
}

type Shelf struct {
	CurrentlyReading []Entry `json:"currentlyReading"`
	RecentlyRead     []Entry `json:"recentlyRead"`
}

// Empty returns a shelf whose lists encode as [] rather than null.
func Empty() Shelf {
	return Shelf{
		CurrentlyReading: []Entry{},
		RecentlyRead:     []Entry{},
	}
}

// Split groups entries by kind, keeping feed order within each group.
func Split(entries []Entry) Shelf {
	s := Empty()
	for _, e := range entries {
		switch e.Kind {
		case KindCurrentlyReading:
			s.CurrentlyReading = append(s.CurrentlyReading, e)
		case KindFinished:
			s.RecentlyRead = append(s.RecentlyRead, e)
		}
	}
	return s
}

func (s Shelf) Len() int {
	return len(s.CurrentlyReading) + len(s.RecentlyRead)
}
