// Package board models what one reader is looking at: view, search, shared confession, open
// reply thread and notice. State is a value; every user intent is one Reduce step.
package board

import (
	"strings"

	"crushboard/internal/feed"
)

type State struct {
	View           feed.View     `json:"view"`
	SearchTerm     string        `json:"searchTerm,omitempty"`
	SearchCategory feed.Category `json:"searchCategory"`
	SharedID       string        `json:"sharedId,omitempty"`
	ReplyTarget    string        `json:"replyTarget,omitempty"`
	Notice         string        `json:"notice,omitempty"`
}

func Initial() State {
	return State{View: feed.ViewRecent, SearchCategory: feed.CategoryText}
}

// Action is one user intent.
type Action interface {
	apply(State) State
}

// Reduce returns the state after a. s is never modified.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

// ReduceAll folds actions over s in order.
func ReduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}

// ChangeView switches view and drops the search term and shared confession. Unknown views
// leave the state alone.
type ChangeView struct{ View string }

func (a ChangeView) apply(s State) State {
	v, ok := feed.ParseView(a.View)
	if !ok {
		return s
	}
	s.View = v
	s.SearchTerm = ""
	s.SharedID = ""
	return s
}

type OpenSearch struct{}

func (OpenSearch) apply(s State) State {
	s.SearchTerm = ""
	return s
}

type SetSearchTerm struct{ Term string }

func (a SetSearchTerm) apply(s State) State {
	s.SearchTerm = a.Term
	return s
}

// SetSearchCategory accepts any category; unrecognized ones simply match nothing.
type SetSearchCategory struct{ Category string }

func (a SetSearchCategory) apply(s State) State {
	s.SearchCategory = feed.Category(strings.TrimSpace(a.Category))
	return s
}

type ClearSearch struct{}

func (ClearSearch) apply(s State) State {
	s.SearchTerm = ""
	return s
}

// ConsumeDeepLink shows one confession in isolation.
type ConsumeDeepLink struct{ ID string }

func (a ConsumeDeepLink) apply(s State) State {
	id := strings.TrimSpace(a.ID)
	if id == "" {
		return s
	}
	s.SharedID = id
	return s
}

type ClearShared struct{}

func (ClearShared) apply(s State) State {
	s.SharedID = ""
	return s
}

type OpenReplies struct{ ConfessionID string }

func (a OpenReplies) apply(s State) State {
	s.ReplyTarget = a.ConfessionID
	return s
}

type CloseReplies struct{}

func (CloseReplies) apply(s State) State {
	s.ReplyTarget = ""
	return s
}

type ShowNotice struct{ Message string }

func (a ShowNotice) apply(s State) State {
	s.Notice = a.Message
	return s
}

type DismissNotice struct{}

func (DismissNotice) apply(s State) State {
	s.Notice = ""
	return s
}

// Query is the feed selection for s.
func (s State) Query() feed.Query {
	return feed.Query{
		View:     s.View,
		SharedID: s.SharedID,
		Category: s.SearchCategory,
		Term:     s.SearchTerm,
	}
}

func (s State) Title() string {
	if s.SharedID != "" {
		return "Shared Confession"
	}
	switch s.View {
	case feed.ViewArchive:
		return "Archived Confessions"
	case feed.ViewPopular:
		return "Popular Confessions"
	default:
		return "Recent Confessions"
	}
}

// Normalize repairs a state decoded from an old or tampered session.
func (s State) Normalize() State {
	if _, ok := feed.ParseView(string(s.View)); !ok {
		s.View = feed.ViewRecent
	}
	if s.SearchCategory == "" {
		s.SearchCategory = feed.CategoryText
	}
	return s
}
