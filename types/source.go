package types

import (
	"encoding/json"
	"fmt"
)

// Source identifies the backend knowledge service a Record or ServiceConfig
// belongs to. It is a closed enum: callers at the wire boundary must reject
// any value outside the known set rather than propagate an unrecognized string.
type Source string

const (
	SourceTickets Source = "tickets"
	SourceWiki    Source = "wiki"
	SourceChat    Source = "chat"
	SourceCode    Source = "code"
	SourceDocs    Source = "docs"
	SourceWeb     Source = "web"
	SourceUnknown Source = "unknown"
)

// AllSources lists every Source the gateway recognizes, excluding SourceUnknown.
func AllSources() []Source {
	return []Source{SourceTickets, SourceWiki, SourceChat, SourceCode, SourceDocs, SourceWeb}
}

// Valid reports whether s is one of the known, addressable sources.
func (s Source) Valid() bool {
	switch s {
	case SourceTickets, SourceWiki, SourceChat, SourceCode, SourceDocs, SourceWeb:
		return true
	default:
		return false
	}
}

func (s Source) String() string { return string(s) }

// MarshalJSON rejects unknown sources at the wire boundary instead of
// silently emitting them.
func (s Source) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("types: %q is not a recognized source", string(s))
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON maps unrecognized source strings to SourceUnknown rather
// than failing decode, since Source values frequently arrive from
// third-party or partially-trusted payloads (router classification, query
// params).
func (s *Source) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Source(raw)
	if !v.Valid() {
		*s = SourceUnknown
		return nil
	}
	*s = v
	return nil
}

// Intent is the classification a query router assigns to an incoming
// question, used to narrow the set of backend services dispatched to.
// The set is closed and fixed by specification.
type Intent string

const (
	IntentTicketLookup      Intent = "ticket_lookup"      // "ABC-123"-shaped identifier
	IntentTicketSearch      Intent = "ticket_search"      // "bug|issue|error|broken"
	IntentDocumentation     Intent = "documentation"      // "how to", "guide"
	IntentProjectStatus     Intent = "project_status"     // "status|progress|sprint|release"
	IntentTeamCommunication Intent = "team_communication" // "slack|chat|thread|message|standup"
	IntentPersonLookup      Intent = "person_lookup"      // "who is|owner|assignee"
	IntentCodeRelated       Intent = "code_related"       // symbol/file/repository lookup
	IntentGeneralKnowledge  Intent = "general_knowledge"  // no strong signal, fan out broadly
	IntentUnknown           Intent = "unknown"
)

// Valid reports whether i is a recognized intent.
func (i Intent) Valid() bool {
	switch i {
	case IntentTicketLookup, IntentTicketSearch, IntentDocumentation, IntentProjectStatus,
		IntentTeamCommunication, IntentPersonLookup, IntentCodeRelated, IntentGeneralKnowledge, IntentUnknown:
		return true
	default:
		return false
	}
}

func (i Intent) String() string { return string(i) }

// MarshalJSON rejects unknown intents at the wire boundary.
func (i Intent) MarshalJSON() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("types: %q is not a recognized intent", string(i))
	}
	return json.Marshal(string(i))
}

// UnmarshalJSON maps unrecognized intents to IntentGeneralKnowledge so a
// router disagreement never blocks a query from being answered.
func (i *Intent) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Intent(raw)
	if !v.Valid() {
		*i = IntentGeneralKnowledge
		return nil
	}
	*i = v
	return nil
}

// DefaultSourcesForIntent returns the services a router should dispatch to
// for a given intent when the caller hasn't pinned an explicit source list.
func DefaultSourcesForIntent(i Intent) []Source {
	switch i {
	case IntentTicketLookup, IntentTicketSearch, IntentProjectStatus:
		return []Source{SourceTickets}
	case IntentDocumentation:
		return []Source{SourceWiki, SourceDocs}
	case IntentTeamCommunication:
		return []Source{SourceChat}
	case IntentPersonLookup:
		return []Source{SourceChat, SourceWiki}
	case IntentCodeRelated:
		return []Source{SourceCode, SourceWiki}
	default:
		return []Source{SourceTickets, SourceWiki, SourceChat}
	}
}
