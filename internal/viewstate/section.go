// Package viewstate keeps the selected dashboard section and a navigable
// address in agreement.
package viewstate

import "net/url"

// Section is one of the top-level dashboard views
type Section string

const (
	Overview   Section = "overview"
	Agents     Section = "agents"
	Calls      Section = "calls"
	Recordings Section = "recordings"
)

// QueryKey is the address query parameter carrying the section
const QueryKey = "tab"

// legacyOverview is accepted from older deep links
const legacyOverview = "dashboard"

// DefaultAddress is the address used when none is given or persisted
const DefaultAddress = "opsdash://dashboard"

// Sections lists every section in display order
var Sections = []Section{Overview, Agents, Calls, Recordings}

var sectionTitles = map[Section]string{
	Overview:   "Overview",
	Agents:     "Agents",
	Calls:      "Call Logs",
	Recordings: "Recordings",
}

// ParseSection maps a raw value to a section; anything unknown is Overview
func ParseSection(raw string) Section {
	switch s := Section(raw); s {
	case Overview, Agents, Calls, Recordings:
		return s
	default:
		return Overview
	}
}

// Valid reports whether raw names a section, including the legacy overview alias
func Valid(raw string) bool {
	if raw == legacyOverview {
		return true
	}
	_, ok := sectionTitles[Section(raw)]
	return ok
}

// Title is the human label of the section
func (s Section) Title() string {
	if title, ok := sectionTitles[s]; ok {
		return title
	}
	return sectionTitles[Overview]
}

// Index is the position of the section in Sections
func (s Section) Index() int {
	for i, sec := range Sections {
		if sec == s {
			return i
		}
	}
	return 0
}

// FromAddress derives the section an address selects
func FromAddress(u *url.URL) Section {
	if u == nil {
		return Overview
	}
	return ParseSection(u.Query().Get(QueryKey))
}

// WithSection returns a copy of u selecting s. Other query parameters are kept.
func WithSection(u *url.URL, s Section) *url.URL {
	var out url.URL
	if u != nil {
		out = *u
	}
	q := out.Query()
	q.Set(QueryKey, string(s))
	out.RawQuery = q.Encode()
	return &out
}

// ParseAddress parses a full address or a bare query such as "?tab=agents",
// resolving the latter against DefaultAddress
func ParseAddress(raw string) (*url.URL, error) {
	base, _ := url.Parse(DefaultAddress)
	if raw == "" {
		return base, nil
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if ref.Scheme != "" {
		return ref, nil
	}
	return base.ResolveReference(ref), nil
}

// PageSize is the number of rows a tabular section shows per page; Overview has none
func (s Section) PageSize() int {
	switch s {
	case Agents, Calls:
		return 10
	case Recordings:
		return 6
	default:
		return 0
	}
}
