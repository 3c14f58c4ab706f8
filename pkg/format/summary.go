package format

import (
	"bytes"
	"encoding/json"
	"maps"
	"slices"
	"strings"

	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// Entry is one key of a summary record.
type Entry struct {
	Key   string
	Value string
}

// Record is a JSON object whose keys keep their insertion order: "obf"
// first, then one key per namespace in supply order.
type Record []Entry

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// MarshalJSON writes the record as an object in entry order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SummaryDocument is the top level of the JSON summary.
type SummaryDocument struct {
	Version string   `json:"version"`
	Classes []Record `json:"classes"`
	Fields  []Record `json:"fields"`
	Methods []Record `json:"methods"`
}

// Summary folds obf-keyed relations into one record per obfuscated
// identifier, naming each identifier by its last path segment only.
type Summary struct {
	version string
	classes map[mapping.ClassName]Record
	fields  map[mapping.Field]Record
	methods map[mapping.Method]Record
}

// NewSummary returns an empty summary for a program version.
func NewSummary(version string) *Summary {
	return &Summary{
		version: version,
		classes: make(map[mapping.ClassName]Record),
		fields:  make(map[mapping.Field]Record),
		methods: make(map[mapping.Method]Record),
	}
}

// Add records the names a namespace gives to obfuscated identifiers.
func (s *Summary) Add(namespace string, r mapping.Relation) {
	for _, p := range r.Classes() {
		rec, ok := s.classes[p.From]
		if !ok {
			rec = Record{{Key: "obf", Value: p.From.SimpleName()}}
		}
		s.classes[p.From] = append(rec, Entry{Key: namespace, Value: p.To.SimpleName()})
	}
	for _, p := range r.Fields() {
		rec, ok := s.fields[p.From]
		if !ok {
			rec = Record{{Key: "obf", Value: shortMember(p.From.Owner, p.From.Name)}}
		}
		s.fields[p.From] = append(rec, Entry{Key: namespace, Value: shortMember(p.To.Owner, p.To.Name)})
	}
	for _, p := range r.Methods() {
		rec, ok := s.methods[p.From]
		if !ok {
			rec = Record{{Key: "obf", Value: shortMember(p.From.Owner, p.From.Name)}}
		}
		s.methods[p.From] = append(rec, Entry{Key: namespace, Value: shortMember(p.To.Owner, p.To.Name)})
	}
}

// Document assembles the summary with records sorted by obfuscated identifier.
func (s *Summary) Document() SummaryDocument {
	doc := SummaryDocument{
		Version: s.version,
		Classes: make([]Record, 0, len(s.classes)),
		Fields:  make([]Record, 0, len(s.fields)),
		Methods: make([]Record, 0, len(s.methods)),
	}

	for _, obf := range slices.Sorted(maps.Keys(s.classes)) {
		doc.Classes = append(doc.Classes, s.classes[obf])
	}

	fieldKeys := slices.Collect(maps.Keys(s.fields))
	slices.SortFunc(fieldKeys, func(a, b mapping.Field) int {
		return strings.Compare(a.Owner.Internal()+"/"+a.Name, b.Owner.Internal()+"/"+b.Name)
	})
	for _, obf := range fieldKeys {
		doc.Fields = append(doc.Fields, s.fields[obf])
	}

	methodKeys := slices.Collect(maps.Keys(s.methods))
	slices.SortFunc(methodKeys, func(a, b mapping.Method) int {
		return strings.Compare(a.String(), b.String())
	})
	for _, obf := range methodKeys {
		doc.Methods = append(doc.Methods, s.methods[obf])
	}

	return doc
}

// Marshal renders the summary as compact JSON.
func (s *Summary) Marshal() ([]byte, error) {
	return json.Marshal(s.Document())
}

func shortMember(owner mapping.ClassName, name string) string {
	return owner.SimpleName() + "." + mapping.LastSegment(name)
}
