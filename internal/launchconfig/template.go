package launchconfig

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Record names of the predefined launch configurations.
const (
	LaunchRecordName = "Launch Program"
	AttachRecordName = "Attach to Process"
)

// Defaults for the predefined records.
const (
	DefaultDebugType  = "bazis2"
	DefaultAttachPort = 9229
	DefaultProgram    = "${file}"
)

// Field is a single option of a launch-configuration record.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered launch-configuration record.
type Record []Field

// Options parameterizes the predefined template.
type Options struct {
	// DebugType is written into every record's "type" field.
	DebugType string
	// AttachPort is the port of the attach record.
	AttachPort int
}

// DefaultOptions returns the options of the stock template.
func DefaultOptions() Options {
	return Options{DebugType: DefaultDebugType, AttachPort: DefaultAttachPort}
}

func (o Options) withDefaults() Options {
	if o.DebugType == "" {
		o.DebugType = DefaultDebugType
	}
	if o.AttachPort == 0 {
		o.AttachPort = DefaultAttachPort
	}
	return o
}

// Template is an ordered sequence of launch-configuration records. Keys keep
// their insertion order; updating an existing key leaves it in place and new
// keys are appended to the end of their record.
type Template struct {
	doc []byte
}

// NewTemplate builds a template from records.
func NewTemplate(records ...Record) *Template {
	doc := []byte("[]")
	for _, rec := range records {
		obj := []byte("{}")
		for _, f := range rec {
			obj = setValue(obj, escapePath(f.Key), f.Value)
		}
		doc = setRaw(doc, "-1", obj)
	}
	return &Template{doc: doc}
}

// DefaultTemplate builds a fresh copy of the predefined launch and attach
// records.
func DefaultTemplate(opts Options) *Template {
	opts = opts.withDefaults()
	return NewTemplate(
		Record{
			{"name", LaunchRecordName},
			{"type", opts.DebugType},
			{"request", "launch"},
			{"program", DefaultProgram},
		},
		Record{
			{"name", AttachRecordName},
			{"type", opts.DebugType},
			{"request", "attach"},
			{"port", opts.AttachPort},
		},
	)
}

// Clone returns an independent copy.
func (t *Template) Clone() *Template {
	doc := make([]byte, len(t.doc))
	copy(doc, t.doc)
	return &Template{doc: doc}
}

// Len returns the number of records.
func (t *Template) Len() int {
	return int(gjson.GetBytes(t.doc, "#").Int())
}

// Names returns the "name" field of every record, in order.
func (t *Template) Names() []string {
	results := gjson.GetBytes(t.doc, "#.name").Array()
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.String()
	}
	return names
}

// Has reports whether record i defines key.
func (t *Template) Has(i int, key string) bool {
	return gjson.GetBytes(t.doc, fieldPath(i, key)).Exists()
}

// Get returns the value of key in record i.
func (t *Template) Get(i int, key string) gjson.Result {
	return gjson.GetBytes(t.doc, fieldPath(i, key))
}

// Set assigns key in record i, adding it when missing.
func (t *Template) Set(i int, key string, value any) {
	t.doc = setValue(t.doc, fieldPath(i, key), value)
}

// SetRaw assigns raw JSON to key in record i, adding it when missing.
func (t *Template) SetRaw(i int, key string, raw string) {
	t.doc = setRaw(t.doc, fieldPath(i, key), []byte(raw))
}

// JSON returns the compact JSON form of the template.
func (t *Template) JSON() []byte {
	out := make([]byte, len(t.doc))
	copy(out, t.doc)
	return out
}

func fieldPath(i int, key string) string {
	return fmt.Sprintf("%d.%s", i, escapePath(key))
}

// escapePath escapes characters that gjson and sjson treat as path syntax.
func escapePath(key string) string {
	if !strings.ContainsAny(key, `.*?|#@!\`) {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		if strings.ContainsRune(`.*?|#@!\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// setValue and setRaw only fail on malformed paths or documents, neither of
// which can be produced through the Template API.
func setValue(doc []byte, path string, value any) []byte {
	if s, ok := value.(string); ok {
		return setRaw(doc, path, appendString(nil, s))
	}
	out, err := sjson.SetBytes(doc, path, value)
	if err != nil {
		panic(fmt.Sprintf("launchconfig: set %q: %v", path, err))
	}
	return out
}

func setRaw(doc []byte, path string, raw []byte) []byte {
	out, err := sjson.SetRawBytes(doc, path, raw)
	if err != nil {
		panic(fmt.Sprintf("launchconfig: set %q: %v", path, err))
	}
	return out
}

// appendString appends s as a JSON string literal escaped the way
// JavaScript's JSON.stringify escapes it: only the quote, the backslash and
// control characters below U+0020. HTML characters and U+2028/U+2029 are
// written as is. Invalid UTF-8 becomes U+FFFD.
func appendString(dst []byte, s string) []byte {
	const hex = "0123456789abcdef"

	dst = append(dst, '"')
	for _, r := range s {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if r < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hex[r>>4], hex[r&0xf])
				continue
			}
			dst = utf8.AppendRune(dst, r)
		}
	}
	return append(dst, '"')
}
