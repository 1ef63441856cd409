package workspace

import "testing"

func TestLanguageForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"src/app.ts", LanguageTypeScript},
		{"src/App.TSX", LanguageTypeScript},
		{"lib/index.mts", LanguageTypeScript},
		{"main.coffee", LanguageCoffeeScript},
		{"server.js", LanguageJavaScript},
		{"esm.mjs", LanguageJavaScript},
		{"package.json", LanguageJSON},
		{"README", LanguagePlainText},
		{"notes.md", LanguagePlainText},
	}

	for _, tt := range tests {
		if got := LanguageForFile(tt.name); got != tt.want {
			t.Errorf("LanguageForFile(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSourceMapSignal(t *testing.T) {
	tests := []struct {
		name      string
		docs      []Document
		languages []string
		want      Signal
	}{
		{"no documents", nil, nil, false},
		{"javascript only", []Document{{"a.js", LanguageJavaScript}}, nil, false},
		{"typescript", []Document{{"a.js", LanguageJavaScript}, {"b.ts", LanguageTypeScript}}, nil, true},
		{"coffeescript", []Document{{"c.coffee", LanguageCoffeeScript}}, nil, true},
		{"custom list", []Document{{"a.js", LanguageJavaScript}}, []string{LanguageJavaScript}, true},
		{"empty list", []Document{{"b.ts", LanguageTypeScript}}, []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SourceMapSignal(tt.docs, tt.languages); got != tt.want {
				t.Errorf("SourceMapSignal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("/w/src/index.ts")
	if doc.LanguageID != LanguageTypeScript {
		t.Errorf("LanguageID = %q, want %q", doc.LanguageID, LanguageTypeScript)
	}
	if doc.FileName != "/w/src/index.ts" {
		t.Errorf("FileName = %q", doc.FileName)
	}
}
