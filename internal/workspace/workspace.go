// Package workspace models the editor state that shapes generated debug
// configurations: open documents and their language identifiers.
package workspace

import (
	"path/filepath"
	"strings"
)

// Language identifiers.
const (
	LanguageTypeScript   = "typescript"
	LanguageCoffeeScript = "coffeescript"
	LanguageJavaScript   = "javascript"
	LanguageJSON         = "json"
	LanguagePlainText    = "plaintext"
)

// DefaultSourceMapLanguages are the languages whose presence suggests that
// compiled output needs source maps.
var DefaultSourceMapLanguages = []string{LanguageTypeScript, LanguageCoffeeScript}

// Document is an open text document.
type Document struct {
	FileName   string
	LanguageID string
}

// NewDocument creates a document with its language inferred from the name.
func NewDocument(fileName string) Document {
	return Document{FileName: fileName, LanguageID: LanguageForFile(fileName)}
}

// LanguageForFile maps a file name to a language identifier by extension.
func LanguageForFile(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".ts", ".tsx", ".mts", ".cts":
		return LanguageTypeScript
	case ".coffee", ".litcoffee":
		return LanguageCoffeeScript
	case ".js", ".jsx", ".mjs", ".cjs":
		return LanguageJavaScript
	case ".json":
		return LanguageJSON
	default:
		return LanguagePlainText
	}
}

// Signal tells the synthesizer whether source-map fields should be added.
type Signal bool

// SourceMapSignal reports whether any document's language is in languages.
// A nil languages slice means DefaultSourceMapLanguages.
func SourceMapSignal(docs []Document, languages []string) Signal {
	if languages == nil {
		languages = DefaultSourceMapLanguages
	}
	for _, doc := range docs {
		for _, lang := range languages {
			if doc.LanguageID == lang {
				return true
			}
		}
	}
	return false
}
