// Package launchconfig synthesizes the starter launch.json document for the
// Node debugger from workspace signals.
package launchconfig

import (
	"path/filepath"
	"strings"

	"github.com/tidwall/pretty"

	"github.com/dshills/nodedebug/internal/manifest"
	"github.com/dshills/nodedebug/internal/workspace"
)

// WorkspaceFolderVariable is the launch.json placeholder for the workspace
// root.
const WorkspaceFolderVariable = "${workspaceFolder}"

// Version is the launch.json schema version written to the document.
const Version = "0.2.0"

var documentHeader = []string{
	"{",
	"\t// Use IntelliSense to find out which attributes exist for node debugging",
	"\t// Use hover for the description of the existing attributes",
	"\t// For further information visit https://go.microsoft.com/fwlink/?linkid=830387",
	"\t\"version\": \"" + Version + "\",",
}

// prettyOptions renders tab-indented JSON with every array element on its
// own line.
var prettyOptions = &pretty.Options{Width: 0, Prefix: "", Indent: "\t", SortKeys: false}

// ProgramReference turns a program hint into the value of a "program" field.
// Absolute paths are returned as is; relative ones are joined onto the
// workspace folder placeholder.
func ProgramReference(program string) string {
	if filepath.IsAbs(program) {
		return program
	}
	return filepath.Join(WorkspaceFolderVariable, program)
}

// Synthesize renders the initial configurations document for the predefined
// template.
func Synthesize(hint manifest.ProgramHint, signal workspace.Signal, opts Options) string {
	return SynthesizeTemplate(DefaultTemplate(opts), hint, signal)
}

// SynthesizeTemplate renders the initial configurations document for t.
// t itself is not modified.
func SynthesizeTemplate(t *Template, hint manifest.ProgramHint, signal workspace.Signal) string {
	work := t.Clone()
	n := work.Len()

	if hint.Resolved() {
		program := ProgramReference(string(hint))
		for i := 0; i < n; i++ {
			if work.Has(i, "program") {
				work.Set(i, "program", program)
			}
		}
	}

	if signal {
		for i := 0; i < n; i++ {
			work.SetRaw(i, "outFiles", "[]")
		}
	}

	return renderDocument(work)
}

func renderDocument(t *Template) string {
	lines := make([]string, 0, len(documentHeader)+2)
	lines = append(lines, documentHeader...)
	lines = append(lines, "\t\"configurations\": "+massage(t), "}")
	return strings.Join(lines, "\n")
}

// massage indents the records one level deeper than the document and
// comments out the first processId entry.
func massage(t *Template) string {
	body := strings.TrimRight(string(pretty.PrettyOptions(t.doc, prettyOptions)), "\n")
	body = strings.Replace(body, ",\n\t\t\"processId", "\n\t\t//\"processId", 1)

	lines := strings.Split(body, "\n")
	for i, line := range lines {
		lines[i] = "\t" + line
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
