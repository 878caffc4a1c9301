// Package document implements the workflow document parser: splitting a
// YAML-frontmatter-plus-Markdown byte stream into a typed workflow.Document,
// grounded on the teacher's frontmatter/node-walk split in its own document
// loader.
package document

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"

	"github.com/stepwise/stepwise/engine/core"
	"github.com/stepwise/stepwise/engine/workflow"
	"gopkg.in/yaml.v3"
)

const fenceLine = "---"

// Warning is a non-fatal parse diagnostic: an unknown key or a deprecated
// alias that did not block parsing.
type Warning struct {
	Path    string
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Path, w.Message) }

// deprecatedKeys maps legacy directive keys to an actionable message; the
// teacher rejected $ref/$use/$merge the same way once it moved off
// sub-document resolution, and this engine never implemented it either.
var deprecatedKeys = map[string]string{
	"$ref":   `"$ref" is no longer supported; reference sub-workflows by id through the "workflow" step kind instead`,
	"$use":   `"$use" is no longer supported; there is no template-inheritance mechanism in this engine`,
	"$merge": `"$merge" is no longer supported; compose steps explicitly instead of merging fragments`,
}

var knownTopLevelKeys = map[string]bool{
	"workflow": true, "inputs": true, "tools": true,
	"triggers": true, "steps": true, "metadata": true,
}

// Parse splits data at the first `---`-fenced block, decodes the
// frontmatter as a workflow.Document, and preserves the remaining bytes as
// Markdown. It never touches the network or filesystem.
func Parse(data []byte) (*workflow.Document, []Warning, error) {
	frontmatter, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(frontmatter, &raw); err != nil {
		return nil, nil, core.NewError(fmt.Errorf("failed to parse frontmatter: %w", err), core.CodeInvalidDocument, nil)
	}
	if err := rejectDeprecatedKeys(raw); err != nil {
		return nil, nil, err
	}

	var doc workflow.Document
	if err := yaml.Unmarshal(frontmatter, &doc); err != nil {
		return nil, nil, core.NewError(fmt.Errorf("failed to decode workflow schema: %w", err), core.CodeInvalidSchema, nil)
	}
	doc.Markdown = body

	if err := doc.Validate(); err != nil {
		return nil, nil, err
	}

	warnings := collectWarnings(raw)
	return &doc, warnings, nil
}

// splitFrontmatter locates the first `---` fence line, requires a second
// one to close it, and returns the enclosed YAML plus everything after the
// closing fence as the Markdown body.
func splitFrontmatter(data []byte) (frontmatter []byte, body string, err error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	openIdx := -1
	closeIdx := -1
	lineNo := 0
	for scanner.Scan() {
		line := scanner.Text()
		lines = append(lines, line)
		trimmed := strings.TrimSpace(line)
		if openIdx == -1 {
			if trimmed == "" {
				lineNo++
				continue
			}
			if trimmed != fenceLine {
				return nil, "", core.NewError(
					fmt.Errorf("document must begin with a %q frontmatter fence", fenceLine),
					core.CodeInvalidDocument, nil,
				)
			}
			openIdx = lineNo
			lineNo++
			continue
		}
		if closeIdx == -1 && trimmed == fenceLine {
			closeIdx = lineNo
		}
		lineNo++
	}
	if err := scanner.Err(); err != nil {
		return nil, "", core.NewError(fmt.Errorf("failed to read document: %w", err), core.CodeInvalidDocument, nil)
	}
	if openIdx == -1 {
		return nil, "", core.NewError(fmt.Errorf("document has no frontmatter"), core.CodeInvalidDocument, nil)
	}
	if closeIdx == -1 {
		return nil, "", core.NewError(fmt.Errorf("frontmatter fence is never closed"), core.CodeInvalidDocument, nil)
	}

	fm := strings.Join(lines[openIdx+1:closeIdx], "\n")
	rest := ""
	if closeIdx+1 < len(lines) {
		rest = strings.Join(lines[closeIdx+1:], "\n")
	}
	return []byte(fm), strings.TrimLeft(rest, "\n"), nil
}

func rejectDeprecatedKeys(raw map[string]any) error {
	for key, msg := range deprecatedKeys {
		if _, present := raw[key]; present {
			return core.NewError(fmt.Errorf("%s", msg), core.CodeInvalidSchema, map[string]any{"key": key})
		}
	}
	return nil
}

func collectWarnings(raw map[string]any) []Warning {
	var warnings []Warning
	for key := range raw {
		if !knownTopLevelKeys[key] {
			warnings = append(warnings, Warning{Path: key, Message: "unknown top-level key"})
		}
	}
	return warnings
}
