package tasks

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// stripFrontmatter splits an optional leading YAML block off a statement:
//
//	---
//	title: Nile
//	---
//	# Statement
//
// Content without a leading "---" line is returned unchanged with nil metadata.
func stripFrontmatter(content []byte) (map[string]interface{}, []byte, error) {
	if !bytes.HasPrefix(content, []byte("---\n")) && !bytes.HasPrefix(content, []byte("---\r\n")) {
		return nil, content, nil
	}

	lines := bytes.Split(content, []byte("\n"))

	var closingDelim int
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			closingDelim = i
			break
		}
	}
	if closingDelim == 0 {
		return nil, nil, errors.New("missing closing frontmatter delimiter '---'")
	}

	var metadata map[string]interface{}
	if err := yaml.Unmarshal(bytes.Join(lines[1:closingDelim], []byte("\n")), &metadata); err != nil {
		return nil, nil, fmt.Errorf("parse YAML frontmatter: %w", err)
	}

	return metadata, bytes.Join(lines[closingDelim+1:], []byte("\n")), nil
}
