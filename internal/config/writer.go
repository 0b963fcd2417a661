package config

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/corvid-assistant/corvid/internal/corerrors"
)

// ApplyEdit patches dotted-path keys (e.g. "providers.asr.whisper.enabled")
// in the TOML file at path by rewriting only the matching "key = value"
// lines in place, line by line — every other line (comments, blank lines,
// untouched keys, key order) passes through byte-identical (spec §6
// admin-write contract: "preserves comments and key order"). A timestamped
// backup of the original is written before the file is overwritten. now is
// injected so callers control the backup timestamp deterministically.
func ApplyEdit(path string, edits map[string]any, now time.Time) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return corerrors.Wrap(corerrors.IO, "failed to read config for edit", err)
	}

	pending := make(map[string]any, len(edits))
	for k, v := range edits {
		pending[k] = v
	}

	patched, err := patchLines(raw, pending)
	if err != nil {
		return corerrors.Wrap(corerrors.ConfigInvalid, "edit rejected", err)
	}
	if len(pending) > 0 {
		missing := make([]string, 0, len(pending))
		for k := range pending {
			missing = append(missing, k)
		}
		return corerrors.New(corerrors.ConfigInvalid,
			fmt.Sprintf("key(s) not found in existing config: %v", missing))
	}

	var probe map[string]any
	if err := toml.Unmarshal(patched, &probe); err != nil {
		return corerrors.Wrap(corerrors.Internal, "patched config failed to parse, aborting write", err)
	}

	backupPath := fmt.Sprintf("%s.%s.bak", path, now.UTC().Format("20060102T150405Z"))
	if err := os.WriteFile(backupPath, raw, 0o644); err != nil {
		return corerrors.Wrap(corerrors.IO, "failed to write config backup", err)
	}
	if err := os.WriteFile(path, patched, 0o644); err != nil {
		return corerrors.Wrap(corerrors.IO, "failed to write edited config", err)
	}
	return nil
}

var tableHeaderRe = regexp.MustCompile(`^\s*\[([A-Za-z0-9_.\-"]+)\]\s*(#.*)?$`)
var keyLineRe = regexp.MustCompile(`^(\s*)([A-Za-z0-9_\-"]+)(\s*=\s*)([^#]*?)(\s*)(#.*)?$`)

// patchLines rewrites, in a single pass, any line of the form "key = value"
// whose fully-qualified dotted path (current [table] + key) matches an
// entry in pending. Matched entries are deleted from pending as they are
// applied so the caller can detect edits that named a nonexistent key.
func patchLines(raw []byte, pending map[string]any) ([]byte, error) {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out bytes.Buffer
	currentTable := ""

	for scanner.Scan() {
		line := scanner.Text()

		if m := tableHeaderRe.FindStringSubmatch(line); m != nil {
			currentTable = strings.Trim(m[1], `"`)
			out.WriteString(line)
			out.WriteByte('\n')
			continue
		}

		if m := keyLineRe.FindStringSubmatch(line); m != nil {
			key := strings.Trim(m[2], `"`)
			dotted := key
			if currentTable != "" {
				dotted = currentTable + "." + key
			}
			if val, ok := pending[dotted]; ok {
				encoded, err := encodeScalar(val)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", dotted, err)
				}
				trailer := m[6]
				if trailer != "" {
					out.WriteString(m[1] + m[2] + m[3] + encoded + " " + trailer)
				} else {
					out.WriteString(m[1] + m[2] + m[3] + encoded)
				}
				out.WriteByte('\n')
				delete(pending, dotted)
				continue
			}
		}

		out.WriteString(line)
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// encodeScalar renders a single TOML value the same way go-toml/v2 would
// inline it, by marshaling a one-key table and slicing out the value.
func encodeScalar(v any) (string, error) {
	b, err := toml.Marshal(map[string]any{"v": v})
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(b))
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", fmt.Errorf("unexpected encoding for value %v", v)
	}
	return strings.TrimSpace(line[idx+1:]), nil
}
