package patch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/jsonc"
)

// PackageJSONFile is the npm manifest file name at the project root.
const PackageJSONFile = "package.json"

// PackageName derives the npm package name from a bundle id:
// "com.Example.App" becomes "com-example-app".
func PackageName(appID string) string {
	return strings.ReplaceAll(strings.ToLower(appID), ".", "-")
}

// PatchPackageJSON sets name, displayName, version and description in
// the package.json at path. Every other field is carried over unchanged.
func PatchPackageJSON(path, appName, appID, version string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	data, err := RewritePackageJSON(raw, appName, appID, version)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}

	// os.WriteFile keeps the mode of an existing file.
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// RewritePackageJSON applies the identity fields to raw package.json
// bytes and returns the re-serialized document.
//
// Keys keep their order; fields missing from the template are appended.
// Every other value is carried over as raw JSON, so numbers such as
// large integers stay byte-identical. Comments and trailing commas
// (tolerated by some editors) are stripped before parsing.
func RewritePackageJSON(raw []byte, appName, appID, version string) ([]byte, error) {
	m, err := parseManifest(raw)
	if err != nil {
		return nil, err
	}

	for _, field := range [][2]string{
		{"name", PackageName(appID)},
		{"displayName", appName},
		{"version", version},
		{"description", Description(appName)},
	} {
		if err := m.setString(field[0], field[1]); err != nil {
			return nil, fmt.Errorf("failed to serialize package.json: %w", err)
		}
	}

	data, err := m.encode()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize package.json: %w", err)
	}
	return data, nil
}

// manifest is a package.json object. Top-level keys keep their order and
// values stay raw, so nested objects keep theirs too.
type manifest struct {
	keys   []string
	values map[string]json.RawMessage
}

// parseManifest reads the top-level object of package.json bytes.
func parseManifest(raw []byte) (*manifest, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(raw)))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("failed to parse package.json: top-level value is not an object")
	}

	m := &manifest{values: map[string]json.RawMessage{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse package.json: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("failed to parse package.json: unexpected token %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("failed to parse package.json: %w", err)
		}
		m.set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	return m, nil
}

// set stores value under key. A repeated key keeps its first position.
func (m *manifest) set(key string, value json.RawMessage) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m *manifest) setString(key, value string) error {
	data, err := marshalString(value)
	if err != nil {
		return err
	}
	m.set(key, data)
	return nil
}

// str returns the string value of key, or "" when it is absent or not a
// string.
func (m *manifest) str(key string) string {
	var s string
	if raw, ok := m.values[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// encode writes the object with two-space indentation and a trailing
// newline.
func (m *manifest) encode() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		name, err := marshalString(key)
		if err != nil {
			return nil, err
		}
		compact.Write(name)
		compact.WriteByte(':')
		compact.Write(m.values[key])
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// marshalString encodes s without escaping "<" and "&", which keeps
// script entries such as "a && b" readable.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// readPackageJSON extracts the identity fields from a package.json file.
func readPackageJSON(path string) (name, displayName, version, description string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", "", "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	m, err := parseManifest(raw)
	if err != nil {
		return "", "", "", "", err
	}
	return m.str("name"), m.str("displayName"), m.str("version"), m.str("description"), nil
}
