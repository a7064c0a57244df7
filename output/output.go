package output

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/cantara/playbookgen/ansible"
)

const (
	DefaultDir       = "generated_playbooks"
	DefaultBase      = "playbook"
	DefaultExtension = ".yml"
	TimestampFormat  = "20060102_150405"
)

var now = time.Now

// SanitizeFilename lower-cases name, replaces everything but letters, digits, spaces,
// hyphens and underscores with underscores, joins whitespace runs with a single
// underscore and trims underscores at both ends. "My Playbook!" gives "my_playbook".
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, strings.ToLower(name))
	name = strings.Join(strings.Fields(name), "_")
	return strings.Trim(name, "_")
}

// GenerateFilename returns base+extension, with a _YYYYMMDD_HHMMSS segment when timestamped.
func GenerateFilename(base string, timestamped bool, extension string) string {
	if base == "" {
		base = DefaultBase
	}
	if extension == "" {
		extension = DefaultExtension
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	base = strings.TrimSuffix(base, extension)
	if timestamped {
		return base + "_" + now().Format(TimestampFormat) + extension
	}
	return base + extension
}

// EnsureOutputDir creates dir and its parents when missing and returns its absolute path.
func EnsureOutputDir(dir string) (abs string, err error) {
	if dir == "" {
		dir = DefaultDir
	}
	abs, err = filepath.Abs(dir)
	if err != nil {
		return
	}
	err = os.MkdirAll(abs, 0750)
	if err != nil {
		err = &ansible.OutputError{Path: abs, Err: err}
	}
	return
}

// Path returns the absolute output path for filename inside dir, creating dir.
// An empty filename is generated, a timestamp is added when asked for and not already present.
func Path(filename, dir string, timestamped bool) (string, error) {
	abs, err := EnsureOutputDir(dir)
	if err != nil {
		return "", err
	}
	if filename == "" {
		filename = GenerateFilename("", timestamped, DefaultExtension)
	} else if timestamped && !strings.Contains(filename, now().Format("20060102")) {
		ext := filepath.Ext(filename)
		filename = GenerateFilename(strings.TrimSuffix(filename, ext), true, ext)
	}
	return filepath.Join(abs, filename), nil
}

var rename = os.Rename

// Write replaces the file at path with data, creating the parent directory.
// Data goes to a temporary file next to path that is renamed over it, so a failed
// write leaves any previous file untouched.
func Write(path string, data []byte) (abs string, err error) {
	abs, err = filepath.Abs(path)
	if err != nil {
		return
	}
	dir, err := EnsureOutputDir(filepath.Dir(abs))
	if err != nil {
		return
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(abs)+".*")
	if err != nil {
		err = &ansible.OutputError{Path: abs, Err: err}
		return
	}
	tmp := f.Name()
	_, err = f.Write(data)
	if err == nil {
		err = f.Chmod(0640)
	}
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = rename(tmp, abs)
	}
	if err != nil {
		os.Remove(tmp)
		err = &ansible.OutputError{Path: abs, Err: err}
	}
	return
}
