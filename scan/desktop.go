package scan

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/appdeck/model"
)

// ReadDesktopFile describes the freedesktop entry at path. ok is false for
// entries that are not applications or are hidden from menus.
func ReadDesktopFile(path string) (model.SearchItem, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.SearchItem{}, false, err
	}
	defer f.Close()

	id := strings.TrimSuffix(filepath.Base(path), ".desktop")
	return ParseDesktop(f, id, path)
}

// ParseDesktop parses the [Desktop Entry] group of a .desktop file.
func ParseDesktop(r io.Reader, id, path string) (model.SearchItem, bool, error) {
	var (
		inEntry bool
		values  = make(map[string]string)
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			inEntry = line == "[Desktop Entry]"
			continue
		}
		if !inEntry {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if _, dup := values[k]; !dup {
			values[k] = strings.TrimSpace(v)
		}
	}
	if err := sc.Err(); err != nil {
		return model.SearchItem{}, false, err
	}

	if t := values["Type"]; t != "" && t != "Application" {
		return model.SearchItem{}, false, nil
	}
	if isTrue(values["NoDisplay"]) || isTrue(values["Hidden"]) {
		return model.SearchItem{}, false, nil
	}

	name := values["Name"]
	if name == "" {
		name = id
	}
	return model.SearchItem{
		ID:           id,
		Name:         name,
		SecondaryKey: id,
		SourcePath:   path,
	}, true, nil
}

func isTrue(v string) bool {
	return strings.EqualFold(v, "true")
}
