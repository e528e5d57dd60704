package scan

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hupe1980/appdeck/model"
)

// ErrBinaryPlist is returned for Info.plist files in binary format.
var ErrBinaryPlist = errors.New("scan: binary property list not supported")

// ReadBundle describes the .app bundle at path. Missing or unreadable
// metadata falls back to the directory name, with the path as id.
func ReadBundle(path string) model.SearchItem {
	it := model.SearchItem{
		ID:         path,
		Name:       strings.TrimSuffix(filepath.Base(path), ".app"),
		SourcePath: path,
	}

	info, err := readPlistFile(filepath.Join(path, "Contents", "Info.plist"))
	if err != nil {
		return it
	}

	for _, k := range []string{"CFBundleDisplayName", "CFBundleName"} {
		if v := strings.TrimSpace(info[k]); v != "" {
			it.Name = v
			break
		}
	}
	if id := strings.TrimSpace(info["CFBundleIdentifier"]); id != "" {
		it.ID = id
		it.SecondaryKey = id
	}
	return it
}

func readPlistFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePlist(f)
}

// ParsePlist extracts the string values of the top-level dictionary of an
// XML property list. Nested containers and non-string values are skipped.
func ParsePlist(r io.Reader) (map[string]string, error) {
	br := bufio.NewReader(r)
	if magic, err := br.Peek(6); err == nil && string(magic) == "bplist" {
		return nil, ErrBinaryPlist
	}

	dec := xml.NewDecoder(br)
	dec.Strict = false

	if err := seekElement(dec, "dict"); err != nil {
		return nil, err
	}

	out := make(map[string]string)
	var key string
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("scan: plist: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "key":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return nil, fmt.Errorf("scan: plist key: %w", err)
				}
				key = s
			case "string":
				var s string
				if err := dec.DecodeElement(&s, &t); err != nil {
					return nil, fmt.Errorf("scan: plist string: %w", err)
				}
				if key != "" {
					out[key] = s
				}
				key = ""
			default:
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("scan: plist: %w", err)
				}
				key = ""
			}
		case xml.EndElement:
			if t.Name.Local == "dict" {
				return out, nil
			}
		}
	}
}

func seekElement(dec *xml.Decoder, name string) error {
	for {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("scan: plist: no <%s>: %w", name, err)
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == name {
			return nil
		}
	}
}
