package fixedwidth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// maxLineBytes bounds a single extract line. The widest published NC DAC
// record layouts are well under this.
const maxLineBytes = 1 << 20

// ReadLines reads every line from r, decoding from the named text encoding.
// Supported names: "", "utf-8", "latin1", "iso-8859-1", "windows-1252",
// "cp1252". The empty name means the bytes are used as-is.
func ReadLines(r io.Reader, encodingName string) ([]string, error) {
	dec, err := lookupEncoding(encodingName)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}
	return lines, nil
}

// ReadLinesFile reads every line of the file at path.
func ReadLinesFile(path, encodingName string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &MissingSourceError{Path: path, Err: err}
	}
	defer f.Close()
	return ReadLines(f, encodingName)
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
