package assets

import (
	"bufio"
	"embed"
	"io"
	"strings"
)

//go:embed words.txt
var FS embed.FS

// ReadWords parses one word per line, skipping blanks and # comments.
// Words are upper-cased; validation is left to the caller.
func ReadWords(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, strings.ToUpper(s))
	}
	return out, sc.Err()
}

// DefaultWords returns the embedded target list.
func DefaultWords() ([]string, error) {
	f, err := FS.Open("words.txt")
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadWords(f)
}
