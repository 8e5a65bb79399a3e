package uploads

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidFilename is returned when nothing usable remains of a client filename.
var ErrInvalidFilename = errors.New("invalid file name")

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

var windowsDeviceNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {}, "COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {}, "LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// SecureFilename reduces a client supplied filename to a flat ASCII name that is safe
// to use on the local file system: unicode is folded to ASCII, path separators become
// word breaks, whitespace runs become underscores, and anything outside [A-Za-z0-9_.-]
// is dropped. Leading and trailing dots and underscores are trimmed.
//
//	"My cool movie.mov"        -> "My_cool_movie.mov"
//	"../../../etc/passwd"      -> "etc_passwd"
//	"i contain cool ümläuts.txt" -> "i_contain_cool_umlauts.txt"
func SecureFilename(filename string) (string, error) {
	decomposed := norm.NFKD.String(filename)

	var ascii strings.Builder
	ascii.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r == '/' || r == '\\':
			ascii.WriteByte(' ')
		case r < 0x80:
			ascii.WriteRune(r)
		}
	}

	name := strings.Join(strings.Fields(ascii.String()), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")

	if name != "" {
		base, _, _ := strings.Cut(name, ".")
		if _, reserved := windowsDeviceNames[strings.ToUpper(base)]; reserved {
			name = "_" + name
		}
	}

	if name == "" {
		return "", ErrInvalidFilename
	}
	return name, nil
}
