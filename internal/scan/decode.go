package scan

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/ihavespoons/quarry/internal/errdefs"
)

// decoder converts raw file bytes to UTF-8 text, replacing undecodable
// byte sequences instead of failing.
type decoder struct {
	enc encoding.Encoding // nil means plain UTF-8
}

// newDecoder resolves an IANA encoding name. Empty and "utf-8" map to the
// native path.
func newDecoder(name string) (*decoder, error) {
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return &decoder{}, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errdefs.Input(
			"Unknown text encoding.",
			"'"+name+"' is not a recognized encoding name.",
			"Use an IANA encoding name such as 'utf-8' or 'iso-8859-1'.",
		)
	}
	return &decoder{enc: enc}, nil
}

// decode returns the content as a UTF-8 string. Invalid input bytes become
// U+FFFD; x/text decoders substitute the replacement rune on their own.
func (d *decoder) decode(data []byte) (string, error) {
	if d.enc == nil {
		return strings.ToValidUTF8(string(data), "�"), nil
	}
	out, err := d.enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
