package pipeline

import (
	"fmt"
	"strings"

	keytool "github.com/overnest/strongsalt-keytool-go"
)

var (
	FormatDer     = newFormat("der", true, false)
	FormatPem     = newFormat("pem", false, false)
	FormatSec1    = newFormat("sec1", false, false)
	FormatOpenSsh = newFormat("openssh", false, true)
	FormatSsh2    = newFormat("ssh2", false, true)
)

// Format is an output encoding. Values are compared by pointer.
type Format struct {
	Name   string
	Binary bool
	Ssh    bool
}

var formatMap map[string]*Format = make(map[string]*Format)

func newFormat(name string, binary, ssh bool) *Format {
	format := &Format{name, binary, ssh}
	formatMap[name] = format
	return format
}

func (f *Format) String() string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

// CanEncrypt reports whether an encrypted private key can be written in
// this format.
func (f *Format) CanEncrypt() bool {
	return f == FormatDer || f == FormatPem
}

// FormatFromName is case-insensitive. The empty name is PEM.
func FormatFromName(name string) (*Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return FormatPem, nil
	}
	format, ok := formatMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %q", keytool.ErrUnsupportedFormat, name)
	}
	return format, nil
}
