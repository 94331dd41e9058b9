package curves

import (
	"crypto/elliptic"
	"encoding/asn1"
	"strings"

	keytool "github.com/overnest/strongsalt-keytool-go"
	"github.com/overnest/strongsalt-keytool-go/oid"
)

var (
	Secp224r1  = newCurve("secp224r1", oid.Secp224r1, "", 224, elliptic.P224(), "P-224", "prime224v1")
	Secp256r1  = newCurve("secp256r1", oid.Secp256r1, "nistp256", 256, elliptic.P256(), "P-256", "prime256v1")
	Secp384r1  = newCurve("secp384r1", oid.Secp384r1, "nistp384", 384, elliptic.P384(), "P-384")
	Secp521r1  = newCurve("secp521r1", oid.Secp521r1, "nistp521", 521, elliptic.P521(), "P-521")
	Curve25519 = newCurve(keytool.Curve25519Name, oid.X25519, "ed25519", 255, nil, "x25519", "ed25519")
)

// Curve describes a named curve. SSHName is empty for curves that cannot be
// written as SSH keys. Elliptic is nil for curve25519, which only exists here
// in its Montgomery form.
type Curve struct {
	Name      string
	Aliases   []string
	OID       asn1.ObjectIdentifier
	SSHName   string
	FieldSize int
	Elliptic  elliptic.Curve
}

var (
	curveList []*Curve
	nameMap   map[string]*Curve = make(map[string]*Curve)
)

func newCurve(name string, id asn1.ObjectIdentifier, sshName string, fieldSize int,
	ec elliptic.Curve, aliases ...string) *Curve {
	curve := &Curve{
		Name:      name,
		Aliases:   aliases,
		OID:       id,
		SSHName:   sshName,
		FieldSize: fieldSize,
		Elliptic:  ec,
	}
	curveList = append(curveList, curve)
	nameMap[strings.ToLower(name)] = curve
	for _, alias := range aliases {
		nameMap[strings.ToLower(alias)] = curve
	}
	return curve
}

// ByName accepts the canonical name or any alias, case-insensitively.
func ByName(name string) (*Curve, bool) {
	curve, ok := nameMap[strings.ToLower(strings.TrimSpace(name))]
	return curve, ok
}

func ByOID(id asn1.ObjectIdentifier) (*Curve, bool) {
	for _, curve := range curveList {
		if curve.OID.Equal(id) {
			return curve, true
		}
	}
	return nil, false
}

// BySSHName maps an SSH curve identifier (nistp256, ...) back to its curve.
func BySSHName(sshName string) (*Curve, bool) {
	for _, curve := range curveList {
		if curve.SSHName != "" && curve.SSHName == sshName {
			return curve, true
		}
	}
	return nil, false
}

// ByParams resolves a curve from its field parameters rather than trusting
// the name the parameters carry.
func ByParams(params *elliptic.CurveParams) (*Curve, bool) {
	if params == nil {
		return nil, false
	}
	for _, curve := range curveList {
		if curve.Elliptic == nil {
			continue
		}
		known := curve.Elliptic.Params()
		if known.P.Cmp(params.P) == 0 && known.N.Cmp(params.N) == 0 &&
			known.B.Cmp(params.B) == 0 && known.Gx.Cmp(params.Gx) == 0 && known.Gy.Cmp(params.Gy) == 0 {
			return curve, true
		}
	}
	return nil, false
}

// NameFromParams returns the canonical curve name, or "" if the parameters
// describe no known curve.
func NameFromParams(params *elliptic.CurveParams) string {
	curve, ok := ByParams(params)
	if !ok {
		return ""
	}
	return curve.Name
}

func (c *Curve) IsCurve25519() bool {
	return c == Curve25519
}

func (c *Curve) SSHSupported() bool {
	return c.SSHName != ""
}

// ByteSize is the length of a field element, and of a private scalar, in bytes.
func (c *Curve) ByteSize() int {
	return (c.FieldSize + 7) / 8
}

// All returns the known curves in registration order.
func All() []*Curve {
	return append([]*Curve(nil), curveList...)
}
