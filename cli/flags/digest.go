package flags

import (
	"flag"
	"strings"

	"github.com/urfave/cli"

	"github.com/go-forestry/mpf/pkg/crypto/hash"
)

// Digest is a wrapper for a hash.Digest with flag.Value methods, letting
// it be parsed directly from a CLI flag's string argument.
type Digest struct {
	Value hash.Digest
}

// DigestFlag is a flag with type string that parses into a hash.Digest.
type DigestFlag struct {
	Name     string
	Usage    string
	Value    Digest
	Required bool
}

var (
	_ flag.Value = (*Digest)(nil)
	_ cli.Flag   = DigestFlag{}
)

// IsRequired implements cli's RequiredFlag interface, letting
// flags.MarkRequired mark a DigestFlag required the same way it does
// for the built-in StringFlag/IntFlag/BoolFlag types.
func (f DigestFlag) IsRequired() bool {
	return f.Required
}

// String implements the fmt.Stringer interface.
func (d Digest) String() string {
	return d.Value.String()
}

// Set implements the flag.Value interface.
func (d *Digest) Set(s string) error {
	v, err := hash.FromHexString(s)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	d.Value = v
	return nil
}

// Digest casts the flag value to hash.Digest.
func (d *Digest) Digest() hash.Digest {
	return d.Value
}

// String returns a readable representation of this value (for usage
// defaults).
func (f DigestFlag) String() string {
	var names []string
	eachName(f.Name, func(name string) {
		names = append(names, getNameHelp(name))
	})
	return strings.Join(names, ", ") + "\t" + f.Usage
}

// GetName returns the name of the flag.
func (f DigestFlag) GetName() string {
	return f.Name
}

// Apply populates the flag given the flag set and environment. Ignores
// errors, consistent with cli's other Generic flag types.
func (f DigestFlag) Apply(set *flag.FlagSet) {
	eachName(f.Name, func(name string) {
		set.Var(&f.Value, name, f.Usage)
	})
}

// DigestFromContext returns a parsed hash.Digest for the given flag name.
// It returns hash.Zero if the flag was never set.
func DigestFromContext(ctx *cli.Context, name string) hash.Digest {
	v, ok := ctx.Generic(name).(*Digest)
	if !ok || v == nil {
		return hash.Zero
	}
	return v.Value
}
