// Package encoding provides the external wire formats for a Proof: CBOR
// for machine interchange with non-Go verifiers, JSON for the same, and
// a textual dump for humans. It depends only on package forestry's
// exported surface; the CBOR bytes a Store persists for a Node are
// produced by forestry itself (the type and its own serialization
// travel together, the way encoding/json's Marshaler methods live on
// the type rather than in a helper package).
package encoding

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-forestry/mpf/pkg/forestry"
)

// stepWire is the wire shape for one Step, shared by JSON and CBOR
// encoding. Neighbors is populated for a branch step, Neighbor for a
// fork or leaf step.
type stepWire struct {
	Type      string        `json:"type" cbor:"type"`
	Skip      int           `json:"skip" cbor:"skip"`
	Neighbors string        `json:"neighbors,omitempty" cbor:"neighbors,omitempty"`
	Neighbor  *neighborWire `json:"neighbor,omitempty" cbor:"neighbor,omitempty"`
}

type neighborWire struct {
	Nibble *int   `json:"nibble,omitempty" cbor:"nibble,omitempty"`
	Prefix string `json:"prefix,omitempty" cbor:"prefix,omitempty"`
	Root   string `json:"root,omitempty" cbor:"root,omitempty"`
	Key    string `json:"key,omitempty" cbor:"key,omitempty"`
	Value  string `json:"value,omitempty" cbor:"value,omitempty"`
}

type proofWire struct {
	Path  string     `json:"path" cbor:"path"`
	Value string     `json:"value,omitempty" cbor:"value,omitempty"`
	Steps []stepWire `json:"steps" cbor:"steps"`
}

func toWire(p *forestry.Proof) proofWire {
	out := proofWire{Path: hex.EncodeToString(p.Path), Steps: make([]stepWire, len(p.Steps))}
	if p.Value != nil {
		out.Value = hex.EncodeToString(p.Value)
	}
	for i, s := range p.Steps {
		out.Steps[i] = stepToWire(s)
	}
	return out
}

func stepToWire(s forestry.Step) stepWire {
	switch s.Kind {
	case forestry.StepBranch:
		return stepWire{Type: "branch", Skip: s.Skip, Neighbors: hex.EncodeToString(s.Branch.Bytes())}
	case forestry.StepFork:
		nibble := s.Fork.Nibble
		return stepWire{Type: "fork", Skip: s.Skip, Neighbor: &neighborWire{
			Nibble: &nibble,
			Prefix: hex.EncodeToString(s.Fork.Prefix),
			Root:   s.Fork.Root.String(),
		}}
	case forestry.StepLeaf:
		return stepWire{Type: "leaf", Skip: s.Skip, Neighbor: &neighborWire{
			Key:   s.Leaf.KeyHash.String(),
			Value: s.Leaf.ValueHash.String(),
		}}
	default:
		return stepWire{Type: "unknown", Skip: s.Skip}
	}
}

// ProofJSON renders p as JSON.
func ProofJSON(p *forestry.Proof) ([]byte, error) {
	return json.Marshal(toWire(p))
}

// ProofCBOR renders p as CBOR, for non-Go verifiers.
func ProofCBOR(p *forestry.Proof) ([]byte, error) {
	return cbor.Marshal(toWire(p))
}

// DumpNode renders a Node tree as an indented, human-readable listing for
// the forestryctl dump subcommand. Unresolved subtrees are shown by their
// digest and leaf count only.
func DumpNode(n forestry.Node, indent int) string {
	var b strings.Builder
	dumpInto(&b, n, indent)
	return b.String()
}

func dumpInto(b *strings.Builder, n forestry.Node, indent int) {
	pad := strings.Repeat("  ", indent)
	if n == nil {
		fmt.Fprintf(b, "%s<empty>\n", pad)
		return
	}
	switch v := n.(type) {
	case *forestry.Leaf:
		fmt.Fprintf(b, "%sleaf prefix=%x key=%x hash=%s\n", pad, v.Prefix(), v.Key(), v.Hash())
	case *forestry.Branch:
		fmt.Fprintf(b, "%sbranch prefix=%x size=%d hash=%s\n", pad, v.Prefix(), v.Size(), v.Hash())
		for i := 0; i < 16; i++ {
			if c := v.ChildAt(i); c != nil {
				fmt.Fprintf(b, "%s  [%x]\n", pad, i)
				dumpInto(b, c, indent+2)
			}
		}
	default:
		fmt.Fprintf(b, "%sref hash=%s size=%d\n", pad, n.Hash(), n.Size())
	}
}
