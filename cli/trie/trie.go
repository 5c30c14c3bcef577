// Package trie wires forestryctl's key/value subcommands to a
// Store-backed forestry.Trie, exposing one NewCommands() for cli/app to
// assemble.
package trie

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/go-forestry/mpf/cli/flags"
	"github.com/go-forestry/mpf/cli/options"
	"github.com/go-forestry/mpf/pkg/crypto/hash"
	"github.com/go-forestry/mpf/pkg/forestry"
	"github.com/go-forestry/mpf/pkg/forestry/encoding"
)

// RootFlag selects the trie root digest a command should open, for
// commands that read an existing trie rather than building one fresh.
var RootFlag = flags.DigestFlag{
	Name:  "root",
	Usage: "hex-encoded root digest of the trie to open",
}

// SizeFlag accompanies RootFlag: a root digest alone does not reveal how
// many pairs the trie holds (forestry.Open needs both).
var SizeFlag = cli.IntFlag{
	Name:  "size",
	Usage: "number of key/value pairs under --root",
}

// NewCommands returns the trie subcommand group for forestryctl.
func NewCommands() []cli.Command {
	openFlags := append(append([]cli.Flag{RootFlag, SizeFlag}, options.Store...), options.Debug)
	// requiredOpenFlags is openFlags with --root/--size made mandatory, for
	// commands that only make sense against a trie that already exists.
	requiredOpenFlags := flags.MarkRequired(openFlags, "root", "size")
	return []cli.Command{{
		Name:  "trie",
		Usage: "build, query and prove a Merkle Patricia Forestry trie",
		Subcommands: []cli.Command{
			{
				Name:      "insert",
				Usage:     "insert a key/value pair",
				UsageText: "trie insert [--root <hex> --size <n>] <key> <value>",
				Action:    insertCmd,
				Flags:     openFlags,
			},
			{
				Name:      "delete",
				Usage:     "delete a key",
				UsageText: "trie delete --root <hex> --size <n> <key>",
				Action:    deleteCmd,
				Flags:     requiredOpenFlags,
			},
			{
				Name:      "root",
				Usage:     "print the trie's root digest and size",
				UsageText: "trie root --root <hex> --size <n>",
				Action:    rootCmd,
				Flags:     requiredOpenFlags,
			},
			{
				Name:      "prove",
				Usage:     "produce a proof for a key",
				UsageText: "trie prove [--root <hex> --size <n>] [--format json|cbor] [--out <file>] <key>",
				Action:    proveCmd,
				Flags: append(openFlags,
					cli.StringFlag{Name: "format", Value: "json", Usage: "json or cbor"},
					cli.StringFlag{Name: "out", Usage: "write the proof to this file instead of stdout"},
				),
			},
			{
				Name:      "verify",
				Usage:     "verify a proof produced by 'prove'",
				UsageText: "trie verify --expect-root <hex> [--with-element] <proof-file> [<value>]",
				Action:    verifyCmd,
				Flags: []cli.Flag{
					flags.DigestFlag{Name: "expect-root", Usage: "root digest the proof must reconstruct to"},
					cli.BoolFlag{Name: "with-element", Usage: "verify inclusion (value present) instead of exclusion"},
				},
			},
			{
				Name:      "dump",
				Usage:     "print the trie's node structure",
				UsageText: "trie dump --root <hex> --size <n>",
				Action:    dumpCmd,
				Flags:     requiredOpenFlags,
			},
			{
				Name:      "load",
				Usage:     "build a trie from a JSON array of {key,value} objects in one pass",
				UsageText: "trie load <file.json>",
				Action:    loadCmd,
				Flags:     options.Store,
			},
		},
	}}
}

func openTrie(ctx *cli.Context) (*forestry.Trie, forestry.Store, error) {
	s, err := options.GetStore(ctx)
	if err != nil {
		return nil, nil, cli.NewExitError(fmt.Errorf("opening store: %w", err), 1)
	}
	root := flags.DigestFromContext(ctx, "root")
	tr := forestry.Open(s, root, ctx.Int("size"))
	return tr, s, nil
}

func closeStore(s forestry.Store) {
	if c, ok := s.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

func insertCmd(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 2 {
		return cli.NewExitError("usage: trie insert <key> <value>", 1)
	}
	log, err := options.HandleLoggingParams(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer log.Sync() //nolint:errcheck

	tr, s, err := openTrie(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	if err := tr.Insert([]byte(args[0]), []byte(args[1])); err != nil {
		return cli.NewExitError(err, 1)
	}
	log.Debug("inserted key", zap.String("key", args[0]), zap.Int("size", tr.Size()))
	fmt.Fprintf(ctx.App.Writer, "root=%s size=%d\n", tr.Hash(), tr.Size())
	return nil
}

func deleteCmd(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return cli.NewExitError("usage: trie delete <key>", 1)
	}
	tr, s, err := openTrie(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	if err := tr.Delete([]byte(args[0])); err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "root=%s size=%d\n", tr.Hash(), tr.Size())
	return nil
}

func rootCmd(ctx *cli.Context) error {
	tr, s, err := openTrie(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	fmt.Fprintf(ctx.App.Writer, "root=%s size=%d\n", tr.Hash(), tr.Size())
	return nil
}

func proveCmd(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return cli.NewExitError("usage: trie prove <key>", 1)
	}
	tr, s, err := openTrie(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	proof, err := tr.Prove([]byte(args[0]))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	var data []byte
	switch ctx.String("format") {
	case "cbor":
		data, err = encoding.ProofCBOR(proof)
	default:
		data, err = encoding.ProofJSON(proof)
	}
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if out := ctx.String("out"); out != "" {
		if err := os.WriteFile(out, data, 0644); err != nil {
			return cli.NewExitError(err, 1)
		}
		return nil
	}
	fmt.Fprintln(ctx.App.Writer, string(data))
	return nil
}

func verifyCmd(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) < 1 {
		return cli.NewExitError("usage: trie verify <proof-file> [value]", 1)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	proof, err := decodeProofJSON(data)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if len(args) == 2 {
		proof.Value = []byte(args[1])
	}

	got, err := proof.Verify(ctx.Bool("with-element"))
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	want := flags.DigestFromContext(ctx, "expect-root")
	if !want.IsZero() && got != want {
		return cli.NewExitError(fmt.Errorf("root mismatch: got %s, want %s", got, want), 1)
	}
	fmt.Fprintln(ctx.App.Writer, got)
	return nil
}

func dumpCmd(ctx *cli.Context) error {
	tr, s, err := openTrie(ctx)
	if err != nil {
		return err
	}
	defer closeStore(s)

	fmt.Fprint(ctx.App.Writer, encoding.DumpNode(tr.Root(), 0))
	return nil
}

func loadCmd(ctx *cli.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return cli.NewExitError("usage: trie load <file.json>", 1)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	var pairs []struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &pairs); err != nil {
		return cli.NewExitError(fmt.Errorf("decoding input: %w", err), 1)
	}

	s, err := options.GetStore(ctx)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer closeStore(s)

	kvs := make([]forestry.KV, len(pairs))
	for i, p := range pairs {
		kvs[i] = forestry.KV{Key: []byte(p.Key), Value: []byte(p.Value)}
	}
	tr, err := forestry.FromList(s, kvs)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintf(ctx.App.Writer, "root=%s size=%d\n", tr.Hash(), tr.Size())
	return nil
}

// decodeProofJSON is the inverse of encoding.ProofJSON, local to the CLI
// since it is only ever needed to round-trip a proof a user saved to disk.
func decodeProofJSON(data []byte) (*forestry.Proof, error) {
	var wire struct {
		Path  string `json:"path"`
		Value string `json:"value"`
		Steps []struct {
			Type     string `json:"type"`
			Skip     int    `json:"skip"`
			Neighbors string `json:"neighbors"`
			Neighbor *struct {
				Nibble *int   `json:"nibble"`
				Prefix string `json:"prefix"`
				Root   string `json:"root"`
				Key    string `json:"key"`
				Value  string `json:"value"`
			} `json:"neighbor"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	path, err := hex.DecodeString(wire.Path)
	if err != nil {
		return nil, fmt.Errorf("decoding path: %w", err)
	}
	p := &forestry.Proof{Path: forestry.Path(path)}
	if wire.Value != "" {
		v, err := hex.DecodeString(wire.Value)
		if err != nil {
			return nil, fmt.Errorf("decoding value: %w", err)
		}
		p.Value = v
	}

	for _, sw := range wire.Steps {
		step := forestry.Step{Skip: sw.Skip}
		switch sw.Type {
		case "branch":
			nb, err := hex.DecodeString(sw.Neighbors)
			if err != nil || len(nb) != 128 {
				return nil, fmt.Errorf("decoding branch neighbors: %w", err)
			}
			bn := forestry.BranchNeighborsFromBytes(nb)
			step.Kind = forestry.StepBranch
			step.Branch = &bn
		case "fork":
			prefixBytes, err := hex.DecodeString(sw.Neighbor.Prefix)
			if err != nil {
				return nil, fmt.Errorf("decoding fork prefix: %w", err)
			}
			root, err := hash.FromHexString(sw.Neighbor.Root)
			if err != nil {
				return nil, fmt.Errorf("decoding fork root: %w", err)
			}
			step.Kind = forestry.StepFork
			step.Fork = &forestry.ForkNeighbor{
				Nibble: *sw.Neighbor.Nibble,
				Prefix: prefixBytes,
				Root:   root,
			}
		case "leaf":
			keyHash, err := hash.FromHexString(sw.Neighbor.Key)
			if err != nil {
				return nil, fmt.Errorf("decoding leaf key hash: %w", err)
			}
			valueHash, err := hash.FromHexString(sw.Neighbor.Value)
			if err != nil {
				return nil, fmt.Errorf("decoding leaf value hash: %w", err)
			}
			step.Kind = forestry.StepLeaf
			step.Leaf = &forestry.LeafNeighbor{KeyHash: keyHash, ValueHash: valueHash}
		default:
			return nil, fmt.Errorf("unknown step type %q", sw.Type)
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}
