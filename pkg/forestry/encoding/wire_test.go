package encoding

import (
	"encoding/json"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/go-forestry/mpf/pkg/forestry"
)

func TestProofJSONShapeMatchesWireFormat(t *testing.T) {
	tr := forestry.New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	require.NoError(t, tr.Insert([]byte("apricot"), []byte("B")))

	proof, err := tr.Prove([]byte("apple"))
	require.NoError(t, err)

	data, err := ProofJSON(proof)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	steps := decoded["steps"].([]interface{})
	require.Len(t, steps, 1)
	step := steps[0].(map[string]interface{})
	require.Equal(t, "leaf", step["type"])
	neighbor := step["neighbor"].(map[string]interface{})
	require.Contains(t, neighbor, "key")
	require.Contains(t, neighbor, "value")
}

func TestProofCBORRoundTrips(t *testing.T) {
	tr := forestry.New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	proof, err := tr.Prove([]byte("apple"))
	require.NoError(t, err)

	data, err := ProofCBOR(proof)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	want := toWire(proof)
	var decoded proofWire
	require.NoError(t, cbor.Unmarshal(data, &decoded))
	require.Equal(t, want.Path, decoded.Path)
	require.Equal(t, want.Value, decoded.Value)
	require.Len(t, decoded.Steps, len(want.Steps))
}

func TestDumpNodeIncludesLeafAndBranchLines(t *testing.T) {
	tr := forestry.New(nil)
	require.NoError(t, tr.Insert([]byte("apple"), []byte("A")))
	require.NoError(t, tr.Insert([]byte("apricot"), []byte("B")))

	out := DumpNode(tr.Root(), 0)
	require.Contains(t, out, "branch")
	require.Contains(t, out, "leaf")
}
