package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcontractkit/chainlink-diamond-framework/cut"
	"github.com/smartcontractkit/chainlink-diamond-framework/facet"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets/counter"
	"github.com/smartcontractkit/chainlink-diamond-framework/facets/loupe"
	"github.com/smartcontractkit/chainlink-diamond-framework/manifest"
	"github.com/smartcontractkit/chainlink-diamond-framework/selector"
)

const yamlManifest = `
owner: "0x00000000000000000000000000000000000000a1"
cuts:
  - facet: loupe
    action: add
    functions: ["*"]
  - facet: counter@1.0.0
    action: add
    functions:
      - "increment(uint256)"
      - "0x2ddbd13a"
  - action: remove
    functions: ["stale()"]
init:
  facet: loupe
`

const tomlManifest = `
owner = "0x00000000000000000000000000000000000000a1"

[[cuts]]
facet = "loupe"
action = "add"
functions = ["*"]

[[cuts]]
facet = "counter@1.0.0"
action = "add"
functions = ["increment(uint256)", "0x2ddbd13a"]

[[cuts]]
action = "remove"
functions = ["stale()"]

[init]
facet = "loupe"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadAndResolve(t *testing.T) {
	t.Parallel()

	catalog := facets.MustNewCatalog()
	loupeEntry, err := catalog.Lookup("loupe")
	require.NoError(t, err)
	counterEntry, err := catalog.Lookup("counter@1.0.0")
	require.NoError(t, err)

	want := cut.Request{
		Cuts: []cut.FacetCut{
			{FacetAddress: loupeEntry.Address, Action: cut.Add, FunctionSelectors: loupe.New().Selectors()},
			{FacetAddress: counterEntry.Address, Action: cut.Add, FunctionSelectors: []selector.Selector{
				counter.Increment, selector.MustParse("0x2ddbd13a"),
			}},
			{Action: cut.Remove, FunctionSelectors: selector.FromSignatures("stale()")},
		},
		Init: cut.Init{Facet: loupeEntry.Address},
	}

	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "yaml", file: "cut.yaml", body: yamlManifest},
		{name: "yml", file: "cut.yml", body: yamlManifest},
		{name: "toml", file: "cut.toml", body: tomlManifest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := manifest.Load(writeFile(t, tt.file, tt.body))
			require.NoError(t, err)

			owner, err := m.OwnerAddress()
			require.NoError(t, err)
			assert.Equal(t, common.HexToAddress("0xa1"), owner)

			got, err := m.Resolve(catalog)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	t.Parallel()

	catalog := facets.MustNewCatalog()

	tests := []struct {
		name    string
		m       manifest.Manifest
		wantErr error
	}{
		{
			name:    "unknown facet",
			m:       manifest.Manifest{Cuts: []manifest.Cut{{Facet: "nope", Action: "add", Functions: []string{"a()"}}}},
			wantErr: facet.ErrNotFound,
		},
		{
			name:    "unknown action",
			m:       manifest.Manifest{Cuts: []manifest.Cut{{Facet: "loupe", Action: "upsert", Functions: []string{"a()"}}}},
			wantErr: cut.ErrIncorrectAction,
		},
		{
			name:    "no functions",
			m:       manifest.Manifest{Cuts: []manifest.Cut{{Facet: "loupe", Action: "add"}}},
			wantErr: manifest.ErrNoFunctions,
		},
		{
			name:    "wildcard on remove",
			m:       manifest.Manifest{Cuts: []manifest.Cut{{Action: "remove", Functions: []string{"*"}}}},
			wantErr: manifest.ErrNotListable,
		},
		{
			name:    "bad function",
			m:       manifest.Manifest{Cuts: []manifest.Cut{{Facet: "loupe", Action: "add", Functions: []string{"nonsense"}}}},
			wantErr: selector.ErrInvalidSelector,
		},
		{
			name:    "unknown init facet",
			m:       manifest.Manifest{Init: &manifest.Init{Facet: "nope"}},
			wantErr: facet.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.m.Resolve(catalog)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	_, err := manifest.Load(writeFile(t, "cut.json", "{}"))
	require.ErrorIs(t, err, manifest.ErrUnsupportedFormat)
}

func TestOwnerAddress_Invalid(t *testing.T) {
	t.Parallel()

	_, err := (&manifest.Manifest{Owner: "alice"}).OwnerAddress()
	require.ErrorIs(t, err, manifest.ErrInvalidOwner)
}

func TestFromRequest_RoundTrips(t *testing.T) {
	t.Parallel()

	catalog := facets.MustNewCatalog()
	counterEntry, err := catalog.Lookup("counter@2.0.0")
	require.NoError(t, err)
	req := cut.Request{
		Cuts: []cut.FacetCut{
			{FacetAddress: counterEntry.Address, Action: cut.Replace, FunctionSelectors: []selector.Selector{counter.Increment}},
		},
		Init: cut.Init{Facet: counterEntry.Address, Calldata: hexutil.MustDecode("0x01020304")},
	}

	for _, format := range []string{"yaml", "toml"} {
		b, err := manifest.FromRequest(catalog, common.Address{}, req).Encode(format)
		require.NoError(t, err)
		assert.Contains(t, string(b), "counter@2.0.0")

		m, err := manifest.Decode(format, b)
		require.NoError(t, err)
		got, err := m.Resolve(catalog)
		require.NoError(t, err)
		assert.Equal(t, req, got, format)
	}
}
