package hateoas

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const linkFileYAML = `
configurations:
  - api_title: WebApi
    schema_name: Thought
    links:
      get-thought-by-id: self
      delete-thought: delete
    conditions:
      delete:
        property: description
        kind: string
        op: ne
        value: Confidential
      self:
        property: opened
        kind: boolean
        value: true
  - api_title: WebApi
    schema_name: Topic
    links:
      get-topic-by-title: self
    conditions:
      self:
        property: title
        kind: string
        op: not_in
        values: [Secret, Hidden]
`

func TestParseLinkFile(t *testing.T) {
	cfgs, err := ParseLinkFile([]byte(linkFileYAML))
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	require.Equal(t, "Thought", cfgs[0].SchemaName)
	require.Equal(t, "delete", cfgs[0].Links["delete-thought"])

	e := newTestEngine(t, cfgs...)

	got, _ := decorate(t, e, "/thoughts/{thoughtId}", `{"thoughtId":"G1","description":"Confidential","opened":true}`)
	require.Equal(t, `{"thoughtId":"G1","description":"Confidential","opened":true,"_links":{"self":"/thoughts/G1"}}`, got)

	got, _ = decorate(t, e, "/thoughts/{thoughtId}", `{"thoughtId":"G1","description":"fine","opened":false}`)
	require.Equal(t, `{"thoughtId":"G1","description":"fine","opened":false,"_links":{"delete":"/thoughts/G1"}}`, got)

	got, _ = decorate(t, e, "/topics/{title}", `{"title":"Hidden"}`)
	require.Equal(t, `{"title":"Hidden"}`, got)

	got, _ = decorate(t, e, "/topics/{title}", `{"title":"Misc"}`)
	require.Equal(t, `{"title":"Misc","_links":{"self":"/topics/Misc"}}`, got)
}

func TestParseLinkFile_NumberCondition(t *testing.T) {
	cfgs, err := ParseLinkFile([]byte(`
configurations:
  - schema_name: ThoughtList
    links:
      get-thoughts: self
    conditions:
      self: {property: total, kind: number, op: in, values: [1, 2.5]}
`))
	require.NoError(t, err)
	cond := cfgs[0].Conditions["self"]
	require.True(t, cond.Allows(mustObject(t, `{"total":1.0}`)))
	require.True(t, cond.Allows(mustObject(t, `{"total":2.5}`)))
	require.False(t, cond.Allows(mustObject(t, `{"total":3}`)))
}

func TestParseLinkFile_Errors(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad_kind",
			yaml:    "configurations:\n  - schema_name: T\n    conditions:\n      self: {property: a, kind: object, value: 1}\n",
			wantErr: `unsupported kind "object"`,
		},
		{
			name:    "bad_op",
			yaml:    "configurations:\n  - schema_name: T\n    conditions:\n      self: {property: a, kind: string, op: like, value: x}\n",
			wantErr: `unsupported op "like"`,
		},
		{
			name:    "value_kind_mismatch",
			yaml:    "configurations:\n  - schema_name: T\n    conditions:\n      self: {property: a, kind: boolean, value: yes-please}\n",
			wantErr: "is string, want boolean",
		},
		{
			name:    "missing_values",
			yaml:    "configurations:\n  - schema_name: T\n    conditions:\n      self: {property: a, kind: string, op: in}\n",
			wantErr: "op in requires values",
		},
		{
			name:    "missing_property",
			yaml:    "configurations:\n  - schema_name: T\n    conditions:\n      self: {kind: string, value: x}\n",
			wantErr: "property is required",
		},
		{
			name:    "not_yaml",
			yaml:    "configurations: [",
			wantErr: "parse link file",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseLinkFile([]byte(tc.yaml))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadLinkFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "links.yaml")
	require.NoError(t, os.WriteFile(path, []byte(linkFileYAML), 0o600))
	cfgs, err := LoadLinkFile(path)
	require.NoError(t, err)
	require.Len(t, cfgs, 2)

	_, err = LoadLinkFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadLinkFile_Example(t *testing.T) {
	cfgs, err := LoadLinkFile(filepath.Join("..", "..", "config", "links.example.yaml"))
	require.NoError(t, err)
	require.Len(t, cfgs, 1)
	require.Equal(t, "NewThought", cfgs[0].SchemaName)
	require.Equal(t, "create", cfgs[0].Links["create-thought"])
	require.Contains(t, cfgs[0].Conditions, "create")
}
