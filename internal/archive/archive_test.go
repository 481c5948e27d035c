package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	assert.Equal(t, filepath.Join("pokemon_data", "ditto_132.json"), Filename("ditto", 132))
}

func TestSaveWritesIndentedJSON(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	raw := []byte(`{"id":132,"name":"ditto"}`)
	require.NoError(t, s.Save("ditto", 132, raw))

	data, err := os.ReadFile(filepath.Join(dir, "pokemon_data", "ditto_132.json"))
	require.NoError(t, err)

	// Indented but semantically identical to the raw payload.
	assert.Contains(t, string(data), "\n  ")
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "ditto", got["name"])
}

func TestSaveNonJSONPayloadWrittenAsIs(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	require.NoError(t, s.Save("weird", 1, []byte("not json")))

	data, err := os.ReadFile(filepath.Join(dir, "pokemon_data", "weird_1.json"))
	require.NoError(t, err)
	assert.Equal(t, "not json", string(data))
}

func TestSaveOverwritesExistingFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	require.NoError(t, s.Save("ditto", 132, []byte(`{"v":1}`)))
	require.NoError(t, s.Save("ditto", 132, []byte(`{"v":2}`)))

	data, err := os.ReadFile(filepath.Join(dir, "pokemon_data", "ditto_132.json"))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.EqualValues(t, 2, got["v"])
}

func TestSaveRefusesPathShapedNames(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir, nil)

	for _, name := range []string{"../../evil", "a/b", "..", ".", ""} {
		t.Run(name, func(t *testing.T) {
			require.Error(t, s.Save(name, 7, []byte(`{}`)))
		})
	}

	// Nothing escaped the media root: the parent of the temp dir holds no
	// archive output.
	_, err := os.Stat(filepath.Join(filepath.Dir(dir), "evil_7.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveFailsOnUnwritableRoot(t *testing.T) {
	dir := t.TempDir()
	// A file where the subdir should go forces MkdirAll to fail.
	require.NoError(t, os.WriteFile(filepath.Join(dir, subdir), []byte("x"), 0o644))

	s := NewStore(dir, nil)
	err := s.Save("ditto", 132, []byte(`{}`))
	require.Error(t, err)
}
