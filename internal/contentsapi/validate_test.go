package contentsapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validContent = `{
	"name": "nb.ipynb",
	"path": "work/nb.ipynb",
	"type": "notebook",
	"writable": true,
	"created": "2024-01-01T00:00:00Z",
	"last_modified": "2024-01-02T00:00:00Z",
	"mimetype": null,
	"content": null,
	"format": null
}`

func TestValidateContent(t *testing.T) {
	assert.NoError(t, ValidateContent([]byte(validContent)))
}

func TestValidateContentMissingFields(t *testing.T) {
	err := ValidateContent([]byte(`{"name": "a", "type": "file"}`))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, ShapeContent, verr.Shape)
	assert.Contains(t, verr.Missing, "path")
	assert.Contains(t, verr.Missing, "content")
	assert.NotContains(t, verr.Missing, "writable")
}

func TestValidateContentBadTypes(t *testing.T) {
	err := ValidateContent([]byte(`{
		"name": 7, "path": "p", "type": "file", "writable": "yes",
		"created": null, "last_modified": null, "mimetype": null,
		"content": null, "format": null
	}`))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Invalid, "name")
	assert.Contains(t, verr.Invalid, "writable")
}

func TestValidateContentNotAnObject(t *testing.T) {
	assert.Error(t, ValidateContent([]byte(`[1, 2]`)))
	assert.Error(t, ValidateContent([]byte(`null`)))
	assert.Error(t, ValidateContent(nil))
}

func TestValidateCheckpoint(t *testing.T) {
	assert.NoError(t, ValidateCheckpoint([]byte(`{"id": "cp-1", "last_modified": "2024-01-01T00:00:00Z"}`)))
	assert.Error(t, ValidateCheckpoint([]byte(`{"id": "cp-1"}`)))
	assert.Error(t, ValidateCheckpoint([]byte(`{"id": 3, "last_modified": "x"}`)))
}

func TestValidateCheckpointList(t *testing.T) {
	assert.NoError(t, ValidateCheckpointList([]byte(`[]`)))
	assert.NoError(t, ValidateCheckpointList([]byte(`[{"id": "a", "last_modified": "t"}]`)))

	// a lone object is rejected even though it validates individually
	assert.Error(t, ValidateCheckpointList([]byte(`{"id": "a", "last_modified": "t"}`)))
	assert.Error(t, ValidateCheckpointList([]byte(`[{"id": "a"}]`)))
}

func TestDecodeContent(t *testing.T) {
	var out struct {
		Name string `json:"name"`
		Path string `json:"path"`
	}
	require.NoError(t, DecodeContent([]byte(validContent), &out))
	assert.Equal(t, "nb.ipynb", out.Name)
	assert.Equal(t, "work/nb.ipynb", out.Path)

	assert.Error(t, DecodeContent([]byte(`{"name": "a"}`), &out))
}
