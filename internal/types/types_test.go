package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional(t *testing.T) {
	type body struct {
		Name Optional[string] `json:"name"`
	}

	t.Run("Missing", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{}`), &b))

		assert.False(t, b.Name.Defined)
		assert.Equal(t, "current", b.Name.Or("current"))
	})

	t.Run("Null", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{"name": null}`), &b))

		assert.True(t, b.Name.Defined)
		assert.Nil(t, b.Name.Value)
		assert.Equal(t, "current", b.Name.Or("current"))
	})

	t.Run("Set", func(t *testing.T) {
		var b body
		require.NoError(t, json.Unmarshal([]byte(`{"name": "new"}`), &b))

		assert.True(t, b.Name.Defined)
		assert.Equal(t, "new", b.Name.Or("current"))
	})

	t.Run("Marshal", func(t *testing.T) {
		out, err := json.Marshal(body{Name: NewFromVal("x")})
		require.NoError(t, err)
		assert.JSONEq(t, `{"name": "x"}`, string(out))

		out, err = json.Marshal(body{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"name": null}`, string(out))
	})
}
