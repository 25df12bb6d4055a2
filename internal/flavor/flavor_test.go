package flavor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clocktower"
)

func TestParse_EmbeddedDefault(t *testing.T) {
	c, err := Parse(clocktower.DefaultFlavorYAML, "yaml")
	require.NoError(t, err)

	assert.Equal(t, "The good team wins!", c.Ending("good"))
	assert.Equal(t, "The game is over!", c.Ending(""))
	assert.Equal(t, "was executed!", c.Death("execution"))
	assert.Equal(t, "is dead!", c.Death(NoneKey))
	assert.Equal(t, "is alive!", c.Resurrect)
	assert.Len(t, c.Endings, 4)
	assert.Len(t, c.Deaths, 4)
}

func TestCatalog_UnknownKeyFallsBackToNone(t *testing.T) {
	c, err := Parse(clocktower.DefaultFlavorYAML, "yaml")
	require.NoError(t, err)

	assert.Equal(t, "The game is over!", c.Ending("aliens"))
	assert.Equal(t, "is dead!", c.Death("aliens"))
}

const xmlCatalog = `<flavor>
  <endings>
    <ending key="none" name="None">The end.</ending>
    <ending key="good" name="Good wins">
      Good prevails.
    </ending>
  </endings>
  <deaths>
    <death key="none" name="None">fell.</death>
  </deaths>
  <resurrect> rose again. </resurrect>
</flavor>`

func TestParse_XML(t *testing.T) {
	c, err := Parse([]byte(xmlCatalog), "xml")
	require.NoError(t, err)

	assert.Equal(t, "Good prevails.", c.Ending("good"))
	assert.Equal(t, "Good wins", c.Endings[1].Name)
	assert.Equal(t, "fell.", c.Death("night"))
	assert.Equal(t, "rose again.", c.Resurrect)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{
			name: "missing none ending",
			data: "endings:\n  - {key: good, text: yay}\ndeaths:\n  - {key: none, text: died}\nresurrect: back\n",
			want: `endings: a "none" entry is required`,
		},
		{
			name: "duplicate key",
			data: "endings:\n  - {key: none, text: a}\n  - {key: none, text: b}\ndeaths:\n  - {key: none, text: died}\nresurrect: back\n",
			want: `endings: duplicate key "none"`,
		},
		{
			name: "blank text",
			data: "endings:\n  - {key: none, text: a}\ndeaths:\n  - {key: none}\nresurrect: back\n",
			want: "deaths[0]: text is required",
		},
		{
			name: "no resurrect",
			data: "endings:\n  - {key: none, text: a}\ndeaths:\n  - {key: none, text: b}\n",
			want: "resurrect text is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()

	xmlPath := filepath.Join(dir, "flavor.xml")
	require.NoError(t, os.WriteFile(xmlPath, []byte(xmlCatalog), 0o644))
	c, err := Load(xmlPath)
	require.NoError(t, err)
	assert.Equal(t, "The end.", c.Ending(NoneKey))

	ymlPath := filepath.Join(dir, "flavor.yml")
	require.NoError(t, os.WriteFile(ymlPath, clocktower.DefaultFlavorYAML, 0o644))
	_, err = Load(ymlPath)
	require.NoError(t, err)

	txtPath := filepath.Join(dir, "flavor.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, err = Load(txtPath)
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
