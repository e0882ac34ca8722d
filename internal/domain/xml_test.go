package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseXML_EnumeratesStaticAssets(t *testing.T) {
	data := []byte(`<article xmlns:xlink="http://www.w3.org/1999/xlink">
<body>
<graphic xlink:href="g1.gif"/>
<media xlink:href="m1.mp4"/>
<inline-graphic xlink:href="ig1.gif"/>
<supplementary-material xlink:href="sm1.pdf"/>
<inline-supplementary-material xlink:href="ism1.pdf"/>
<ext-link xlink:href="http://example.com">not an asset</ext-link>
</body>
</article>`)

	parsed, err := ParseXML(data)
	require.NoError(t, err)

	var ids []string
	for _, ref := range parsed.Assets {
		ids = append(ids, ref.ID)
	}
	assert.Equal(t, []string{"g1.gif", "m1.mp4", "ig1.gif", "sm1.pdf", "ism1.pdf"}, ids)
}

func TestParseXML_ResolvesDeclaredPrefix(t *testing.T) {
	data := []byte(`<article xmlns:ns2="http://www.w3.org/1999/xlink">
<body><graphic ns2:href="g1.gif"/></body>
</article>`)

	parsed, err := ParseXML(data)
	require.NoError(t, err)
	require.Len(t, parsed.Assets, 1)
	assert.Equal(t, "g1.gif", parsed.Assets[0].ID)
}

func TestParseXML_Errors(t *testing.T) {
	_, err := ParseXML([]byte("not xml <"))
	assert.Error(t, err)
	_, err = ParseXML([]byte("   "))
	assert.Error(t, err)
}

func TestSetHref_RewritesInPlace(t *testing.T) {
	data := []byte(`<article xmlns:xlink="http://www.w3.org/1999/xlink">
<!-- production note -->
<body><graphic xlink:href="g1.gif"/></body>
</article>`)

	parsed, err := ParseXML(data)
	require.NoError(t, err)
	require.Len(t, parsed.Assets, 1)

	parsed.Assets[0].SetHref("/rawfiles/g1-v2.gif")
	out, err := parsed.Bytes()
	require.NoError(t, err)

	assert.Contains(t, string(out), `xlink:href="/rawfiles/g1-v2.gif"`)
	assert.Contains(t, string(out), "<!-- production note -->", "comments survive the round-trip")
}
