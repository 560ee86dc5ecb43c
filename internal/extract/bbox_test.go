package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBBoxXML = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" lang="en" xml:lang="en">
<head><title></title></head>
<body>
<doc>
  <page width="595.276" height="841.890">
    <word xMin="56.693" yMin="70.866" xMax="120.450" yMax="82.100">Invoice</word>
    <word xMin="125.000" yMin="70.900" xMax="150.200" yMax="82.100">No.</word>
    <word xMin="56.693" yMin="120.500" xMax="90.100" yMax="131.700">14351</word>
  </page>
  <page width="595.276" height="841.890">
    <word xMin="56.693" yMin="70.866" xMax="110.000" yMax="82.100">Carried</word>
    <word xMin="115.000" yMin="70.866" xMax="160.000" yMax="82.100">forward</word>
  </page>
</doc>
</body>
</html>`

func TestParseBBox(t *testing.T) {
	frags, err := parseBBox([]byte(sampleBBoxXML))
	require.NoError(t, err)
	require.Len(t, frags, 5)

	assert.Equal(t, "Invoice", frags[0].Text)
	assert.InDelta(t, 56.693, frags[0].X, 0.001)
	assert.InDelta(t, 70.866, frags[0].Y, 0.001)
	assert.Equal(t, 0, frags[0].Page)

	assert.Equal(t, "14351", frags[2].Text)
	assert.Equal(t, 0, frags[2].Page)

	assert.Equal(t, "Carried", frags[3].Text)
	assert.Equal(t, 1, frags[3].Page)
	assert.Equal(t, "forward", frags[4].Text)
}

func TestParseBBoxSkipsEmptyWords(t *testing.T) {
	doc := `<doc><page><word xMin="1" yMin="2">  </word><word xMin="3" yMin="4">ok</word></page></doc>`
	frags, err := parseBBox([]byte(doc))
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Equal(t, "ok", frags[0].Text)
}

func TestParseBBoxEmptyDocument(t *testing.T) {
	frags, err := parseBBox([]byte(`<doc></doc>`))
	require.NoError(t, err)
	assert.Empty(t, frags)
}

func TestParseBBoxMalformed(t *testing.T) {
	_, err := parseBBox([]byte(`<doc><page><word xMin="1"`))
	assert.Error(t, err)
}
