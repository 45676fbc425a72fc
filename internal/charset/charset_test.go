package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestDecode_UTF8(t *testing.T) {
	input := []byte("Konto;Betrag;Datum;Buchungstext\n4000;12,50;01.04.2024;Spende Müller\n")
	out, name, err := Decode(input, nil)
	require.NoError(t, err)
	assert.Equal(t, UTF8, name)
	assert.Equal(t, string(input), string(out))
}

func TestDecode_UTF8WithReplacementCharacter(t *testing.T) {
	input := []byte("Konto;Buchungstext\n4000;Spende M\uFFFDller\n")
	out, name, err := Decode(input, nil)
	require.NoError(t, err)
	assert.Equal(t, UTF8, name)
	assert.Equal(t, string(input), string(out))
}

func TestDecode_StripsBOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Konto;Betrag")...)
	out, name, err := Decode(input, nil)
	require.NoError(t, err)
	assert.Equal(t, UTF8, name)
	assert.Equal(t, "Konto;Betrag", string(out))
}

func TestDecode_Windows1252(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("Buchungstext\nÜberweisung Straße € 5\n")
	require.NoError(t, err)

	out, name, err := Decode([]byte(encoded), nil)
	require.NoError(t, err)
	assert.Equal(t, Windows1252, name)
	assert.Equal(t, "Buchungstext\nÜberweisung Straße € 5\n", string(out))
}

func TestDecode_DiacriticsOutsideHeader(t *testing.T) {
	// Header is pure ASCII, the umlaut only appears in a data row.
	encoded, err := charmap.ISO8859_1.NewEncoder().String("Konto;Text\n4000;Gebühr\n")
	require.NoError(t, err)

	out, _, err := Decode([]byte(encoded), nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "Gebühr")
}

func TestDecode_CandidateOrder(t *testing.T) {
	encoded, err := charmap.ISO8859_15.NewEncoder().String("Betrag €\n")
	require.NoError(t, err)

	out, name, err := Decode([]byte(encoded), []string{"latin9", "cp1252"})
	require.NoError(t, err)
	assert.Equal(t, ISO885915, name)
	assert.Equal(t, "Betrag €\n", string(out))
}

func TestDecode_NoCandidateMatches(t *testing.T) {
	_, _, err := Decode([]byte{0xC3, 0x28}, []string{"utf-8"})
	assert.Error(t, err)
}

func TestDecode_UnknownCandidate(t *testing.T) {
	_, _, err := Decode([]byte("abc"), []string{"ebcdic"})
	assert.Error(t, err)
	assert.Error(t, Validate([]string{"utf-8", "ebcdic"}))
	assert.NoError(t, Validate(DefaultCandidates))
}
