package hela

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validManifest has a leading empty line and a comment
const validManifest = `
# drive exports
/docs/file1.txt /tmp/file1.txt
/docs/file2.txt   /tmp/file2.txt
https://cdn.example.com/file3.txt /tmp/file3.txt`

func TestParseLine(t *testing.T) {
	remote, dest, err := parseLine("/docs/file1.txt /tmp/file1.txt")
	require.NoError(t, err)
	assert.Equal(t, "/docs/file1.txt", remote)
	assert.Equal(t, "/tmp/file1.txt", dest)

	_, _, err = parseLine("/docs/file1.txt")
	assert.Error(t, err)

	_, _, err = parseLine("a b c")
	assert.Error(t, err)
}

func TestCheckSeenDestinations(t *testing.T) {
	seen := map[string]string{"/tmp/file1.txt": "/docs/file1.txt"}

	assert.NoError(t, checkSeenDestinations(seen, "/tmp/file2.txt", "/docs/file1.txt"))

	err := checkSeenDestinations(seen, "/tmp/file1.txt", "/docs/file1.txt")
	assert.ErrorContains(t, err, "duplicate entry")

	err = checkSeenDestinations(seen, "/tmp/file1.txt", "/docs/other.txt")
	assert.ErrorContains(t, err, "different sources")
}

func TestParseManifest(t *testing.T) {
	manifest, err := ParseManifest(strings.NewReader(validManifest), nil)
	require.NoError(t, err)
	assert.Equal(t, Manifest{
		{Remote: "/docs/file1.txt", Dest: "/tmp/file1.txt"},
		{Remote: "/docs/file2.txt", Dest: "/tmp/file2.txt"},
		{Remote: "https://cdn.example.com/file3.txt", Dest: "/tmp/file3.txt"},
	}, manifest)

	_, err = ParseManifest(strings.NewReader("/docs/file1.txt"), nil)
	assert.Error(t, err)

	_, err = ParseManifest(strings.NewReader("/a x\n/b x\n"), nil)
	assert.Error(t, err)
}

func TestParseManifestCheck(t *testing.T) {
	errExists := errors.New("exists")
	var checked []string
	check := func(dest string) error {
		checked = append(checked, dest)
		if dest == "/tmp/file2.txt" {
			return errExists
		}
		return nil
	}

	_, err := ParseManifest(strings.NewReader(validManifest), check)
	assert.ErrorIs(t, err, errExists)
	assert.Equal(t, []string{"/tmp/file1.txt", "/tmp/file2.txt"}, checked)
}
