package hela

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// A manifest lists pairs of remote drive paths (or absolute URLs) and local destinations:
//
//	/docs/report.pdf     report.pdf
//	/photos/2024/a.jpg   photos/a.jpg
//
// Blank lines and lines starting with # are ignored. The pair is separated by arbitrary
// whitespace.

type ManifestEntry struct {
	Remote string
	Dest   string
}

type Manifest []ManifestEntry

func parseLine(line string) (remote, dest string, err error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", fmt.Errorf("error parsing manifest invalid line format `%s`", line)
	}
	return fields[0], fields[1], nil
}

func checkSeenDestinations(destinations map[string]string, dest string, remote string) error {
	if seen, ok := destinations[dest]; ok {
		if seen != remote {
			return fmt.Errorf("duplicate destination %s with different sources: %s and %s", dest, seen, remote)
		}
		return fmt.Errorf("duplicate entry: %s %s", remote, dest)
	}
	return nil
}

// ParseManifest reads a manifest. check, when non-nil, is called for every destination and may
// reject it.
func ParseManifest(r io.Reader, check func(dest string) error) (Manifest, error) {
	seenDestinations := make(map[string]string)
	manifest := make(Manifest, 0)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		remote, dest, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		if err := checkSeenDestinations(seenDestinations, dest, remote); err != nil {
			return nil, err
		}
		seenDestinations[dest] = remote
		if check != nil {
			if err := check(dest); err != nil {
				return nil, err
			}
		}
		manifest = append(manifest, ManifestEntry{Remote: remote, Dest: dest})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	return manifest, nil
}
