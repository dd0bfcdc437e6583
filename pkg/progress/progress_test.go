package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarReport(t *testing.T) {
	var out bytes.Buffer
	b := New("file.bin", &out, false)

	assert.Equal(t, -1, b.Last())
	for _, p := range []int{10, 10, 50, 50, 50, 100} {
		b.Report(p)
	}
	b.Finish()

	assert.Equal(t, 100, b.Last())
	assert.Equal(t, 3, b.Updates())
	assert.Equal(t, int64(100), b.bar.Current())
	assert.Contains(t, out.String(), "file.bin")
}

func TestQuietBar(t *testing.T) {
	b := New("file.bin", nil, true)
	b.Report(25)
	b.Report(75)
	b.Finish()

	assert.Nil(t, b.bar)
	assert.Equal(t, 75, b.Last())
	assert.Equal(t, 2, b.Updates())
}

func TestPoolDrawsOneLinePerBar(t *testing.T) {
	var out bytes.Buffer
	pool := NewPool(&out)

	names := []string{"a.bin", "b.bin"}
	var wg sync.WaitGroup
	for _, name := range names {
		b := pool.Add(name)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer b.Finish()
			for p := 0; p <= 100; p += 10 {
				b.Report(p)
			}
		}()
	}
	wg.Wait()
	pool.Stop()
	pool.Stop()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, len(names))
	for i, name := range names {
		assert.True(t, strings.HasPrefix(lines[i], name+" "), lines[i])
		assert.Contains(t, lines[i], "100")
	}
	assert.NotContains(t, out.String(), "\r")
	assert.NotContains(t, out.String(), "\033[")
}

func TestPooledBarsDoNotWriteThemselves(t *testing.T) {
	var out bytes.Buffer
	pool := NewPool(&out)
	b := pool.Add("c.bin")
	b.Report(40)
	time.Sleep(3 * refreshRate)
	assert.Empty(t, out.String())

	b.Finish()
	pool.Stop()
	assert.Contains(t, out.String(), "c.bin")
	assert.Equal(t, 40, b.Last())
}
