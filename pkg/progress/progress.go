// Package progress renders download percentages on a terminal bar.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/mattn/go-isatty"
)

const refreshRate = 200 * time.Millisecond

const barTemplate = `{{string . "prefix"}}{{bar . }} {{percent . }} {{etime . }}`

// Bar shows the percentage reported by a download. A quiet bar only records the last value.
type Bar struct {
	mu      sync.Mutex
	bar     *pb.ProgressBar
	last    int
	updates int
}

// New starts a bar labeled name that writes to w, or to stderr when w is nil.
func New(name string, w io.Writer, quiet bool) *Bar {
	b := &Bar{last: -1}
	if quiet {
		return b
	}
	if w == nil {
		w = os.Stderr
	}
	b.bar = newPB(name).SetWriter(w).SetRefreshRate(refreshRate).Start()
	return b
}

func newPB(name string) *pb.ProgressBar {
	bar := pb.New(100).SetTemplateString(barTemplate)
	bar.Set("prefix", name+" ")
	return bar
}

// Report moves the bar to percent. Repeated values are ignored.
func (b *Bar) Report(percent int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if percent == b.last {
		return
	}
	b.last = percent
	b.updates++
	if b.bar != nil {
		b.bar.SetCurrent(int64(percent))
	}
}

// Last returns the most recent percentage, or -1 before the first report.
func (b *Bar) Last() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// Updates returns how many distinct percentages the bar has shown.
func (b *Bar) Updates() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updates
}

func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar != nil {
		b.bar.Finish()
	}
}

// Pool draws the bars of concurrent downloads as one block, one line per bar. Pooled bars never
// write themselves. On a terminal the block is redrawn in place every refresh; any other writer
// receives the block once, when the pool stops.
type Pool struct {
	mu    sync.Mutex
	out   io.Writer
	live  bool
	bars  []*Bar
	drawn int

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewPool starts a pool writing to w, or to stderr when w is nil. Stop must be called once the
// downloads are over.
func NewPool(w io.Writer) *Pool {
	if w == nil {
		w = os.Stderr
	}
	p := &Pool{
		out:  w,
		live: isTerminal(w),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go p.run()
	return p
}

// Add appends a bar labeled name to the block.
func (p *Pool) Add(name string) *Bar {
	bar := newPB(name)
	bar.Set(pb.Static, true)
	b := &Bar{last: -1, bar: bar.Start()}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.bars = append(p.bars, b)
	return b
}

// Stop draws the final state of every bar. Calls after the first are no-ops.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		<-p.done
		p.draw()
	})
}

func (p *Pool) run() {
	defer close(p.done)
	if !p.live {
		<-p.stop
		return
	}
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.draw()
		case <-p.stop:
			return
		}
	}
}

func (p *Pool) draw() {
	p.mu.Lock()
	defer p.mu.Unlock()
	var buf strings.Builder
	if p.live && p.drawn > 0 {
		// move the cursor back to the first line of the previous block
		fmt.Fprintf(&buf, "\033[%dA", p.drawn)
	}
	for _, b := range p.bars {
		if p.live {
			buf.WriteString("\r")
		}
		buf.WriteString(b.bar.String())
		buf.WriteString("\n")
	}
	p.drawn = len(p.bars)
	_, _ = io.WriteString(p.out, buf.String())
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
