// Package hela ties the download stream manager to a consumer: it fetches remote drive files,
// hands the stream to a sink and records transfer metrics.
package hela

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/helalist/hela/pkg/consumer"
	"github.com/helalist/hela/pkg/download"
	"github.com/helalist/hela/pkg/logging"
)

// Progress shows the percentages reported for one download.
type Progress interface {
	Report(percent int)
	Finish()
}

type Getter struct {
	Downloader download.Fetcher
	Consumer   consumer.Consumer
	// NewProgress, when set, is called once per download with the destination path.
	NewProgress func(dest string) Progress
	// Concurrency limits DownloadFiles. Zero or less means unlimited.
	Concurrency int
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// DownloadFile streams remote to dest and returns the number of bytes consumed and the total
// elapsed time.
func (g *Getter) DownloadFile(ctx context.Context, remote string, dest string) (int64, time.Duration, error) {
	sink := g.Consumer
	if sink == nil {
		sink = &consumer.FileWriter{}
	}
	logger := logging.GetLogger()
	downloadStartTime := time.Now()

	var onProgress download.ProgressFunc
	if g.NewProgress != nil {
		bar := g.NewProgress(dest)
		defer bar.Finish()
		onProgress = bar.Report
	}

	resp, err := g.Downloader.Fetch(ctx, remote, onProgress)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	body := &countingReader{r: resp.Body}
	err = sink.Consume(body, dest, resp.ContentLength)
	if err != nil {
		return body.n, 0, fmt.Errorf("error writing file: %w", err)
	}
	totalElapsed := time.Since(downloadStartTime)

	size := humanize.Bytes(uint64(body.n))
	throughput := humanize.Bytes(uint64(float64(body.n) / totalElapsed.Seconds()))
	logger.Info().
		Str("remote", remote).
		Str("dest", dest).
		Str("size", size).
		Str("throughput", fmt.Sprintf("%s/s", throughput)).
		Str("total_elapsed", fmt.Sprintf("%.3fs", totalElapsed.Seconds())).
		Msg("Complete")
	return body.n, totalElapsed, nil
}

type downloadMetric struct {
	elapsedTime time.Duration
	fileSize    int64
}

type downloadMetrics struct {
	metrics []downloadMetric
	mut     sync.Mutex
}

func (m *downloadMetrics) add(elapsedTime time.Duration, fileSize int64) {
	m.mut.Lock()
	defer m.mut.Unlock()
	m.metrics = append(m.metrics, downloadMetric{elapsedTime: elapsedTime, fileSize: fileSize})
}

func (m *downloadMetrics) total() (int, int64) {
	m.mut.Lock()
	defer m.mut.Unlock()
	var totalFileSize int64
	for _, metric := range m.metrics {
		totalFileSize += metric.fileSize
	}
	return len(m.metrics), totalFileSize
}

// DownloadFiles downloads every manifest entry in parallel, bounded by Concurrency. The first
// failure cancels the remaining downloads.
func (g *Getter) DownloadFiles(ctx context.Context, manifest Manifest) (int64, time.Duration, error) {
	logger := logging.GetLogger()
	metrics := &downloadMetrics{}

	eg, ctx := errgroup.WithContext(ctx)
	if g.Concurrency > 0 {
		logger.Debug().Int("concurrent_file_limit", g.Concurrency).Msg("Config")
		eg.SetLimit(g.Concurrency)
	}

	startTime := time.Now()
	for _, entry := range manifest {
		logger.Debug().Str("remote", entry.Remote).Str("dest", entry.Dest).Msg("Queueing Download")
		eg.Go(func() error {
			fileSize, elapsed, err := g.DownloadFile(ctx, entry.Remote, entry.Dest)
			if err != nil {
				return fmt.Errorf("%s: %w", entry.Remote, err)
			}
			metrics.add(elapsed, fileSize)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, 0, fmt.Errorf("error downloading files: %w", err)
	}

	elapsedTime := time.Since(startTime)
	count, totalFileSize := metrics.total()
	throughput := float64(totalFileSize) / elapsedTime.Seconds()
	logger.Info().
		Int("file_count", count).
		Str("total_bytes_downloaded", humanize.Bytes(uint64(totalFileSize))).
		Str("throughput", fmt.Sprintf("%s/s", humanize.Bytes(uint64(throughput)))).
		Str("elapsed_time", fmt.Sprintf("%.3fs", elapsedTime.Seconds())).
		Msg("Metrics")
	return totalFileSize, elapsedTime, nil
}
