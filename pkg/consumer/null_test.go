package consumer_test

import (
	"bytes"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helalist/hela/pkg/consumer"
)

func TestNullWriter_Consume(t *testing.T) {
	buf := generateTestContent(kB)
	tests := []struct {
		name    string
		size    int64
		wantErr error
	}{
		{name: "declared size", size: kB},
		{name: "unknown size", size: -1},
		{name: "size mismatch", size: kB - 100, wantErr: consumer.ErrSizeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := consumer.NullWriter{}.Consume(bytes.NewReader(buf), "", tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNullWriter_ReaderError(t *testing.T) {
	err := consumer.NullWriter{}.Consume(iotest.ErrReader(bytes.ErrTooLarge), "", -1)
	assert.ErrorIs(t, err, bytes.ErrTooLarge)
}

func TestStdoutConsumer_Consume(t *testing.T) {
	r := require.New(t)
	buf := generateTestContent(kB)

	var out bytes.Buffer
	stdout := consumer.StdoutConsumer{Writer: &out}
	r.NoError(stdout.Consume(bytes.NewReader(buf), "ignored", kB))
	r.Equal(buf, out.Bytes())

	out.Reset()
	r.ErrorIs(stdout.Consume(bytes.NewReader(buf), "ignored", kB+1), consumer.ErrSizeMismatch)
}
