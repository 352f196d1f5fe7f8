// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/segbuf"
	"github.com/stretchr/testify/require"
)

func TestPipe_WriteThenRead(t *testing.T) {
	p := segbuf.NewPipe(4096)
	sink := p.Sink()
	source := p.Source()

	src := segbuf.NewBuffer()
	_, err := src.WriteBytes([]byte("hello pipe"))
	require.NoError(t, err)
	require.NoError(t, sink.Write(src, src.Len()))
	require.NoError(t, sink.Close())

	dst := segbuf.NewBuffer()
	n, err := source.Read(dst, 1024)
	require.NoError(t, err)
	require.Equal(t, int64(10), n)

	_, err = source.Read(dst, 1024)
	require.ErrorIs(t, err, segbuf.ErrEndOfInput)
}

func TestPipe_BackpressureBlocksWriter(t *testing.T) {
	p := segbuf.NewPipe(8)
	sink := p.Sink()
	source := p.Source()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		src := segbuf.NewBuffer()
		_, _ = src.WriteBytes([]byte("0123456789ABCDEF")) // 16 bytes, cap is 8
		_ = sink.Write(src, src.Len())
		_ = sink.Close()
	}()

	var collected []byte
	for {
		dst := segbuf.NewBuffer()
		n, err := source.Read(dst, 4)
		if err != nil {
			break
		}
		buf := make([]byte, n)
		_, _ = dst.ReadBytes(buf)
		collected = append(collected, buf...)
	}
	wg.Wait()
	require.Equal(t, "0123456789ABCDEF", string(collected))
}

func TestPipe_Cancel(t *testing.T) {
	p := segbuf.NewPipe(4096)
	p.Cancel()

	src := segbuf.NewBuffer()
	_, _ = src.WriteBytes([]byte("x"))
	err := p.Sink().Write(src, 1)
	require.ErrorIs(t, err, segbuf.ErrClosed)

	dst := segbuf.NewBuffer()
	_, err = p.Source().Read(dst, 1)
	require.ErrorIs(t, err, segbuf.ErrClosed)
}

func TestPipe_Fold(t *testing.T) {
	p := segbuf.NewPipe(4096)
	src := segbuf.NewBuffer()
	_, err := src.WriteBytes([]byte("buffered-before-fold"))
	require.NoError(t, err)
	require.NoError(t, p.Sink().Write(src, src.Len()))

	dst := segbuf.NewBuffer()
	require.NoError(t, p.Fold(dst))

	more := segbuf.NewBuffer()
	_, err = more.WriteBytes([]byte("-after"))
	require.NoError(t, err)
	require.NoError(t, p.Sink().Write(more, more.Len()))

	out, err := dst.ReadUTF8()
	require.NoError(t, err)
	require.Equal(t, "buffered-before-fold-after", out)
}
