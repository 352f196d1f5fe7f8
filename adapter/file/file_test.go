// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package file_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"code.hybscloud.com/segbuf"
	"code.hybscloud.com/segbuf/adapter/file"
	"github.com/stretchr/testify/require"
)

func TestSinkSourceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.bin")

	wf, err := os.Create(path)
	require.NoError(t, err)
	sink := file.NewSink(wf)

	src := segbuf.NewBuffer()
	_, err = src.WriteBytes([]byte("file adapter payload"))
	require.NoError(t, err)
	require.NoError(t, sink.Write(src, src.Len()))
	require.NoError(t, sink.Flush())
	require.NoError(t, sink.Close())

	rf, err := os.Open(path)
	require.NoError(t, err)
	source := file.NewSource(rf)
	defer func() { _ = source.Close() }()

	dst := segbuf.NewBuffer()
	n, err := source.Read(dst, 1024)
	require.NoError(t, err)
	require.Equal(t, int64(len("file adapter payload")), n)

	_, err = source.Read(dst, 1024)
	require.ErrorIs(t, err, segbuf.ErrEndOfInput)

	got, err := dst.ReadUTF8()
	require.NoError(t, err)
	require.Equal(t, "file adapter payload", got)
}

func TestTimeoutIsPersistentAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeout.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	sink := file.NewSink(f)
	defer func() { _ = sink.Close() }()

	sink.Timeout().SetTimeout(5 * time.Second)
	require.Equal(t, 5*time.Second, sink.Timeout().TimeoutDuration())
}

func TestCreateSpillSinkUsesCollisionResistantNames(t *testing.T) {
	dir := t.TempDir()

	sinkA, pathA, err := file.CreateSpillSink(dir, "spill")
	require.NoError(t, err)
	defer func() { _ = sinkA.Close() }()

	sinkB, pathB, err := file.CreateSpillSink(dir, "spill")
	require.NoError(t, err)
	defer func() { _ = sinkB.Close() }()

	require.NotEqual(t, pathA, pathB)

	src := segbuf.NewBuffer()
	_, err = src.WriteBytes([]byte("spilled"))
	require.NoError(t, err)
	require.NoError(t, sinkA.Write(src, src.Len()))
	require.NoError(t, sinkA.Flush())

	content, err := os.ReadFile(pathA)
	require.NoError(t, err)
	require.Equal(t, "spilled", string(content))
}
