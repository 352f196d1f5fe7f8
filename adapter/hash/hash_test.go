// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package hash_test

import (
	"crypto/sha256"
	"testing"

	"code.hybscloud.com/segbuf"
	"code.hybscloud.com/segbuf/adapter/hash"
	"github.com/stretchr/testify/require"
)

func TestHashingSink_ForwardsAndDigests(t *testing.T) {
	delegate := segbuf.NewBuffer()
	sink := hash.NewHashingSink(delegate, sha256.New())

	src := segbuf.NewBuffer()
	_, err := src.WriteBytes([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, sink.Write(src, src.Len()))

	forwarded, err := delegate.ReadUTF8()
	require.NoError(t, err)
	require.Equal(t, "abc", forwarded)

	expect := segbuf.NewByteString([]byte("abc")).SHA256()
	require.True(t, sink.Sum().Equal(expect))
}

func TestHashingSource_ForwardsAndDigests(t *testing.T) {
	delegate := segbuf.NewBuffer()
	_, err := delegate.WriteBytes([]byte("abc"))
	require.NoError(t, err)

	source := hash.NewHashingSource(delegate, sha256.New())
	dst := segbuf.NewBuffer()
	n, err := source.Read(dst, 1024)
	require.NoError(t, err)
	require.Equal(t, int64(3), n)

	got, err := dst.ReadUTF8()
	require.NoError(t, err)
	require.Equal(t, "abc", got)

	expect := segbuf.NewByteString([]byte("abc")).SHA256()
	require.True(t, source.Sum().Equal(expect))
}

func TestNewBlake2b256Sink_ProducesThirtyTwoByteDigest(t *testing.T) {
	delegate := segbuf.NewBuffer()
	sink, err := hash.NewBlake2b256Sink(delegate)
	require.NoError(t, err)

	src := segbuf.NewBuffer()
	_, err = src.WriteBytes([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, sink.Write(src, src.Len()))

	require.Equal(t, int64(32), sink.Sum().Len())
}
