// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf_test

import (
	"testing"

	"code.hybscloud.com/segbuf"
	"github.com/stretchr/testify/require"
)

func TestOptions_RejectsExactDuplicate(t *testing.T) {
	_, err := segbuf.NewOptions(
		segbuf.NewByteString([]byte("abc")),
		segbuf.NewByteString([]byte("abc")),
	)
	require.ErrorIs(t, err, segbuf.ErrIllegalArgument)
}

func TestOptions_NoMatchReturnsMinusOneWithoutConsuming(t *testing.T) {
	opts, err := segbuf.NewOptions(segbuf.NewByteString([]byte("foo")))
	require.NoError(t, err)

	buf := segbuf.NewBuffer()
	_, err = buf.WriteString("bar")
	require.NoError(t, err)

	idx := buf.Select(opts)
	require.Equal(t, -1, idx)
	require.Equal(t, int64(3), buf.Len()) // untouched
}

func TestOptions_LongestAndShortestCandidatesCoexist(t *testing.T) {
	opts, err := segbuf.NewOptions(
		segbuf.NewByteString([]byte("a")),
		segbuf.NewByteString([]byte("ab")),
		segbuf.NewByteString([]byte("abc")),
	)
	require.NoError(t, err)

	buf := segbuf.NewBuffer()
	_, err = buf.WriteString("abcdef")
	require.NoError(t, err)

	idx := buf.Select(opts)
	require.Equal(t, 0, idx) // "a" is terminal first
	rest, err := buf.ReadUTF8()
	require.NoError(t, err)
	require.Equal(t, "bcdef", rest)
}
