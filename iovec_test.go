// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf_test

import (
	"testing"
	"unsafe"

	"code.hybscloud.com/segbuf"
)

func TestIoVecFromBytesSlice(t *testing.T) {
	t.Run("empty slice", func(t *testing.T) {
		addr, n := segbuf.IoVecFromBytesSlice(nil)
		if addr != 0 || n != 0 {
			t.Errorf("expected (0, 0), got (%d, %d)", addr, n)
		}
	})

	t.Run("single buffer", func(t *testing.T) {
		buf := make([]byte, 128)
		buf[0] = 0xAB
		iov := [][]byte{buf}
		addr, n := segbuf.IoVecFromBytesSlice(iov)
		if n != 1 {
			t.Errorf("expected n=1, got %d", n)
		}
		if addr == 0 {
			t.Error("expected non-zero address")
		}
	})

	t.Run("multiple buffers", func(t *testing.T) {
		bufs := [][]byte{
			make([]byte, 64),
			make([]byte, 128),
			make([]byte, 256),
		}
		addr, n := segbuf.IoVecFromBytesSlice(bufs)
		if n != 3 {
			t.Errorf("expected n=3, got %d", n)
		}
		if addr == 0 {
			t.Error("expected non-zero address")
		}
	})
}

func TestIoVecAddrLen(t *testing.T) {
	t.Run("empty slice", func(t *testing.T) {
		addr, n := segbuf.IoVecAddrLen(nil)
		if addr != 0 || n != 0 {
			t.Errorf("expected (0, 0), got (%d, %d)", addr, n)
		}
	})

	t.Run("non-empty slice", func(t *testing.T) {
		vec := make([]segbuf.IoVec, 4)
		addr, n := segbuf.IoVecAddrLen(vec)
		if n != 4 {
			t.Errorf("expected n=4, got %d", n)
		}
		expectedAddr := uintptr(unsafe.Pointer(&vec[0]))
		if addr != expectedAddr {
			t.Errorf("expected addr=%d, got %d", expectedAddr, addr)
		}
	})
}

func TestIoVecFromBuffer(t *testing.T) {
	t.Run("empty buffer", func(t *testing.T) {
		buf := segbuf.NewBuffer()
		if vec := segbuf.IoVecFromBuffer(buf); vec != nil {
			t.Errorf("expected nil for empty buffer, got %v", vec)
		}
	})

	t.Run("single segment", func(t *testing.T) {
		buf := segbuf.NewBuffer()
		payload := []byte("hello vectored world")
		if _, err := buf.WriteBytes(payload); err != nil {
			t.Fatalf("WriteBytes: %v", err)
		}

		vec := segbuf.IoVecFromBuffer(buf)
		if len(vec) != 1 {
			t.Fatalf("expected 1 iovec, got %d", len(vec))
		}
		if vec[0].Len != uint64(len(payload)) {
			t.Errorf("Len = %d, want %d", vec[0].Len, len(payload))
		}
		got := unsafe.Slice(vec[0].Base, vec[0].Len)
		if string(got) != string(payload) {
			t.Errorf("iovec bytes = %q, want %q", got, payload)
		}
	})

	t.Run("multiple segments", func(t *testing.T) {
		a, c := segbuf.NewBuffer(), segbuf.NewBuffer()
		big := make([]byte, 20000)
		for i := range big {
			big[i] = byte(i)
		}
		if _, err := a.WriteBytes(big); err != nil {
			t.Fatalf("WriteBytes: %v", err)
		}
		if err := c.Write(a, a.Len()); err != nil {
			t.Fatalf("Write: %v", err)
		}

		vec := segbuf.IoVecFromBuffer(c)
		if len(vec) == 0 {
			t.Fatal("expected at least one iovec")
		}
		var total uint64
		for _, v := range vec {
			total += v.Len
		}
		if total != uint64(len(big)) {
			t.Errorf("total iovec bytes = %d, want %d", total, len(big))
		}
	})
}
