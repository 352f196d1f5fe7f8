// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segbuf

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// ByteString is an immutable sequence of bytes. Its zero value is the
// empty ByteString.
//
// A ByteString returned by Buffer.Snapshot holds a copy-on-write view
// over the segments it was taken from: no bytes are copied at snapshot
// time. The segments it references are marked shared, so the buffer that
// produced it may keep appending but never mutate the bytes the snapshot
// sees.
type ByteString struct {
	flat    []byte
	segs    []*segment
	segSize int64
}

// NewByteString copies p into a new flat ByteString.
func NewByteString(p []byte) ByteString {
	cp := make([]byte, len(p))
	copy(cp, p)
	return ByteString{flat: cp}
}

// ByteStringFromHex decodes s as hexadecimal.
func ByteStringFromHex(s string) (ByteString, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ByteString{}, errors.Wrap(ErrIllegalArgument, err.Error())
	}
	return ByteString{flat: b}, nil
}

// ByteStringFromBase64 decodes s as standard (RFC 4648) base64.
func ByteStringFromBase64(s string) (ByteString, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return ByteString{}, errors.Wrap(ErrIllegalArgument, err.Error())
	}
	return ByteString{flat: b}, nil
}

// newSegmentedByteString builds a ByteString over a snapshot of segments
// already marked shared by the caller.
func newSegmentedByteString(segs []*segment, size int64) ByteString {
	return ByteString{segs: segs, segSize: size}
}

// Len reports the number of bytes in the string.
func (bs ByteString) Len() int64 {
	if bs.segs != nil {
		return bs.segSize
	}
	return int64(len(bs.flat))
}

// byteAt returns the byte at logical offset i. It panics if i is out of
// range.
func (bs ByteString) byteAt(i int64) byte {
	if bs.segs == nil {
		return bs.flat[i]
	}
	offset := int64(0)
	for _, s := range bs.segs {
		n := int64(s.len())
		if i < offset+n {
			return s.data[int64(s.pos)+i-offset]
		}
		offset += n
	}
	panic("segbuf: bytestring: index out of range")
}

// containsByte reports whether c occurs anywhere in the string. Intended
// for small option-class checks (Buffer.IndexOfElement), not bulk search.
func (bs ByteString) containsByte(c byte) bool {
	n := bs.Len()
	for i := int64(0); i < n; i++ {
		if bs.byteAt(i) == c {
			return true
		}
	}
	return false
}

// Bytes returns a private copy of the string's bytes, safe to mutate.
func (bs ByteString) Bytes() []byte {
	out := make([]byte, bs.Len())
	if bs.segs == nil {
		copy(out, bs.flat)
		return out
	}
	offset := int64(0)
	for _, s := range bs.segs {
		c := copy(out[offset:], s.data[s.pos:s.limit])
		offset += int64(c)
	}
	return out
}

// Equal reports whether bs and other hold the same bytes.
func (bs ByteString) Equal(other ByteString) bool {
	n := bs.Len()
	if n != other.Len() {
		return false
	}
	for i := int64(0); i < n; i++ {
		if bs.byteAt(i) != other.byteAt(i) {
			return false
		}
	}
	return true
}

// Hex returns the lowercase hexadecimal encoding of the string.
func (bs ByteString) Hex() string { return hex.EncodeToString(bs.Bytes()) }

// Base64 returns the standard (RFC 4648) base64 encoding of the string.
func (bs ByteString) Base64() string { return base64.StdEncoding.EncodeToString(bs.Bytes()) }

// Base64URL returns the URL-safe (RFC 4648 §5) base64 encoding of the
// string, without padding.
func (bs ByteString) Base64URL() string {
	return base64.RawURLEncoding.EncodeToString(bs.Bytes())
}

// String implements fmt.Stringer as the size plus the full hex encoding
// of the bytes, so the raw bytes are never printed as text; the hex is
// neither truncated nor redacted.
func (bs ByteString) String() string {
	return fmt.Sprintf("ByteString{size=%d, hex=%s}", bs.Len(), bs.Hex())
}

// MD5 returns the MD5 digest of the string.
func (bs ByteString) MD5() ByteString {
	sum := md5.Sum(bs.Bytes())
	return ByteString{flat: sum[:]}
}

// SHA1 returns the SHA-1 digest of the string.
func (bs ByteString) SHA1() ByteString {
	sum := sha1.Sum(bs.Bytes())
	return ByteString{flat: sum[:]}
}

// SHA256 returns the SHA-256 digest of the string.
func (bs ByteString) SHA256() ByteString {
	sum := sha256.Sum256(bs.Bytes())
	return ByteString{flat: sum[:]}
}

// SHA512 returns the SHA-512 digest of the string.
func (bs ByteString) SHA512() ByteString {
	sum := sha512.Sum512(bs.Bytes())
	return ByteString{flat: sum[:]}
}

// Blake2b256 returns the 256-bit BLAKE2b digest of the string.
func (bs ByteString) Blake2b256() ByteString {
	sum := blake2b.Sum256(bs.Bytes())
	return ByteString{flat: sum[:]}
}

// HmacSHA256 returns the SHA-256 HMAC of the string keyed by key.
func (bs ByteString) HmacSHA256(key ByteString) ByteString {
	mac := hmac.New(sha256.New, key.Bytes())
	mac.Write(bs.Bytes())
	return ByteString{flat: mac.Sum(nil)}
}

// HmacSHA512 returns the SHA-512 HMAC of the string keyed by key.
func (bs ByteString) HmacSHA512(key ByteString) ByteString {
	mac := hmac.New(sha512.New, key.Bytes())
	mac.Write(bs.Bytes())
	return ByteString{flat: mac.Sum(nil)}
}

// Substring returns the byte range [start, end) as a flat ByteString.
func (bs ByteString) Substring(start, end int64) (ByteString, error) {
	if start < 0 || end > bs.Len() || start > end {
		return ByteString{}, errors.Wrap(ErrIllegalArgument, "substring: range out of bounds")
	}
	out := make([]byte, end-start)
	for i := range out {
		out[i] = bs.byteAt(start + int64(i))
	}
	return ByteString{flat: out}, nil
}
