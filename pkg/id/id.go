package id

import (
	"crypto/md5"
	"io"

	"github.com/gofrs/uuid"
)

// GenTraceID new random trace id
func GenTraceID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// UUIDFromString derives a deterministic uuid from arbitrary text. Used for
// market ids, which are a content hash of the immutable market parameters.
func UUIDFromString(text string) string {
	h := md5.New()
	io.WriteString(h, text)
	sum := h.Sum(nil)
	sum[6] = (sum[6] & 0x0f) | 0x30
	sum[8] = (sum[8] & 0x3f) | 0x80
	return uuid.FromBytesOrNil(sum).String()
}

// UUIDByName derives a uuid in the given namespace.
func UUIDByName(namespace, name string) string {
	ns, err := uuid.FromString(namespace)
	if err != nil {
		panic(err)
	}
	return uuid.NewV5(ns, name).String()
}
