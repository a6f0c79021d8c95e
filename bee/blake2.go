package bee

import (
	"encoding/binary"

	"github.com/glycerine/blake2b"
)

// Blake2bUint64 returns an 8 byte BLAKE2b hash of raw.
//
// reference: https://blake2.net/
// reference: https://tools.ietf.org/html/rfc7693
func Blake2bUint64(raw []byte) uint64 {
	cfg := &blake2b.Config{Size: 8}
	h, err := blake2b.New(cfg)
	panicOn(err)
	h.Write(raw)
	by := h.Sum(nil)
	return binary.LittleEndian.Uint64(by[:8])
}

// Blake2Function hashes the debug rendering of its argument, so
// equal values of different kinds hash apart. The digest is a u64.
func Blake2Function(env *Enclosing, name string) Ref {
	rt := env.Runtime()
	args := env.Args()
	if len(args) != 1 {
		return wrongNargs(env, name, "one argument", len(args))
	}
	return rt.NewU64(Blake2bUint64([]byte(rt.Render(args[0]))))
}
