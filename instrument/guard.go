package instrument

import (
	"github.com/alphadose/haxmap"
	"github.com/loomkit/loom/pkg/reflectx"
)

// wrappedOps is the side table backing the re-entrancy guard. An entry
// means the operation has been through a wrap: either it emits its own
// begin/end pair, or the pair is emitted by the wrapper built around it.
var wrappedOps = haxmap.New[uintptr, struct{}]()

// Wrapped reports whether op has already been through a wrap. Identity is
// the operation's code pointer, so the marker attaches to the definition
// site, not to an instance binding.
func Wrapped(op any) bool {
	ptr := reflectx.Pointer(op)
	if ptr == 0 {
		return false
	}
	_, ok := wrappedOps.Get(ptr)
	return ok
}

func markWrapped(ops ...any) {
	for _, op := range ops {
		if ptr := reflectx.Pointer(op); ptr != 0 {
			wrappedOps.Set(ptr, struct{}{})
		}
	}
}
