package track

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/llehouerou/trackvault/internal/errmsg"
)

type idKind uint8

const (
	idNone idKind = iota
	idRemote
	idLocal
)

// ID identifies a track. It is either the numeric identity assigned by the
// remote catalogue or a uuid minted locally for a track created offline.
// The zero ID is invalid.
type ID struct {
	kind   idKind
	remote uint64
	local  uuid.UUID
}

// RemoteID returns the identity of a track known to the remote catalogue.
func RemoteID(n uint64) ID {
	if n == 0 {
		return ID{}
	}
	return ID{kind: idRemote, remote: n}
}

// LocalID returns a locally minted identity.
func LocalID(u uuid.UUID) ID {
	if u == uuid.Nil {
		return ID{}
	}
	return ID{kind: idLocal, local: u}
}

// NewLocalID mints a fresh local identity.
func NewLocalID() ID {
	return LocalID(uuid.New())
}

// ParseID parses the external string form of an ID: a positive decimal number
// for remote ids or a uuid for local ids.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ID{}, errmsg.Validation("empty track id")
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		if n == 0 {
			return ID{}, errmsg.Validation("invalid track id %q", s)
		}
		return RemoteID(n), nil
	}
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return ID{}, errmsg.Validation("invalid track id %q", s)
	}
	return LocalID(u), nil
}

// MustParseID is like ParseID but panics on error. Intended for tests and
// constant fixtures.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id.kind == idNone }

// IsRemote reports whether the ID was assigned by the remote catalogue.
func (id ID) IsRemote() bool { return id.kind == idRemote }

// IsLocal reports whether the ID was minted locally.
func (id ID) IsLocal() bool { return id.kind == idLocal }

// Remote returns the numeric remote identity and whether the ID is remote.
func (id ID) Remote() (uint64, bool) {
	return id.remote, id.kind == idRemote
}

// String returns the external form used at the presentation boundary.
func (id ID) String() string {
	switch id.kind {
	case idRemote:
		return strconv.FormatUint(id.remote, 10)
	case idLocal:
		return id.local.String()
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields the
// zero ID.
func (id *ID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*id = ID{}
		return nil
	}
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
