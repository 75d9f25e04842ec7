package song

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ID identifies a song, section, line or recording. Local records carry a
// numeric millisecond timestamp id; once a song has been saved to the cloud
// its id is replaced by the remote-assigned document id (a string). The id
// kind therefore signals origin: numeric means local-only, string means the
// record has a remote counterpart.
type ID struct {
	num int64
	str string
}

// LocalID wraps a numeric local identifier.
func LocalID(n int64) ID {
	return ID{num: n}
}

// NewLocalID generates a new local identifier from the current time.
func NewLocalID() ID {
	return ID{num: time.Now().UnixMilli()}
}

// RemoteID wraps a remote document identifier.
func RemoteID(s string) ID {
	return ID{str: s}
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool {
	return id.num == 0 && id.str == ""
}

// IsRemote reports whether the id refers to a remote document. Remote
// document ids are strings longer than 10 characters; anything else is
// treated as local-only.
func (id ID) IsRemote() bool {
	return len(id.str) > 10
}

// Remote returns the remote document id, or "" for local ids.
func (id ID) Remote() string {
	return id.str
}

// Local returns the numeric local id, or 0 for remote ids.
func (id ID) Local() int64 {
	return id.num
}

func (id ID) String() string {
	if id.str != "" {
		return id.str
	}
	return strconv.FormatInt(id.num, 10)
}

// MarshalJSON encodes local ids as JSON numbers and remote ids as strings,
// matching the on-disk format of the song library.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.str != "" {
		return json.Marshal(id.str)
	}
	return json.Marshal(id.num)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{str: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	v, err := n.Int64()
	if err != nil {
		return fmt.Errorf("invalid numeric id %q: %v", n, err)
	}
	*id = ID{num: v}
	return nil
}
