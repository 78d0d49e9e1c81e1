package dps

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DynamicThreshold is the first identifier of the dynamically assigned range.
// Identifiers below it are placeholders.
const DynamicThreshold = 1000

var ErrConfiguration = errors.New("configuration error")

// ID is an entity identifier tagged as either a placeholder awaiting
// allocation or a final, dynamically assigned value.
type ID struct {
	value int
	final bool
}

func Placeholder(v int) ID {
	return ID{value: v}
}

func Final(v int) ID {
	return ID{value: v, final: true}
}

// ParseID decodes a string-encoded identifier and tags it against DynamicThreshold.
func ParseID(s string) (ID, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return ID{}, fmt.Errorf("%w: id %q is not numeric", ErrConfiguration, s)
	}
	if v < DynamicThreshold {
		return Placeholder(v), nil
	}
	return Final(v), nil
}

func (id ID) IsPlaceholder() bool {
	return !id.final
}

func (id ID) Value() int {
	return id.value
}

func (id ID) String() string {
	return strconv.Itoa(id.value)
}
