package quad

import (
	"fmt"
	"sort"
)

const (
	KindAdaptive    = "qag"
	KindNonAdaptive = "qng"
	KindDoubly      = "cquad"
)

var factories = map[string]func() Engine{
	KindAdaptive:    func() Engine { return NewAdaptive() },
	KindNonAdaptive: func() Engine { return NewNonAdaptive() },
	KindDoubly:      func() Engine { return NewDoublyAdaptive() },
}

// Factory returns the constructor registered for kind.
func Factory(kind string) (func() Engine, error) {
	fn, ok := factories[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return fn, nil
}

func New(kind string) (Engine, error) {
	fn, err := Factory(kind)
	if err != nil {
		return nil, err
	}
	return fn(), nil
}

func Kinds() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
