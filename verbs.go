package trellis

import (
	"fmt"
	"strings"
)

// Verb is a bitmask over the supported HTTP methods, so a single chain
// entry can answer for several methods at once.
type Verb uint8

const (
	GET Verb = 1 << iota
	POST
	PUT
	DELETE

	// ALL matches every supported method.
	ALL Verb = GET | POST | PUT | DELETE
)

// ParseVerb accepts method names in any case.
func ParseVerb(in string) (Verb, error) {
	switch strings.ToUpper(in) {
	case "GET":
		return GET, nil
	case "POST":
		return POST, nil
	case "PUT":
		return PUT, nil
	case "DELETE":
		return DELETE, nil
	case "ALL":
		return ALL, nil
	default:
		return 0, fmt.Errorf("invalid verb %q", in)
	}
}

func (v Verb) String() string {
	switch v {
	case GET:
		return "GET"
	case POST:
		return "POST"
	case PUT:
		return "PUT"
	case DELETE:
		return "DELETE"
	case ALL:
		return "ALL"
	}

	var parts []string
	for _, flag := range []struct {
		v Verb
		s string
	}{{GET, "GET"}, {POST, "POST"}, {PUT, "PUT"}, {DELETE, "DELETE"}} {
		if v&flag.v != 0 {
			parts = append(parts, flag.s)
		}
	}
	if len(parts) == 0 {
		return "NONE"
	}
	return strings.Join(parts, "|")
}
