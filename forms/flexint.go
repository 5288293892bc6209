package forms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexInt accepts a JSON number or a numeric string, since browser forms
// post number inputs either way. Empty strings and null decode to zero.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		data = []byte(s)
	}

	n, err := strconv.Atoi(string(data))
	if err != nil {
		// accept 2.0 style numbers as long as they are whole
		fl, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil || fl != float64(int(fl)) {
			return fmt.Errorf("forms: %q is not an integer", string(data))
		}
		n = int(fl)
	}
	*f = FlexInt(n)
	return nil
}

// Int returns the plain integer value.
func (f FlexInt) Int() int {
	return int(f)
}
