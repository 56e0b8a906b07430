// Package audit contains internal helpers for formatting vault audit records.
package audit

import (
	"fmt"
	"sort"
	"strings"
)

// FormatEvent renders an audit record as "event k1=v1 k2=v2" with keys in
// sorted order. Values containing spaces are quoted.
func FormatEvent(event string, details map[string]interface{}) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(event)
	for _, k := range keys {
		v := fmt.Sprint(details[k])
		if strings.ContainsAny(v, " \t\n\"") {
			v = fmt.Sprintf("%q", v)
		}
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	return b.String()
}
