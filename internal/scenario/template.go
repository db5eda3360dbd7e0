package scenario

import (
	"fmt"
	"io"
	"strconv"

	"github.com/valyala/fasttemplate"
)

// Bindings are the only substitutions scenario templates may use.
type Bindings struct {
	ChildAge  int
	ChildName string
}

// Render substitutes {child_age} and {child_name} in tmpl. An unknown
// placeholder is a configuration defect in the scenario and returns an
// error instead of leaking the raw tag to a child.
func Render(tmpl string, b Bindings) (string, error) {
	return fasttemplate.ExecuteFuncStringWithErr(tmpl, "{", "}",
		func(w io.Writer, tag string) (int, error) {
			switch tag {
			case "child_age":
				return w.Write([]byte(strconv.Itoa(b.ChildAge)))
			case "child_name":
				return w.Write([]byte(b.ChildName))
			default:
				return 0, fmt.Errorf("unknown template placeholder: {%s}", tag)
			}
		})
}
