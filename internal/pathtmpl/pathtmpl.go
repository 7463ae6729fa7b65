// Package pathtmpl expands the target_dir/picture_filename/movie_filename/
// timelapse_filename path templates: strftime codes plus a handful of
// motion-specific %-codes layered on top.
package pathtmpl

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
)

// Vars carries the non-time substitution values a template may reference.
type Vars struct {
	CameraID   int
	CameraName string
	EventNbr   int
	FrameNbr   int
	Width      int
	Height     int
	Diffs      int
	FPS        int
}

// Expand interprets format against t and vars, first substituting the
// motion-specific %-codes and then handing the remainder to strftime for
// the standard date/time codes.
func Expand(format string, t time.Time, vars Vars) (string, error) {
	pre, err := expandCustomCodes(format, vars)
	if err != nil {
		return "", fmt.Errorf("pathtmpl: %w", err)
	}
	return strftime.Format(pre, t), nil
}

// expandCustomCodes rewrites the non-strftime tokens (%v-style camera and
// event codes) before the string reaches strftime, since strftime itself
// only understands date/time conversions.
func expandCustomCodes(format string, v Vars) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(format) {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			b.WriteByte(c)
			i++
			continue
		}
		code := format[i+1]
		switch code {
		case 'q': // camera id
			b.WriteString(strconv.Itoa(v.CameraID))
			i += 2
		case 'C': // camera name
			b.WriteString(v.CameraName)
			i += 2
		case 'v': // event number
			b.WriteString(strconv.Itoa(v.EventNbr))
			i += 2
		case 'D': // diffs
			b.WriteString(strconv.Itoa(v.Diffs))
			i += 2
		case 'w': // width
			b.WriteString(strconv.Itoa(v.Width))
			i += 2
		case 'h': // height
			b.WriteString(strconv.Itoa(v.Height))
			i += 2
		case 'f': // frame number within event
			b.WriteString(strconv.Itoa(v.FrameNbr))
			i += 2
		case '%':
			b.WriteString("%%")
			i += 2
		default:
			// Not one of ours; let strftime interpret it (copy through
			// unchanged, including the leading '%').
			b.WriteByte('%')
			b.WriteByte(code)
			i += 2
		}
	}
	return b.String(), nil
}
