package pipeline

import (
	"bytes"

	wkerrors "github.com/scalableminds/wknml/pkg/errors"
	wkio "github.com/scalableminds/wknml/pkg/io"
	"github.com/scalableminds/wknml/pkg/nml"
)

// Decode parses data in the given format. An empty format is detected from
// the content.
func Decode(data []byte, format string) (nml.NML, string, error) {
	if format == "" {
		var err error
		if format, err = DetectFormat(data); err != nil {
			return nml.NML{}, "", err
		}
	}
	switch format {
	case FormatNML:
		n, err := nml.Parse(bytes.NewReader(data))
		return n, format, err
	case FormatJSON:
		n, err := wkio.UnmarshalJSON(data)
		return n, format, err
	}
	return nml.NML{}, format, ValidateFormat(format)
}

// Encode serializes n in the given format.
func Encode(n nml.NML, format string) ([]byte, error) {
	switch format {
	case FormatNML:
		return nml.Marshal(n)
	case FormatJSON:
		return wkio.MarshalJSON(n)
	}
	return nil, wkerrors.New(wkerrors.ErrCodeInvalidFormat, "unsupported format %q (want nml or json)", format)
}
