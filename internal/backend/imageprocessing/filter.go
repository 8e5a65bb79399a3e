package imageprocessing

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrUnsupportedFilter is returned for selector values outside the known filters.
var ErrUnsupportedFilter = errors.New("unsupported filter")

// Filter selects one of the fixed filter pipelines.
type Filter int

const (
	FilterCartoon Filter = iota + 1
	FilterBlackAndWhite
	FilterFalseColor
	FilterGrayscale
)

// Fixed parameters of the filters.
const (
	maxBinaryValue = 255

	cartoonMedianKernel        = 5
	cartoonThresholdBlock      = 9
	cartoonThresholdOffset     = 9
	cartoonBilateralDiameter   = 9
	cartoonBilateralSigmaColor = 250
	cartoonBilateralSigmaSpace = 250

	blackAndWhiteThresholdBlock  = 9
	blackAndWhiteThresholdOffset = 9
)

var filterAliases = map[string]Filter{
	"cartoon":                  FilterCartoon,
	"cartoonize":               FilterCartoon,
	"black_and_white":          FilterBlackAndWhite,
	"black-and-white":          FilterBlackAndWhite,
	"bw":                       FilterBlackAndWhite,
	"black_and_white_to_color": FilterFalseColor,
	"false_color":              FilterFalseColor,
	"false-color":              FilterFalseColor,
	"grayscale":                FilterGrayscale,
	"greyscale":                FilterGrayscale,
	"gray":                     FilterGrayscale,
	"grey":                     FilterGrayscale,
}

// Filters lists all supported filters in display order.
func Filters() []Filter {
	return []Filter{FilterCartoon, FilterBlackAndWhite, FilterFalseColor, FilterGrayscale}
}

// ParseFilter maps a client supplied selector onto a Filter.
func ParseFilter(value string) (Filter, error) {
	key := strings.ToLower(strings.TrimSpace(value))
	if filter, ok := filterAliases[key]; ok {
		return filter, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFilter, value)
}

// String returns the canonical selector value.
func (f Filter) String() string {
	switch f {
	case FilterCartoon:
		return "cartoon"
	case FilterBlackAndWhite:
		return "black_and_white"
	case FilterFalseColor:
		return "false_color"
	case FilterGrayscale:
		return "grayscale"
	default:
		return fmt.Sprintf("Filter(%d)", int(f))
	}
}

// Label returns a human readable name.
func (f Filter) Label() string {
	switch f {
	case FilterCartoon:
		return "Cartoonize"
	case FilterBlackAndWhite:
		return "Black and white"
	case FilterFalseColor:
		return "False color"
	case FilterGrayscale:
		return "Grayscale"
	default:
		return f.String()
	}
}

func (f Filter) commands() ([]Command, error) {
	switch f {
	case FilterCartoon:
		return []Command{cartoonCommand{}}, nil
	case FilterBlackAndWhite:
		return []Command{
			grayscaleCommand{},
			adaptiveThresholdCommand{
				maxValue:  maxBinaryValue,
				blockSize: blackAndWhiteThresholdBlock,
				offset:    blackAndWhiteThresholdOffset,
			},
		}, nil
	case FilterFalseColor:
		return []Command{grayscaleCommand{}, colorMapCommand{colorMap: Jet()}}, nil
	case FilterGrayscale:
		return []Command{grayscaleCommand{}, grayToRGBCommand{}}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFilter, f)
	}
}

// Apply runs the filter on img and returns a new image. The input is not modified.
func Apply(img image.Image, filter Filter) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("no image to filter")
	}
	commands, err := filter.commands()
	if err != nil {
		return nil, err
	}
	return NewCommandInvoker(commands).Execute(img)
}
