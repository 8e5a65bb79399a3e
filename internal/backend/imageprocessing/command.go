package imageprocessing

import (
	"fmt"
	"image"
)

// Command defines one stage of a filter pipeline
type Command interface {
	Name() string
	Execute(img image.Image) (image.Image, error)
}

// grayscaleCommand converts the input to 8-bit luma
type grayscaleCommand struct{}

func (grayscaleCommand) Name() string { return "GrayscaleCommand" }

func (grayscaleCommand) Execute(img image.Image) (image.Image, error) {
	return Grayscale(img), nil
}

// grayToRGBCommand re-expands a single channel image into three equal channels
type grayToRGBCommand struct{}

func (grayToRGBCommand) Name() string { return "GrayToRGBCommand" }

func (grayToRGBCommand) Execute(img image.Image) (image.Image, error) {
	gray, err := asGray(img)
	if err != nil {
		return nil, err
	}
	return GrayToRGB(gray), nil
}

// adaptiveThresholdCommand binarizes a gray image against its local mean
type adaptiveThresholdCommand struct {
	maxValue  uint8
	blockSize int
	offset    int
}

func (adaptiveThresholdCommand) Name() string { return "AdaptiveThresholdCommand" }

func (c adaptiveThresholdCommand) Execute(img image.Image) (image.Image, error) {
	gray, err := asGray(img)
	if err != nil {
		return nil, err
	}
	return AdaptiveThresholdMean(gray, c.maxValue, c.blockSize, c.offset)
}

// colorMapCommand remaps gray levels through a lookup table
type colorMapCommand struct {
	colorMap *ColorMap
}

func (colorMapCommand) Name() string { return "ColorMapCommand" }

func (c colorMapCommand) Execute(img image.Image) (image.Image, error) {
	gray, err := asGray(img)
	if err != nil {
		return nil, err
	}
	return ApplyColorMap(gray, c.colorMap), nil
}

// cartoonCommand combines an edge mask of the median blurred luma with a
// bilateral smoothed copy of the color image.
type cartoonCommand struct{}

func (cartoonCommand) Name() string { return "CartoonCommand" }

func (cartoonCommand) Execute(img image.Image) (image.Image, error) {
	gray := MedianBlur(Grayscale(img), cartoonMedianKernel)
	edges, err := AdaptiveThresholdMean(gray, maxBinaryValue, cartoonThresholdBlock, cartoonThresholdOffset)
	if err != nil {
		return nil, fmt.Errorf("failed to compute edge mask: %w", err)
	}
	smoothed, err := BilateralFilter(img, cartoonBilateralDiameter, cartoonBilateralSigmaColor, cartoonBilateralSigmaSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to smooth colors: %w", err)
	}
	return MaskAnd(smoothed, edges)
}

func asGray(img image.Image) (*image.Gray, error) {
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, fmt.Errorf("expected single channel input, got %T", img)
	}
	return gray, nil
}
