package driven

import "context"

// OCRService extracts text from an image.
//
// Blank output signals "nothing recognised", not failure. Callers treat
// an error the same way they treat blank output: the single image is
// skipped and processing continues.
type OCRService interface {
	// ExtractText runs OCR over the image bytes. The name is a hint for
	// logging; language selects the recognition language (empty for the
	// implementation default).
	ExtractText(ctx context.Context, image []byte, name, language string) (string, error)
}
