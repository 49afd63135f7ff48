// Package tesseract provides an OCR adapter that shells out to the
// tesseract binary.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vellum-search/vellum/internal/core/ports/driven"
	"github.com/vellum-search/vellum/internal/logger"
)

var _ driven.OCRService = (*Service)(nil)

// DefaultLanguage covers mixed Chinese and English material.
const DefaultLanguage = "chi_sim+eng"

// Service runs tesseract on image bytes written to a temp file.
type Service struct {
	binary   string
	language string
}

// NewService creates a tesseract-backed OCR service. Binary defaults
// to "tesseract" on PATH; language defaults to DefaultLanguage.
func NewService(binary, language string) *Service {
	if binary == "" {
		binary = "tesseract"
	}
	if language == "" {
		language = DefaultLanguage
	}
	return &Service{binary: binary, language: language}
}

// Available reports whether the tesseract binary can be found.
func (s *Service) Available() bool {
	_, err := exec.LookPath(s.binary)
	return err == nil
}

// ExtractText recognises text in the image. The name is only used to
// pick a sensible temp file extension; language overrides the service
// default when non-empty.
func (s *Service) ExtractText(ctx context.Context, image []byte, name, language string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image %q", name)
	}
	if language == "" {
		language = s.language
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".png"
	}
	tmp, err := os.CreateTemp("", "vellum-ocr-*"+ext)
	if err != nil {
		return "", fmt.Errorf("creating temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing temp image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp image: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.binary, tmp.Name(), "stdout", "-l", language)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running tesseract on %q: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	text := strings.TrimSpace(stdout.String())
	logger.Debug("tesseract recognised %d bytes of text in %s", len(text), name)
	return text, nil
}
