package services

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

// QRCodeService renders scan QR codes for POIs under the storage path.
// Generation runs in the worker pool; handlers only queue jobs.
type QRCodeService struct {
	storagePath string
	baseURL     string
}

func NewQRCodeService(storagePath, baseURL string) *QRCodeService {
	return &QRCodeService{storagePath: storagePath, baseURL: baseURL}
}

// Generate writes the PNG for a POI's scan token and returns the public
// path the API serves it under.
func (s *QRCodeService) Generate(poiID uuid.UUID, qrToken string) (string, error) {
	dir := filepath.Join(s.storagePath, "qr")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create QR directory: %w", err)
	}

	content := fmt.Sprintf("%s?t=%s", s.baseURL, qrToken)
	filename := filepath.Join(dir, poiID.String()+".png")

	if err := qrcode.WriteFile(content, qrcode.Medium, 512, filename); err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}

	return "/storage/qr/" + poiID.String() + ".png", nil
}
