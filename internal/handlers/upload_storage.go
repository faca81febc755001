package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"storefront/internal/config"
)

// safeDeleteUpload removes a stored image given its public "/uploads/..."
// path. Anything resolving outside the upload directory is refused.
func safeDeleteUpload(imagePath string) error {
	trimmed := strings.TrimSpace(imagePath)
	if trimmed == "" {
		return nil
	}

	if !strings.HasPrefix(trimmed, "/uploads/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", imagePath)
	}
	name := strings.TrimPrefix(trimmed, "/uploads/")

	cleanBase := filepath.Clean(config.AppEnv.UploadDir)
	target := filepath.Clean(filepath.Join(cleanBase, filepath.FromSlash(name)))
	if target == cleanBase || !strings.HasPrefix(target, cleanBase+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload dir: %s", imagePath)
	}

	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return nil
}
