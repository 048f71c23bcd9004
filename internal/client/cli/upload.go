package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/healthfair/clinicsync/internal/netx"
)

// upload sends a patient document (consent form, lab report) straight to
// object storage through a presigned URL. Requires connectivity; documents
// are not queued.
func (a *App) upload(ctx context.Context, patientID, path string) {
	if !a.monitor.Current() {
		printlnFn("document upload requires connectivity")
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		printlnFn("failed to read file:", err.Error())
		return
	}

	presigned, err := a.remote.PresignDocument(ctx, patientID, filepath.Base(path))
	if err != nil {
		printlnFn("failed to get upload URL:", err.Error())
		return
	}

	if err := netx.UploadToPresignedURL(ctx, presigned.URL, data); err != nil {
		printlnFn("upload failed:", err.Error())
		return
	}

	printlnFn(fmt.Sprintf("uploaded %s as %s", path, presigned.Key))
}
