package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	storage "github.com/supabase-community/storage-go"
)

const supabaseBucket = "kb_documents"

// SaveUpload writes a multipart upload into dir under a collision-free name
// and returns the local path.
func SaveUpload(fh *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), filepath.Ext(fh.Filename))
	path := filepath.Join(dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// UploadToSupabase mirrors a local file into the Supabase storage bucket and
// returns its public URL. Callers skip this when Supabase is not configured.
func UploadToSupabase(supabaseURL, supabaseKey, path, contentType string) (string, error) {
	client := storage.NewClient(supabaseURL+"/storage/v1", supabaseKey, nil)

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	objectPath := filepath.Base(path)
	upsert := true
	options := storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}

	if _, err := client.UploadFile(supabaseBucket, objectPath, f, options); err != nil {
		return "", err
	}

	publicURL := client.GetPublicUrl(supabaseBucket, objectPath)
	return publicURL.SignedURL, nil
}
