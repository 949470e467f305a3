package media

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// Item describes one stored media file. Items are embedded in the project
// that owns them; they are never shared or re-attached.
type Item struct {
	Index    int    `json:"index"`
	FileLink string `json:"file_link"`
	FileType string `json:"file_type"`
}

// Store writes uploaded files to a local directory and hands back Item
// descriptors with publicly resolvable links under /uploads.
type Store struct {
	dir string
	log zerolog.Logger
}

func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{
		dir: dir,
		log: log.With().Str("component", "media-store").Logger(),
	}, nil
}

// Dir returns the directory files are written to, for static serving.
func (s *Store) Dir() string {
	return s.dir
}

var whitespace = regexp.MustCompile(`\s+`)

// SaveAll stores every uploaded file and returns one Item per input,
// preserving input order as the index sequence. On the first write failure
// the whole call fails; files already written are not removed.
func (s *Store) SaveAll(baseURL string, files []*multipart.FileHeader) ([]Item, error) {
	items := make([]Item, 0, len(files))
	for i, fh := range files {
		name := storedName(fh.Filename)
		if err := s.save(fh, name); err != nil {
			return nil, fmt.Errorf("store %q: %w", fh.Filename, err)
		}

		fileType := fh.Header.Get("Content-Type")
		if fileType == "" {
			fileType = s.detectType(name)
		}

		items = append(items, Item{
			Index:    i,
			FileLink: baseURL + "/uploads/" + name,
			FileType: fileType,
		})

		s.log.Debug().Str("file", name).Int("index", i).Msg("stored upload")
	}
	return items, nil
}

func (s *Store) save(fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// detectType sniffs the stored bytes when the client declared no content
// type. The declared type is never second-guessed.
func (s *Store) detectType(name string) string {
	mtype, err := mimetype.DetectFile(filepath.Join(s.dir, name))
	if err != nil {
		return "application/octet-stream"
	}
	return mtype.String()
}

// storedName builds a collision-resistant file name from the upload time,
// a short random tag and the original name with all whitespace removed.
func storedName(original string) string {
	base := whitespace.ReplaceAllString(filepath.Base(original), "")
	if base == "" || base == "." {
		base = "file"
	}
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), randTag(), base)
}

func randTag() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b)
}
