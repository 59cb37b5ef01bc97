// Package sqlblob stores blobs as fixed-size chunk rows in a SQL database
// and exposes them as ustream instances. Reads fetch only the chunk rows
// covering the requested window, so a blob is never fully materialized in
// memory.
package sqlblob

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/ustream"
)

// DefaultChunkSize is the chunk row payload size used by Put when its
// chunkSize argument is not positive.
const DefaultChunkSize = 64 * 1024

// Blob is the per-blob metadata row.
type Blob struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:255"`
	Size      int64
	ChunkSize int
}

// BlobChunk is one fixed-size piece of a blob's content. Seq is zero-based;
// every chunk except the last holds exactly ChunkSize bytes.
type BlobChunk struct {
	ID     uint `gorm:"primaryKey"`
	BlobID uint `gorm:"index:idx_blob_seq,unique"`
	Seq    int  `gorm:"index:idx_blob_seq,unique"`
	Data   []byte
}

// Migrate creates the blob tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Blob{}, &BlobChunk{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// Put stores data under name, replacing any previous blob with that name.
// A zero chunkSize uses DefaultChunkSize.
func Put(db *gorm.DB, name string, data []byte, chunkSize int) error {
	if name == "" {
		return ustream.NewError(ustream.CodeIllegalArgument, "name must be non-empty")
	}
	if len(data) == 0 {
		return ustream.NewError(ustream.CodeIllegalArgument, "data must be non-empty")
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var prev Blob
		err := tx.Where("name = ?", name).First(&prev).Error
		switch {
		case err == nil:
			if err := tx.Where("blob_id = ?", prev.ID).Delete(&BlobChunk{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&prev).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		blob := Blob{Name: name, Size: int64(len(data)), ChunkSize: chunkSize}
		if err := tx.Create(&blob).Error; err != nil {
			return err
		}
		for seq, off := 0, 0; off < len(data); seq, off = seq+1, off+chunkSize {
			end := off + chunkSize
			if end > len(data) {
				end = len(data)
			}
			chunk := BlobChunk{BlobID: blob.ID, Seq: seq, Data: data[off:end]}
			if err := tx.Create(&chunk).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// chunkReader adapts the chunk rows to io.ReaderAt.
type chunkReader struct {
	db        *gorm.DB
	blobID    uint
	size      int64
	chunkSize int
}

func (r *chunkReader) ReadAt(p []byte, off int64) (int, error) {
	if off >= r.size {
		return 0, io.EOF
	}
	total := 0
	for total < len(p) && off < r.size {
		seq := int(off / int64(r.chunkSize))
		within := int(off % int64(r.chunkSize))

		var chunk BlobChunk
		err := r.db.Where("blob_id = ? AND seq = ?", r.blobID, seq).First(&chunk).Error
		if err != nil {
			return total, err
		}
		if within >= len(chunk.Data) {
			return total, io.ErrUnexpectedEOF
		}
		n := copy(p[total:], chunk.Data[within:])
		total += n
		off += int64(n)
	}
	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

// Config configures a SQL-backed stream.
type Config struct {
	// DB is the gorm handle. The caller keeps ownership.
	DB *gorm.DB

	// Name identifies the blob to open.
	Name string

	Logger *zap.Logger
}

// Open wraps the named blob as a stream. An unknown name is
// NO_SUCH_ELEMENT.
func Open(cfg Config) (*ustream.Instance, error) {
	if cfg.DB == nil {
		return nil, ustream.NewError(ustream.CodeIllegalArgument, "db must be non-nil")
	}
	if cfg.Name == "" {
		return nil, ustream.NewError(ustream.CodeIllegalArgument, "name must be non-empty")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var blob Blob
	if err := cfg.DB.Where("name = ?", cfg.Name).First(&blob).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ustream.NewError(ustream.CodeNoSuchElement,
				fmt.Sprintf("blob %s not found", cfg.Name))
		}
		return nil, ustream.NewError(ustream.CodeSystem,
			fmt.Sprintf("lookup blob %s", cfg.Name)).WithCause(err)
	}

	logger.Debug("sql blob opened",
		zap.String("component", "sqlblob_provider"),
		zap.String("name", cfg.Name),
		zap.Int64("size", blob.Size))
	return ustream.FromReaderAt(ustream.ReaderAtConfig{
		Reader: &chunkReader{
			db:        cfg.DB,
			blobID:    blob.ID,
			size:      blob.Size,
			chunkSize: blob.ChunkSize,
		},
		Size:   uint64(blob.Size),
		Logger: logger,
	})
}
