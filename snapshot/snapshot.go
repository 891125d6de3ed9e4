package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/fatfs"
	"github.com/hupe1980/fatfs/blobstore"
	"golang.org/x/sync/errgroup"
)

// encode checks fs and frames its image.
func encode(fs *fatfs.FS, c Compression) ([]byte, error) {
	if err := fs.Check(); err != nil {
		return nil, err
	}
	return Encode(fs.Image(), c)
}

// Save writes a snapshot of fs to store under name. The image is checked
// before it is written, so a corrupt arena is never saved.
func Save(ctx context.Context, store blobstore.Store, name string, fs *fatfs.FS, optFns ...Option) error {
	o := applyOptions(optFns)

	frame, err := encode(fs, o.compression)
	if err == nil {
		err = put(ctx, store, name, frame, o)
	}
	if err != nil {
		err = fmt.Errorf("snapshot: save %s: %w", name, err)
	}

	o.logger.LogSnapshot(ctx, "save", name, len(frame), err)
	return err
}

// SaveAll writes the same snapshot to every store in parallel. The image is
// encoded once. The first failure cancels the remaining uploads.
func SaveAll(ctx context.Context, stores []blobstore.Store, name string, fs *fatfs.FS, optFns ...Option) error {
	o := applyOptions(optFns)

	frame, err := encode(fs, o.compression)
	if err != nil {
		err = fmt.Errorf("snapshot: save %s: %w", name, err)
		o.logger.LogSnapshot(ctx, "save", name, 0, err)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, store := range stores {
		g.Go(func() error {
			if err := put(gctx, store, name, frame, o); err != nil {
				return fmt.Errorf("snapshot: save %s to store %d: %w", name, i, err)
			}
			return nil
		})
	}

	err = g.Wait()
	o.logger.LogSnapshot(ctx, "save", name, len(frame)*len(stores), err)
	return err
}

func put(ctx context.Context, store blobstore.Store, name string, frame []byte, o options) error {
	r := o.throttle.Reader(ctx, bytes.NewReader(frame))
	return store.Put(ctx, name, r, int64(len(frame)))
}

// Restore reads the snapshot name from store, unpacks it into the front of
// dst and attaches a file store to dst. dst must be at least as large as the
// saved image; any extra space is left unused. The restored image is
// checked before it is returned.
func Restore(ctx context.Context, store blobstore.Store, name string, dst []byte, optFns ...Option) (*fatfs.FS, error) {
	o := applyOptions(optFns)

	fs, n, err := restore(ctx, store, name, dst, o)
	if err != nil {
		err = fmt.Errorf("snapshot: restore %s: %w", name, err)
	}

	o.logger.LogSnapshot(ctx, "restore", name, n, err)
	return fs, err
}

func restore(ctx context.Context, store blobstore.Store, name string, dst []byte, o options) (*fatfs.FS, int, error) {
	frame, err := fetch(ctx, store, name, o)
	if err != nil {
		return nil, 0, err
	}

	n, err := Decode(frame, dst)
	if err != nil {
		return nil, len(frame), err
	}

	fs, err := fatfs.Attach(dst, o.attach...)
	if err != nil {
		return nil, len(frame), err
	}
	if err := fs.Check(); err != nil {
		return nil, len(frame), err
	}
	return fs, n, nil
}

func fetch(ctx context.Context, store blobstore.Store, name string, o options) ([]byte, error) {
	rc, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(o.throttle.Reader(ctx, rc))
}

// Stat returns the header of a stored snapshot without restoring it.
func Stat(ctx context.Context, store blobstore.Store, name string) (Header, error) {
	rc, err := store.Open(ctx, name)
	if err != nil {
		return Header{}, err
	}
	defer rc.Close()

	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(rc, buf); err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return ReadHeader(buf)
}
