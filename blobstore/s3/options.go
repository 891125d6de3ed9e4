package s3

// DefaultPartSize is the multipart part size and the largest snapshot sent
// in a single PutObject.
const DefaultPartSize = 8 << 20

// Option configures a Store.
type Option func(*Store)

// WithPartSize sets the multipart part size. Snapshots of at most n bytes
// are uploaded in one request. Values below the S3 minimum of 5MiB are
// raised to it.
func WithPartSize(n int64) Option {
	return func(s *Store) {
		s.partSize = max(n, 5<<20)
	}
}

// WithConcurrency sets the number of parts uploaded in parallel.
func WithConcurrency(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithChecksum toggles CRC32C validation of uploads. Default: on.
func WithChecksum(enabled bool) Option {
	return func(s *Store) {
		s.checksum = enabled
	}
}

// WithLeavePartsOnError keeps the parts of a failed multipart upload
// instead of aborting it, so they can be inspected or resumed.
func WithLeavePartsOnError() Option {
	return func(s *Store) {
		s.leaveParts = true
	}
}
